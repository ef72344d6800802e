package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/taskdeck/taskdeck/internal/engine"
)

// Call records one Execute invocation observed by a fake executor.
type Call struct {
	TaskID   string
	Command  string
	ToStatus string
}

// FakeExecutor is a scriptable side-effect executor.
//
// By default it succeeds and reports the computed target status, which
// matches the StatusExecutor contract. Tests set Err to simulate a
// failed side effect, or ReportStatus to simulate an executor whose
// persisted status diverges from the rule table's target.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FakeExecutor struct {
	mu    sync.Mutex
	calls []Call

	// Err, when set, fails every Execute call.
	Err error

	// ReportStatus, when non-empty, is reported instead of toStatus.
	ReportStatus string

	// Message is returned as the execution message.
	Message string
}

// Execute implements engine.Executor.
func (f *FakeExecutor) Execute(ctx context.Context, taskID, command, toStatus string) (engine.ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return engine.ExecResult{}, err
	}

	f.mu.Lock()
	f.calls = append(f.calls, Call{TaskID: taskID, Command: command, ToStatus: toStatus})
	f.mu.Unlock()

	if f.Err != nil {
		return engine.ExecResult{}, f.Err
	}
	status := toStatus
	if f.ReportStatus != "" {
		status = f.ReportStatus
	}
	return engine.ExecResult{NewStatus: status, Message: f.Message}, nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// CallCount returns the number of Execute invocations.
func (f *FakeExecutor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// ErrExecutorFailed is a ready-made failure for FakeExecutor.Err.
var ErrExecutorFailed = errors.New("executor failed")
