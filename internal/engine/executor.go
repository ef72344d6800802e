package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/taskdeck/taskdeck/internal/store"
)

// ExecResult is what a side-effect executor reports back.
//
// NewStatus is the status the executor actually persisted. The engine
// treats it as authoritative: the side effect owns the status store,
// so its report wins even if it diverges from the rule table's target.
type ExecResult struct {
	NewStatus string
	Message   string
}

// Executor performs the external action a transition command stands
// for and persists the resulting status.
//
// Execution may block arbitrarily long; implementations must honor ctx
// cancellation. A failed execution returns an error and must leave the
// task's recorded status untouched.
type Executor interface {
	Execute(ctx context.Context, taskID, command, toStatus string) (ExecResult, error)
}

// StatusExecutor is the default executor: the only side effect of a
// transition is persisting the computed status through the file store.
type StatusExecutor struct {
	Store *store.DirStore
}

// Execute writes toStatus for the task and reports it back.
func (e *StatusExecutor) Execute(ctx context.Context, taskID, command, toStatus string) (ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return ExecResult{}, fmt.Errorf("execute %s on %s: %w", command, taskID, err)
	}
	if err := e.Store.UpdateTaskStatus(taskID, toStatus); err != nil {
		return ExecResult{}, fmt.Errorf("persist status for %s: %w", taskID, err)
	}
	return ExecResult{NewStatus: toStatus, Message: "status updated"}, nil
}

// HookExecutor runs an external hook program for each transition and
// then persists the status. The hook receives the task id, command and
// target status as arguments; a non-zero exit fails the transition and
// the status is not written.
//
// Stdout of the hook becomes the result message. If the last stdout
// line has the form "status=[xx]" the hook overrides the persisted
// status; this is how executors report a status diverging from the
// rule table's target.
type HookExecutor struct {
	Store   *store.DirStore
	Program string
	Args    []string
}

// Execute runs the hook under ctx and persists the resulting status.
func (e *HookExecutor) Execute(ctx context.Context, taskID, command, toStatus string) (ExecResult, error) {
	args := append(append([]string{}, e.Args...), taskID, command, toStatus)
	cmd := exec.CommandContext(ctx, e.Program, args...)

	out, err := cmd.CombinedOutput()
	detail := strings.TrimSpace(string(out))
	if err != nil {
		return ExecResult{}, fmt.Errorf("hook %s failed: %s: %w", e.Program, detail, err)
	}

	newStatus := toStatus
	if override, ok := statusOverride(detail); ok {
		slog.Warn("hook overrode target status",
			"task_id", taskID,
			"command", command,
			"computed", toStatus,
			"reported", override,
		)
		newStatus = override
	}

	if err := e.Store.UpdateTaskStatus(taskID, newStatus); err != nil {
		return ExecResult{}, fmt.Errorf("persist status for %s: %w", taskID, err)
	}
	return ExecResult{NewStatus: newStatus, Message: detail}, nil
}

// statusOverride extracts a "status=..." directive from the last line
// of hook output.
func statusOverride(out string) (string, bool) {
	lines := strings.Split(out, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if v, ok := strings.CutPrefix(last, "status="); ok && v != "" {
		return v, true
	}
	return "", false
}
