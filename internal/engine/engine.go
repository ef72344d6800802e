// Package engine validates and executes task status transitions.
//
// The engine is the only writer of task status. Given a task and a
// requested command it consults the workflow rule table, invokes the
// side-effect executor on a legal transition, and appends the outcome
// to the audit log. Illegal commands are normal, typed outcomes rather
// than faults.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/history"
	"github.com/taskdeck/taskdeck/internal/rules"
	"github.com/taskdeck/taskdeck/internal/status"
	"github.com/taskdeck/taskdeck/internal/task"
)

// IDGenerator generates unique transition record IDs.
// Implemented by UUIDv7Generator (production) and fixed generators in
// tests.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 transition IDs.
//
// UUIDv7 embeds a timestamp in the most significant bits, so audit
// records sort by creation time even across engine restarts.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Result is the outcome of a successful transition.
type Result struct {
	Success        bool   `json:"success"`
	TransitionID   string `json:"transition_id"`
	TaskID         string `json:"task_id"`
	Command        string `json:"command"`
	PreviousStatus string `json:"previous_status"`
	NewStatus      string `json:"new_status"`
	Message        string `json:"message,omitempty"`
}

// Engine drives task status transitions against the rule table.
//
// Each AttemptTransition call is a synchronous, request-scoped
// computation over a snapshot of its inputs. The rule table is read
// through a Provider so an atomic reload never exposes a partial
// table. Concurrent transitions on the same task serialize on a
// per-task mutex; transitions on different tasks proceed in parallel.
type Engine struct {
	provider *rules.Provider
	exec     Executor
	log      *history.Log
	clock    *Clock
	idGen    IDGenerator

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-task serialization
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the transition ID generator (for tests).
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.idGen = g
	}
}

// WithClock overrides the logical clock, typically to resume above an
// existing audit log.
func WithClock(c *Clock) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// New creates an Engine. The audit log may be nil, in which case
// transitions are not recorded.
func New(provider *rules.Provider, exec Executor, log *history.Log, opts ...Option) *Engine {
	e := &Engine{
		provider: provider,
		exec:     exec,
		log:      log,
		clock:    NewClock(),
		idGen:    UUIDv7Generator{},
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AttemptTransition validates and executes a command against a task.
//
// Outcomes:
//   - empty command: INVALID_COMMAND
//   - no rule for (category, status, command): INVALID_TRANSITION
//   - executor failure: SIDE_EFFECT_FAILED, recorded status unchanged
//   - success: the executor's reported status is authoritative and the
//     task value is updated in place
//
// The engine is not re-entrant across a completed transition: once the
// task has moved off the rule's from-status, repeating the same
// command fails with INVALID_TRANSITION.
func (e *Engine) AttemptTransition(ctx context.Context, t *task.Task, command string) (Result, error) {
	if t == nil {
		return Result{}, NewNotFoundError("")
	}

	// Serialize concurrent attempts on the same task. The rule check
	// and the side effect must observe a stable status.
	lock := e.taskLock(t.ID)
	lock.Lock()
	defer lock.Unlock()

	if command == "" {
		return Result{}, NewInvalidCommandError(t.ID)
	}

	// Project files store status as "slug [bd]" or a bare "[bd]"; the
	// rule table speaks bare codes only, so lookups go through the
	// canonical code.
	current := status.Code(t.Status)

	table := e.provider.Load()
	rule, ok := table.Find(string(t.Category), current, command)
	if !ok {
		slog.Debug("transition rejected",
			"task_id", t.ID,
			"category", t.Category,
			"status", current,
			"command", command,
		)
		return Result{}, NewInvalidTransitionError(t.ID, command, string(t.Category), current)
	}

	execResult, err := e.exec.Execute(ctx, t.ID, command, rule.To)
	if err != nil {
		slog.Error("side effect failed",
			"task_id", t.ID,
			"command", command,
			"error", err,
		)
		return Result{}, NewSideEffectError(t.ID, command, err.Error())
	}

	// The executor owns the status store; its report is authoritative.
	// Divergence from the rule's target indicates rule-table/executor
	// drift and is logged and flagged in the audit record.
	newStatus := execResult.NewStatus
	if newStatus == "" {
		newStatus = rule.To
	}
	diverged := newStatus != rule.To
	if diverged {
		slog.Warn("executor reported status diverging from rule target",
			"task_id", t.ID,
			"command", command,
			"computed", rule.To,
			"reported", newStatus,
		)
	}

	previous := current
	t.Status = newStatus

	result := Result{
		Success:        true,
		TransitionID:   e.idGen.Generate(),
		TaskID:         t.ID,
		Command:        command,
		PreviousStatus: previous,
		NewStatus:      newStatus,
		Message:        execResult.Message,
	}

	if e.log != nil {
		rec := history.Record{
			ID:             result.TransitionID,
			TaskID:         t.ID,
			Category:       string(t.Category),
			Command:        command,
			FromStatus:     previous,
			ToStatus:       rule.To,
			ReportedStatus: newStatus,
			Diverged:       diverged,
			Seq:            e.clock.Next(),
		}
		if err := e.log.Append(ctx, rec); err != nil {
			// The transition itself succeeded; a failed audit write is
			// logged, not surfaced as a transition failure.
			slog.Error("audit append failed",
				"transition_id", result.TransitionID,
				"task_id", t.ID,
				"error", err,
			)
		}
	}

	slog.Info("transition executed",
		"task_id", t.ID,
		"command", command,
		"from", previous,
		"to", newStatus,
	)

	return result, nil
}

// AvailableCommands returns the commands legal for the task at its
// current status, in rule declaration order. An empty result means the
// task is at a terminal-looking status.
func (e *Engine) AvailableCommands(t *task.Task) []string {
	rs := e.provider.Load().RulesFor(string(t.Category), status.Code(t.Status))
	cmds := make([]string, 0, len(rs))
	for _, r := range rs {
		cmds = append(cmds, r.Command)
	}
	return cmds
}

// IsTerminal reports whether the task's current status has no outgoing
// rules for its category.
func (e *Engine) IsTerminal(t *task.Task) bool {
	return e.provider.Load().IsTerminal(string(t.Category), status.Code(t.Status))
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *Clock {
	return e.clock
}

// taskLock returns the mutex serializing transitions for a task id.
func (e *Engine) taskLock(id string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l, ok := e.locks[id]; ok {
		return l
	}
	l := &sync.Mutex{}
	e.locks[id] = l
	return l
}

// ReleaseTask drops the per-task lock entry for a completed task to
// keep the lock map from growing unbounded. Safe to call at any time;
// a subsequent transition simply recreates the entry.
func (e *Engine) ReleaseTask(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.locks, id)
}

// LockCount returns the number of per-task lock entries.
// Used for testing to verify cleanup.
func (e *Engine) LockCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.locks)
}
