package harness

import (
	"context"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/docs"
	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/rules"
	"github.com/taskdeck/taskdeck/internal/task"
	"github.com/taskdeck/taskdeck/internal/testutil"
)

// TraceEntry records the observed outcome of one scenario step.
type TraceEntry struct {
	Step    int    `json:"step"`
	Command string `json:"command"`
	Outcome string `json:"outcome"` // "ok" or a workflow error code
	Status  string `json:"status"`  // task status after the step
}

// RunResult is the full outcome of a scenario run.
type RunResult struct {
	Scenario    string          `json:"scenario"`
	FinalStatus string          `json:"final_status"`
	Trace       []TraceEntry    `json:"trace"`
	Documents   []docs.Document `json:"documents,omitempty"`
}

// Run executes a scenario against a real engine with a fake side-effect
// executor and returns the observed trace. A step whose outcome does
// not match its expectation fails the run with a descriptive error; the
// trace collected so far is still returned for diagnostics.
func Run(ctx context.Context, sc *Scenario) (*RunResult, error) {
	table, err := sc.table()
	if err != nil {
		return nil, fmt.Errorf("build rule table: %w", err)
	}

	cat, err := task.ParseCategory(sc.Task.Category)
	if err != nil {
		return nil, fmt.Errorf("scenario task: %w", err)
	}
	t := &task.Task{
		ID:       sc.Task.ID,
		Category: cat,
		Status:   sc.Task.Status,
	}

	exec := &testutil.FakeExecutor{}
	eng := engine.New(rules.NewProvider(table), exec, nil,
		engine.WithIDGenerator(&testutil.SeqIDGenerator{}))

	result := &RunResult{Scenario: sc.Name}

	for i, step := range sc.Steps {
		entry := TraceEntry{Step: i + 1, Command: step.Command}

		_, err := eng.AttemptTransition(ctx, t, step.Command)
		if err != nil {
			code := engine.CodeOf(err)
			if code == "" {
				return result, fmt.Errorf("steps[%d] %q: unexpected error: %w", i, step.Command, err)
			}
			entry.Outcome = string(code)
		} else {
			entry.Outcome = "ok"
		}
		entry.Status = t.Status
		result.Trace = append(result.Trace, entry)

		if err := checkStep(i, step, entry); err != nil {
			return result, err
		}
	}

	result.FinalStatus = t.Status

	if sc.Documents != nil {
		result.Documents = docs.Reconcile(sc.Documents.Existing, string(t.Category), t.Status, table)
		if err := checkDocuments(sc.Documents, result.Documents); err != nil {
			return result, err
		}
	}

	return result, nil
}

func checkStep(i int, step Step, entry TraceEntry) error {
	want := step.Expect
	if want == nil || (want.Status == "" && want.Error == "") {
		if entry.Outcome != "ok" {
			return fmt.Errorf("steps[%d] %q: expected success, got %s", i, step.Command, entry.Outcome)
		}
		return nil
	}
	if want.Error != "" {
		if entry.Outcome != want.Error {
			return fmt.Errorf("steps[%d] %q: expected error %s, got %s", i, step.Command, want.Error, entry.Outcome)
		}
		return nil
	}
	if entry.Outcome != "ok" {
		return fmt.Errorf("steps[%d] %q: expected status %s, got error %s", i, step.Command, want.Status, entry.Outcome)
	}
	if entry.Status != want.Status {
		return fmt.Errorf("steps[%d] %q: expected status %s, got %s", i, step.Command, want.Status, entry.Status)
	}
	return nil
}

func checkDocuments(check *DocCheck, got []docs.Document) error {
	if len(got) != len(check.Expect) {
		return fmt.Errorf("documents: expected %d entries, got %d", len(check.Expect), len(got))
	}
	for i, want := range check.Expect {
		if got[i].Name != want.Name || string(got[i].Stage) != want.Stage {
			return fmt.Errorf("documents[%d]: expected %s/%s, got %s/%s",
				i, want.Name, want.Stage, got[i].Name, got[i].Stage)
		}
	}
	return nil
}
