package cli

import (
	"errors"
	"fmt"

	"github.com/taskdeck/taskdeck/internal/engine"
	"github.com/taskdeck/taskdeck/internal/history"
	"github.com/taskdeck/taskdeck/internal/rules"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/task"
)

// workspace bundles the collaborators a command needs: the flat-file
// store, the compiled rule table, the engine, and the optional audit
// log.
type workspace struct {
	store    *store.DirStore
	provider *rules.Provider
	engine   *engine.Engine
	audit    *history.Log
}

// openWorkspace compiles the rule table and wires the engine over the
// project store. Rule compilation failures and an unopenable audit
// database are command errors (exit code 2).
func openWorkspace(opts *RootOptions) (*workspace, error) {
	st := store.NewDirStore(opts.ProjectDir)

	table, errs := rules.CompileDir(opts.RulesDir)
	if len(errs) > 0 {
		return nil, WrapExitError(ExitCommandError,
			fmt.Sprintf("rules at %s are invalid", opts.RulesDir), errs[0])
	}
	provider := rules.NewProvider(table)

	var audit *history.Log
	if opts.AuditDB != "" {
		var err error
		audit, err = history.Open(opts.AuditDB)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "open audit log", err)
		}
	}

	ws := &workspace{
		store:    st,
		provider: provider,
		engine:   engine.New(provider, &engine.StatusExecutor{Store: st}, audit),
		audit:    audit,
	}
	return ws, nil
}

// Close releases the audit log handle, if any.
func (w *workspace) Close() error {
	if w.audit != nil {
		return w.audit.Close()
	}
	return nil
}

// loadTask loads the project tree and resolves a task id. A missing
// project file or unknown task is a command error.
func (w *workspace) loadTask(id string) (*task.Project, *task.Task, error) {
	p, err := w.store.LoadProject()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, WrapExitError(ExitCommandError, "project not found", err)
		}
		return nil, nil, WrapExitError(ExitCommandError, "load project", err)
	}
	t := p.FindTask(id)
	if t == nil {
		return nil, nil, NewExitError(ExitCommandError, fmt.Sprintf("task not found: %s", id))
	}
	return p, t, nil
}
