package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/engine"
)

// NewTransitionCommand creates the transition command.
func NewTransitionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transition <task-id> <command>",
		Short: "Run a workflow command against a task",
		Long: `Run a workflow command against a task.

The command is validated against the rule table for the task's category
and current status. On success the side effect runs, the new status is
persisted, and the transition is appended to the audit log when
--audit-db is set.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTransition(rootOpts, args[0], args[1], cmd)
		},
	}

	return cmd
}

func runTransition(opts *RootOptions, taskID, command string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ws, err := openWorkspace(opts)
	if err != nil {
		_ = formatter.Error(string(engine.ErrCodeFileReadError), err.Error(), nil)
		return err
	}
	defer ws.Close()

	_, t, err := ws.loadTask(taskID)
	if err != nil {
		_ = formatter.Error(string(engine.ErrCodeNotFound), err.Error(), nil)
		return err
	}

	formatter.VerboseLog("Task %s (%s) at %s", t.ID, t.Category, t.Status)

	result, err := ws.engine.AttemptTransition(cmd.Context(), t, command)
	if err != nil {
		code := engine.CodeOf(err)
		_ = formatter.Error(string(code), err.Error(), nil)
		// Rejected and failed transitions are workflow failures, not
		// command errors.
		return WrapExitError(ExitFailure, "transition failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %s: %s → %s (%s)\n",
		result.TaskID, result.PreviousStatus, result.NewStatus, result.Command)
	return nil
}
