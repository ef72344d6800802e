package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/docs"
	"github.com/taskdeck/taskdeck/internal/engine"
)

// DocsResult holds the reconciled document listing for JSON output.
type DocsResult struct {
	TaskID    string          `json:"task_id"`
	Status    string          `json:"status"`
	Documents []docs.Document `json:"documents"`
}

// NewDocsCommand creates the docs command.
func NewDocsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs <task-id>",
		Short: "List lifecycle documents for a task",
		Long: `List the lifecycle documents for a task.

Merges the files present in the task's document folder with the
documents the rule table expects at the current status. Documents the
task already has come first, then the expected ones, each ordered by
ordinal prefix.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocs(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runDocs(opts *RootOptions, taskID string, cmd *cobra.Command) error {
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

	existing, err := ws.store.ListFiles(ws.store.TaskDir(t.ID))
	if err != nil {
		_ = formatter.Error(string(engine.ErrCodeFileReadError), err.Error(), nil)
		return WrapExitError(ExitCommandError, "list documents", err)
	}

	list := docs.Reconcile(existing, string(t.Category), t.Status, ws.provider.Load())
	if list == nil {
		list = []docs.Document{}
	}

	if opts.Format == "json" {
		return formatter.Success(DocsResult{TaskID: t.ID, Status: t.Status, Documents: list})
	}

	fmt.Fprintf(formatter.Writer, "%s at %s\n", t.ID, t.Status)
	for _, d := range list {
		marker := " "
		if d.Exists {
			marker = "✓"
		}
		if d.Stage == docs.StageExpected {
			fmt.Fprintf(formatter.Writer, "  %s %-32s %-8s expected by %s\n", marker, d.Name, d.Type, d.Command)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s %-32s %-8s\n", marker, d.Name, d.Type)
	}
	if len(list) == 0 {
		fmt.Fprintln(formatter.Writer, "  (no documents)")
	}
	return nil
}
