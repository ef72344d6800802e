package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/engine"
)

// CommandsResult holds the available commands for JSON output.
type CommandsResult struct {
	TaskID   string   `json:"task_id"`
	Status   string   `json:"status"`
	Commands []string `json:"commands"`
	Terminal bool     `json:"terminal"`
}

// NewCommandsCommand creates the commands command.
func NewCommandsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "commands <task-id>",
		Short:         "List the commands legal for a task right now",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommands(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runCommands(opts *RootOptions, taskID string, cmd *cobra.Command) error {
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

	commands := ws.engine.AvailableCommands(t)
	terminal := ws.engine.IsTerminal(t)

	if opts.Format == "json" {
		return formatter.Success(CommandsResult{
			TaskID:   t.ID,
			Status:   t.Status,
			Commands: commands,
			Terminal: terminal,
		})
	}

	fmt.Fprintf(formatter.Writer, "%s at %s\n", t.ID, t.Status)
	if terminal {
		fmt.Fprintln(formatter.Writer, "  (terminal, no commands)")
		return nil
	}
	for _, c := range commands {
		fmt.Fprintf(formatter.Writer, "  %s\n", c)
	}
	return nil
}
