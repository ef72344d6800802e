package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/status"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/task"
)

// NewTreeCommand creates the tree command.
func NewTreeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tree",
		Short:         "Show the project outline with status badges",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTree(rootOpts, cmd)
		},
	}

	return cmd
}

func runTree(opts *RootOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st := store.NewDirStore(opts.ProjectDir)
	p, err := st.LoadProject()
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = formatter.Error("NOT_FOUND", "project not found in "+opts.ProjectDir, nil)
			return WrapExitError(ExitCommandError, "project not found", err)
		}
		_ = formatter.Error("FILE_READ_ERROR", err.Error(), nil)
		return WrapExitError(ExitCommandError, "load project", err)
	}

	if opts.Format == "json" {
		return formatter.Success(p)
	}

	fmt.Fprintf(formatter.Writer, "%s (%s)\n", p.Name, p.ID)
	for wi := range p.WorkPackages {
		wp := &p.WorkPackages[wi]
		fmt.Fprintf(formatter.Writer, "├─ %s (%s)\n", wp.Name, wp.ID)
		for ai := range wp.Activities {
			act := &wp.Activities[ai]
			fmt.Fprintf(formatter.Writer, "│  ├─ %s (%s)\n", act.Name, act.ID)
			for _, t := range act.Tasks {
				fmt.Fprintf(formatter.Writer, "│  │  ├─ %s %s\n", badge(&t), t.Name)
			}
		}
	}
	fmt.Fprintf(formatter.Writer, "%d task(s)\n", p.TaskCount())
	return nil
}

// badge renders a task's status as "[bd] Design (dev-101)".
func badge(t *task.Task) string {
	s := status.Parse(t.Status)
	return fmt.Sprintf("%s %s (%s)", s.Code, s.Label, t.ID)
}
