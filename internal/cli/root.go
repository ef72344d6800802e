// Package cli implements the taskdeck command line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ProjectDir string // project root (project.json + tasks/)
	RulesDir   string // workflow rule table directory (CUE files)
	AuditDB    string // optional sqlite audit log path
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the taskdeck CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "taskdeck",
		Short: "taskdeck - rule-driven task workflow engine",
		Long: `A task workflow engine for hierarchical project work.

Task status moves through a declarative rule table; each transition can
require a lifecycle document, and the document folder is reconciled
against the rules on every listing.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			configureLogging(opts.Verbose)
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ProjectDir, "project", "p", ".", "project root directory")
	cmd.PersistentFlags().StringVarP(&opts.RulesDir, "rules", "r", "rules", "workflow rules directory")
	cmd.PersistentFlags().StringVar(&opts.AuditDB, "audit-db", "", "sqlite audit log path (audit disabled when empty)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewTransitionCommand(opts))
	cmd.AddCommand(NewDocsCommand(opts))
	cmd.AddCommand(NewCommandsCommand(opts))
	cmd.AddCommand(NewTreeCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// configureLogging sets the default slog handler. Engine and server
// logs go to stderr so they never corrupt JSON output on stdout.
func configureLogging(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
