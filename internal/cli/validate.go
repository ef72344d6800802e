package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/rules"
)

// RuleError is the wire form of one rule compilation error.
type RuleError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds rule table validation results. Commands maps
// each category to its sorted distinct command names.
type ValidationResult struct {
	Valid      bool                `json:"valid"`
	Categories []string            `json:"categories,omitempty"`
	Rules      int                 `json:"rules,omitempty"`
	Commands   map[string][]string `json:"commands,omitempty"`
	Errors     []RuleError         `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [rules-dir]",
		Short: "Validate the workflow rule table",
		Long: `Validate the CUE workflow rules without touching any project.

Compiles the rule table, reporting every error found: unknown
categories, empty commands, malformed status codes, and duplicate
(category, status, command) triples.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := rootOpts.RulesDir
			if len(args) == 1 {
				dir = args[0]
			}
			return runValidate(rootOpts, dir, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, rulesDir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	table, errs := rules.CompileDir(rulesDir)
	if len(errs) > 0 {
		return outputRuleErrors(formatter, toRuleErrors(errs))
	}

	formatter.VerboseLog("Compiled %d rule(s) from %s", table.Len(), rulesDir)

	categories := table.Categories()
	commands := make(map[string][]string, len(categories))
	for _, c := range categories {
		commands[c] = table.Commands(c)
	}

	if opts.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid:      true,
			Categories: categories,
			Rules:      table.Len(),
			Commands:   commands,
		})
	}

	fmt.Fprintf(formatter.Writer, "✓ Rules valid: %d rule(s) across %d categorie(s)\n",
		table.Len(), len(categories))
	for _, c := range categories {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", c, strings.Join(commands[c], ", "))
	}
	return nil
}

// toRuleErrors converts loader errors into the wire form, keeping the
// error code and source line when available.
func toRuleErrors(errs []error) []RuleError {
	out := make([]RuleError, 0, len(errs))
	for _, err := range errs {
		var loadErr *rules.LoadError
		if errors.As(err, &loadErr) {
			re := RuleError{Code: loadErr.Code, Message: loadErr.Message}
			if loadErr.Pos.IsValid() {
				re.Line = loadErr.Pos.Line()
			}
			out = append(out, re)
			continue
		}
		out = append(out, RuleError{Code: rules.ErrCodeGeneric, Message: err.Error()})
	}
	return out
}

func outputRuleErrors(formatter *OutputFormatter, errs []RuleError) error {
	if formatter.Format == "json" {
		_ = formatter.Error(errs[0].Code, errs[0].Message, ValidationResult{Valid: false, Errors: errs})
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range errs {
		if e.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", e.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
