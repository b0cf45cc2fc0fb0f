package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/archq/internal/constraint"
)

// LintResult is the JSON form of a lint run.
type LintResult struct {
	Clean    bool     `json:"clean"`
	Warnings []string `json:"warnings"`
}

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <query-file>",
		Short: "Report hazards in a query document",
		Long: `Check a query document for hazards the compiler leaves to the caller:
tests on left-outer-joined aliases without an is-null alternative, roots
without a link constraint, and empty boolean groups.

No descriptors are needed. Exits 1 when hazards are found.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runLint(opts *RootOptions, queryFile string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	q, err := readQuery(cmd, queryFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	result := constraint.Lint(q)
	formatter.VerboseLog("Linted %d root(s), %d constraint(s)", len(q.Roots), len(q.Constraints))

	if result.Clean {
		if formatter.Format == "json" {
			return formatter.Success(LintResult{Clean: true, Warnings: []string{}})
		}
		fmt.Fprintln(formatter.Writer, "✓ No hazards found")
		return nil
	}

	return outputLintWarnings(formatter, result.Warnings)
}

// outputLintWarnings outputs the hazards and returns an ExitFailure error.
func outputLintWarnings(formatter *OutputFormatter, warnings []string) error {
	message := fmt.Sprintf("%d hazard(s) found", len(warnings))

	if formatter.Format == "json" {
		if err := formatter.encode(CLIResponse{
			Status: "error",
			Data:   LintResult{Clean: false, Warnings: warnings},
			Error:  &CLIError{Code: ErrCodeLintHazards, Message: message},
		}); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	fmt.Fprintln(formatter.Writer, "✗ Lint failed")
	fmt.Fprintln(formatter.Writer)
	for _, w := range warnings {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeLintHazards, w)
	}
	return NewExitError(ExitFailure, message)
}
