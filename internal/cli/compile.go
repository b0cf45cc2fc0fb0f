package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/archq/internal/compile"
	"github.com/roach88/archq/internal/constraint"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Source RegistrySource
	Output string // output file path
}

// CompileResult is the JSON form of a compiled query.
type CompileResult struct {
	*compile.CompiledQuery
	Fingerprint string   `json:"fingerprint"`
	Warnings    []string `json:"warnings,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a query document to object-query text",
		Long: `Compile a YAML or JSON query document against archetype descriptors.

Outputs the query text, its ordered named parameters, the declared aliases
and a fingerprint of the text. Use "-" to read the query from stdin.

Example:
  archq compile --registry ./archetypes query.yaml
  archq compile --db ./archetypes.db --format json query.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the JSON result to a file")

	return cmd
}

func runCompile(opts *CompileOptions, queryFile string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	formatter.TraceID = NewTraceID()
	logger := opts.logger(formatter.GetErrWriter()).With("trace_id", formatter.TraceID)

	reg, err := opts.Source.Load(cmd.Context(), logger)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	q, err := readQuery(cmd, queryFile)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	lint := constraint.Lint(q)
	for _, w := range lint.Warnings {
		logger.Warn("query hazard", "warning", w)
	}

	compiled, err := compile.Compile(q, reg)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	fingerprint, err := compiled.Fingerprint()
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	logger.Debug("query compiled",
		"aliases", len(compiled.Aliases),
		"parameters", len(compiled.Parameters),
		"fingerprint", fingerprint)

	result := &CompileResult{
		CompiledQuery: compiled,
		Fingerprint:   fingerprint,
		Warnings:      lint.Warnings,
	}

	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			return formatter.Fail(ExitCommandError, &codedError{code: ErrCodeWriteFailed, err: err})
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// outputCompileSuccess outputs a compiled query.
func outputCompileSuccess(formatter *OutputFormatter, result *CompileResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, result.Text)
	fmt.Fprintln(w)

	if len(result.Parameters) > 0 {
		fmt.Fprintln(w, "Parameters:")
		for _, p := range result.Parameters {
			if p.Deferred() {
				fmt.Fprintf(w, "  :%s <- %s\n", p.Name, p.Key)
				continue
			}
			fmt.Fprintf(w, "  :%s = %#v\n", p.Name, p.Value)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Aliases: %s\n", strings.Join(result.Aliases, ", "))
	if result.Pagination != nil {
		fmt.Fprintf(w, "Pagination: offset %d, limit %d\n", result.Pagination.Offset, result.Pagination.Limit)
	}
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ %s\n", warning)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled query to %s\n", outputFile)
	}
	return nil
}

// writeResultToFile writes the compile result as indented JSON.
func writeResultToFile(result *CompileResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
