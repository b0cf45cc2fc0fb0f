package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/roach88/archq/internal/descriptor"
	"github.com/roach88/archq/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Source RegistrySource // registry for scenarios that list no descriptors
	Update bool           // regenerate golden files
	Filter string         // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run query conformance scenarios",
		Long: `Run compile conformance scenarios.

Each scenario compiles one query against its descriptors and checks the
expected text or error code, its assertions, and golden/<name>.golden
next to the scenario file when one exists.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  archq test ./scenarios
  archq test ./scenarios --filter "customer*"
  archq test ./scenarios --update
  archq test ./scenarios --registry ./archetypes --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	opts.Source.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger(formatter.GetErrWriter())

	if _, err := os.Stat(scenariosDir); os.IsNotExist(err) {
		return formatter.Fail(ExitCommandError, &codedError{
			code: ErrCodeNotFound,
			err:  fmt.Errorf("scenarios directory not found: %s", scenariosDir),
		})
	}

	var hopts []harness.Option
	hopts = append(hopts, harness.WithLogger(logger))
	if opts.Source.Path != "" || opts.Source.DB != "" {
		reg, err := opts.Source.Load(cmd.Context(), logger)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		hopts = append(hopts, harness.WithRegistry(reg))
	}
	h := harness.New(hopts...)

	scenarioFiles, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, TestResult{Scenarios: []ScenarioResult{}})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenResult := runScenario(h, scenarioFile, opts)
		if opts.Format != "json" {
			printScenarioResult(formatter, scenResult)
		}
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// findScenarioFiles finds all YAML scenario files under dir whose base name
// matches filter.
func findScenarioFiles(dir, filter string) ([]string, error) {
	files, err := descriptor.FindFiles(dir, "**/*.{yaml,yml}")
	if err != nil {
		return nil, &codedError{code: descriptor.ErrCodeScanError, err: fmt.Errorf("error scanning directory: %w", err)}
	}
	if filter == "" {
		return files, nil
	}

	var matched []string
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		ok, err := doublestar.Match(filter, name)
		if err != nil {
			return nil, &codedError{code: ErrCodeGeneric, err: fmt.Errorf("invalid filter pattern: %w", err)}
		}
		if ok {
			matched = append(matched, path)
		}
	}
	return matched, nil
}

// runScenario executes a single scenario and returns the result.
func runScenario(h *harness.Harness, scenarioFile string, opts *TestOptions) ScenarioResult {
	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return ScenarioResult{
			Name:   filepath.Base(scenarioFile),
			Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)},
		}
	}

	result, err := h.Run(scenario)
	if err != nil {
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	goldenPath := goldenFilePath(scenarioFile)
	snapshot := harness.Snapshot(result)

	if opts.Update {
		if err := updateGoldenFile(goldenPath, snapshot); err != nil {
			return ScenarioResult{
				Name:   scenario.Name,
				Errors: []string{fmt.Sprintf("failed to update golden file: %v", err)},
			}
		}
		return ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case os.IsNotExist(err):
		// No golden file: the expectation and assertions decide.
	case err != nil:
		return ScenarioResult{
			Name:   scenario.Name,
			Errors: []string{fmt.Sprintf("golden comparison failed: %v", err)},
		}
	case !bytes.Equal(golden, snapshot):
		result.AddError("compiled query does not match golden file (run with --update to regenerate)")
	}

	return ScenarioResult{Name: scenario.Name, Pass: result.Pass, Errors: result.Errors}
}

func printScenarioResult(formatter *OutputFormatter, r ScenarioResult) {
	if r.Pass {
		fmt.Fprintf(formatter.Writer, "✓ %s\n", r.Name)
		return
	}
	fmt.Fprintf(formatter.Writer, "✗ %s\n", r.Name)
	for _, e := range r.Errors {
		fmt.Fprintf(formatter.Writer, "  %s\n", e)
	}
}

// goldenFilePath returns the path to the golden file for a scenario.
func goldenFilePath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

func updateGoldenFile(goldenPath string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, snapshot, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}

	var message string
	if result.Failed > 0 {
		message = fmt.Sprintf("%d scenario(s) failed", result.Failed)
		response.Status = "error"
		response.Error = &CLIError{Code: ErrCodeTestFailed, Message: message}
	}

	if err := formatter.encode(response); err != nil {
		return err
	}
	if result.Failed > 0 {
		return NewExitError(ExitFailure, message)
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
