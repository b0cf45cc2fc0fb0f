package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/archq/internal/archetype"
	"github.com/roach88/archq/internal/compile"
	"github.com/roach88/archq/internal/constraint"
	"github.com/roach88/archq/internal/descriptor"
)

// Harness runs scenarios.
type Harness struct {
	registry *archetype.Registry
	logger   *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithRegistry sets the registry used by scenarios that list no descriptors.
func WithRegistry(reg *archetype.Registry) Option {
	return func(h *Harness) {
		h.registry = reg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes a scenario with a default Harness.
func Run(scenario *Scenario) (*Result, error) {
	return New().Run(scenario)
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Build the registry from the scenario's descriptors
// 2. Decode and lint the query
// 3. Compile and check the expectation
// 4. Evaluate assertions
//
// The error return is for scenarios that cannot run (missing descriptors,
// undecodable query). Compile failures are results.
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	reg, err := h.registryFor(scenario)
	if err != nil {
		return nil, err
	}

	doc, err := scenario.queryDocument()
	if err != nil {
		return nil, err
	}
	q, err := constraint.DecodeQuery(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode query: %w", err)
	}

	result := NewResult()
	result.Warnings = append(result.Warnings, constraint.Lint(q).Warnings...)

	compiled, err := compile.Compile(q, reg)
	if err != nil {
		code, ok := errorCode(err)
		if !ok {
			return nil, fmt.Errorf("compile: %w", err)
		}
		result.ErrorCode = code
		h.logger.Debug("scenario compile failed", "scenario", scenario.Name, "code", code)
		checkExpectedError(scenario.Expect, err, result)
		return result, nil
	}

	result.Compiled = compiled
	if result.Fingerprint, err = compiled.Fingerprint(); err != nil {
		return nil, fmt.Errorf("fingerprint: %w", err)
	}
	h.logger.Debug("scenario compiled", "scenario", scenario.Name, "fingerprint", result.Fingerprint)

	checkExpectedText(scenario.Expect, compiled, result)
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func (h *Harness) registryFor(scenario *Scenario) (*archetype.Registry, error) {
	if len(scenario.Descriptors) == 0 {
		if h.registry == nil {
			return nil, fmt.Errorf("scenario %q lists no descriptors and no registry is configured", scenario.Name)
		}
		return h.registry, nil
	}

	var schemas []archetype.TypeSchema
	for _, path := range scenario.Descriptors {
		s, err := descriptor.LoadSchemas(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load descriptors: %w", err)
		}
		schemas = append(schemas, s...)
	}
	reg, err := archetype.NewRegistry(schemas...)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}
	return reg, nil
}

// errorCode names a compile failure: the compile error code or the lookup
// error kind.
func errorCode(err error) (string, bool) {
	var ce *compile.Error
	if errors.As(err, &ce) {
		return string(ce.Code), true
	}
	var le *archetype.LookupError
	if errors.As(err, &le) {
		return string(le.Kind), true
	}
	return "", false
}

func checkExpectedError(expect *Expectation, err error, result *Result) {
	switch {
	case expect == nil || expect.Error == "":
		result.AddError(fmt.Sprintf("compile failed: %v", err))
	case expect.Error != result.ErrorCode:
		result.AddError(fmt.Sprintf("expected error %s, got %v", expect.Error, err))
	}
}

func checkExpectedText(expect *Expectation, compiled *compile.CompiledQuery, result *Result) {
	switch {
	case expect == nil:
	case expect.Error != "":
		result.AddError(fmt.Sprintf("expected error %s, compiled successfully", expect.Error))
	case expect.Text != compiled.Text:
		result.AddError(fmt.Sprintf("text mismatch\n  expected: %s\n  actual:   %s", expect.Text, compiled.Text))
	}
}
