package harness

import "github.com/roach88/archq/internal/compile"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: the expectation holds and every
	// assertion passed.
	Pass bool `json:"pass"`

	// Compiled is the compiled query; nil when compilation failed.
	Compiled *compile.CompiledQuery `json:"compiled,omitempty"`

	// Fingerprint of Compiled, empty when compilation failed.
	Fingerprint string `json:"fingerprint,omitempty"`

	// ErrorCode is the compile error code or lookup error kind when
	// compilation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Warnings are the lint warnings for the query.
	Warnings []string `json:"warnings,omitempty"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Warnings: []string{},
		Errors:   []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}
