package harness

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/archq/internal/compile"
)

// AssertionError is returned when an assertion fails.
// It includes the compiled text to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Text     string // Compiled text for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Text != "" {
		fmt.Fprintf(&buf, "\nCompiled text:\n  %s\n", e.Text)
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against a compiled result and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	if a.Type == AssertLintClean {
		return assertLintClean(result.Warnings)
	}
	if result.Compiled == nil {
		return &AssertionError{Type: a.Type, Expected: "a compiled query", Actual: "compilation failed"}
	}
	switch a.Type {
	case AssertTextContains:
		return assertTextContains(result.Compiled, a)
	case AssertParameter:
		return assertParameter(result.Compiled, a)
	case AssertParameterCount:
		return assertParameterCount(result.Compiled, a)
	case AssertAliasOrder:
		return assertAliasOrder(result.Compiled, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertTextContains(q *compile.CompiledQuery, a Assertion) error {
	fragment, _ := a.Value.(string)
	if strings.Contains(q.Text, fragment) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTextContains,
		Expected: fmt.Sprintf("text containing %q", fragment),
		Actual:   "not found",
		Text:     q.Text,
	}
}

// assertParameter finds the named parameter and compares its value or key.
func assertParameter(q *compile.CompiledQuery, a Assertion) error {
	i := slices.IndexFunc(q.Parameters, func(p compile.Parameter) bool { return p.Name == a.Name })
	if i < 0 {
		return &AssertionError{
			Type:     AssertParameter,
			Expected: fmt.Sprintf("parameter :%s", a.Name),
			Actual:   fmt.Sprintf("parameters %v", parameterNames(q.Parameters)),
			Text:     q.Text,
		}
	}
	p := q.Parameters[i]

	if a.Key != "" {
		if p.Key == a.Key {
			return nil
		}
		return &AssertionError{
			Type:     AssertParameter,
			Expected: fmt.Sprintf(":%s deferred under key %q", a.Name, a.Key),
			Actual:   describeParameter(p),
			Text:     q.Text,
		}
	}

	if !p.Deferred() && valuesEqual(a.Value, p.Value) {
		return nil
	}
	return &AssertionError{
		Type:     AssertParameter,
		Expected: fmt.Sprintf(":%s = %v (type %T)", a.Name, a.Value, a.Value),
		Actual:   describeParameter(p),
		Text:     q.Text,
	}
}

func assertParameterCount(q *compile.CompiledQuery, a Assertion) error {
	if len(q.Parameters) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertParameterCount,
		Expected: fmt.Sprintf("%d parameters", a.Count),
		Actual:   fmt.Sprintf("%d parameters %v", len(q.Parameters), parameterNames(q.Parameters)),
		Text:     q.Text,
	}
}

func assertAliasOrder(q *compile.CompiledQuery, a Assertion) error {
	if slices.Equal(q.Aliases, a.Aliases) {
		return nil
	}
	return &AssertionError{
		Type:     AssertAliasOrder,
		Expected: fmt.Sprintf("aliases %v", a.Aliases),
		Actual:   fmt.Sprintf("aliases %v", q.Aliases),
		Text:     q.Text,
	}
}

func assertLintClean(warnings []string) error {
	if len(warnings) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertLintClean,
		Expected: "no lint warnings",
		Actual:   strings.Join(warnings, "; "),
	}
}

func parameterNames(params []compile.Parameter) []string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

func describeParameter(p compile.Parameter) string {
	if p.Deferred() {
		return fmt.Sprintf(":%s deferred under key %q", p.Name, p.Key)
	}
	return fmt.Sprintf(":%s = %v (type %T)", p.Name, p.Value, p.Value)
}

// valuesEqual compares an expected YAML value with a bound value. Numbers
// compare by value across integer and float types.
func valuesEqual(expected, actual any) bool {
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	ef, eok := toFloat(expected)
	af, aok := toFloat(actual)
	return eok && aok && ef == af
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
