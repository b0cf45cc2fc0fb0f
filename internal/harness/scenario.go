package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Descriptors lists descriptor files or directories (CUE, YAML or JSON).
	// Relative paths are resolved against the base path at load time.
	Descriptors []string `yaml:"descriptors,omitempty"`

	// Query is an inline query document.
	Query yaml.Node `yaml:"query,omitempty"`

	// QueryFile names a query document instead of an inline Query.
	QueryFile string `yaml:"query_file,omitempty"`

	// Expect is the required compile outcome. When nil, any successful
	// compilation passes (assertions still apply).
	Expect *Expectation `yaml:"expect,omitempty"`

	// Assertions validate the compiled query.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Expectation is the required compile outcome: exactly one of Text or Error.
type Expectation struct {
	// Text is the exact compiled text.
	Text string `yaml:"text,omitempty"`

	// Error is the expected compile error code or lookup error kind.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates one aspect of a compiled query.
type Assertion struct {
	// Type specifies the assertion type:
	// - "text_contains": Check the text contains Value
	// - "parameter": Check parameter Name is bound to Value, or deferred under Key
	// - "parameter_count": Check exactly Count parameters are bound
	// - "alias_order": Check the declared aliases equal Aliases
	// - "lint_clean": Check the query has no lint warnings
	Type string `yaml:"type"`

	// Name is the parameter name without the leading colon (used by parameter).
	Name string `yaml:"name,omitempty"`

	// Value is the expected text fragment or parameter value.
	Value any `yaml:"value,omitempty"`

	// Key is the expected placeholder key (used by parameter).
	Key string `yaml:"key,omitempty"`

	// Count is the expected number of parameters (used by parameter_count).
	Count int `yaml:"count,omitempty"`

	// Aliases is the expected alias order (used by alias_order).
	Aliases []string `yaml:"aliases,omitempty"`
}

// Assertion type constants.
const (
	AssertTextContains   = "text_contains"
	AssertParameter      = "parameter"
	AssertParameterCount = "parameter_count"
	AssertAliasOrder     = "alias_order"
	AssertLintClean      = "lint_clean"
)

// LoadScenario reads and parses a scenario YAML file, resolving descriptor
// and query paths relative to the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving descriptor and query paths relative to basePath.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if basePath != "" {
		for i, p := range scenario.Descriptors {
			if !filepath.IsAbs(p) {
				scenario.Descriptors[i] = filepath.Join(basePath, p)
			}
		}
		if scenario.QueryFile != "" && !filepath.IsAbs(scenario.QueryFile) {
			scenario.QueryFile = filepath.Join(basePath, scenario.QueryFile)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	hasInline := s.Query.Kind != 0
	if hasInline == (s.QueryFile != "") {
		return fmt.Errorf("exactly one of query or query_file is required")
	}
	if hasInline && s.Query.Kind != yaml.MappingNode {
		return fmt.Errorf("query must be a mapping")
	}

	if s.Expect != nil && (s.Expect.Text == "") == (s.Expect.Error == "") {
		return fmt.Errorf("expect needs exactly one of text or error")
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTextContains:
		if _, ok := a.Value.(string); !ok {
			return fmt.Errorf("%s requires a string value", a.Type)
		}
	case AssertParameter:
		if a.Name == "" {
			return fmt.Errorf("%s requires name", a.Type)
		}
		if (a.Value == nil) == (a.Key == "") {
			return fmt.Errorf("%s requires exactly one of value or key", a.Type)
		}
	case AssertParameterCount, AssertLintClean:
	case AssertAliasOrder:
		if len(a.Aliases) == 0 {
			return fmt.Errorf("%s requires aliases", a.Type)
		}
	case "":
		return fmt.Errorf("type is required")
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

// queryDocument returns the query document bytes.
func (s *Scenario) queryDocument() ([]byte, error) {
	if s.QueryFile != "" {
		data, err := os.ReadFile(s.QueryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read query file: %w", err)
		}
		return data, nil
	}
	data, err := yaml.Marshal(&s.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inline query: %w", err)
	}
	return data, nil
}
