// Package harness runs query conformance scenarios.
//
// A scenario names archetype descriptors, a query document and what compiling
// the query against those descriptors must produce: an exact text, a compile
// error code, and assertions on parameters, aliases and lint results.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: pets_named_rex
//	description: "Pets filtered by name"
//	descriptors:
//	  - ../descriptors/practice.yaml
//	query:
//	  roots:
//	    - types: [party.patientpet]
//	  constraints:
//	    - property: {path: name, op: eq, values: [Rex]}
//	expect:
//	  text: "SELECT patientpet0 FROM Party AS patientpet0 WHERE ..."
//	assertions:
//	  - type: parameter
//	    name: name0
//	    value: Rex
//	  - type: alias_order
//	    aliases: [patientpet0]
//
// Descriptor paths are relative to the scenario file. The query is either
// inline (query) or in a separate document (query_file). An expect.error of
// a compile error code (UNKNOWN_TYPE, UNRESOLVED_PROPERTY, ...) makes
// compile failure with that code the passing outcome.
//
// # Assertion Types
//
//   - text_contains: the compiled text contains value
//   - parameter: parameter name is bound to value, or deferred under key
//   - parameter_count: exactly count parameters are bound
//   - alias_order: the declared aliases are exactly aliases, in order
//   - lint_clean: the query has no lint warnings
//
// # Golden Files
//
// Snapshot renders a result as text, parameters, aliases and fingerprint.
// RunWithGolden compares it against testdata/golden/{name}.golden:
//
//	go test ./internal/harness -update
package harness
