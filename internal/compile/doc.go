// Package compile translates a constraint.Query into object-query text with
// ordered named parameters.
//
// Compile walks the tree once, pre-order. Every declaration (root type
// constraint or collection) allocates an alias, every literal allocates a
// parameter, and every collection appends a join:
//
//	SELECT person0 FROM Party AS person0
//	  INNER JOIN person0.contacts AS contacts0
//	WHERE person0.archetypeId.family = :family0
//	  AND person0.archetypeId.concept = :concept0
//	  AND contacts0.archetypeId.family = :family1
//	ORDER BY person0.name ASC
//
// ALIASES AND PARAMETERS:
//
// Generated aliases and parameter names are base+ordinal, counted per base
// within one compilation. Explicit aliases are reserved before the walk, so a
// generated name never takes one. All counters live in a per-call context:
// concurrent compilations share nothing but the Resolver.
//
// JOINS:
//
// A join condition is the bare relation traversal. Type restrictions of the
// joined rows and every nested constraint go into WHERE, even for left-outer
// joins. Null-safe tests are the caller's job (see constraint.Lint).
//
// ERRORS:
//
// Structural problems are *Error values with an ErrorCode. Unknown properties
// and relations are the *archetype.LookupError the schema lookup produced,
// returned unchanged. The first error aborts compilation.
package compile
