// Package archetype provides the archetype type model consumed by the query
// compiler.
//
// An archetype is a versioned, dynamically declared entity type identified by a
// (namespace, family, concept) triple, e.g. "openvpms-party.person.1.0". Each
// archetype is described by a TypeSchema: the persistent source it is stored in,
// the relations it declares, its properties and its declared subtypes.
//
// The compiler never reads descriptors directly. It goes through the Resolver
// contract, which maps a (possibly wildcarded) TypeName to the schemas it matches.
// Registry is the standard in-memory Resolver; package descriptor fills it from
// CUE files, YAML files or a SQL descriptor store.
//
// Lookup failures on a schema (unknown property or relation) are reported as
// *LookupError values. The compiler returns them to its caller unchanged.
package archetype
