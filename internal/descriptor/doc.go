// Package descriptor loads archetype descriptors into an archetype.Registry.
//
// Descriptors come from three kinds of source:
//
//   - CUE: a directory (or single file) declaring an "archetype" struct keyed
//     by archetype identifier.
//   - YAML or JSON: a document with an "archetypes" list.
//   - SQL: a descriptor store (sqlite3, postgres or mysql) written by
//     Store.Save, typically filled with "archq descriptors import".
//
// CUE form:
//
//	archetype: "openvpms-party.person.1.0": {
//		source: "Party"
//		relations: contacts: {targets: ["contact.*"], cardinality: "many"}
//		properties: {firstName: "string", lastName: "string"}
//		subtypes: ["party.customerperson"]
//	}
//
// primary defaults to true and cardinality to "many". Every descriptor is
// checked with archetype.TypeSchema.Validate before it is returned.
//
// # Database Configuration
//
// For sqlite3 the store applies the same connection settings everywhere:
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - single open connection: one writer at a time
package descriptor
