package archetype

import (
	"fmt"
	"slices"
	"strings"
)

// Resolver maps a type-name pattern to the schemas it matches.
//
// Implementations must be free of side effects visible to the caller and must
// return matches in a deterministic order. A pattern that matches nothing yields
// an empty slice and a nil error; the caller decides whether that is fatal.
type Resolver interface {
	Resolve(pattern TypeName) ([]TypeSchema, error)
}

// Registry is an immutable in-memory Resolver.
// It is safe for concurrent use once constructed.
type Registry struct {
	schemas []TypeSchema
}

// NewRegistry validates and indexes the given schemas.
// Registering the same namespace/short name/version twice is an error.
func NewRegistry(schemas ...TypeSchema) (*Registry, error) {
	seen := make(map[string]bool, len(schemas))
	sorted := make([]TypeSchema, 0, len(schemas))
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		key := s.Name.String()
		if seen[key] {
			return nil, fmt.Errorf("duplicate archetype %q", key)
		}
		seen[key] = true
		sorted = append(sorted, s)
	}
	slices.SortFunc(sorted, compareSchemas)
	return &Registry{schemas: sorted}, nil
}

// compareSchemas orders by short name, then namespace, then version.
func compareSchemas(a, b TypeSchema) int {
	if c := strings.Compare(a.Name.ShortName(), b.Name.ShortName()); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name.Namespace, b.Name.Namespace); c != 0 {
		return c
	}
	return strings.Compare(a.Name.Version, b.Name.Version)
}

// Resolve implements Resolver.
func (r *Registry) Resolve(pattern TypeName) ([]TypeSchema, error) {
	var matches []TypeSchema
	for _, s := range r.schemas {
		ok, err := pattern.Match(s.Name)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, s)
		}
	}
	return matches, nil
}

// Schemas returns all registered schemas in resolution order.
func (r *Registry) Schemas() []TypeSchema {
	return slices.Clone(r.schemas)
}

// Len returns the number of registered schemas.
func (r *Registry) Len() int {
	return len(r.schemas)
}
