package archetype

import (
	"errors"
	"fmt"
)

// Cardinality of a relation.
type Cardinality string

const (
	One  Cardinality = "one"
	Many Cardinality = "many"
)

// PropertyKind is the value kind of a property.
type PropertyKind string

const (
	KindString PropertyKind = "string"
	KindInt    PropertyKind = "int"
	KindBool   PropertyKind = "bool"
	KindDate   PropertyKind = "date"
	KindMoney  PropertyKind = "money"
	KindRef    PropertyKind = "ref"
)

// ValidPropertyKind reports whether k is a known kind.
func ValidPropertyKind(k PropertyKind) bool {
	switch k {
	case KindString, KindInt, KindBool, KindDate, KindMoney, KindRef:
		return true
	}
	return false
}

// Relation is a declared traversal from one archetype to others.
// Targets are short-name patterns ("contact.*", "party.customerperson").
type Relation struct {
	Name        string      `json:"name" yaml:"name"`
	Targets     []string    `json:"targets" yaml:"targets"`
	Cardinality Cardinality `json:"cardinality" yaml:"cardinality"`
}

// Property is a declared scalar node of an archetype.
type Property struct {
	Name string       `json:"name" yaml:"name"`
	Kind PropertyKind `json:"kind" yaml:"kind"`
}

// builtinProperties are answered by every schema: they live on the persistent
// source rather than in the descriptor.
var builtinProperties = []Property{
	{Name: "id", Kind: KindInt},
	{Name: "uid", Kind: KindString},
	{Name: "name", Kind: KindString},
	{Name: "description", Kind: KindString},
	{Name: "active", Kind: KindBool},
	{Name: "archetypeId", Kind: KindRef},
}

// TypeSchema describes one registered archetype.
type TypeSchema struct {
	Name       TypeName   `json:"name" yaml:"name"`
	Source     string     `json:"source" yaml:"source"`
	Primary    bool       `json:"primary" yaml:"primary"`
	Relations  []Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
	Properties []Property `json:"properties,omitempty" yaml:"properties,omitempty"`
	Subtypes   []TypeName `json:"subtypes,omitempty" yaml:"subtypes,omitempty"`
}

// Relation looks up a declared relation by name.
func (s TypeSchema) Relation(name string) (Relation, error) {
	for _, r := range s.Relations {
		if r.Name == name {
			return r, nil
		}
	}
	return Relation{}, &LookupError{Kind: ErrUnresolvedRelation, Type: s.Name, Name: name}
}

// Property looks up a declared or built-in property by name.
func (s TypeSchema) Property(name string) (Property, error) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, nil
		}
	}
	for _, p := range builtinProperties {
		if p.Name == name {
			return p, nil
		}
	}
	return Property{}, &LookupError{Kind: ErrUnresolvedProperty, Type: s.Name, Name: name}
}

// Validate checks the structural rules a descriptor must satisfy before it can
// be registered.
func (s TypeSchema) Validate() error {
	if s.Name.Family == "" || s.Name.Concept == "" {
		return fmt.Errorf("schema %q: family and concept are required", s.Name)
	}
	if s.Name.IsWildcard() {
		return fmt.Errorf("schema %q: registered names cannot contain wildcards", s.Name)
	}
	if s.Source == "" {
		return fmt.Errorf("schema %q: source is required", s.Name)
	}

	seen := make(map[string]bool)
	for _, r := range s.Relations {
		if r.Name == "" {
			return fmt.Errorf("schema %q: relation without a name", s.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("schema %q: duplicate node %q", s.Name, r.Name)
		}
		seen[r.Name] = true
		if r.Cardinality != One && r.Cardinality != Many {
			return fmt.Errorf("schema %q: relation %q: invalid cardinality %q", s.Name, r.Name, r.Cardinality)
		}
	}
	for _, p := range s.Properties {
		if p.Name == "" {
			return fmt.Errorf("schema %q: property without a name", s.Name)
		}
		if seen[p.Name] {
			return fmt.Errorf("schema %q: duplicate node %q", s.Name, p.Name)
		}
		seen[p.Name] = true
		if !ValidPropertyKind(p.Kind) {
			return fmt.Errorf("schema %q: property %q: invalid kind %q", s.Name, p.Name, p.Kind)
		}
	}
	return nil
}

// LookupErrorKind categorises resolver lookup failures.
type LookupErrorKind string

const (
	ErrUnresolvedProperty LookupErrorKind = "UNRESOLVED_PROPERTY"
	ErrUnresolvedRelation LookupErrorKind = "UNRESOLVED_RELATION"
)

// LookupError reports a property or relation the schema does not declare.
type LookupError struct {
	Kind LookupErrorKind
	Type TypeName
	Name string
}

func (e *LookupError) Error() string {
	noun := "property"
	if e.Kind == ErrUnresolvedRelation {
		noun = "relation"
	}
	return fmt.Sprintf("%s: %s has no %s %q", e.Kind, e.Type.ShortName(), noun, e.Name)
}

// IsLookupKind reports whether err is a *LookupError of the given kind.
func IsLookupKind(err error, kind LookupErrorKind) bool {
	var le *LookupError
	if errors.As(err, &le) {
		return le.Kind == kind
	}
	return false
}
