package compile

import (
	"fmt"
	"strings"

	"github.com/roach88/archq/internal/archetype"
	"github.com/roach88/archq/internal/constraint"
)

// identityPath is the path of an archetype identifier component on an alias.
func identityPath(alias string, c constraint.IdentityComponent) string {
	return alias + ".archetypeId." + string(c)
}

// resolvedType is the outcome of compiling one TypeConstraint.
type resolvedType struct {
	pred    predicate              // nil when the constraint restricts nothing
	names   []archetype.TypeName   // alternatives actually tested
	schemas []archetype.TypeSchema // schemas the named alternatives resolved to
	source  string                 // common persistent source
}

// typePredicate builds the predicate identifying rows of tc on alias.
//
// Every alternative must resolve to at least one schema. When declaring is
// set the constraint introduces alias, so all resolved schemas must share one
// persistent source; a filter on an existing alias is exempt. Exact-identifier
// constraints test namespace, family and concept of each resolved schema.
// Name-based constraints test family and concept of each alternative (plus
// declared subtypes unless PrimaryOnly). They test a wildcard namespace with
// LIKE, and a fixed one only when more than one namespace registers that
// family/concept.
func (c *compilation) typePredicate(tc constraint.TypeConstraint, alias string, declaring bool) (resolvedType, error) {
	if len(tc.Types) == 0 {
		return resolvedType{}, newError(ErrCodeEmptyTypeConstraint, alias, "type constraint has no candidate type")
	}

	var rt resolvedType
	for _, name := range tc.Types {
		if tc.ExactID && name.IsWildcard() {
			return resolvedType{}, newError(ErrCodeInvalidConstraint, alias, "exact identifier %s cannot contain wildcards", name)
		}
		schemas, err := c.resolver.Resolve(name)
		if err != nil {
			return resolvedType{}, err
		}
		if len(schemas) == 0 {
			return resolvedType{}, newError(ErrCodeUnknownType, alias, "%s matches no registered archetype", name)
		}
		for _, s := range schemas {
			if rt.source == "" {
				rt.source = s.Source
			} else if declaring && s.Source != rt.source {
				return resolvedType{}, newError(ErrCodeIncompatibleTypes, alias,
					"%s is stored in %s, other alternatives in %s", s.Name.ShortName(), s.Source, rt.source)
			}
		}
		rt.schemas = appendSchemas(rt.schemas, schemas...)
	}

	if tc.ExactID {
		c.exactPredicate(tc, alias, &rt)
		return rt, nil
	}
	if err := c.namePredicate(tc, alias, &rt); err != nil {
		return resolvedType{}, err
	}
	return rt, nil
}

func (c *compilation) exactPredicate(tc constraint.TypeConstraint, alias string, rt *resolvedType) {
	alternatives := make([]predicate, 0, len(rt.schemas))
	for _, s := range rt.schemas {
		alternatives = append(alternatives, allOf(
			c.equals(alias, constraint.IdentityNamespace, s.Name.Namespace),
			c.equals(alias, constraint.IdentityFamily, s.Name.Family),
			c.equals(alias, constraint.IdentityConcept, s.Name.Concept),
		))
		rt.names = append(rt.names, s.Name)
	}
	rt.pred = anyOf(alternatives...)

	if tc.InstanceID != nil {
		id := c.params.bind("id", tc.InstanceID)
		rt.pred = allOf(rt.pred, term(fmt.Sprintf("%s.id = :%s", alias, id)))
	}
}

func (c *compilation) namePredicate(tc constraint.TypeConstraint, alias string, rt *resolvedType) error {
	alternatives := expandAlternatives(tc, rt.schemas)
	names, err := resolvedNames(alternatives, rt.schemas)
	if err != nil {
		return err
	}
	rt.names = names

	// Decide every namespace term before binding anything, so a failing
	// lookup or an unrestricted alternative leaves no parameters behind.
	withNamespace := make([]bool, len(alternatives))
	for i, alt := range alternatives {
		include, err := c.namespaceAmbiguous(alt)
		if err != nil {
			return err
		}
		withNamespace[i] = include
		if !include && matchesAnyNamespace(alt) && alt.Family == archetype.Wildcard && alt.Concept == archetype.Wildcard {
			rt.pred = nil
			return nil
		}
	}

	terms := make([]predicate, 0, len(alternatives))
	for i, alt := range alternatives {
		var ns predicate
		switch {
		case withNamespace[i]:
			ns = c.equals(alias, constraint.IdentityNamespace, alt.Namespace)
		case !matchesAnyNamespace(alt):
			ns = c.segment(alias, constraint.IdentityNamespace, alt.Namespace)
		}
		terms = append(terms, allOf(
			ns,
			c.segment(alias, constraint.IdentityFamily, alt.Family),
			c.segment(alias, constraint.IdentityConcept, alt.Concept),
		))
	}
	rt.pred = anyOf(terms...)
	return nil
}

// matchesAnyNamespace reports whether alt places no restriction on the
// namespace: none given, a bare wildcard, or a fixed one tested only when
// ambiguous.
func matchesAnyNamespace(alt archetype.TypeName) bool {
	return alt.Namespace == "" || alt.Namespace == archetype.Wildcard || alt.HasFixedNamespace()
}

// resolvedNames lists what an alias matches: a wildcard alternative is
// replaced by the registered names it resolved to, a plain one is kept as
// declared.
func resolvedNames(alternatives []archetype.TypeName, schemas []archetype.TypeSchema) ([]archetype.TypeName, error) {
	var out []archetype.TypeName
	seen := make(map[string]bool)
	add := func(n archetype.TypeName) {
		if key := n.String(); !seen[key] {
			seen[key] = true
			out = append(out, n)
		}
	}
	for _, alt := range alternatives {
		if !alt.IsWildcard() && !strings.Contains(alt.Namespace, archetype.Wildcard) {
			add(alt)
			continue
		}
		matched := false
		for _, s := range schemas {
			ok, err := alt.Match(s.Name)
			if err != nil {
				return nil, err
			}
			if ok {
				add(s.Name)
				matched = true
			}
		}
		if !matched {
			add(alt)
		}
	}
	return out, nil
}

// namespaceAmbiguous reports whether alt pins a namespace and its
// family/concept is registered under more than one namespace.
func (c *compilation) namespaceAmbiguous(alt archetype.TypeName) (bool, error) {
	if !alt.HasFixedNamespace() {
		return false, nil
	}
	schemas, err := c.resolver.Resolve(alt.WithoutNamespace())
	if err != nil {
		return false, err
	}
	seen := make(map[string]bool)
	for _, s := range schemas {
		seen[s.Name.Namespace] = true
	}
	return len(seen) > 1, nil
}

// expandAlternatives returns the declared alternatives followed, unless
// PrimaryOnly, by the subtypes the resolved schemas declare. Duplicates keep
// their first position.
func expandAlternatives(tc constraint.TypeConstraint, schemas []archetype.TypeSchema) []archetype.TypeName {
	seen := make(map[string]bool)
	var out []archetype.TypeName
	add := func(n archetype.TypeName) {
		key := n.String()
		if seen[key] {
			return
		}
		seen[key] = true
		out = append(out, n)
	}
	for _, n := range tc.Types {
		add(n)
	}
	if !tc.PrimaryOnly {
		for _, s := range schemas {
			for _, sub := range s.Subtypes {
				add(sub)
			}
		}
	}
	return out
}

func (c *compilation) equals(alias string, comp constraint.IdentityComponent, value string) predicate {
	name := c.params.bind(string(comp), value)
	return term(fmt.Sprintf("%s = :%s", identityPath(alias, comp), name))
}

// segment tests one name segment: equality, LIKE for wildcards, nothing for
// a bare wildcard.
func (c *compilation) segment(alias string, comp constraint.IdentityComponent, value string) predicate {
	switch {
	case value == archetype.Wildcard:
		return nil
	case strings.Contains(value, archetype.Wildcard):
		name := c.params.bind(string(comp), archetype.LikePattern(value))
		return term(fmt.Sprintf("%s LIKE :%s", identityPath(alias, comp), name))
	default:
		return c.equals(alias, comp, value)
	}
}

func appendSchemas(dst []archetype.TypeSchema, src ...archetype.TypeSchema) []archetype.TypeSchema {
	for _, s := range src {
		dup := false
		for _, d := range dst {
			if d.Name == s.Name {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}

// typeBase picks the generated-alias base for a declaration.
func typeBase(names []archetype.TypeName) string {
	if len(names) == 0 {
		return "entity"
	}
	switch n := names[0]; {
	case !strings.Contains(n.Concept, archetype.Wildcard):
		return n.Concept
	case !strings.Contains(n.Family, archetype.Wildcard):
		return n.Family
	}
	return "entity"
}
