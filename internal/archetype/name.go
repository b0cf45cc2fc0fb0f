package archetype

import (
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Wildcard matches any run of characters inside a name segment.
const Wildcard = "*"

// TypeName identifies an archetype.
//
// Text forms:
//
//	family.concept                      party.person
//	namespace-family.concept            openvpms-party.person
//	namespace-family.concept.version    openvpms-party.person.1.0
//
// Namespace, family and concept may contain wildcards when the name is used as
// a pattern.
type TypeName struct {
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
	Family    string `json:"family" yaml:"family"`
	Concept   string `json:"concept" yaml:"concept"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

// ParseTypeName parses one of the TypeName text forms.
func ParseTypeName(s string) (TypeName, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TypeName{}, fmt.Errorf("empty type name")
	}

	var name TypeName
	rest := s
	if ns, after, ok := strings.Cut(s, "-"); ok && !strings.Contains(ns, ".") {
		if ns == "" {
			return TypeName{}, fmt.Errorf("type name %q: empty namespace", s)
		}
		name.Namespace = ns
		rest = after
	}

	parts := strings.Split(rest, ".")
	if len(parts) < 2 {
		return TypeName{}, fmt.Errorf("type name %q: expected family.concept", s)
	}
	name.Family = parts[0]
	name.Concept = parts[1]
	if len(parts) > 2 {
		name.Version = strings.Join(parts[2:], ".")
	}
	if name.Family == "" || name.Concept == "" {
		return TypeName{}, fmt.Errorf("type name %q: empty family or concept", s)
	}
	if strings.Contains(name.Version, Wildcard) {
		return TypeName{}, fmt.Errorf("type name %q: wildcards are not allowed in the version", s)
	}
	return name, nil
}

// MustParseTypeName is ParseTypeName for literals known to be valid.
func MustParseTypeName(s string) TypeName {
	name, err := ParseTypeName(s)
	if err != nil {
		panic(err)
	}
	return name
}

// ShortName returns "family.concept".
func (n TypeName) ShortName() string {
	return n.Family + "." + n.Concept
}

// String returns the most specific text form of the name.
func (n TypeName) String() string {
	var sb strings.Builder
	if n.Namespace != "" {
		sb.WriteString(n.Namespace)
		sb.WriteByte('-')
	}
	sb.WriteString(n.ShortName())
	if n.Version != "" {
		sb.WriteByte('.')
		sb.WriteString(n.Version)
	}
	return sb.String()
}

// IsWildcard reports whether the family or concept contains a wildcard.
func (n TypeName) IsWildcard() bool {
	return strings.Contains(n.Family, Wildcard) || strings.Contains(n.Concept, Wildcard)
}

// HasFixedNamespace reports whether the name pins a single namespace.
func (n TypeName) HasFixedNamespace() bool {
	return n.Namespace != "" && !strings.Contains(n.Namespace, Wildcard)
}

// WithoutNamespace returns a copy of n that matches any namespace.
func (n TypeName) WithoutNamespace() TypeName {
	n.Namespace = ""
	return n
}

// Match reports whether the concrete name satisfies n used as a pattern.
// An empty namespace or version in the pattern matches anything.
func (n TypeName) Match(name TypeName) (bool, error) {
	if n.Namespace != "" {
		ok, err := matchSegment(n.Namespace, name.Namespace)
		if err != nil || !ok {
			return false, err
		}
	}
	if n.Version != "" && n.Version != name.Version {
		return false, nil
	}
	ok, err := matchSegment(n.Family, name.Family)
	if err != nil || !ok {
		return false, err
	}
	return matchSegment(n.Concept, name.Concept)
}

func matchSegment(pattern, value string) (bool, error) {
	if !strings.Contains(pattern, Wildcard) {
		return pattern == value, nil
	}
	ok, err := doublestar.Match(pattern, value)
	if err != nil {
		return false, fmt.Errorf("pattern %q: %w", pattern, err)
	}
	return ok, nil
}

// likeEscaper escapes the LIKE metacharacters that appear literally in a
// segment. The target dialect uses backslash as its LIKE escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, Wildcard, "%")

// LikePattern translates a wildcard segment into the target language's
// pattern-matching syntax. A literal '%', '_' or '\' is escaped so only
// Wildcard matches more than itself.
func LikePattern(segment string) string {
	return likeEscaper.Replace(segment)
}
