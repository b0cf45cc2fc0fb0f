package compile

import (
	"strconv"
	"strings"
	"unicode"
)

// aliasAllocator hands out query-scoped aliases.
//
// Generated aliases are base+ordinal with one counter per base, shared by the
// whole compilation. Explicit aliases are reserved before traversal starts, so
// a generated name never shadows one declared later in the tree.
type aliasAllocator struct {
	reserved map[string]bool
	used     map[string]bool
	counters map[string]int
}

func newAliasAllocator() *aliasAllocator {
	return &aliasAllocator{
		reserved: make(map[string]bool),
		used:     make(map[string]bool),
		counters: make(map[string]int),
	}
}

// reserve registers an explicit alias.
func (a *aliasAllocator) reserve(alias string) error {
	if !isIdentifier(alias) {
		return newError(ErrCodeInvalidConstraint, alias, "alias %q is not an identifier", alias)
	}
	if a.reserved[alias] {
		return newError(ErrCodeDuplicateAlias, alias, "duplicate alias %q", alias)
	}
	a.reserved[alias] = true
	return nil
}

// claim marks a reserved alias as declared at the current traversal point.
func (a *aliasAllocator) claim(alias string) {
	a.used[alias] = true
}

// allocate returns the next free base<N>.
func (a *aliasAllocator) allocate(base string) string {
	base = identifierBase(base)
	for {
		n := a.counters[base]
		a.counters[base] = n + 1
		alias := base + strconv.Itoa(n)
		if !a.used[alias] && !a.reserved[alias] {
			a.used[alias] = true
			return alias
		}
	}
}

// identifierBase strips characters that cannot appear in an alias.
func identifierBase(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	base := sb.String()
	if base == "" {
		return "entity"
	}
	if unicode.IsDigit([]rune(base)[0]) {
		return "e" + base
	}
	return base
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) {
			continue
		}
		if i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}
