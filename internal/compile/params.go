package compile

import (
	"maps"
	"strconv"
	"strings"
	"unicode"
)

// Parameter is one named binding of a compiled query.
type Parameter struct {
	Name  string `json:"name"`
	Value any    `json:"value,omitempty"`

	// Key is set for a placeholder: the caller supplies the value under this
	// key at execution time and Value is nil.
	Key string `json:"key,omitempty"`
}

// Deferred reports whether the caller supplies the value at execution.
func (p Parameter) Deferred() bool {
	return p.Key != ""
}

// binder names parameters role<N>, N counting prior binds of the same role in
// this compilation, and keeps them in bind order.
type binder struct {
	counters map[string]int
	params   []Parameter
}

func newBinder() *binder {
	return &binder{counters: make(map[string]int)}
}

// bind records a literal value.
func (b *binder) bind(role string, value any) string {
	name := b.next(role)
	b.params = append(b.params, Parameter{Name: name, Value: value})
	return name
}

// bindDeferred records a parameter whose value is supplied later under key.
func (b *binder) bindDeferred(role, key string) string {
	name := b.next(role)
	b.params = append(b.params, Parameter{Name: name, Key: key})
	return name
}

// binderMark is a point a binder can rewind to.
type binderMark struct {
	n        int
	counters map[string]int
}

func (b *binder) mark() binderMark {
	return binderMark{n: len(b.params), counters: maps.Clone(b.counters)}
}

// rewind forgets every parameter bound since m, so their names are reused.
func (b *binder) rewind(m binderMark) {
	b.params = b.params[:m.n]
	b.counters = m.counters
}

func (b *binder) next(role string) string {
	role = roleName(role)
	n := b.counters[role]
	b.counters[role] = n + 1
	// "uid1" + 0 must not collide with "uid" + 10.
	if last := role[len(role)-1]; last == '_' || (last >= '0' && last <= '9') {
		return role + "_" + strconv.Itoa(n)
	}
	return role + strconv.Itoa(n)
}

// roleName maps a property path to a parameter-safe role: "owner.target"
// becomes "owner_target".
func roleName(path string) string {
	var sb strings.Builder
	for _, r := range path {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	role := sb.String()
	if role == "" || unicode.IsDigit([]rune(role)[0]) {
		return "p" + role
	}
	return role
}
