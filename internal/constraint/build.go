package constraint

import "github.com/roach88/archq/internal/archetype"

// Names parses short names or identifiers and panics on malformed input.
// Intended for literals in code and tests.
func Names(names ...string) []archetype.TypeName {
	out := make([]archetype.TypeName, len(names))
	for i, n := range names {
		out[i] = archetype.MustParseTypeName(n)
	}
	return out
}

// TypeOf returns a name-based type constraint over the given alternatives.
func TypeOf(names ...string) *TypeConstraint {
	return &TypeConstraint{Types: Names(names...)}
}

// Bound returns a placeholder operand supplied by the caller at execution.
func Bound(key string) Placeholder {
	return Placeholder{Key: key}
}

func operands(values []any) []Operand {
	out := make([]Operand, 0, len(values))
	for _, v := range values {
		if op, ok := v.(Operand); ok {
			out = append(out, op)
			continue
		}
		out = append(out, Literal{Value: v})
	}
	return out
}

func property(path string, op Operator, values ...any) PropertyConstraint {
	return PropertyConstraint{Path: path, Op: op, Values: operands(values)}
}

func Eq(path string, v any) PropertyConstraint     { return property(path, OpEq, v) }
func Ne(path string, v any) PropertyConstraint     { return property(path, OpNe, v) }
func Like(path string, v any) PropertyConstraint   { return property(path, OpLike, v) }
func Lt(path string, v any) PropertyConstraint     { return property(path, OpLt, v) }
func Lte(path string, v any) PropertyConstraint    { return property(path, OpLte, v) }
func Gt(path string, v any) PropertyConstraint     { return property(path, OpGt, v) }
func Gte(path string, v any) PropertyConstraint    { return property(path, OpGte, v) }
func IsNull(path string) PropertyConstraint        { return property(path, OpIsNull) }
func NotNull(path string) PropertyConstraint       { return property(path, OpNotNull) }
func In(path string, vs ...any) PropertyConstraint { return property(path, OpIn, vs...) }

func Between(path string, lo, hi any) PropertyConstraint {
	return property(path, OpBetween, lo, hi)
}

// AllOf and AnyOf build boolean groups.
func AllOf(cs ...Constraint) BooleanConstraint {
	return BooleanConstraint{Op: And, Constraints: cs}
}

func AnyOf(cs ...Constraint) BooleanConstraint {
	return BooleanConstraint{Op: Or, Constraints: cs}
}

// Join returns an inner collection constraint. typ may be nil.
func Join(relation string, typ *TypeConstraint, cs ...Constraint) CollectionConstraint {
	return CollectionConstraint{Relation: relation, Join: InnerJoin, Type: typ, Constraints: cs}
}

// LeftJoin returns a left-outer collection constraint. typ may be nil.
func LeftJoin(relation string, typ *TypeConstraint, cs ...Constraint) CollectionConstraint {
	return CollectionConstraint{Relation: relation, Join: LeftOuterJoin, Type: typ, Constraints: cs}
}

// Link equates the identities reached by two references.
func Link(left, right string) LinkConstraint {
	return LinkConstraint{Left: left, Right: right}
}

// Sort and SortDesc order by a property of the nearest enclosing alias.
func Sort(path string) SortSpec     { return SortSpec{Property: path} }
func SortDesc(path string) SortSpec { return SortSpec{Property: path, Descending: true} }

// SortByIdentity orders by an identity component of the nearest enclosing alias.
func SortByIdentity(c IdentityComponent) SortSpec {
	return SortSpec{Identity: c}
}
