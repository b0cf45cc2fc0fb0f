package constraint

import "fmt"

// Operator is a relational operator of a PropertyConstraint.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNe      Operator = "ne"
	OpLike    Operator = "like"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpIsNull  Operator = "is_null"
	OpNotNull Operator = "not_null"
	OpIn      Operator = "in"
	OpBetween Operator = "between"
)

// Symbol returns the operator keyword in the target query language.
func (o Operator) Symbol() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "<>"
	case OpLike:
		return "LIKE"
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpIsNull:
		return "IS NULL"
	case OpNotNull:
		return "IS NOT NULL"
	case OpIn:
		return "IN"
	case OpBetween:
		return "BETWEEN"
	}
	return ""
}

// Valid reports whether o is a known operator.
func (o Operator) Valid() bool {
	return o.Symbol() != ""
}

// CheckArity returns an error when n operands do not fit the operator.
func (o Operator) CheckArity(n int) error {
	switch o {
	case OpIsNull, OpNotNull:
		if n != 0 {
			return fmt.Errorf("%s takes no operands, got %d", o, n)
		}
	case OpIn:
		if n == 0 {
			return fmt.Errorf("%s needs at least one operand", o)
		}
	case OpBetween:
		if n != 2 {
			return fmt.Errorf("%s needs exactly two operands, got %d", o, n)
		}
	default:
		if n != 1 {
			return fmt.Errorf("%s needs exactly one operand, got %d", o, n)
		}
	}
	return nil
}

// Combinator joins the children of a BooleanConstraint.
type Combinator string

const (
	And Combinator = "and"
	Or  Combinator = "or"
)

// Keyword returns the combinator keyword in the target query language.
func (c Combinator) Keyword() string {
	switch c {
	case And:
		return "AND"
	case Or:
		return "OR"
	}
	return ""
}

// JoinKind selects how a CollectionConstraint is joined.
type JoinKind string

const (
	InnerJoin     JoinKind = "inner"
	LeftOuterJoin JoinKind = "left_outer"
)

// Keyword returns the join keyword. The empty kind is an inner join.
func (k JoinKind) Keyword() string {
	switch k {
	case InnerJoin, "":
		return "INNER JOIN"
	case LeftOuterJoin:
		return "LEFT OUTER JOIN"
	}
	return ""
}

// IdentityComponent names one part of an archetype identifier.
type IdentityComponent string

const (
	IdentityNamespace IdentityComponent = "namespace"
	IdentityFamily    IdentityComponent = "family"
	IdentityConcept   IdentityComponent = "concept"
)

// Valid reports whether c is a known component.
func (c IdentityComponent) Valid() bool {
	switch c {
	case IdentityNamespace, IdentityFamily, IdentityConcept:
		return true
	}
	return false
}
