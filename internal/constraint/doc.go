// Package constraint defines the declarative constraint tree the query
// compiler consumes.
//
// A Query names one or more root TypeConstraints and an ordered list of
// constraints evaluated against them:
//
//	Query{
//	  Roots: []TypeConstraint{{Types: Names("party.person", "party.organisation")}},
//	  Constraints: []Constraint{
//	    Eq("uid", "1"),
//	    Like("name", "sa*"),
//	    Sort("name"),
//	    Join("contacts", TypeOf("contact.location")),
//	  },
//	}
//
// SEALED INTERFACES:
//
// Constraint and Operand are sealed with marker methods. Only the types in this
// package implement them, so the compiler's type switches are exhaustive:
//
//	switch c := node.(type) {
//	case TypeConstraint:
//	case PropertyConstraint:
//	case CollectionConstraint:
//	case BooleanConstraint:
//	case LinkConstraint:
//	case SortSpec:
//	}
//
// TREE SHAPE:
//
// Collection nesting is owned: a CollectionConstraint holds its nested list by
// value, so a tree built from these types cannot contain cycles.
//
// NULL SAFETY:
//
// Tests against a left-outer-joined alias are compiled exactly as declared. A
// caller that wants rows without a match must OR the test with an explicit
// is-null constraint. Lint reports trees that forget to.
package constraint
