package constraint

import "github.com/roach88/archq/internal/archetype"

// Constraint is a node of the constraint tree.
//
// This is a sealed interface - only types in this package implement it.
type Constraint interface {
	constraintNode()
}

// Operand is a value compared by a PropertyConstraint.
//
// This is a sealed interface - only Literal and Placeholder implement it.
type Operand interface {
	operandNode()
}

// Literal is a value known when the query is built.
type Literal struct {
	Value any
}

func (Literal) operandNode() {}

// Placeholder is a value the caller supplies at execution time under Key.
// The compiler still allocates its parameter name.
type Placeholder struct {
	Key string
}

func (Placeholder) operandNode() {}

// TypeConstraint restricts an alias to one or more archetypes.
//
// As a root or as the Type of a CollectionConstraint it declares its alias.
// Anywhere else in a constraint list it filters an alias that already exists:
// Alias if set, otherwise the nearest enclosing alias.
type TypeConstraint struct {
	Alias string               // explicit alias; empty = generated
	Types []archetype.TypeName // alternatives (OR'd)

	// PrimaryOnly restricts matches to the named archetypes. When false, the
	// subtypes each schema declares are matched too.
	PrimaryOnly bool

	// ExactID matches on the full identifier (namespace, family, concept) of
	// the resolved archetype instead of its name.
	ExactID bool

	// InstanceID additionally pins a single row by identity. Nil = unset.
	InstanceID any
}

func (TypeConstraint) constraintNode() {}

// PropertyConstraint compares a property path of an alias to operands.
type PropertyConstraint struct {
	Alias  string // empty = nearest enclosing alias
	Path   string // "name", "owner.target"
	Op     Operator
	Values []Operand
}

func (PropertyConstraint) constraintNode() {}

// CollectionConstraint joins the rows reached through a relation.
//
// The join condition is always the bare relation traversal. The nested Type and
// every nested constraint are compiled into the WHERE predicate.
type CollectionConstraint struct {
	Source      string          // alias the relation is traversed from; empty = nearest enclosing
	Relation    string          // relation name on the source alias
	Alias       string          // explicit alias for the joined rows; empty = Type.Alias or generated
	Join        JoinKind        // empty = inner
	Type        *TypeConstraint // optional restriction of the joined rows
	Constraints []Constraint    // evaluated with the joined alias as nearest enclosing
}

func (CollectionConstraint) constraintNode() {}

// BooleanConstraint combines child constraints.
type BooleanConstraint struct {
	Op          Combinator
	Constraints []Constraint
}

func (BooleanConstraint) constraintNode() {}

// LinkConstraint equates the identity of two references, each written as
// "alias" or "alias.relation[.relation...]". Both aliases must already be
// declared where the link appears.
type LinkConstraint struct {
	Left  string
	Right string
}

func (LinkConstraint) constraintNode() {}

// SortSpec orders results by a property path or an identity component of an
// alias. Exactly one of Property and Identity is set.
type SortSpec struct {
	Alias      string // empty = nearest enclosing alias (primary root at query level)
	Property   string
	Identity   IdentityComponent
	Descending bool
}

func (SortSpec) constraintNode() {}

// Query is a complete constraint tree.
//
// Offset and Limit are execution-time pagination. They are returned alongside
// the compiled text, never embedded in it.
type Query struct {
	Roots       []TypeConstraint
	Constraints []Constraint
	Sorts       []SortSpec
	Distinct    bool
	Offset      int
	Limit       int
}
