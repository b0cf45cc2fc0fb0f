package compile

import (
	"slices"
	"strings"

	"github.com/roach88/archq/internal/archetype"
	"github.com/roach88/archq/internal/constraint"
)

// Page is execution-time pagination. It is never embedded in the text.
type Page struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Clauses are the rendered parts of the text, for callers that rewrite them.
type Clauses struct {
	From    string `json:"from"`
	Where   string `json:"where,omitempty"`
	OrderBy string `json:"order_by,omitempty"`
}

// CompiledQuery is the result of a successful compilation.
type CompiledQuery struct {
	Text       string      `json:"text"`
	Parameters []Parameter `json:"parameters"`
	Clauses    Clauses     `json:"clauses"`

	// Aliases lists every declared alias: roots first, then joins, in
	// declaration order. The first is the selected (primary) alias.
	Aliases []string `json:"aliases"`

	// AliasTypes maps each alias to the archetype alternatives it matches.
	AliasTypes map[string][]archetype.TypeName `json:"alias_types"`

	// Pagination is nil when the query sets neither offset nor limit.
	Pagination *Page `json:"pagination,omitempty"`
}

// Primary returns the selected alias.
func (q *CompiledQuery) Primary() string {
	return q.Aliases[0]
}

// Compiler compiles constraint trees against a Resolver.
// It holds no per-compilation state and is safe for concurrent use when the
// Resolver is.
type Compiler struct {
	resolver archetype.Resolver
}

// New returns a Compiler that resolves archetypes through resolver.
func New(resolver archetype.Resolver) *Compiler {
	return &Compiler{resolver: resolver}
}

// Compile is shorthand for New(resolver).Compile(q).
func Compile(q constraint.Query, resolver archetype.Resolver) (*CompiledQuery, error) {
	return New(resolver).Compile(q)
}

// Compile translates q into query text and ordered parameter bindings.
//
// Compilation is deterministic: the same tree against the same resolver
// yields byte-identical text and the same parameter list. The first error
// aborts compilation and no partial result is returned.
func (c *Compiler) Compile(q constraint.Query) (*CompiledQuery, error) {
	if len(q.Roots) == 0 {
		return nil, newError(ErrCodeInvalidConstraint, "", "query has no root type constraint")
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, newError(ErrCodeInvalidConstraint, "", "offset and limit must not be negative (offset=%d, limit=%d)", q.Offset, q.Limit)
	}

	cc := newCompilation(c.resolver)
	if err := cc.reserve(q); err != nil {
		return nil, err
	}

	rootPred, err := cc.compileRoots(q.Roots)
	if err != nil {
		return nil, err
	}
	primary := cc.roots[0].alias

	nested, err := cc.compileList(q.Constraints, primary)
	if err != nil {
		return nil, err
	}

	sorts := slices.Clone(cc.sorts)
	for _, s := range q.Sorts {
		if s.Alias == "" {
			s.Alias = primary
		}
		sorts = append(sorts, s)
	}
	orderBy, err := cc.compileSorts(sorts)
	if err != nil {
		return nil, err
	}

	clauses := Clauses{
		From:    cc.fromClause(),
		Where:   render(allOf(rootPred, nested)),
		OrderBy: orderBy,
	}

	out := &CompiledQuery{
		Text:       assemble(primary, q.Distinct, clauses),
		Parameters: cc.params.params,
		Clauses:    clauses,
		Aliases:    cc.order,
		AliasTypes: make(map[string][]archetype.TypeName, len(cc.scopes)),
	}
	for alias, s := range cc.scopes {
		out.AliasTypes[alias] = slices.Clone(s.types)
	}
	if q.Offset != 0 || q.Limit != 0 {
		out.Pagination = &Page{Offset: q.Offset, Limit: q.Limit}
	}
	return out, nil
}

// fromClause lists the roots, comma separated, then the joins in the order
// they were declared.
func (c *compilation) fromClause() string {
	var sb strings.Builder
	for i, r := range c.roots {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(r.source)
		sb.WriteString(" AS ")
		sb.WriteString(r.alias)
	}
	for _, j := range c.joins {
		sb.WriteByte(' ')
		sb.WriteString(j.kind.Keyword())
		sb.WriteByte(' ')
		sb.WriteString(j.from)
		sb.WriteByte('.')
		sb.WriteString(j.relation)
		sb.WriteString(" AS ")
		sb.WriteString(j.alias)
	}
	return sb.String()
}

func assemble(primary string, distinct bool, clauses Clauses) string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if distinct {
		sb.WriteString("DISTINCT ")
	}
	sb.WriteString(primary)
	sb.WriteString(" FROM ")
	sb.WriteString(clauses.From)
	if clauses.Where != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(clauses.Where)
	}
	if clauses.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(clauses.OrderBy)
	}
	return sb.String()
}
