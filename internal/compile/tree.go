package compile

import (
	"fmt"
	"strings"

	"github.com/roach88/archq/internal/archetype"
	"github.com/roach88/archq/internal/constraint"
)

// scope is what the compilation knows about a declared alias.
type scope struct {
	types   []archetype.TypeName
	schemas []archetype.TypeSchema
}

type fromItem struct {
	source string
	alias  string
}

type joinItem struct {
	kind     constraint.JoinKind
	from     string
	relation string
	alias    string
}

// compilation holds the state of a single Compile call. It is never shared.
type compilation struct {
	resolver archetype.Resolver
	aliases  *aliasAllocator
	params   *binder

	scopes map[string]*scope
	order  []string // aliases in declaration order

	roots []fromItem
	joins []joinItem
	sorts []constraint.SortSpec // collected from constraint lists, aliases filled in
}

func newCompilation(resolver archetype.Resolver) *compilation {
	return &compilation{
		resolver: resolver,
		aliases:  newAliasAllocator(),
		params:   newBinder(),
		scopes:   make(map[string]*scope),
	}
}

// reserve registers every explicit alias of the query before traversal.
func (c *compilation) reserve(q constraint.Query) error {
	for _, r := range q.Roots {
		if r.Alias == "" {
			continue
		}
		if err := c.aliases.reserve(r.Alias); err != nil {
			return err
		}
	}
	return c.reserveList(q.Constraints)
}

func (c *compilation) reserveList(nodes []constraint.Constraint) error {
	for _, node := range nodes {
		var children []constraint.Constraint
		switch n := node.(type) {
		case constraint.CollectionConstraint:
			if err := c.reserveCollection(n); err != nil {
				return err
			}
			children = n.Constraints
		case *constraint.CollectionConstraint:
			if n == nil {
				continue
			}
			if err := c.reserveCollection(*n); err != nil {
				return err
			}
			children = n.Constraints
		case constraint.BooleanConstraint:
			children = n.Constraints
		case *constraint.BooleanConstraint:
			if n != nil {
				children = n.Constraints
			}
		}
		if err := c.reserveList(children); err != nil {
			return err
		}
	}
	return nil
}

func (c *compilation) reserveCollection(cc constraint.CollectionConstraint) error {
	alias, err := explicitAlias(cc)
	if err != nil || alias == "" {
		return err
	}
	return c.aliases.reserve(alias)
}

// explicitAlias returns the caller-chosen alias of a collection, if any.
func explicitAlias(cc constraint.CollectionConstraint) (string, error) {
	alias := cc.Alias
	if cc.Type != nil && cc.Type.Alias != "" {
		if alias != "" && alias != cc.Type.Alias {
			return "", newError(ErrCodeDuplicateAlias, alias,
				"collection %q declares alias %q and its type declares %q", cc.Relation, alias, cc.Type.Alias)
		}
		alias = cc.Type.Alias
	}
	return alias, nil
}

func (c *compilation) declare(alias string, types []archetype.TypeName, schemas []archetype.TypeSchema) {
	c.scopes[alias] = &scope{types: types, schemas: schemas}
	c.order = append(c.order, alias)
}

func (c *compilation) lookup(alias string) (*scope, error) {
	s, ok := c.scopes[alias]
	if !ok {
		return nil, newError(ErrCodeUnresolvedAlias, alias, "alias %q is not declared at this point", alias)
	}
	return s, nil
}

// compileRoots declares the root aliases and returns their type predicates.
func (c *compilation) compileRoots(roots []constraint.TypeConstraint) (predicate, error) {
	preds := make([]predicate, 0, len(roots))
	for _, r := range roots {
		alias := r.Alias
		if alias == "" {
			alias = c.aliases.allocate(typeBase(r.Types))
		} else {
			c.aliases.claim(alias)
		}

		rt, err := c.typePredicate(r, alias, true)
		if err != nil {
			return nil, err
		}
		if rt.source == "" {
			return nil, newError(ErrCodeInvalidConstraint, alias, "%s has no persistent source", r.Types[0])
		}
		c.roots = append(c.roots, fromItem{source: rt.source, alias: alias})
		c.declare(alias, rt.names, rt.schemas)
		preds = append(preds, rt.pred)
	}
	return allOf(preds...), nil
}

// compileList compiles sibling constraints, AND'ed.
func (c *compilation) compileList(nodes []constraint.Constraint, enclosing string) (predicate, error) {
	preds := make([]predicate, 0, len(nodes))
	for _, node := range nodes {
		p, err := c.compileConstraint(node, enclosing)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return allOf(preds...), nil
}

// compileConstraint dispatches on the node type. enclosing is the alias
// unqualified references resolve against.
func (c *compilation) compileConstraint(node constraint.Constraint, enclosing string) (predicate, error) {
	switch n := node.(type) {
	case constraint.TypeConstraint:
		return c.compileTypeFilter(n, enclosing)
	case *constraint.TypeConstraint:
		if n == nil {
			return nil, nilNode()
		}
		return c.compileTypeFilter(*n, enclosing)
	case constraint.PropertyConstraint:
		return c.compileProperty(n, enclosing)
	case *constraint.PropertyConstraint:
		if n == nil {
			return nil, nilNode()
		}
		return c.compileProperty(*n, enclosing)
	case constraint.CollectionConstraint:
		return c.compileCollection(n, enclosing)
	case *constraint.CollectionConstraint:
		if n == nil {
			return nil, nilNode()
		}
		return c.compileCollection(*n, enclosing)
	case constraint.BooleanConstraint:
		return c.compileBoolean(n, enclosing)
	case *constraint.BooleanConstraint:
		if n == nil {
			return nil, nilNode()
		}
		return c.compileBoolean(*n, enclosing)
	case constraint.LinkConstraint:
		return c.compileLink(n)
	case *constraint.LinkConstraint:
		if n == nil {
			return nil, nilNode()
		}
		return c.compileLink(*n)
	case constraint.SortSpec:
		return c.collectSort(n, enclosing)
	case *constraint.SortSpec:
		if n == nil {
			return nil, nilNode()
		}
		return c.collectSort(*n, enclosing)
	case nil:
		return nil, nilNode()
	default:
		return nil, newError(ErrCodeInvalidConstraint, enclosing, "unsupported constraint type: %T", node)
	}
}

func nilNode() error {
	return newError(ErrCodeInvalidConstraint, "", "nil constraint")
}

// compileTypeFilter restricts an existing alias. It never declares one.
func (c *compilation) compileTypeFilter(tc constraint.TypeConstraint, enclosing string) (predicate, error) {
	alias := tc.Alias
	if alias == "" {
		alias = enclosing
	}
	if _, err := c.lookup(alias); err != nil {
		return nil, err
	}
	rt, err := c.typePredicate(tc, alias, false)
	if err != nil {
		return nil, err
	}
	return rt.pred, nil
}

func (c *compilation) compileProperty(pc constraint.PropertyConstraint, enclosing string) (predicate, error) {
	alias := pc.Alias
	if alias == "" {
		alias = enclosing
	}
	s, err := c.lookup(alias)
	if err != nil {
		return nil, err
	}
	if pc.Path == "" {
		return nil, newError(ErrCodeInvalidConstraint, alias, "property constraint has no path")
	}
	if !pc.Op.Valid() {
		return nil, newError(ErrCodeInvalidConstraint, alias, "unknown operator %q", pc.Op)
	}
	if err := pc.Op.CheckArity(len(pc.Values)); err != nil {
		return nil, newError(ErrCodeInvalidOperand, alias, "%s.%s: %v", alias, pc.Path, err)
	}
	if err := c.checkPath(s.schemas, pc.Path, false); err != nil {
		return nil, err
	}

	ref := alias + "." + pc.Path
	names := make([]string, 0, len(pc.Values))
	for _, v := range pc.Values {
		name, err := c.bindOperand(alias, pc.Path, pc.Op, v)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	switch pc.Op {
	case constraint.OpIsNull, constraint.OpNotNull:
		return term(ref + " " + pc.Op.Symbol()), nil
	case constraint.OpIn:
		return term(fmt.Sprintf("%s IN (:%s)", ref, strings.Join(names, ", :"))), nil
	case constraint.OpBetween:
		return term(fmt.Sprintf("%s BETWEEN :%s AND :%s", ref, names[0], names[1])), nil
	default:
		return term(fmt.Sprintf("%s %s :%s", ref, pc.Op.Symbol(), names[0])), nil
	}
}

func (c *compilation) bindOperand(alias, path string, op constraint.Operator, operand constraint.Operand) (string, error) {
	switch v := operand.(type) {
	case constraint.Literal:
		if v.Value == nil {
			return "", newError(ErrCodeInvalidOperand, alias, "%s.%s: nil literal, use is_null", alias, path)
		}
		value := v.Value
		if s, ok := value.(string); ok && op == constraint.OpLike {
			value = archetype.LikePattern(s)
		}
		return c.params.bind(path, value), nil
	case constraint.Placeholder:
		if v.Key == "" {
			return "", newError(ErrCodeInvalidOperand, alias, "%s.%s: placeholder has no key", alias, path)
		}
		return c.params.bindDeferred(path, v.Key), nil
	default:
		return "", newError(ErrCodeInvalidOperand, alias, "%s.%s: unsupported operand %T", alias, path, operand)
	}
}

// compileCollection appends the join and returns the collection's WHERE
// fragment: its type predicate AND its nested constraints.
func (c *compilation) compileCollection(cc constraint.CollectionConstraint, enclosing string) (predicate, error) {
	from := cc.Source
	if from == "" {
		from = enclosing
	}
	src, err := c.lookup(from)
	if err != nil {
		return nil, err
	}
	if cc.Relation == "" {
		return nil, newError(ErrCodeInvalidConstraint, from, "collection constraint has no relation")
	}
	if cc.Join.Keyword() == "" {
		return nil, newError(ErrCodeInvalidConstraint, from, "unknown join kind %q", cc.Join)
	}
	rels, err := relationsOf(src.schemas, cc.Relation)
	if err != nil {
		return nil, err
	}

	alias, err := explicitAlias(cc)
	if err != nil {
		return nil, err
	}
	if alias == "" {
		alias = c.aliases.allocate(cc.Relation)
	} else {
		c.aliases.claim(alias)
	}
	c.joins = append(c.joins, joinItem{kind: cc.Join, from: from, relation: cc.Relation, alias: alias})

	var typePred predicate
	var types []archetype.TypeName
	var schemas []archetype.TypeSchema
	if cc.Type != nil {
		rt, err := c.typePredicate(*cc.Type, alias, true)
		if err != nil {
			return nil, err
		}
		typePred, types, schemas = rt.pred, rt.names, rt.schemas
	} else {
		schemas, err = c.relationTargets(rels)
		if err != nil {
			return nil, err
		}
		for _, s := range schemas {
			types = append(types, s.Name)
		}
	}
	c.declare(alias, types, schemas)

	nested, err := c.compileList(cc.Constraints, alias)
	if err != nil {
		return nil, err
	}
	return allOf(typePred, nested), nil
}

func (c *compilation) compileBoolean(b constraint.BooleanConstraint, enclosing string) (predicate, error) {
	if b.Op.Keyword() == "" {
		return nil, newError(ErrCodeInvalidConstraint, enclosing, "unknown combinator %q", b.Op)
	}
	mark := c.params.mark()
	terms := make([]predicate, 0, len(b.Constraints))
	unrestricted := false
	for _, child := range b.Constraints {
		p, err := c.compileConstraint(child, enclosing)
		if err != nil {
			return nil, err
		}
		if p == nil && !contributesNothing(child) {
			unrestricted = true
		}
		terms = append(terms, p)
	}
	// A child that restricts nothing is always true, and so is any OR over it.
	if b.Op == constraint.Or && unrestricted {
		c.params.rewind(mark)
		return nil, nil
	}
	return simplify(junction{op: b.Op, terms: terms, grouped: true}), nil
}

// contributesNothing reports whether node adds no WHERE term at all, as
// opposed to one that always holds: a sort, or a group holding only those.
func contributesNothing(node constraint.Constraint) bool {
	switch n := node.(type) {
	case constraint.SortSpec, *constraint.SortSpec:
		return true
	case constraint.BooleanConstraint:
		return allContributeNothing(n.Constraints)
	case *constraint.BooleanConstraint:
		return allContributeNothing(n.Constraints)
	}
	return false
}

func allContributeNothing(nodes []constraint.Constraint) bool {
	for _, n := range nodes {
		if !contributesNothing(n) {
			return false
		}
	}
	return true
}

func (c *compilation) compileLink(l constraint.LinkConstraint) (predicate, error) {
	left, err := c.reference(l.Left)
	if err != nil {
		return nil, err
	}
	right, err := c.reference(l.Right)
	if err != nil {
		return nil, err
	}
	return term(fmt.Sprintf("%s.id = %s.id", left, right)), nil
}

// reference validates "alias[.relation...]".
func (c *compilation) reference(ref string) (string, error) {
	if ref == "" {
		return "", newError(ErrCodeInvalidConstraint, "", "link has an empty reference")
	}
	alias, path, _ := strings.Cut(ref, ".")
	s, err := c.lookup(alias)
	if err != nil {
		return "", err
	}
	if path != "" {
		if err := c.checkPath(s.schemas, path, true); err != nil {
			return "", err
		}
	}
	return ref, nil
}

// collectSort records a sort for ORDER BY. Its alias must already be
// declared at this point in the traversal.
func (c *compilation) collectSort(s constraint.SortSpec, enclosing string) (predicate, error) {
	if s.Alias == "" {
		s.Alias = enclosing
	}
	if _, err := c.lookup(s.Alias); err != nil {
		return nil, err
	}
	c.sorts = append(c.sorts, s)
	return nil, nil
}

// checkPath validates a dotted path against the schemas of an alias.
//
// Every segment but the last must be a relation of at least one current
// schema; its targets become the schemas for the next segment. A property
// before the last segment is a composite value (archetypeId.concept) and ends
// validation. The last segment may be a property or a relation, or only a
// relation when relationsOnly is set. Aliases with no schemas are not checked.
func (c *compilation) checkPath(schemas []archetype.TypeSchema, path string, relationsOnly bool) error {
	segments := strings.Split(path, ".")
	for i, seg := range segments {
		if len(schemas) == 0 {
			return nil
		}
		final := i == len(segments)-1

		var rels []archetype.Relation
		var relErr, propErr error
		property := false
		for _, s := range schemas {
			rel, err := s.Relation(seg)
			if err == nil {
				rels = append(rels, rel)
				continue
			}
			if relErr == nil {
				relErr = err
			}
			if relationsOnly {
				continue
			}
			if _, err := s.Property(seg); err == nil {
				property = true
			} else if propErr == nil {
				propErr = err
			}
		}

		switch {
		case len(rels) == 0 && !property:
			if final && !relationsOnly {
				return propErr
			}
			return relErr
		case final, len(rels) == 0:
			return nil
		}

		next, err := c.relationTargets(rels)
		if err != nil {
			return err
		}
		schemas = next
	}
	return nil
}

// relationsOf returns the relation declared by at least one schema, or the
// first schema's lookup error when none declares it.
func relationsOf(schemas []archetype.TypeSchema, name string) ([]archetype.Relation, error) {
	var rels []archetype.Relation
	var firstErr error
	for _, s := range schemas {
		r, err := s.Relation(name)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		rels = append(rels, r)
	}
	if len(rels) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return rels, nil
}

// relationTargets resolves the target patterns of relations.
func (c *compilation) relationTargets(rels []archetype.Relation) ([]archetype.TypeSchema, error) {
	var out []archetype.TypeSchema
	for _, r := range rels {
		for _, target := range r.Targets {
			name, err := archetype.ParseTypeName(target)
			if err != nil {
				return nil, fmt.Errorf("relation %s: %w", r.Name, err)
			}
			schemas, err := c.resolver.Resolve(name)
			if err != nil {
				return nil, err
			}
			out = appendSchemas(out, schemas...)
		}
	}
	return out, nil
}
