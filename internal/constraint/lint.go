package constraint

import "fmt"

// LintResult lists caller-responsibility hazards found in a query.
//
// The compiler never rewrites a tree to make it null safe or to add missing
// correlations. Lint points those places out so callers can fix the tree.
type LintResult struct {
	// Clean is true when no warnings were produced.
	Clean bool

	// Warnings describes each hazard in tree order.
	Warnings []string
}

// Lint checks a query for hazards the compiler deliberately leaves alone:
//  1. Type or property tests on a left-outer-joined alias that are not OR'd
//     with an is-null test on that alias (they silently become inner joins).
//  2. Multiple roots with no LinkConstraint (a cartesian product).
//  3. Empty boolean groups.
//  4. Constraint nodes of unknown type.
//
// Lint is a pure function with no side effects.
func Lint(q Query) LintResult {
	l := &linter{warnings: []string{}}

	if len(q.Roots) > 1 && !containsLink(q.Constraints) {
		l.addWarning("%d roots without a link constraint produce a cartesian product", len(q.Roots))
	}
	for _, c := range q.Constraints {
		l.lintNode(c, nil, false)
	}

	return LintResult{
		Clean:    len(l.warnings) == 0,
		Warnings: l.warnings,
	}
}

// linter accumulates warnings during traversal.
type linter struct {
	warnings []string
}

func (l *linter) addWarning(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

// lintNode walks one node. outer is the innermost left-outer collection
// enclosing the node (nil when the nearest enclosing alias is inner joined or
// a root); nullSafe is true inside an OR group that tests it for null.
func (l *linter) lintNode(c Constraint, outer *CollectionConstraint, nullSafe bool) {
	switch node := c.(type) {
	case TypeConstraint:
		l.lintTest(outer, nullSafe, node.Alias, "type filter")
	case *TypeConstraint:
		l.lintTest(outer, nullSafe, node.Alias, "type filter")
	case PropertyConstraint:
		l.lintProperty(node, outer, nullSafe)
	case *PropertyConstraint:
		l.lintProperty(*node, outer, nullSafe)
	case CollectionConstraint:
		l.lintCollection(node, outer, nullSafe)
	case *CollectionConstraint:
		l.lintCollection(*node, outer, nullSafe)
	case BooleanConstraint:
		l.lintBoolean(node, outer, nullSafe)
	case *BooleanConstraint:
		l.lintBoolean(*node, outer, nullSafe)
	case LinkConstraint, *LinkConstraint, SortSpec, *SortSpec:
		// Links and sorts never filter out unmatched outer rows on their own.
	default:
		l.addWarning("unknown constraint type: %T", c)
	}
}

func (l *linter) lintTest(outer *CollectionConstraint, nullSafe bool, alias, what string) {
	if outer == nil || nullSafe || (alias != "" && alias != outer.Alias) {
		return
	}
	l.addWarning("%s on left outer join %q excludes rows without a match; OR it with an is-null test", what, outer.Relation)
}

func (l *linter) lintProperty(p PropertyConstraint, outer *CollectionConstraint, nullSafe bool) {
	if p.Op == OpIsNull {
		return
	}
	l.lintTest(outer, nullSafe, p.Alias, fmt.Sprintf("property %q", p.Path))
}

func (l *linter) lintCollection(cc CollectionConstraint, outer *CollectionConstraint, nullSafe bool) {
	if cc.Join == LeftOuterJoin {
		if cc.Type != nil {
			l.lintTest(&cc, false, "", "type filter")
		}
		for _, child := range cc.Constraints {
			l.lintNode(child, &cc, false)
		}
		return
	}
	// An inner join under an outer one still drops unmatched outer rows.
	l.lintTest(outer, nullSafe, cc.Source, fmt.Sprintf("inner join %q", cc.Relation))
	for _, child := range cc.Constraints {
		l.lintNode(child, nil, false)
	}
}

func (l *linter) lintBoolean(b BooleanConstraint, outer *CollectionConstraint, nullSafe bool) {
	if len(b.Constraints) == 0 {
		l.addWarning("empty %s group", b.Op)
		return
	}
	if b.Op == Or && outer != nil && testsNull(b.Constraints, outer) {
		nullSafe = true
	}
	for _, child := range b.Constraints {
		l.lintNode(child, outer, nullSafe)
	}
}

// testsNull reports whether one of the children is an is-null test on the
// outer alias.
func testsNull(children []Constraint, outer *CollectionConstraint) bool {
	for _, c := range children {
		var p PropertyConstraint
		switch node := c.(type) {
		case PropertyConstraint:
			p = node
		case *PropertyConstraint:
			p = *node
		default:
			continue
		}
		if p.Op == OpIsNull && (p.Alias == "" || p.Alias == outer.Alias) {
			return true
		}
	}
	return false
}

func containsLink(cs []Constraint) bool {
	for _, c := range cs {
		switch node := c.(type) {
		case LinkConstraint, *LinkConstraint:
			return true
		case BooleanConstraint:
			if containsLink(node.Constraints) {
				return true
			}
		case *BooleanConstraint:
			if containsLink(node.Constraints) {
				return true
			}
		case CollectionConstraint:
			if containsLink(node.Constraints) {
				return true
			}
		case *CollectionConstraint:
			if containsLink(node.Constraints) {
				return true
			}
		}
	}
	return false
}
