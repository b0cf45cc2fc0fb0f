package compile

import (
	"strings"

	"github.com/roach88/archq/internal/constraint"
)

// predicate is a WHERE fragment: either an atomic term or a junction.
type predicate interface {
	predicateNode()
}

// term is an atomic comparison, already rendered.
type term string

func (term) predicateNode() {}

// junction combines terms with one combinator.
//
// grouped marks a junction declared by a BooleanConstraint: it keeps its
// parentheses even under a parent with the same combinator.
type junction struct {
	op      constraint.Combinator
	terms   []predicate
	grouped bool
}

func (junction) predicateNode() {}

func allOf(terms ...predicate) predicate {
	return simplify(junction{op: constraint.And, terms: terms})
}

func anyOf(terms ...predicate) predicate {
	return simplify(junction{op: constraint.Or, terms: terms})
}

// simplify drops empty children and collapses a junction with a single child
// into that child. A nil predicate means "no restriction".
func simplify(p predicate) predicate {
	j, ok := p.(junction)
	if !ok {
		return p
	}
	kept := make([]predicate, 0, len(j.terms))
	for _, t := range j.terms {
		if t == nil {
			continue
		}
		kept = append(kept, t)
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	j.terms = kept
	return j
}

// render writes p as a top-level predicate. Nested junctions are
// parenthesised when their combinator differs from the parent's or when they
// are declared groups.
func render(p predicate) string {
	if p == nil {
		return ""
	}
	var sb strings.Builder
	writePredicate(&sb, p, "", true)
	return sb.String()
}

func writePredicate(sb *strings.Builder, p predicate, parent constraint.Combinator, top bool) {
	switch node := p.(type) {
	case term:
		sb.WriteString(string(node))
	case junction:
		wrap := !top && (node.grouped || node.op != parent)
		if wrap {
			sb.WriteByte('(')
		}
		for i, child := range node.terms {
			if i > 0 {
				sb.WriteByte(' ')
				sb.WriteString(node.op.Keyword())
				sb.WriteByte(' ')
			}
			writePredicate(sb, child, node.op, false)
		}
		if wrap {
			sb.WriteByte(')')
		}
	}
}
