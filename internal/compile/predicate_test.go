package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/archq/internal/constraint"
)

func TestRender(t *testing.T) {
	a, b, c := term("a = 1"), term("b = 2"), term("c = 3")

	testCases := []struct {
		name string
		pred predicate
		want string
	}{
		{"nil", nil, ""},
		{"single term", a, "a = 1"},
		{"flat and", allOf(a, b, c), "a = 1 AND b = 2 AND c = 3"},
		{"nested and flattens", allOf(a, allOf(b, c)), "a = 1 AND b = 2 AND c = 3"},
		{"or under and", allOf(a, anyOf(b, c)), "a = 1 AND (b = 2 OR c = 3)"},
		{"and under or", anyOf(allOf(a, b), c), "(a = 1 AND b = 2) OR c = 3"},
		{
			"declared group keeps parens",
			allOf(a, simplify(junction{op: constraint.And, terms: []predicate{b, c}, grouped: true})),
			"a = 1 AND (b = 2 AND c = 3)",
		},
		{"nil children dropped", allOf(nil, a, nil), "a = 1"},
		{"empty junction", anyOf(nil, nil), ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, render(tc.pred))
		})
	}
}

func TestSimplify_SingleChildGroupCollapses(t *testing.T) {
	p := simplify(junction{op: constraint.Or, terms: []predicate{term("x = 1")}, grouped: true})
	assert.Equal(t, term("x = 1"), p)
}
