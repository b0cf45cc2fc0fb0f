package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperator_CheckArity(t *testing.T) {
	testCases := []struct {
		op      Operator
		n       int
		wantErr string
	}{
		{OpEq, 1, ""},
		{OpEq, 2, "eq needs exactly one operand, got 2"},
		{OpIsNull, 0, ""},
		{OpNotNull, 1, "not_null takes no operands, got 1"},
		{OpIn, 3, ""},
		{OpIn, 0, "in needs at least one operand"},
		{OpBetween, 2, ""},
		{OpBetween, 1, "between needs exactly two operands, got 1"},
	}

	for _, tc := range testCases {
		t.Run(string(tc.op), func(t *testing.T) {
			err := tc.op.CheckArity(tc.n)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}

func TestKeywords(t *testing.T) {
	assert.True(t, OpLike.Valid())
	assert.False(t, Operator("approx").Valid())
	assert.Equal(t, "<>", OpNe.Symbol())

	assert.Equal(t, "OR", Or.Keyword())
	assert.Equal(t, "", Combinator("xor").Keyword())

	assert.Equal(t, "INNER JOIN", JoinKind("").Keyword())
	assert.Equal(t, "LEFT OUTER JOIN", LeftOuterJoin.Keyword())
	assert.Equal(t, "", JoinKind("cross").Keyword())

	assert.True(t, IdentityConcept.Valid())
	assert.False(t, IdentityComponent("version").Valid())
}

func TestBuilders(t *testing.T) {
	p := Between("amount", 10, Bound("max"))
	assert.Equal(t, OpBetween, p.Op)
	assert.Equal(t, []Operand{Literal{Value: 10}, Placeholder{Key: "max"}}, p.Values)

	assert.Empty(t, IsNull("id").Values)

	coll := LeftJoin("species", TypeOf("lookup.species"), Eq("code", "CANINE"))
	assert.Equal(t, LeftOuterJoin, coll.Join)
	assert.Equal(t, "species", coll.Relation)
	assert.Len(t, coll.Constraints, 1)

	assert.Equal(t, SortSpec{Property: "name", Descending: true}, SortDesc("name"))
	assert.Equal(t, SortSpec{Identity: IdentityFamily}, SortByIdentity(IdentityFamily))
}
