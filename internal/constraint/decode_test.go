package constraint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archq/internal/archetype"
)

func TestDecodeQuery_FullDocument(t *testing.T) {
	doc := `
roots:
  - types: [party.person, party.organisation]
constraints:
  - property: {path: uid, op: eq, values: ["1"]}
  - property: {path: name, op: like, values: ["sa*"]}
  - sort: {property: name}
  - collection:
      relation: contacts
      join: inner
      type: {types: [contact.location]}
distinct: true
offset: 10
limit: 20
`
	q, err := DecodeQuery([]byte(doc))
	require.NoError(t, err)

	require.Len(t, q.Roots, 1)
	assert.Equal(t, []archetype.TypeName{
		{Family: "party", Concept: "person"},
		{Family: "party", Concept: "organisation"},
	}, q.Roots[0].Types)

	require.Len(t, q.Constraints, 4)
	assert.Equal(t, Eq("uid", "1"), q.Constraints[0])
	assert.Equal(t, Like("name", "sa*"), q.Constraints[1])
	assert.Equal(t, Sort("name"), q.Constraints[2])

	coll, ok := q.Constraints[3].(CollectionConstraint)
	require.True(t, ok, "expected CollectionConstraint, got %T", q.Constraints[3])
	assert.Equal(t, "contacts", coll.Relation)
	assert.Equal(t, InnerJoin, coll.Join)
	require.NotNil(t, coll.Type)
	assert.Equal(t, Names("contact.location"), coll.Type.Types)

	assert.True(t, q.Distinct)
	assert.Equal(t, 10, q.Offset)
	assert.Equal(t, 20, q.Limit)
}

func TestDecodeQuery_JSON(t *testing.T) {
	doc := `{"roots": [{"alias": "p", "types": ["openvpms-party.person.1.0"], "exact_id": true, "instance_id": 42}], ` +
		`"constraints": [{"property": {"path": "id", "op": "in", "values": [1, 2, 3]}}]}`

	q, err := DecodeQuery([]byte(doc))
	require.NoError(t, err)

	require.Len(t, q.Roots, 1)
	root := q.Roots[0]
	assert.Equal(t, "p", root.Alias)
	assert.True(t, root.ExactID)
	assert.Equal(t, int64(42), root.InstanceID)
	assert.Equal(t, "1.0", root.Types[0].Version)

	assert.Equal(t, In("id", int64(1), int64(2), int64(3)), q.Constraints[0])
}

func TestDecodeQuery_BooleanAndPlaceholder(t *testing.T) {
	doc := `
roots:
  - types: [party.patientpet]
constraints:
  - collection:
      relation: species
      join: left_outer
      constraints:
        - or:
            - property: {path: id, op: is_null}
            - type: {types: [lookup.species]}
  - and:
      - property: {path: name, op: eq, values: [{bound: petName}]}
      - link: {left: patient0, right: patient0}
sorts:
  - {identity: concept, desc: true}
`
	q, err := DecodeQuery([]byte(doc))
	require.NoError(t, err)

	coll := q.Constraints[0].(CollectionConstraint)
	assert.Equal(t, LeftOuterJoin, coll.Join)
	assert.Nil(t, coll.Type)
	or := coll.Constraints[0].(BooleanConstraint)
	assert.Equal(t, Or, or.Op)
	assert.Equal(t, IsNull("id"), or.Constraints[0])
	assert.Equal(t, TypeConstraint{Types: Names("lookup.species")}, or.Constraints[1])

	and := q.Constraints[1].(BooleanConstraint)
	assert.Equal(t, And, and.Op)
	assert.Equal(t, Eq("name", Bound("petName")), and.Constraints[0])
	assert.Equal(t, Link("patient0", "patient0"), and.Constraints[1])

	assert.Equal(t, []SortSpec{{Identity: IdentityConcept, Descending: true}}, q.Sorts)
}

func TestDecodeQuery_Errors(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", ``, "empty query document"},
		{"unknown key", "roots: []\nwhere: x\n", "decode query"},
		{"two kinds", "constraints:\n  - link: {left: a, right: b}\n    sort: {property: name}\n", "exactly one kind"},
		{"no kind", "constraints:\n  - {}\n", "exactly one kind"},
		{"bad operator", "constraints:\n  - property: {path: a, op: approx}\n", "unknown operator"},
		{"bad join", "constraints:\n  - collection: {relation: a, join: cross}\n", "unknown join kind"},
		{"bad type name", "roots:\n  - types: [party]\n", "roots[0]"},
		{"bad operand", "constraints:\n  - property: {path: a, op: eq, values: [{x: 1}]}\n", "{bound: key}"},
		{"bad identity", "sorts:\n  - {identity: version}\n", "unknown identity component"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeQuery([]byte(tc.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
