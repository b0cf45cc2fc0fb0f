package archetype

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeSchema_Lookup(t *testing.T) {
	s := testSchema("openvpms-party.patientpet.1.0", "Party")
	s.Relations = []Relation{{Name: "species", Targets: []string{"lookup.species"}, Cardinality: One}}
	s.Properties = []Property{{Name: "dateOfBirth", Kind: KindDate}}

	r, err := s.Relation("species")
	require.NoError(t, err)
	assert.Equal(t, One, r.Cardinality)

	p, err := s.Property("dateOfBirth")
	require.NoError(t, err)
	assert.Equal(t, KindDate, p.Kind)

	p, err = s.Property("uid")
	require.NoError(t, err, "built-in properties resolve on every schema")
	assert.Equal(t, KindString, p.Kind)

	_, err = s.Property("colour")
	require.Error(t, err)
	assert.True(t, IsLookupKind(err, ErrUnresolvedProperty))
	assert.Equal(t, `UNRESOLVED_PROPERTY: party.patientpet has no property "colour"`, err.Error())

	_, err = s.Relation("owner")
	require.Error(t, err)
	assert.True(t, IsLookupKind(err, ErrUnresolvedRelation))
	assert.False(t, IsLookupKind(err, ErrUnresolvedProperty))
	assert.False(t, IsLookupKind(fmt.Errorf("plain"), ErrUnresolvedRelation))
}

func TestTypeSchema_Validate(t *testing.T) {
	valid := func() TypeSchema {
		s := testSchema("openvpms-party.customerperson.1.0", "Party")
		s.Relations = []Relation{{Name: "contacts", Targets: []string{"contact.*"}, Cardinality: Many}}
		s.Properties = []Property{{Name: "lastName", Kind: KindString}}
		return s
	}
	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(*TypeSchema)
		want   string
	}{
		{"wildcard name", func(s *TypeSchema) { s.Name.Concept = "*" }, "registered names cannot contain wildcards"},
		{"no source", func(s *TypeSchema) { s.Source = "" }, "source is required"},
		{"unnamed relation", func(s *TypeSchema) { s.Relations[0].Name = "" }, "relation without a name"},
		{"bad cardinality", func(s *TypeSchema) { s.Relations[0].Cardinality = "several" }, `invalid cardinality "several"`},
		{"bad kind", func(s *TypeSchema) { s.Properties[0].Kind = "float" }, `invalid kind "float"`},
		{
			"property shadows relation",
			func(s *TypeSchema) { s.Properties = append(s.Properties, Property{Name: "contacts", Kind: KindRef}) },
			`duplicate node "contacts"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.mutate(&s)
			err := s.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
