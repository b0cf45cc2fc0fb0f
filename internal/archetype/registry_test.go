package archetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema(name, source string) TypeSchema {
	return TypeSchema{Name: MustParseTypeName(name), Source: source, Primary: true}
}

func TestRegistry_ResolveOrder(t *testing.T) {
	reg, err := NewRegistry(
		testSchema("openvpms-party.person.1.0", "Party"),
		testSchema("acme-party.person.1.0", "Party"),
		testSchema("openvpms-party.organisation.1.0", "Party"),
		testSchema("openvpms-contact.location.1.0", "Contact"),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, reg.Len())

	got, err := reg.Resolve(MustParseTypeName("party.*"))
	require.NoError(t, err)

	var names []string
	for _, s := range got {
		names = append(names, s.Name.String())
	}
	assert.Equal(t, []string{
		"openvpms-party.organisation.1.0",
		"acme-party.person.1.0",
		"openvpms-party.person.1.0",
	}, names)
}

func TestRegistry_ResolveNoMatch(t *testing.T) {
	reg, err := NewRegistry(testSchema("openvpms-party.person.1.0", "Party"))
	require.NoError(t, err)

	got, err := reg.Resolve(MustParseTypeName("lookup.species"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegistry_RejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		testSchema("openvpms-party.person.1.0", "Party"),
		testSchema("openvpms-party.person.1.0", "Party"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate archetype")
}

func TestRegistry_RejectsInvalidSchema(t *testing.T) {
	testCases := []struct {
		name   string
		schema TypeSchema
	}{
		{"missing source", TypeSchema{Name: MustParseTypeName("party.person")}},
		{"wildcard name", testSchema("party.*", "Party")},
		{"bad cardinality", TypeSchema{
			Name:      MustParseTypeName("party.person"),
			Source:    "Party",
			Relations: []Relation{{Name: "contacts", Cardinality: "several"}},
		}},
		{"bad kind", TypeSchema{
			Name:       MustParseTypeName("party.person"),
			Source:     "Party",
			Properties: []Property{{Name: "title", Kind: "float"}},
		}},
		{"duplicate node", TypeSchema{
			Name:       MustParseTypeName("party.person"),
			Source:     "Party",
			Relations:  []Relation{{Name: "title", Cardinality: One}},
			Properties: []Property{{Name: "title", Kind: KindString}},
		}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(tc.schema)
			assert.Error(t, err)
		})
	}
}

func TestTypeSchema_Lookups(t *testing.T) {
	s := TypeSchema{
		Name:       MustParseTypeName("openvpms-party.person.1.0"),
		Source:     "Party",
		Relations:  []Relation{{Name: "contacts", Targets: []string{"contact.*"}, Cardinality: Many}},
		Properties: []Property{{Name: "title", Kind: KindString}},
	}

	rel, err := s.Relation("contacts")
	require.NoError(t, err)
	assert.Equal(t, Many, rel.Cardinality)

	_, err = s.Property("title")
	require.NoError(t, err)

	// Built-in properties are answered without being declared.
	p, err := s.Property("uid")
	require.NoError(t, err)
	assert.Equal(t, KindString, p.Kind)

	_, err = s.Relation("patients")
	assert.True(t, IsLookupKind(err, ErrUnresolvedRelation))
	assert.Contains(t, err.Error(), `party.person has no relation "patients"`)

	_, err = s.Property("weight")
	assert.True(t, IsLookupKind(err, ErrUnresolvedProperty))
	assert.False(t, IsLookupKind(err, ErrUnresolvedRelation))
}
