package descriptor

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/archq/internal/archetype"
)

const practiceCUE = `
archetype: "openvpms-party.patientpet.1.0": {
	source: "Party"
	relations: species: {targets: "lookup.species", cardinality: "one"}
	properties: {dateOfBirth: "date", sex: "string"}
}

archetype: "openvpms-party.customerperson.1.0": {
	source: "Party"
	relations: contacts: targets: ["contact.location", "contact.phoneNumber"]
	subtypes: ["party.customerorganisation"]
}

archetype: "openvpms-lookup.species.1.0": {
	source:  "Lookup"
	primary: false
}
`

func TestDecodeCUE(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(practiceCUE)
	require.NoError(t, v.Err())

	schemas, err := DecodeCUE(v)
	require.NoError(t, err)
	require.Len(t, schemas, 3)

	pet := schemas[0]
	assert.Equal(t, archetype.MustParseTypeName("openvpms-party.patientpet.1.0"), pet.Name)
	assert.Equal(t, "Party", pet.Source)
	assert.True(t, pet.Primary)
	assert.Equal(t, []archetype.Relation{
		{Name: "species", Targets: []string{"lookup.species"}, Cardinality: archetype.One},
	}, pet.Relations)
	assert.Equal(t, []archetype.Property{
		{Name: "dateOfBirth", Kind: archetype.KindDate},
		{Name: "sex", Kind: archetype.KindString},
	}, pet.Properties)

	customer := schemas[1]
	require.Len(t, customer.Relations, 1)
	assert.Equal(t, archetype.Many, customer.Relations[0].Cardinality)
	assert.Equal(t, []string{"contact.location", "contact.phoneNumber"}, customer.Relations[0].Targets)
	assert.Equal(t, []archetype.TypeName{archetype.MustParseTypeName("party.customerorganisation")}, customer.Subtypes)

	assert.False(t, schemas[2].Primary)
}

func TestDecodeCUE_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "no archetype struct",
			src:     `concept: Cart: {}`,
			wantMsg: "no archetype declarations found",
		},
		{
			name:    "missing source",
			src:     `archetype: "party.person": {}`,
			wantMsg: "source is required",
		},
		{
			name:    "missing targets",
			src:     `archetype: "party.person": {source: "Party", relations: contacts: {cardinality: "many"}}`,
			wantMsg: "targets is required",
		},
		{
			name:    "bad property kind",
			src:     `archetype: "party.person": {source: "Party", properties: {weight: "float"}}`,
			wantMsg: "invalid kind",
		},
		{
			name:    "bad name",
			src:     `archetype: "person": {source: "Party"}`,
			wantMsg: "expected family.concept",
		},
		{
			name:    "wildcard name",
			src:     `archetype: "party.*": {source: "Party"}`,
			wantMsg: "cannot contain wildcards",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := cuecontext.New().CompileString(tc.src)
			require.NoError(t, v.Err())

			_, err := DecodeCUE(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantMsg)

			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

func TestDecodeCUE_ReportsPosition(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.cue")
	require.NoError(t, os.WriteFile(path, []byte("archetype: \"party.person\": {\n\tsource: 42\n}\n"), 0o644))

	_, err := LoadCUEFile(path)
	require.Error(t, err)

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.True(t, de.Pos.IsValid())
	assert.Contains(t, err.Error(), "bad.cue")
}

func TestLoadCUE_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "party.cue"), []byte(practiceCUE), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact.cue"), []byte(`
archetype: "openvpms-contact.location.1.0": {
	source: "Contact"
	properties: suburb: "string"
}
`), 0o644))

	schemas, err := LoadCUE(dir)
	require.NoError(t, err)
	assert.Len(t, schemas, 4)
}

func TestLoadCUE_NoFiles(t *testing.T) {
	_, err := LoadCUE(t.TempDir())
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeNoFiles, le.Code)
}
