package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_Inline(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/left_outer_species.yaml")
	require.NoError(t, err)

	assert.Equal(t, "left_outer_species", s.Name)
	assert.Equal(t, []string{filepath.Join("testdata", "descriptors", "practice.yaml")}, s.Descriptors)
	assert.Equal(t, yaml.MappingNode, s.Query.Kind)
	require.NotNil(t, s.Expect)
	assert.Contains(t, s.Expect.Text, "LEFT OUTER JOIN patientpet0.species AS species0")
	require.Len(t, s.Assertions, 4)
	assert.Equal(t, AssertParameterCount, s.Assertions[0].Type)
	assert.Equal(t, 4, s.Assertions[0].Count)
}

func TestLoadScenario_QueryFile(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/customers_by_suburb.yaml")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("testdata", "queries", "customers.yaml"), s.QueryFile)
	assert.Nil(t, s.Expect)

	doc, err := s.queryDocument()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "party.customerperson")
}

func TestLoadScenario_InlineQueryReencodes(t *testing.T) {
	s, err := LoadScenario("testdata/scenarios/unknown_type.yaml")
	require.NoError(t, err)

	doc, err := s.queryDocument()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "party.supplier")
}

func TestLoadScenario_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: y\nquery: {roots: []}\nassertion: []\n",
			want:    "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: y\nquery: {roots: []}\n",
			want:    "name is required",
		},
		{
			name:    "missing description",
			content: "name: x\nquery: {roots: []}\n",
			want:    "description is required",
		},
		{
			name:    "no query",
			content: "name: x\ndescription: y\n",
			want:    "exactly one of query or query_file",
		},
		{
			name:    "both queries",
			content: "name: x\ndescription: y\nquery: {roots: []}\nquery_file: q.yaml\n",
			want:    "exactly one of query or query_file",
		},
		{
			name:    "query not a mapping",
			content: "name: x\ndescription: y\nquery: [a]\n",
			want:    "query must be a mapping",
		},
		{
			name:    "expect with both",
			content: "name: x\ndescription: y\nquery: {roots: []}\nexpect: {text: a, error: B}\n",
			want:    "exactly one of text or error",
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: y\nquery: {roots: []}\nassertions:\n  - type: row_count\n",
			want:    `unknown assertion type "row_count"`,
		},
		{
			name:    "parameter with value and key",
			content: "name: x\ndescription: y\nquery: {roots: []}\nassertions:\n  - {type: parameter, name: a0, value: 1, key: a}\n",
			want:    "exactly one of value or key",
		},
		{
			name:    "alias order without aliases",
			content: "name: x\ndescription: y\nquery: {roots: []}\nassertions:\n  - {type: alias_order}\n",
			want:    "requires aliases",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("testdata/scenarios/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
