package archetype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTypeName(t *testing.T) {
	testCases := []struct {
		in   string
		want TypeName
	}{
		{"party.person", TypeName{Family: "party", Concept: "person"}},
		{"openvpms-party.person", TypeName{Namespace: "openvpms", Family: "party", Concept: "person"}},
		{"openvpms-party.person.1.0", TypeName{Namespace: "openvpms", Family: "party", Concept: "person", Version: "1.0"}},
		{"act.customer*", TypeName{Family: "act", Concept: "customer*"}},
		{"*-lookup.species", TypeName{Namespace: "*", Family: "lookup", Concept: "species"}},
		{"act.customer-note", TypeName{Family: "act", Concept: "customer-note"}},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTypeName(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTypeName_Invalid(t *testing.T) {
	for _, in := range []string{"", "party", "-party.person", ".person", "party.", "party.person.*"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseTypeName(in)
			assert.Error(t, err)
		})
	}
}

func TestTypeName_StringRoundTrip(t *testing.T) {
	for _, in := range []string{"party.person", "openvpms-party.person", "openvpms-party.person.1.0"} {
		assert.Equal(t, in, MustParseTypeName(in).String())
	}
}

func TestTypeName_Match(t *testing.T) {
	person := MustParseTypeName("openvpms-party.person.1.0")

	testCases := []struct {
		pattern string
		want    bool
	}{
		{"party.person", true},
		{"openvpms-party.person", true},
		{"other-party.person", false},
		{"*-party.person", true},
		{"party.*", true},
		{"*.person", true},
		{"party.per*", true},
		{"party.organisation", false},
		{"openvpms-party.person.1.0", true},
		{"openvpms-party.person.2.0", false},
	}

	for _, tc := range testCases {
		t.Run(tc.pattern, func(t *testing.T) {
			ok, err := MustParseTypeName(tc.pattern).Match(person)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestTypeName_Flags(t *testing.T) {
	assert.True(t, MustParseTypeName("party.*").IsWildcard())
	assert.False(t, MustParseTypeName("party.person").IsWildcard())
	assert.True(t, MustParseTypeName("openvpms-party.person").HasFixedNamespace())
	assert.False(t, MustParseTypeName("*-party.person").HasFixedNamespace())
	assert.False(t, MustParseTypeName("party.person").HasFixedNamespace())
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "customer%", LikePattern("customer*"))
	assert.Equal(t, "%note%", LikePattern("*note*"))
	assert.Equal(t, "person", LikePattern("person"))
	assert.Equal(t, `100\%%`, LikePattern("100%*"))
	assert.Equal(t, `first\_name`, LikePattern("first_name"))
	assert.Equal(t, `a\\b%`, LikePattern(`a\b*`))
}
