package compile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/archq/internal/archetype"
)

func schema(name, source string, opts ...func(*archetype.TypeSchema)) archetype.TypeSchema {
	s := archetype.TypeSchema{Name: archetype.MustParseTypeName(name), Source: source, Primary: true}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func rel(name string, card archetype.Cardinality, targets ...string) func(*archetype.TypeSchema) {
	return func(s *archetype.TypeSchema) {
		s.Relations = append(s.Relations, archetype.Relation{Name: name, Targets: targets, Cardinality: card})
	}
}

func prop(name string, kind archetype.PropertyKind) func(*archetype.TypeSchema) {
	return func(s *archetype.TypeSchema) {
		s.Properties = append(s.Properties, archetype.Property{Name: name, Kind: kind})
	}
}

func subtypes(names ...string) func(*archetype.TypeSchema) {
	return func(s *archetype.TypeSchema) {
		for _, n := range names {
			s.Subtypes = append(s.Subtypes, archetype.MustParseTypeName(n))
		}
	}
}

// practiceRegistry is a small veterinary practice model.
func practiceRegistry(t *testing.T) *archetype.Registry {
	t.Helper()
	reg, err := archetype.NewRegistry(
		schema("openvpms-party.person.1.0", "Party",
			rel("contacts", archetype.Many, "contact.*"),
			prop("firstName", archetype.KindString),
			prop("lastName", archetype.KindString)),
		schema("openvpms-party.organisation.1.0", "Party",
			rel("contacts", archetype.Many, "contact.*")),
		schema("openvpms-party.customerperson.1.0", "Party",
			rel("contacts", archetype.Many, "contact.*"),
			prop("lastName", archetype.KindString)),
		schema("openvpms-party.patientpet.1.0", "Party",
			rel("species", archetype.One, "lookup.species"),
			prop("dateOfBirth", archetype.KindDate)),
		schema("openvpms-contact.location.1.0", "Contact",
			prop("address", archetype.KindString),
			prop("suburb", archetype.KindString)),
		schema("openvpms-contact.phoneNumber.1.0", "Contact",
			prop("telephoneNumber", archetype.KindString)),
		schema("openvpms-lookup.species.1.0", "Lookup",
			prop("code", archetype.KindString)),
		schema("openvpms-entityRelationship.patientOwner.1.0", "EntityRelationship",
			rel("source", archetype.One, "party.customerperson"),
			rel("target", archetype.One, "party.patientpet")),
		schema("openvpms-act.customerEstimation.1.0", "Act",
			rel("items", archetype.Many, "act.customerEstimationItem"),
			prop("amount", archetype.KindMoney),
			subtypes("act.customerEstimationItem")),
		schema("openvpms-act.customerEstimationItem.1.0", "Act",
			prop("amount", archetype.KindMoney)),
	)
	require.NoError(t, err)
	return reg
}

// resolverFunc adapts a function to archetype.Resolver.
type resolverFunc func(archetype.TypeName) ([]archetype.TypeSchema, error)

func (f resolverFunc) Resolve(pattern archetype.TypeName) ([]archetype.TypeSchema, error) {
	return f(pattern)
}
