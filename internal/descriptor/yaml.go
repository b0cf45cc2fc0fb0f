package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/archq/internal/archetype"
)

type yamlDocument struct {
	Archetypes []yamlArchetype `yaml:"archetypes"`
}

type yamlArchetype struct {
	Name       string               `yaml:"name"`
	Source     string               `yaml:"source"`
	Primary    *bool                `yaml:"primary,omitempty"`
	Relations  []archetype.Relation `yaml:"relations,omitempty"`
	Properties []archetype.Property `yaml:"properties,omitempty"`
	Subtypes   []string             `yaml:"subtypes,omitempty"`
}

// DecodeYAML decodes a descriptor document. JSON documents decode too.
//
//	archetypes:
//	  - name: openvpms-party.patientpet.1.0
//	    source: Party
//	    relations:
//	      - {name: species, targets: [lookup.species], cardinality: one}
//	    properties:
//	      - {name: dateOfBirth, kind: date}
func DecodeYAML(data []byte) ([]archetype.TypeSchema, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &DecodeError{Field: "archetypes", Message: "empty descriptor document"}
		}
		return nil, fmt.Errorf("decode descriptors: %w", err)
	}
	if len(doc.Archetypes) == 0 {
		return nil, &DecodeError{Field: "archetypes", Message: "no archetype declarations found"}
	}

	schemas := make([]archetype.TypeSchema, 0, len(doc.Archetypes))
	for i, a := range doc.Archetypes {
		s, err := a.schema()
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) && de.Archetype == "" {
				de.Archetype = fmt.Sprintf("archetypes[%d]", i)
			}
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func (a yamlArchetype) schema() (archetype.TypeSchema, error) {
	if a.Name == "" {
		return archetype.TypeSchema{}, &DecodeError{Field: "name", Message: "name is required"}
	}
	name, err := archetype.ParseTypeName(a.Name)
	if err != nil {
		return archetype.TypeSchema{}, &DecodeError{Archetype: a.Name, Field: "name", Message: err.Error()}
	}

	s := archetype.TypeSchema{
		Name:       name,
		Source:     a.Source,
		Primary:    a.Primary == nil || *a.Primary,
		Relations:  a.Relations,
		Properties: a.Properties,
	}
	for i := range s.Relations {
		if s.Relations[i].Cardinality == "" {
			s.Relations[i].Cardinality = archetype.Many
		}
		if len(s.Relations[i].Targets) == 0 {
			return s, &DecodeError{Archetype: a.Name, Field: "relations." + s.Relations[i].Name, Message: "targets is required"}
		}
	}
	for _, n := range a.Subtypes {
		sub, err := archetype.ParseTypeName(n)
		if err != nil {
			return s, &DecodeError{Archetype: a.Name, Field: "subtypes", Message: err.Error()}
		}
		s.Subtypes = append(s.Subtypes, sub)
	}

	if err := s.Validate(); err != nil {
		return s, &DecodeError{Archetype: a.Name, Field: "archetype", Message: err.Error()}
	}
	return s, nil
}

// EncodeYAML writes schemas in the form DecodeYAML reads.
func EncodeYAML(w io.Writer, schemas []archetype.TypeSchema) error {
	doc := yamlDocument{Archetypes: make([]yamlArchetype, 0, len(schemas))}
	for _, s := range schemas {
		primary := s.Primary
		a := yamlArchetype{
			Name:       s.Name.String(),
			Source:     s.Source,
			Primary:    &primary,
			Relations:  s.Relations,
			Properties: s.Properties,
		}
		for _, sub := range s.Subtypes {
			a.Subtypes = append(a.Subtypes, sub.String())
		}
		doc.Archetypes = append(doc.Archetypes, a)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode descriptors: %w", err)
	}
	return enc.Close()
}
