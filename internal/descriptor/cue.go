package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/roach88/archq/internal/archetype"
)

// DecodeCUE extracts the descriptors declared under the "archetype" struct
// of v, in declaration order.
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`archetype: "openvpms-lookup.species.1.0": source: "Lookup"`)
//	schemas, err := DecodeCUE(v)
func DecodeCUE(v cue.Value) ([]archetype.TypeSchema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	root := v.LookupPath(cue.ParsePath("archetype"))
	if !root.Exists() {
		return nil, &DecodeError{
			Field:   "archetype",
			Message: "no archetype declarations found",
			Pos:     v.Pos(),
		}
	}

	iter, err := root.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var schemas []archetype.TypeSchema
	for iter.Next() {
		s, err := decodeCUEArchetype(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s)
	}
	return schemas, nil
}

func decodeCUEArchetype(label string, v cue.Value) (archetype.TypeSchema, error) {
	name, err := archetype.ParseTypeName(label)
	if err != nil {
		return archetype.TypeSchema{}, &DecodeError{Archetype: label, Field: "name", Message: err.Error(), Pos: v.Pos()}
	}
	s := archetype.TypeSchema{Name: name, Primary: true}

	sourceVal := v.LookupPath(cue.ParsePath("source"))
	if !sourceVal.Exists() {
		return s, &DecodeError{Archetype: label, Field: "source", Message: "source is required", Pos: v.Pos()}
	}
	if s.Source, err = sourceVal.String(); err != nil {
		return s, &DecodeError{Archetype: label, Field: "source", Message: "source must be a string", Pos: sourceVal.Pos()}
	}

	if primaryVal := v.LookupPath(cue.ParsePath("primary")); primaryVal.Exists() {
		if s.Primary, err = primaryVal.Bool(); err != nil {
			return s, formatCUEError(err)
		}
	}

	if s.Relations, err = decodeCUERelations(label, v); err != nil {
		return s, err
	}
	if s.Properties, err = decodeCUEProperties(label, v); err != nil {
		return s, err
	}

	subtypesVal := v.LookupPath(cue.ParsePath("subtypes"))
	if subtypesVal.Exists() {
		names, err := stringOrList(subtypesVal)
		if err != nil {
			return s, err
		}
		for _, n := range names {
			sub, err := archetype.ParseTypeName(n)
			if err != nil {
				return s, &DecodeError{Archetype: label, Field: "subtypes", Message: err.Error(), Pos: subtypesVal.Pos()}
			}
			s.Subtypes = append(s.Subtypes, sub)
		}
	}

	if err := s.Validate(); err != nil {
		return s, &DecodeError{Archetype: label, Field: "archetype", Message: err.Error(), Pos: v.Pos()}
	}
	return s, nil
}

// decodeCUERelations reads relations: name: {targets, cardinality}.
// targets may be a single pattern or a list.
func decodeCUERelations(label string, v cue.Value) ([]archetype.Relation, error) {
	relVal := v.LookupPath(cue.ParsePath("relations"))
	if !relVal.Exists() {
		return nil, nil
	}

	iter, err := relVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var relations []archetype.Relation
	for iter.Next() {
		r := archetype.Relation{Name: iter.Selector().Unquoted(), Cardinality: archetype.Many}

		targetsVal := iter.Value().LookupPath(cue.ParsePath("targets"))
		if !targetsVal.Exists() {
			return nil, &DecodeError{
				Archetype: label,
				Field:     "relations." + r.Name,
				Message:   "targets is required",
				Pos:       iter.Value().Pos(),
			}
		}
		if r.Targets, err = stringOrList(targetsVal); err != nil {
			return nil, err
		}

		if cardVal := iter.Value().LookupPath(cue.ParsePath("cardinality")); cardVal.Exists() {
			card, err := cardVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			r.Cardinality = archetype.Cardinality(card)
		}
		relations = append(relations, r)
	}
	return relations, nil
}

// decodeCUEProperties reads properties: name: "kind".
func decodeCUEProperties(label string, v cue.Value) ([]archetype.Property, error) {
	propVal := v.LookupPath(cue.ParsePath("properties"))
	if !propVal.Exists() {
		return nil, nil
	}

	iter, err := propVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var properties []archetype.Property
	for iter.Next() {
		kind, err := iter.Value().String()
		if err != nil {
			return nil, &DecodeError{
				Archetype: label,
				Field:     "properties." + iter.Selector().Unquoted(),
				Message:   "kind must be a string",
				Pos:       iter.Value().Pos(),
			}
		}
		properties = append(properties, archetype.Property{Name: iter.Selector().Unquoted(), Kind: archetype.PropertyKind(kind)})
	}
	return properties, nil
}

// stringOrList accepts "x" or ["x", "y"].
func stringOrList(v cue.Value) ([]string, error) {
	if s, err := v.String(); err == nil {
		return []string{s}, nil
	}

	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadCUE loads the CUE package in dir and decodes its descriptors.
func LoadCUE(dir string) ([]archetype.TypeSchema, error) {
	cueFiles, err := FindFiles(dir, "*.cue")
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	return DecodeCUE(value)
}

// LoadCUEFile compiles a single CUE file and decodes its descriptors.
func LoadCUEFile(path string) ([]archetype.TypeSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return DecodeCUE(value)
}

// FindFiles returns the files under dir matching a doublestar pattern,
// as paths joined to dir, in lexical order.
func FindFiles(dir, pattern string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, err
	}
	files := make([]string, len(matches))
	for i, m := range matches {
		files[i] = filepath.Join(dir, filepath.FromSlash(m))
	}
	slices.Sort(files)
	return files, nil
}
