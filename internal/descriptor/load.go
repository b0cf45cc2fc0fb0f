package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/archq/internal/archetype"
)

// LoadSchemas reads descriptors from path:
//
//   - a .cue file, or a directory holding a CUE package;
//   - a .yaml, .yml or .json file;
//   - a directory without CUE files: every YAML/JSON file below it, in
//     lexical order.
func LoadSchemas(path string) ([]archetype.TypeSchema, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("descriptor path not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing descriptor path: %v", err)}
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	cueFiles, err := FindFiles(path, "*.cue")
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(cueFiles) > 0 {
		return LoadCUE(path)
	}

	docs, err := FindFiles(path, "**/*.{yaml,yml,json}")
	if err != nil {
		return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(docs) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no descriptor files found in %s", path)}
	}

	var schemas []archetype.TypeSchema
	for _, doc := range docs {
		s, err := loadFile(doc)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, s...)
	}
	return schemas, nil
}

func loadFile(path string) ([]archetype.TypeSchema, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return LoadCUEFile(path)
	case ".yaml", ".yml", ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
		}
		schemas, err := DecodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return schemas, nil
	default:
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("unsupported descriptor file: %s", path)}
	}
}

// Load reads descriptors from path and builds a Registry from them.
func Load(path string) (*archetype.Registry, error) {
	schemas, err := LoadSchemas(path)
	if err != nil {
		return nil, err
	}
	return newRegistry(schemas)
}

func newRegistry(schemas []archetype.TypeSchema) (*archetype.Registry, error) {
	reg, err := archetype.NewRegistry(schemas...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeRegistry, Message: err.Error()}
	}
	return reg, nil
}
