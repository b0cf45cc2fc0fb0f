package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/archq/internal/archetype"
	"github.com/roach88/archq/internal/compile"
	"github.com/roach88/archq/internal/constraint"
	"github.com/roach88/archq/internal/descriptor"
)

// Error codes for CLI output.
const (
	// Loader errors (E0xx). The descriptor package defines E001-E006.
	ErrCodeGeneric     = descriptor.ErrCodeGeneric
	ErrCodeNotFound    = descriptor.ErrCodeNotFound
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeNoRegistry  = "E008" // Neither --registry nor --db given
	ErrCodeStore       = "E009" // Descriptor store unavailable
	ErrCodeBadQuery    = "E010" // Query document does not decode

	// Descriptor errors (E1xx).
	ErrCodeInvalidDescriptor = descriptor.ErrCodeInvalidDescriptor
	ErrCodeRegistry          = descriptor.ErrCodeRegistry

	// Compile errors (E2xx).
	ErrCodeUnknownType         = "E201"
	ErrCodeDuplicateAlias      = "E202"
	ErrCodeUnresolvedAlias     = "E203"
	ErrCodeEmptyTypeConstraint = "E204"
	ErrCodeIncompatibleTypes   = "E205"
	ErrCodeInvalidOperand      = "E206"
	ErrCodeInvalidConstraint   = "E207"
	ErrCodeUnresolvedProperty  = "E210"
	ErrCodeUnresolvedRelation  = "E211"

	// Lint (E3xx).
	ErrCodeLintHazards = "E301"

	// Conformance scenarios (E4xx).
	ErrCodeTestFailed = "E401"
)

var compileErrorCodes = map[compile.ErrorCode]string{
	compile.ErrCodeUnknownType:         ErrCodeUnknownType,
	compile.ErrCodeDuplicateAlias:      ErrCodeDuplicateAlias,
	compile.ErrCodeUnresolvedAlias:     ErrCodeUnresolvedAlias,
	compile.ErrCodeEmptyTypeConstraint: ErrCodeEmptyTypeConstraint,
	compile.ErrCodeIncompatibleTypes:   ErrCodeIncompatibleTypes,
	compile.ErrCodeInvalidOperand:      ErrCodeInvalidOperand,
	compile.ErrCodeInvalidConstraint:   ErrCodeInvalidConstraint,
}

// errorCode maps err to a CLI error code and message.
func errorCode(err error) (string, string) {
	var compileErr *compile.Error
	if errors.As(err, &compileErr) {
		if code, ok := compileErrorCodes[compileErr.Code]; ok {
			return code, compileErr.Error()
		}
		return ErrCodeGeneric, compileErr.Error()
	}
	var lookupErr *archetype.LookupError
	if errors.As(err, &lookupErr) {
		if lookupErr.Kind == archetype.ErrUnresolvedRelation {
			return ErrCodeUnresolvedRelation, lookupErr.Error()
		}
		return ErrCodeUnresolvedProperty, lookupErr.Error()
	}
	var loadErr *descriptor.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code, loadErr.Message
	}
	var decodeErr *descriptor.DecodeError
	if errors.As(err, &decodeErr) {
		return ErrCodeInvalidDescriptor, err.Error()
	}
	var cliErr *codedError
	if errors.As(err, &cliErr) {
		return cliErr.code, cliErr.err.Error()
	}
	return ErrCodeGeneric, err.Error()
}

// codedError attaches a CLI error code to an error from a package that has
// no codes of its own.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// RegistrySource selects where archetype descriptors are read from: a
// descriptor file or directory, or a descriptor store.
type RegistrySource struct {
	Path   string
	DB     string
	Driver string
}

func (s *RegistrySource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.Path, "registry", "r", "", "descriptor file or directory (CUE, YAML or JSON)")
	addStoreFlags(cmd, &s.DB, &s.Driver)
	cmd.MarkFlagsMutuallyExclusive("registry", "db")
}

func addStoreFlags(cmd *cobra.Command, dsn, driver *string) {
	cmd.Flags().StringVar(dsn, "db", "", "descriptor store DSN (a file path for sqlite3)")
	cmd.Flags().StringVar(driver, "driver", descriptor.DriverSQLite, "descriptor store driver (sqlite3|postgres|mysql)")
}

// Load builds the registry from the configured source.
func (s *RegistrySource) Load(ctx context.Context, logger *slog.Logger) (*archetype.Registry, error) {
	switch {
	case s.Path != "":
		reg, err := descriptor.Load(s.Path)
		if err != nil {
			return nil, err
		}
		logger.Debug("registry loaded", "path", s.Path, "archetypes", reg.Len())
		return reg, nil

	case s.DB != "":
		st, err := openStore(s.Driver, s.DB, logger)
		if err != nil {
			return nil, err
		}
		defer st.Close()

		reg, err := st.Registry(ctx)
		if err != nil {
			return nil, err
		}
		logger.Debug("registry loaded", "driver", s.Driver, "archetypes", reg.Len())
		return reg, nil

	default:
		return nil, &codedError{code: ErrCodeNoRegistry, err: errors.New("one of --registry or --db is required")}
	}
}

func openStore(driver, dsn string, logger *slog.Logger) (*descriptor.Store, error) {
	st, err := descriptor.Open(driver, dsn, descriptor.WithLogger(logger))
	if err != nil {
		return nil, &codedError{code: ErrCodeStore, err: err}
	}
	return st, nil
}

// readQuery decodes the query document at path; "-" reads stdin.
func readQuery(cmd *cobra.Command, path string) (constraint.Query, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return constraint.Query{}, &codedError{code: ErrCodeNotFound, err: fmt.Errorf("query file not found: %s", path)}
		}
		return constraint.Query{}, &codedError{code: ErrCodeBadQuery, err: err}
	}

	q, err := constraint.DecodeQuery(data)
	if err != nil {
		return constraint.Query{}, &codedError{code: ErrCodeBadQuery, err: err}
	}
	return q, nil
}
