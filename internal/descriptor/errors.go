package descriptor

import (
	"fmt"

	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Error codes shared by the loaders and the CLI.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No descriptor files found
	ErrCodeLoadFailed  = "E004" // CUE load or file read failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed

	ErrCodeInvalidDescriptor = "E101" // Descriptor fails decoding or validation
	ErrCodeRegistry          = "E102" // Descriptors conflict in the registry
)

// LoadError reports a failure reading a descriptor source.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// DecodeError reports an invalid descriptor.
type DecodeError struct {
	Archetype string // identifier as written, when known
	Field     string
	Message   string
	Pos       token.Pos
}

func (e *DecodeError) Error() string {
	field := e.Field
	if e.Archetype != "" {
		field = e.Archetype + "." + e.Field
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			field, e.Message)
	}
	return fmt.Sprintf("%s: %s", field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &DecodeError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
