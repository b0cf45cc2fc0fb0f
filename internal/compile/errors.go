package compile

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeUnknownType indicates a type-name pattern matches no registered schema.
	ErrCodeUnknownType ErrorCode = "UNKNOWN_TYPE"

	// ErrCodeDuplicateAlias indicates an explicit alias is declared twice.
	ErrCodeDuplicateAlias ErrorCode = "DUPLICATE_ALIAS"

	// ErrCodeUnresolvedAlias indicates a reference to an alias that is not
	// declared at that point of the traversal.
	ErrCodeUnresolvedAlias ErrorCode = "UNRESOLVED_ALIAS_REFERENCE"

	// ErrCodeEmptyTypeConstraint indicates a type constraint without alternatives.
	ErrCodeEmptyTypeConstraint ErrorCode = "EMPTY_TYPE_CONSTRAINT"

	// ErrCodeIncompatibleTypes indicates alternatives of one declaration live in
	// different persistent sources.
	ErrCodeIncompatibleTypes ErrorCode = "INCOMPATIBLE_TYPES"

	// ErrCodeInvalidOperand indicates operands that do not fit the operator.
	ErrCodeInvalidOperand ErrorCode = "INVALID_OPERAND"

	// ErrCodeInvalidConstraint indicates a malformed constraint node.
	ErrCodeInvalidConstraint ErrorCode = "INVALID_CONSTRAINT"
)

// Error is a deterministic compile-time failure. Compilation stops at the
// first one and produces no output.
//
// Property and relation lookup failures are not Errors: they are the
// resolver's *archetype.LookupError, returned unchanged.
type Error struct {
	Code    ErrorCode
	Message string

	// Alias is the alias involved, when there is one.
	Alias string
}

func (e *Error) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("%s: %s (alias=%s)", e.Code, e.Message, e.Alias)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an *Error with the given code.
// Uses errors.As to handle wrapped errors.
func IsCode(err error, code ErrorCode) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

func newError(code ErrorCode, alias, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Alias: alias}
}
