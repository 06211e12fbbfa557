package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrExecution covers malformed or schema-incompatible SQL surfaced by
	// the query executor. Fatal on the first pass: with no output there is
	// nothing to reflect on.
	ErrExecution = errors.New("query execution failed")

	// Executor error kinds, wrapped around ErrExecution
	ErrSyntax        = fmt.Errorf("%w: syntax error", ErrExecution)
	ErrUnknownColumn = fmt.Errorf("%w: unknown column", ErrExecution)
	ErrUnknownTable  = fmt.Errorf("%w: unknown table", ErrExecution)

	// ErrCollaboratorUnavailable marks a completion or statistics service
	// that is unreachable or timed out. Always recoverable via fallback.
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")

	// ErrValidationParse marks a structured verdict the service returned
	// that could not be parsed. Triggers the same fallback.
	ErrValidationParse = errors.New("validation verdict unparsable")

	// ErrCorrectionRejected marks a rewrite that failed re-validation.
	// The first-pass answer is retained.
	ErrCorrectionRejected = errors.New("correction rejected")
)

// Error constructors with context
func NewExecutionError(sql string, cause error) error {
	return fmt.Errorf("%w: %v (sql: %s)", ErrExecution, cause, sql)
}

func NewCollaboratorError(name string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrCollaboratorUnavailable, name, cause)
}

// Error checking helpers
func IsExecutionError(err error) bool {
	return errors.Is(err, ErrExecution)
}

func IsCollaboratorUnavailable(err error) bool {
	return errors.Is(err, ErrCollaboratorUnavailable)
}

func IsValidationParseError(err error) bool {
	return errors.Is(err, ErrValidationParse)
}

func IsCorrectionRejected(err error) bool {
	return errors.Is(err, ErrCorrectionRejected)
}
