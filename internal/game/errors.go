package game

import (
	"errors"
	"fmt"
)

// ValidationError is a command rejected before any mutation: unknown IDs,
// participants not co-located, a move target that is not connected. The
// world is guaranteed untouched when a handler returns one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// validationErrorf builds a ValidationError with a formatted reason.
func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
