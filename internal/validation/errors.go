package validation

import (
	"errors"
	"fmt"
)

// ValidationError marks input problems the caller can correct (empty
// title, malformed date, bad day count, invalid reorder set).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewError creates a ValidationError with a formatted reason.
func NewError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
