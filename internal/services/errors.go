package services

import (
	"errors"
	"strings"

	"billminder/internal/core"
)

// ValidationError is returned when user input fails validation. Warnings
// are carried along so callers can show them next to the errors.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func newValidationError(v core.Validation) *ValidationError {
	return &ValidationError{Errors: v.Errors, Warnings: v.Warnings}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
