package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific form field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is returned when user input is rejected.
// Err holds the message shown to the user, Fields the per-field details (if any).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

// NewValidationMessage is a shortcut for a field-less ValidationError carrying `msg`.
func NewValidationMessage(msg string) error {
	return &ValidationError{Err: errors.New(msg)}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// IsValidationError reports whether the cause of err is a *ValidationError, returning it.
func IsValidationError(err error) (*ValidationError, bool) {
	verr, ok := errors.Cause(err).(*ValidationError)
	return verr, ok
}
