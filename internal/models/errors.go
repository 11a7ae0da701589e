package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a record is absent or not visible to the caller.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique value is already taken.
	ErrConflict = errors.New("already exists")
	// ErrUnauthorized is returned for bad credentials and unusable tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError describes a malformed or missing input field.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError builds a ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
