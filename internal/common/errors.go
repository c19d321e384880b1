package common

import (
	"errors"
	"fmt"
)

var (
	// Input errors.
	ErrValidation = errors.New("validation error")
	ErrDuplicate  = errors.New("already exists")

	// ErrAuthentication is the one message shown for bad credentials, bad
	// master key and authentication-tag failures alike.
	ErrAuthentication = errors.New("invalid credentials")

	// ErrNotFound covers both "absent" and "not owned by caller".
	ErrNotFound = errors.New("not found")

	ErrSessionExpired = errors.New("session expired")
	ErrInvalidToken   = errors.New("invalid token")

	ErrInternal    = errors.New("internal error")
	ErrUnavailable = errors.New("service unavailable")
)

// FieldError attaches the offending field name to a validation or
// duplicate error. errors.Is matches the wrapped sentinel.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Invalid builds a validation FieldError with a human readable reason.
func Invalid(field, reason string) error {
	return &FieldError{Field: field, Err: fmt.Errorf("%w: %s", ErrValidation, reason)}
}

// Duplicate builds a FieldError for a uniqueness collision on field.
func Duplicate(field string) error {
	return &FieldError{Field: field, Err: ErrDuplicate}
}
