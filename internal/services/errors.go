package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrLocationNotFound   = fmt.Errorf("location %w", ErrNotFound)
	ErrNotReady           = errors.New("surplus batch is not ready for pickup")
	ErrMissingPhoto       = errors.New("a food photo is required before requesting pickup")
	ErrUnauthorized       = errors.New("not authorized for this record")
	ErrForbiddenRole      = errors.New("role is not permitted for this action")
	ErrInvalidCode        = errors.New("invalid code")
	ErrExpired            = errors.New("code expired")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrEmailDelivery      = errors.New("email delivery failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError carries a user-facing message and matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }
func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
