package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by services and handlers
var (
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidState      = errors.New("request is not pending")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrValidation        = errors.New("invalid input")
	ErrCannotRemoveSelf  = errors.New("cannot remove your own admin role")
	ErrUnavailable       = errors.New("upstream dependency unavailable")
	ErrConflict          = errors.New("resource already exists")
)

// Auth errors
var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrAccountInactive    = fmt.Errorf("%w: account is inactive", ErrForbidden)
	ErrAdminRequired      = fmt.Errorf("%w: admin role required", ErrForbidden)
)

// Validationf returns an ErrValidation carrying a field-specific message
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
