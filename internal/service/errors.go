package service

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("category %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound    = fmt.Errorf("order %w", ErrNotFound)
)

var (
	ErrNotFound            = errors.New("not found")
	ErrEmailTaken          = errors.New("email already in use")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("access denied")
	ErrCategoryHasProducts = errors.New("category still has products")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidStatus       = errors.New("invalid status")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidFileType     = errors.New("invalid file type")
)

// validationError wraps ErrValidation with a caller-facing reason.
func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
