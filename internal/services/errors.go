package services

import (
	"errors"
	"fmt"
	"strings"

	"storefront/internal/repositories"
	"storefront/internal/validation"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrValidation            = errors.New("validation failed")
	ErrCartEmpty             = errors.New("cart is empty")
	ErrBelowMinimum          = errors.New("subtotal is below the minimum order value")
	ErrQuantityOutOfRange    = errors.New("quantity out of range")
	ErrCancellationForbidden = errors.New("order can no longer be cancelled")
	ErrCancellationExpired   = errors.New("cancellation window has expired")
	ErrInvalidCredentials    = errors.New("invalid credentials")
)

// ValidationError carries per-field messages. It matches ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(err error) error {
	return &ValidationError{Fields: validation.FieldErrors(err)}
}

func invalidField(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// notFound converts a repository miss into ErrNotFound and passes other errors through.
func notFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
	}
	return err
}
