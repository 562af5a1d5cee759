package domain

import "errors"

// Error kinds surfaced to callers. Wrap with fmt.Errorf("...: %w", kind) to
// attach entity context; classify with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrBusinessRule           = errors.New("business rule violated")
)
