package store

import (
	"fmt"

	"github.com/desertthunder/nbx/internal/shared"
)

// ValidationError rejects input before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return shared.ErrInvalidInput
}
