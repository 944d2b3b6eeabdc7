package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrWidgetNotFound is returned for operations on an unknown widget id.
	ErrWidgetNotFound = errors.New("widget not found")
	// ErrWorkoutNotFound is returned for operations on an unknown workout id.
	ErrWorkoutNotFound = errors.New("workout not found")
	// ErrWorkoutCompleted signals a control operation on a workout that already finished.
	ErrWorkoutCompleted = errors.New("workout already completed")
)

// ValidationError reports a malformed widget or notification. It is raised
// before any transport attempt and is the only error class callers must
// handle explicitly.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

// NewValidationError constructs a ValidationError for the given field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}
