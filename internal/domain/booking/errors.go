package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrSchedulingConflict = errors.New("scheduling conflict")
	ErrInvalidTransition  = errors.New("invalid transition")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("booking not found")
	ErrReferenceExhausted = errors.New("booking reference generation exhausted")

	// ErrDuplicateReference is reported by stores when the unique index on
	// reference rejects an insert.
	ErrDuplicateReference = errors.New("duplicate booking reference")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ConflictError describes the active booking that blocks a requested window.
type ConflictError struct {
	BookingID uuid.UUID
	Reference string
	Date      time.Time
	Window    Window
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf(
		"scheduling conflict with booking %s on %s %s",
		e.Reference, e.Date.Format(DateLayout), e.Window,
	)
}

func (e *ConflictError) Unwrap() error { return ErrSchedulingConflict }

type TransitionError struct {
	Current Status
	Action  Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s a booking that is %s", e.Action, e.Current)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

type UnauthorizedError struct {
	Role   Role
	Action Action
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("role %s may not %s this booking", e.Role, e.Action)
}

func (e *UnauthorizedError) Unwrap() error { return ErrUnauthorized }

func conflictWith(b *models.Booking) *ConflictError {
	return &ConflictError{
		BookingID: b.ID,
		Reference: b.Reference,
		Date:      b.Date,
		Window:    WindowOf(b),
	}
}
