package store

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/pau-bookit/bookit-api/internal/models"
)

var (
	// ErrValidation matches any *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrConflict matches any *ConflictError.
	ErrConflict = errors.New("room unavailable")
	// ErrNotFound matches any *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrInvalidTransition matches any *InvalidTransitionError.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPersistence wraps failures reported by the persistence collaborator.
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError captures field level problems with a reservation draft or room update.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) == 0 {
		return ErrValidation.Error()
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field, msg := range v.FieldErrors {
		fields = append(fields, field+": "+msg)
	}
	sort.Strings(fields)
	return ErrValidation.Error() + ": " + strings.Join(fields, "; ")
}

// Is lets errors.Is match the ErrValidation sentinel.
func (v *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; !exists {
		v.FieldErrors[field] = message
	}
}

// ConflictError reports that the requested window cannot be booked.
type ConflictError struct {
	RoomID        string
	Date          string
	Window        string
	ReservationID int64
	RoomClosed    bool
}

func (c *ConflictError) Error() string {
	if c.RoomClosed {
		return fmt.Sprintf("room %s is not available for booking", c.RoomID)
	}
	return fmt.Sprintf("room %s is already booked on %s %s (reservation %d)", c.RoomID, c.Date, c.Window, c.ReservationID)
}

// Is lets errors.Is match the ErrConflict sentinel.
func (c *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NotFoundError reports a missing reservation or room.
type NotFoundError struct {
	Entity string
	ID     string
}

func (n *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", n.Entity, n.ID)
}

// Is lets errors.Is match the ErrNotFound sentinel.
func (n *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidTransitionError reports a review attempted on a reservation that already left PENDING.
type InvalidTransitionError struct {
	ReservationID int64
	From          models.ReservationStatus
	To            models.ReservationStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("reservation %d cannot move from %s to %s", e.ReservationID, e.From, e.To)
}

// Is lets errors.Is match the ErrInvalidTransition sentinel.
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// ErrorKind maps store errors to a stable label for logs, metrics and span status.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	}
	return "unexpected"
}
