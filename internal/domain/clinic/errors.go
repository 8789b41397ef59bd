package clinic

import (
	"errors"
	"fmt"
)

// Error classes. Every typed error below matches exactly one of these with
// errors.Is; use errors.As to inspect the details.
var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrState       = errors.New("invalid state transition")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Required builds the ValidationError for a missing field.
func Required(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

// NotFoundError reports an identifier that does not resolve.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound builds a NotFoundError.
func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictKind distinguishes the business rules a booking can collide with.
type ConflictKind string

const (
	ConflictDoctor          ConflictKind = "doctor"
	ConflictLocation        ConflictKind = "location"
	ConflictRoom            ConflictKind = "room"
	ConflictPatientAdmitted ConflictKind = "patient-already-admitted"
)

// ConflictError reports a collision with an existing booking or stay.
type ConflictError struct {
	Kind   ConflictKind
	Detail string
}

func (e *ConflictError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("conflict (%s)", e.Kind)
	}
	return fmt.Sprintf("conflict (%s): %s", e.Kind, e.Detail)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// Conflict builds a ConflictError.
func Conflict(kind ConflictKind, format string, args ...any) error {
	return &ConflictError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// IsConflict reports whether err is a ConflictError of the given kind.
func IsConflict(err error, kind ConflictKind) bool {
	var ce *ConflictError
	return errors.As(err, &ce) && ce.Kind == kind
}

// StateError reports an illegal lifecycle transition.
type StateError struct {
	Entity string
	ID     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Entity, e.ID, e.Reason)
}

func (e *StateError) Is(target error) bool { return target == ErrState }

// IllegalState builds a StateError.
func IllegalState(entity, id, reason string) error {
	return &StateError{Entity: entity, ID: id, Reason: reason}
}

// Persistence wraps a storage failure so it matches ErrPersistence while
// keeping the underlying cause reachable.
func Persistence(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
