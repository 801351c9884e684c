package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound matches every NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrConflict matches every ConflictError.
	ErrConflict = errors.New("conflict")
)

// ValidationError lists every problem found in an input, not only the first.
type ValidationError struct {
	Problems []string
}

// NewValidationError returns nil when problems is empty.
func NewValidationError(problems ...string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Problems, ", ")
}

// NotFoundError reports a referenced record that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ConflictError reports a reservation that is already past the requested transition.
type ConflictError struct {
	ReservationID string
	Status        ReservationStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("reservation %q is already %s", e.ReservationID, e.Status)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// RenderError reports a failure while assembling the PDF document.
type RenderError struct {
	Err error
}

func (e *RenderError) Error() string { return "render contract: " + e.Err.Error() }

func (e *RenderError) Unwrap() error { return e.Err }

// PersistenceError reports a read or write failure against the gateway.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *PersistenceError) Unwrap() error { return e.Err }

// AuditWriteError reports that an audit entry could not be stored.
type AuditWriteError struct {
	Err error
}

func (e *AuditWriteError) Error() string { return "audit entry not created: " + e.Err.Error() }

func (e *AuditWriteError) Unwrap() error { return e.Err }
