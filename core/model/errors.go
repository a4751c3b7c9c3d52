package model

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced entry, record or block does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnknownGrade is returned for a grade id missing from the directory.
	ErrUnknownGrade = errors.New("unknown grade")
	// ErrUnknownSection is returned for a section id missing from the directory.
	ErrUnknownSection = errors.New("unknown section")
	// ErrUnknownSlot is returned for a slot id that is not a teaching slot of the wing.
	ErrUnknownSlot = errors.New("unknown slot")
)

// ValidationError rejects a request before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// ConflictError reports that an entity is already booked at a cell.
type ConflictError struct {
	Kind   EntityKind
	ID     string
	Day    Day
	SlotID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s %s is not free on %s slot %s", e.Kind, e.ID, e.Day, e.SlotID)
}

// PersistenceError wraps a failed durable-store write. The in-memory state is
// left unchanged when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("persist %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

// Persist wraps err into a PersistenceError for op. A nil err stays nil.
func Persist(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
