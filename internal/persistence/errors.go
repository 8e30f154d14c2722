package persistence

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a record with the same identity already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrInvalidState is returned when a decision targets a request that has
	// already been decided.
	ErrInvalidState = errors.New("persistence: request already decided")
	// ErrConstraintViolation is returned when stored data would violate a
	// schema-level check.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrForeignKeyViolation is returned when a referenced record is missing.
	ErrForeignKeyViolation = errors.New("persistence: foreign key violation")
	// ErrRoomNotServiceable is returned when materialization references a room
	// that is not currently serviceable.
	ErrRoomNotServiceable = errors.New("persistence: room not serviceable")
)

// ConflictError reports the committed claim that blocked an accept decision.
// The losing request stays pending; the error is an arbitration signal, not a
// terminal failure.
type ConflictError struct {
	RoomID      string
	Date        time.Time
	StartMinute int
	EndMinute   int
	WithID      string
	Source      string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return "persistence: conflict"
	}
	return fmt.Sprintf("persistence: room %s already held by %s %s on %s %02d:%02d-%02d:%02d",
		e.RoomID, e.Source, e.WithID, e.Date.Format("2006-01-02"),
		e.StartMinute/60, e.StartMinute%60, e.EndMinute/60, e.EndMinute%60)
}
