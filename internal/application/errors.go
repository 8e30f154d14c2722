package application

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrInvalidState is returned when an operation targets a request whose
	// decision has already been committed.
	ErrInvalidState = errors.New("application: request already decided")
)

// ConflictError reports that a window could not be committed because another
// committed claim overlaps it. The losing request is left pending.
type ConflictError struct {
	RoomID      string
	Date        time.Time
	StartMinute int
	EndMinute   int
	WithID      string
	Source      string
}

// Error implements the error interface.
func (c *ConflictError) Error() string {
	return fmt.Sprintf("schedule conflict in room %s on %s with %s %s",
		c.RoomID, c.Date.Format("2006-01-02"), c.Source, c.WithID)
}

// InvalidTemplateError reports that a recurring template references a room
// that cannot host meetings.
type InvalidTemplateError struct {
	TemplateID string
	RoomID     string
	Reason     string
}

// Error implements the error interface.
func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid template %s: room %s %s", e.TemplateID, e.RoomID, e.Reason)
}

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}
