package persistence

import (
	"context"
	"time"
)

// RoomRepository exposes CRUD operations for rooms.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// BookingFilter narrows booking request queries.
type BookingFilter struct {
	RequesterID string
	RoomID      string
	Status      RequestStatus
	Date        *time.Time
}

// BookingRepository stores ad-hoc reservation requests. Accept runs the
// authoritative conflict check and the status write inside one serializable
// transaction scoped to the booking's room and date; a losing accept returns
// *ConflictError and leaves the request pending.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking BookingRequest) error
	UpdateBooking(ctx context.Context, booking BookingRequest) error
	GetBooking(ctx context.Context, id string) (BookingRequest, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]BookingRequest, error)
	AcceptBooking(ctx context.Context, id, approverID string, decidedAt time.Time) (BookingRequest, error)
	RejectBooking(ctx context.Context, id, approverID string, decidedAt time.Time) (BookingRequest, error)
}

// TemplateRepository stores weekly recurring class meeting templates.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template CourseScheduleTemplate) error
	UpdateTemplate(ctx context.Context, template CourseScheduleTemplate) error
	GetTemplate(ctx context.Context, id string) (CourseScheduleTemplate, error)
	ListTemplates(ctx context.Context) ([]CourseScheduleTemplate, error)
	DeleteTemplate(ctx context.Context, id string) error
	// ReplaceTemplates swaps the full template set in one transaction; used
	// when loading the external timetable generator's output.
	ReplaceTemplates(ctx context.Context, templates []CourseScheduleTemplate) error
}

// OccurrenceFilter narrows occurrence queries.
type OccurrenceFilter struct {
	SemesterID string
	RoomID     string
	Date       *time.Time
}

// OccurrenceRepository stores materialized schedule occurrences.
// ReplaceOccurrences clears and reinserts one semester's rows in a single
// transaction; it fails with ErrRoomNotServiceable, leaving the prior set
// untouched, when any occurrence references a non-serviceable room.
type OccurrenceRepository interface {
	GetOccurrence(ctx context.Context, id string) (ScheduleOccurrence, error)
	ListOccurrences(ctx context.Context, filter OccurrenceFilter) ([]ScheduleOccurrence, error)
	ReplaceOccurrences(ctx context.Context, semesterID string, occurrences []ScheduleOccurrence) error
}

// ChangeRequestFilter narrows schedule-change request queries.
type ChangeRequestFilter struct {
	RequesterID  string
	OccurrenceID string
	Status       RequestStatus
}

// ChangeRequestRepository stores schedule-change requests. AcceptChange
// re-checks conflicts for in-person moves (excluding the occurrence being
// moved) and commits the request status together with the occurrence
// overwrite atomically; both writes land or neither does.
type ChangeRequestRepository interface {
	CreateChange(ctx context.Context, request ScheduleChangeRequest) error
	UpdateChange(ctx context.Context, request ScheduleChangeRequest) error
	GetChange(ctx context.Context, id string) (ScheduleChangeRequest, error)
	ListChanges(ctx context.Context, filter ChangeRequestFilter) ([]ScheduleChangeRequest, error)
	AcceptChange(ctx context.Context, id, approverID string, decidedAt time.Time) (ScheduleChangeRequest, ScheduleOccurrence, error)
	RejectChange(ctx context.Context, id, approverID string, decidedAt time.Time) (ScheduleChangeRequest, error)
}

// SlotReader surfaces the committed claims for a room on a date, feeding the
// advisory conflict check.
type SlotReader interface {
	ListRoomSlots(ctx context.Context, roomID string, date time.Time) ([]RoomSlot, error)
}
