package application

import (
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// Actor is the authenticated identity invoking a service method. Identity and
// role are established by the transport layer before requests reach services.
type Actor = persistence.Actor

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name     string
	Building string
	Floor    int
	Capacity int
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Actor Actor
	Input RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Actor  Actor
	RoomID string
	Input  RoomInput
}

// SetRoomStatusParams wraps a serviceability transition for a room.
type SetRoomStatusParams struct {
	Actor  Actor
	RoomID string
	Status persistence.RoomStatus
}

// BookingInput captures the slot an ad-hoc reservation request claims.
type BookingInput struct {
	RoomID string
	Date   time.Time
	Start  scheduler.TimeOfDay
	End    scheduler.TimeOfDay
	Reason string
}

// SubmitBookingParams wraps the data required to submit a booking request.
type SubmitBookingParams struct {
	Requester Actor
	Input     BookingInput
}

// SubmitBookingResult carries the stored request plus advisory warnings about
// committed claims that already overlap the requested slot. Warnings do not
// block submission; the authoritative check runs at decision time.
type SubmitBookingResult struct {
	Booking  persistence.BookingRequest
	Warnings []ConflictWarning
}

// EditBookingParams wraps the data required to rewrite a pending booking.
type EditBookingParams struct {
	Actor     Actor
	BookingID string
	Input     BookingInput
}

// DecideBookingParams wraps an approver's decision on a pending booking.
type DecideBookingParams struct {
	Approver  Actor
	BookingID string
	Accept    bool
}

// ListBookingsParams wraps the data required to list booking requests.
type ListBookingsParams struct {
	Actor  Actor
	Filter persistence.BookingFilter
}

// TemplateInput captures caller provided recurring template fields.
type TemplateInput struct {
	CourseID string
	RoomID   string
	Weekday  time.Weekday
	Start    scheduler.TimeOfDay
	End      scheduler.TimeOfDay
}

// CreateTemplateParams wraps the data required to create a template.
type CreateTemplateParams struct {
	Actor Actor
	Input TemplateInput
}

// UpdateTemplateParams wraps the data required to update a template.
type UpdateTemplateParams struct {
	Actor      Actor
	TemplateID string
	Input      TemplateInput
}

// MaterializeParams wraps a semester expansion run: every active template is
// expanded into Weeks dated occurrences starting on or after StartDate, and
// the semester's previous occurrence set is replaced.
type MaterializeParams struct {
	Actor      Actor
	SemesterID string
	StartDate  time.Time
	Weeks      int
}

// MaterializeResult reports the occurrences committed for a semester.
type MaterializeResult struct {
	SemesterID  string
	Occurrences []persistence.ScheduleOccurrence
}

// ChangeInput captures the proposed new slot for a single occurrence. RoomID
// is ignored for remote delivery.
type ChangeInput struct {
	Mode   persistence.DeliveryMode
	RoomID *string
	Date   time.Time
	Start  scheduler.TimeOfDay
	End    scheduler.TimeOfDay
	Reason string
}

// ProposeChangeParams wraps the data required to propose a schedule change.
type ProposeChangeParams struct {
	Requester    Actor
	OccurrenceID string
	Input        ChangeInput
}

// EditChangeParams wraps the data required to rewrite a pending proposal.
type EditChangeParams struct {
	Actor    Actor
	ChangeID string
	Input    ChangeInput
}

// DecideChangeParams wraps an approver's decision on a pending proposal.
type DecideChangeParams struct {
	Approver Actor
	ChangeID string
	Accept   bool
}

// ListChangesParams wraps the data required to list change requests.
type ListChangesParams struct {
	Actor  Actor
	Filter persistence.ChangeRequestFilter
}

// ConflictWarning describes an overlap between a candidate window and a
// committed claim, surfaced without blocking the caller.
type ConflictWarning struct {
	RoomID      string
	Date        time.Time
	StartMinute int
	EndMinute   int
	WithID      string
	Source      string
}

// CheckWindowParams wraps an advisory conflict probe for a candidate window.
// ExcludeID names a claim to ignore, used when probing a move of an existing
// occurrence.
type CheckWindowParams struct {
	RoomID    string
	Date      time.Time
	Start     scheduler.TimeOfDay
	End       scheduler.TimeOfDay
	ExcludeID string
}
