// Package testfixtures provides deterministic fixtures, clocks, and harnesses
// shared by tests across the module.
package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

var (
	roomCounter       uint64
	bookingCounter    uint64
	templateCounter   uint64
	occurrenceCounter uint64
	changeCounter     uint64
)

var referenceTime = time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the canonical meeting date used by fixtures, a Monday.
func ReferenceDate() time.Time {
	return time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC)
}

// Admin returns a deterministic administrator actor.
func Admin() persistence.Actor {
	return persistence.Actor{
		Kind:        persistence.ActorAdmin,
		ID:          "admin-1",
		DisplayName: "Registrar",
		Email:       "registrar@example.edu",
	}
}

// Student returns a deterministic student actor.
func Student() persistence.Actor {
	return persistence.Actor{
		Kind:        persistence.ActorStudent,
		ID:          "student-1",
		DisplayName: "Sam Student",
		Email:       "sam@example.edu",
	}
}

// Instructor returns a deterministic instructor actor.
func Instructor() persistence.Actor {
	return persistence.Actor{
		Kind:        persistence.ActorInstructor,
		ID:          "instructor-1",
		DisplayName: "Prof. Ito",
		Email:       "ito@example.edu",
	}
}

// RoomOption configures a generated room fixture.
type RoomOption func(*persistence.Room)

// NewRoomFixture returns a deterministic serviceable room with optional
// overrides.
func NewRoomFixture(opts ...RoomOption) persistence.Room {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	room := persistence.Room{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Building:  "Science",
		Floor:     1,
		Capacity:  40,
		Status:    persistence.RoomServiceable,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&room)
	}
	return room
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(r *persistence.Room) {
		r.ID = id
	}
}

// WithRoomStatus overrides the generated serviceability status.
func WithRoomStatus(status persistence.RoomStatus) RoomOption {
	return func(r *persistence.Room) {
		r.Status = status
	}
}

// WithRoomCapacity overrides the generated capacity.
func WithRoomCapacity(capacity int) RoomOption {
	return func(r *persistence.Room) {
		r.Capacity = capacity
	}
}

// BookingOption configures a generated booking fixture.
type BookingOption func(*persistence.BookingRequest)

// NewBookingFixture returns a deterministic pending booking request with
// optional overrides.
func NewBookingFixture(opts ...BookingOption) persistence.BookingRequest {
	idx := atomic.AddUint64(&bookingCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	booking := persistence.BookingRequest{
		ID:          fmt.Sprintf("booking-%03d", idx),
		Requester:   Student(),
		RoomID:      "room-001",
		Date:        ReferenceDate(),
		StartMinute: 9 * 60,
		EndMinute:   10 * 60,
		Reason:      "study group",
		Status:      persistence.RequestPending,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&booking)
	}
	return booking
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(b *persistence.BookingRequest) {
		b.ID = id
	}
}

// WithBookingRoom overrides the claimed room.
func WithBookingRoom(roomID string) BookingOption {
	return func(b *persistence.BookingRequest) {
		b.RoomID = roomID
	}
}

// WithBookingRequester overrides the requesting actor.
func WithBookingRequester(actor persistence.Actor) BookingOption {
	return func(b *persistence.BookingRequest) {
		b.Requester = actor
	}
}

// WithBookingWindow overrides the claimed date and minute bounds.
func WithBookingWindow(date time.Time, startMinute, endMinute int) BookingOption {
	return func(b *persistence.BookingRequest) {
		b.Date = date
		b.StartMinute = startMinute
		b.EndMinute = endMinute
	}
}

// WithBookingStatus overrides the approval status.
func WithBookingStatus(status persistence.RequestStatus) BookingOption {
	return func(b *persistence.BookingRequest) {
		b.Status = status
	}
}

// TemplateOption configures a generated template fixture.
type TemplateOption func(*persistence.CourseScheduleTemplate)

// NewTemplateFixture returns a deterministic active Monday template with
// optional overrides.
func NewTemplateFixture(opts ...TemplateOption) persistence.CourseScheduleTemplate {
	idx := atomic.AddUint64(&templateCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	template := persistence.CourseScheduleTemplate{
		ID:          fmt.Sprintf("template-%03d", idx),
		CourseID:    fmt.Sprintf("course-%03d", idx),
		RoomID:      "room-001",
		Weekday:     time.Monday,
		StartMinute: 9 * 60,
		EndMinute:   10*60 + 30,
		Status:      persistence.TemplateActive,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&template)
	}
	return template
}

// WithTemplateID overrides the generated template ID.
func WithTemplateID(id string) TemplateOption {
	return func(t *persistence.CourseScheduleTemplate) {
		t.ID = id
	}
}

// WithTemplateRoom overrides the template's room.
func WithTemplateRoom(roomID string) TemplateOption {
	return func(t *persistence.CourseScheduleTemplate) {
		t.RoomID = roomID
	}
}

// WithTemplateWeekday overrides the meeting weekday.
func WithTemplateWeekday(weekday time.Weekday) TemplateOption {
	return func(t *persistence.CourseScheduleTemplate) {
		t.Weekday = weekday
	}
}

// WithTemplateStatus overrides the template status.
func WithTemplateStatus(status persistence.TemplateStatus) TemplateOption {
	return func(t *persistence.CourseScheduleTemplate) {
		t.Status = status
	}
}

// OccurrenceOption configures a generated occurrence fixture.
type OccurrenceOption func(*persistence.ScheduleOccurrence)

// NewOccurrenceFixture returns a deterministic active in-person occurrence
// with optional overrides.
func NewOccurrenceFixture(opts ...OccurrenceOption) persistence.ScheduleOccurrence {
	idx := atomic.AddUint64(&occurrenceCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	roomID := "room-001"
	occurrence := persistence.ScheduleOccurrence{
		ID:          fmt.Sprintf("occurrence-%03d", idx),
		TemplateID:  "template-001",
		SemesterID:  "2025-spring",
		CourseID:    "course-001",
		RoomID:      &roomID,
		Date:        ReferenceDate(),
		StartMinute: 9 * 60,
		EndMinute:   10*60 + 30,
		Mode:        persistence.ModeInPerson,
		Status:      persistence.OccurrenceActive,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	for _, opt := range opts {
		opt(&occurrence)
	}
	return occurrence
}

// WithOccurrenceID overrides the generated occurrence ID.
func WithOccurrenceID(id string) OccurrenceOption {
	return func(o *persistence.ScheduleOccurrence) {
		o.ID = id
	}
}

// WithOccurrenceRoom overrides the claimed room. Passing an empty string
// clears the claim, as remote delivery does.
func WithOccurrenceRoom(roomID string) OccurrenceOption {
	return func(o *persistence.ScheduleOccurrence) {
		if roomID == "" {
			o.RoomID = nil
			return
		}
		o.RoomID = &roomID
	}
}

// WithOccurrenceSemester overrides the semester scope.
func WithOccurrenceSemester(semesterID string) OccurrenceOption {
	return func(o *persistence.ScheduleOccurrence) {
		o.SemesterID = semesterID
	}
}

// WithOccurrenceWindow overrides the date and minute bounds.
func WithOccurrenceWindow(date time.Time, startMinute, endMinute int) OccurrenceOption {
	return func(o *persistence.ScheduleOccurrence) {
		o.Date = date
		o.StartMinute = startMinute
		o.EndMinute = endMinute
	}
}

// WithOccurrenceMode overrides the delivery mode. Remote mode clears the room
// claim.
func WithOccurrenceMode(mode persistence.DeliveryMode) OccurrenceOption {
	return func(o *persistence.ScheduleOccurrence) {
		o.Mode = mode
		if mode == persistence.ModeRemote {
			o.RoomID = nil
		}
	}
}

// WithOccurrenceStatus overrides the occurrence status.
func WithOccurrenceStatus(status persistence.OccurrenceStatus) OccurrenceOption {
	return func(o *persistence.ScheduleOccurrence) {
		o.Status = status
	}
}

// ChangeOption configures a generated change request fixture.
type ChangeOption func(*persistence.ScheduleChangeRequest)

// NewChangeFixture returns a deterministic pending in-person change proposal
// with optional overrides.
func NewChangeFixture(opts ...ChangeOption) persistence.ScheduleChangeRequest {
	idx := atomic.AddUint64(&changeCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	roomID := "room-001"
	change := persistence.ScheduleChangeRequest{
		ID:             fmt.Sprintf("change-%03d", idx),
		OccurrenceID:   "occurrence-001",
		Requester:      Instructor(),
		NewRoomID:      &roomID,
		NewDate:        ReferenceDate().AddDate(0, 0, 2),
		NewStartMinute: 13 * 60,
		NewEndMinute:   14 * 60,
		Mode:           persistence.ModeInPerson,
		Reason:         "room change",
		Status:         persistence.RequestPending,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&change)
	}
	return change
}

// WithChangeID overrides the generated change ID.
func WithChangeID(id string) ChangeOption {
	return func(c *persistence.ScheduleChangeRequest) {
		c.ID = id
	}
}

// WithChangeOccurrence overrides the targeted occurrence.
func WithChangeOccurrence(occurrenceID string) ChangeOption {
	return func(c *persistence.ScheduleChangeRequest) {
		c.OccurrenceID = occurrenceID
	}
}

// WithChangeRequester overrides the proposing actor.
func WithChangeRequester(actor persistence.Actor) ChangeOption {
	return func(c *persistence.ScheduleChangeRequest) {
		c.Requester = actor
	}
}

// WithChangeMode overrides the proposed delivery mode. Remote mode clears the
// proposed room.
func WithChangeMode(mode persistence.DeliveryMode) ChangeOption {
	return func(c *persistence.ScheduleChangeRequest) {
		c.Mode = mode
		if mode == persistence.ModeRemote {
			c.NewRoomID = nil
		}
	}
}

// WithChangeWindow overrides the proposed date and minute bounds.
func WithChangeWindow(date time.Time, startMinute, endMinute int) ChangeOption {
	return func(c *persistence.ScheduleChangeRequest) {
		c.NewDate = date
		c.NewStartMinute = startMinute
		c.NewEndMinute = endMinute
	}
}

// WithChangeStatus overrides the approval status.
func WithChangeStatus(status persistence.RequestStatus) ChangeOption {
	return func(c *persistence.ScheduleChangeRequest) {
		c.Status = status
	}
}
