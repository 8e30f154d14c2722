package persistence

import "time"

// RoomStatus tracks the serviceability of a room.
type RoomStatus string

const (
	// RoomServiceable marks a room fit for scheduling.
	RoomServiceable RoomStatus = "serviceable"
	// RoomUnserviceable marks a room administratively withdrawn from use.
	RoomUnserviceable RoomStatus = "unserviceable"
	// RoomUnderRepair marks a room temporarily withdrawn for maintenance.
	RoomUnderRepair RoomStatus = "under_repair"
)

// Room represents a bookable room in the campus catalog.
type Room struct {
	ID        string
	Name      string
	Building  string
	Floor     int
	Capacity  int
	Status    RoomStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ActorKind discriminates the three requester variants.
type ActorKind string

const (
	// ActorStudent identifies a student requester.
	ActorStudent ActorKind = "student"
	// ActorInstructor identifies an instructor requester.
	ActorInstructor ActorKind = "instructor"
	// ActorAdmin identifies an administrator.
	ActorAdmin ActorKind = "admin"
)

// Actor is the polymorphic requester identity persisted with each request.
// Exactly one kind is set; identity and authorization are established by the
// caller before records reach this layer.
type Actor struct {
	Kind        ActorKind
	ID          string
	DisplayName string
	Email       string
}

// RequestStatus tracks the approval state machine shared by booking and
// schedule-change requests.
type RequestStatus string

const (
	// RequestPending marks a request awaiting a decision.
	RequestPending RequestStatus = "pending"
	// RequestAccepted marks a request committed by an approver.
	RequestAccepted RequestStatus = "accepted"
	// RequestRejected marks a request refused by an approver.
	RequestRejected RequestStatus = "rejected"
)

// BookingRequest is an ad-hoc room reservation request.
type BookingRequest struct {
	ID          string
	Requester   Actor
	RoomID      string
	Date        time.Time
	StartMinute int
	EndMinute   int
	Reason      string
	Status      RequestStatus
	ApproverID  string
	DecidedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TemplateStatus tracks whether a recurring template participates in
// materialization.
type TemplateStatus string

const (
	// TemplateActive marks a template expanded during materialization.
	TemplateActive TemplateStatus = "active"
	// TemplateInactive marks a retired template.
	TemplateInactive TemplateStatus = "inactive"
)

// CourseScheduleTemplate is one weekly recurring class meeting shape.
type CourseScheduleTemplate struct {
	ID          string
	CourseID    string
	RoomID      string
	Weekday     time.Weekday
	StartMinute int
	EndMinute   int
	Status      TemplateStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeliveryMode distinguishes in-person meetings, which contend for rooms, from
// remote ones, which do not.
type DeliveryMode string

const (
	// ModeInPerson claims a physical room.
	ModeInPerson DeliveryMode = "in_person"
	// ModeRemote holds no room; conflict checking does not apply.
	ModeRemote DeliveryMode = "remote"
)

// OccurrenceStatus tracks whether a dated occurrence still claims its slot.
type OccurrenceStatus string

const (
	// OccurrenceActive marks an occurrence counted by the conflict checker.
	OccurrenceActive OccurrenceStatus = "active"
	// OccurrenceCancelled marks an occurrence released from its slot.
	OccurrenceCancelled OccurrenceStatus = "cancelled"
)

// ScheduleOccurrence is one dated instance of a template, scoped to the
// semester it was materialized for. RoomID is nil for remote delivery.
type ScheduleOccurrence struct {
	ID          string
	TemplateID  string
	SemesterID  string
	CourseID    string
	RoomID      *string
	Date        time.Time
	StartMinute int
	EndMinute   int
	Mode        DeliveryMode
	Status      OccurrenceStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ScheduleChangeRequest proposes moving a single occurrence to a new
// date/window/room or to remote delivery.
type ScheduleChangeRequest struct {
	ID             string
	OccurrenceID   string
	Requester      Actor
	NewRoomID      *string
	NewDate        time.Time
	NewStartMinute int
	NewEndMinute   int
	Mode           DeliveryMode
	Reason         string
	Status         RequestStatus
	ApproverID     string
	DecidedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RoomSlot is one committed claim on a room surfaced to the conflict checker:
// either an accepted booking or an active in-person occurrence.
type RoomSlot struct {
	SourceID    string
	SourceKind  string
	RoomID      string
	Date        time.Time
	StartMinute int
	EndMinute   int
}

// Slot source kinds reported by ListRoomSlots.
const (
	SlotSourceBooking    = "booking"
	SlotSourceOccurrence = "occurrence"
)
