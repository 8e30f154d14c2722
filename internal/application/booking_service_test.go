package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type bookingRepoStub struct {
	createErr error
	created   persistence.BookingRequest

	bookings map[string]persistence.BookingRequest

	updateErr error
	updated   persistence.BookingRequest

	acceptResult persistence.BookingRequest
	acceptErr    error
	rejectResult persistence.BookingRequest
	rejectErr    error

	list    []persistence.BookingRequest
	listErr error
	filter  persistence.BookingFilter
}

func (b *bookingRepoStub) CreateBooking(ctx context.Context, booking persistence.BookingRequest) error {
	if b.createErr != nil {
		return b.createErr
	}
	b.created = booking
	return nil
}

func (b *bookingRepoStub) UpdateBooking(ctx context.Context, booking persistence.BookingRequest) error {
	if b.updateErr != nil {
		return b.updateErr
	}
	b.updated = booking
	return nil
}

func (b *bookingRepoStub) GetBooking(ctx context.Context, id string) (persistence.BookingRequest, error) {
	booking, ok := b.bookings[id]
	if !ok {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}
	return booking, nil
}

func (b *bookingRepoStub) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.BookingRequest, error) {
	if b.listErr != nil {
		return nil, b.listErr
	}
	b.filter = filter
	return b.list, nil
}

func (b *bookingRepoStub) AcceptBooking(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.BookingRequest, error) {
	if b.acceptErr != nil {
		return persistence.BookingRequest{}, b.acceptErr
	}
	return b.acceptResult, nil
}

func (b *bookingRepoStub) RejectBooking(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.BookingRequest, error) {
	if b.rejectErr != nil {
		return persistence.BookingRequest{}, b.rejectErr
	}
	return b.rejectResult, nil
}

type slotReaderStub struct {
	slots []persistence.RoomSlot
	err   error
	calls int
}

func (s *slotReaderStub) ListRoomSlots(ctx context.Context, roomID string, date time.Time) ([]persistence.RoomSlot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.slots, nil
}

func serviceableRoomRepo(id string) *roomRepoStub {
	return &roomRepoStub{getRoom: persistence.Room{
		ID: id, Name: "Lecture Hall A", Building: "Science Hall", Capacity: 120,
		Status: persistence.RoomServiceable,
	}}
}

func validBookingInput() BookingInput {
	return BookingInput{
		RoomID: "room-1",
		Date:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Start:  scheduler.TimeOfDay(600),
		End:    scheduler.TimeOfDay(660),
		Reason: "study group",
	}
}

func TestBookingService_SubmitBooking(t *testing.T) {
	t.Run("validates slot and room", func(t *testing.T) {
		svc := NewBookingService(&bookingRepoStub{}, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		input := validBookingInput()
		input.Start, input.End = input.End, input.Start
		_, err := svc.SubmitBooking(context.Background(), SubmitBookingParams{Requester: studentActor, Input: input})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["window"]; !ok {
			t.Errorf("expected window field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("refuses rooms that are not serviceable", func(t *testing.T) {
		rooms := serviceableRoomRepo("room-1")
		rooms.getRoom.Status = persistence.RoomUnderRepair
		svc := NewBookingService(&bookingRepoStub{}, rooms, nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.SubmitBooking(context.Background(), SubmitBookingParams{Requester: studentActor, Input: validBookingInput()})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["room_id"]; !ok {
			t.Errorf("expected room_id field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("stores a pending request", func(t *testing.T) {
		repo := &bookingRepoStub{}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, sequentialIDs("booking"), fixedNow, zerolog.Nop())

		result, err := svc.SubmitBooking(context.Background(), SubmitBookingParams{Requester: studentActor, Input: validBookingInput()})
		if err != nil {
			t.Fatalf("SubmitBooking() error = %v", err)
		}
		if result.Booking.Status != persistence.RequestPending {
			t.Errorf("status = %q, want pending", result.Booking.Status)
		}
		if repo.created.ID != "booking-1" || repo.created.Requester.ID != studentActor.ID {
			t.Errorf("repo received %+v", repo.created)
		}
	})

	t.Run("surfaces advisory warnings without blocking", func(t *testing.T) {
		slots := &slotReaderStub{slots: []persistence.RoomSlot{{
			SourceID:    "booking-held",
			SourceKind:  persistence.SlotSourceBooking,
			RoomID:      "room-1",
			Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			StartMinute: 630,
			EndMinute:   690,
		}}}
		conflicts := NewConflictService(slots, serviceableRoomRepo("room-1"), zerolog.Nop())
		svc := NewBookingService(&bookingRepoStub{}, serviceableRoomRepo("room-1"), conflicts, sequentialIDs("booking"), fixedNow, zerolog.Nop())

		result, err := svc.SubmitBooking(context.Background(), SubmitBookingParams{Requester: studentActor, Input: validBookingInput()})
		if err != nil {
			t.Fatalf("SubmitBooking() error = %v", err)
		}
		if len(result.Warnings) != 1 || result.Warnings[0].WithID != "booking-held" {
			t.Errorf("warnings = %+v, want one for booking-held", result.Warnings)
		}
	})

	t.Run("submits despite a failed advisory probe", func(t *testing.T) {
		slots := &slotReaderStub{err: errors.New("slot store unavailable")}
		conflicts := NewConflictService(slots, serviceableRoomRepo("room-1"), zerolog.Nop())
		svc := NewBookingService(&bookingRepoStub{}, serviceableRoomRepo("room-1"), conflicts, sequentialIDs("booking"), fixedNow, zerolog.Nop())

		result, err := svc.SubmitBooking(context.Background(), SubmitBookingParams{Requester: studentActor, Input: validBookingInput()})
		if err != nil {
			t.Fatalf("SubmitBooking() error = %v", err)
		}
		if result.Booking.Status != persistence.RequestPending {
			t.Errorf("status = %q, want pending", result.Booking.Status)
		}
		if len(result.Warnings) != 0 {
			t.Errorf("warnings = %+v, want none when the probe fails", result.Warnings)
		}
	})
}

func TestBookingService_EditBooking(t *testing.T) {
	pending := persistence.BookingRequest{
		ID:        "booking-1",
		Requester: studentActor,
		RoomID:    "room-1",
		Date:      time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Status:    persistence.RequestPending,
	}

	t.Run("only the requester or an administrator may edit", func(t *testing.T) {
		repo := &bookingRepoStub{bookings: map[string]persistence.BookingRequest{"booking-1": pending}}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		other := studentActor
		other.ID = "student-2"
		_, err := svc.EditBooking(context.Background(), EditBookingParams{Actor: other, BookingID: "booking-1", Input: validBookingInput()})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("refuses decided requests", func(t *testing.T) {
		decided := pending
		decided.Status = persistence.RequestAccepted
		repo := &bookingRepoStub{bookings: map[string]persistence.BookingRequest{"booking-1": decided}}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.EditBooking(context.Background(), EditBookingParams{Actor: studentActor, BookingID: "booking-1", Input: validBookingInput()})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("rewrites the pending slot", func(t *testing.T) {
		repo := &bookingRepoStub{bookings: map[string]persistence.BookingRequest{"booking-1": pending}}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		input := validBookingInput()
		input.Start = scheduler.TimeOfDay(720)
		input.End = scheduler.TimeOfDay(780)
		booking, err := svc.EditBooking(context.Background(), EditBookingParams{Actor: studentActor, BookingID: "booking-1", Input: input})
		if err != nil {
			t.Fatalf("EditBooking() error = %v", err)
		}
		if booking.StartMinute != 720 || booking.EndMinute != 780 {
			t.Errorf("window = [%d, %d), want [720, 780)", booking.StartMinute, booking.EndMinute)
		}
		if repo.updated.ID != "booking-1" {
			t.Errorf("repo received %+v", repo.updated)
		}
	})
}

func TestBookingService_DecideBooking(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewBookingService(&bookingRepoStub{}, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.DecideBooking(context.Background(), DecideBookingParams{Approver: instructorActor, BookingID: "booking-1", Accept: true})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("maps the transactional conflict", func(t *testing.T) {
		repo := &bookingRepoStub{acceptErr: &persistence.ConflictError{
			RoomID:      "room-1",
			Date:        time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			StartMinute: 600,
			EndMinute:   660,
			WithID:      "booking-held",
			Source:      persistence.SlotSourceBooking,
		}}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.DecideBooking(context.Background(), DecideBookingParams{Approver: adminActor, BookingID: "booking-1", Accept: true})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.WithID != "booking-held" {
			t.Errorf("conflict = %+v", cErr)
		}
	})

	t.Run("maps already decided requests", func(t *testing.T) {
		repo := &bookingRepoStub{acceptErr: persistence.ErrInvalidState}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.DecideBooking(context.Background(), DecideBookingParams{Approver: adminActor, BookingID: "booking-1", Accept: true})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("returns the committed decision", func(t *testing.T) {
		decided := fixedNow()
		repo := &bookingRepoStub{acceptResult: persistence.BookingRequest{
			ID:         "booking-1",
			Status:     persistence.RequestAccepted,
			ApproverID: "admin-1",
			DecidedAt:  &decided,
		}}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		booking, err := svc.DecideBooking(context.Background(), DecideBookingParams{Approver: adminActor, BookingID: "booking-1", Accept: true})
		if err != nil {
			t.Fatalf("DecideBooking() error = %v", err)
		}
		if booking.Status != persistence.RequestAccepted || booking.ApproverID != "admin-1" {
			t.Errorf("booking = %+v", booking)
		}
	})
}

func TestBookingService_ListBookings(t *testing.T) {
	t.Run("students are scoped to their own requests", func(t *testing.T) {
		repo := &bookingRepoStub{}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		if _, err := svc.ListBookings(context.Background(), ListBookingsParams{Actor: studentActor}); err != nil {
			t.Fatalf("ListBookings() error = %v", err)
		}
		if repo.filter.RequesterID != studentActor.ID {
			t.Errorf("filter = %+v, want requester scoped to %q", repo.filter, studentActor.ID)
		}
	})

	t.Run("administrators see unscoped results", func(t *testing.T) {
		repo := &bookingRepoStub{}
		svc := NewBookingService(repo, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		if _, err := svc.ListBookings(context.Background(), ListBookingsParams{Actor: adminActor}); err != nil {
			t.Fatalf("ListBookings() error = %v", err)
		}
		if repo.filter.RequesterID != "" {
			t.Errorf("filter = %+v, want no requester scope", repo.filter)
		}
	})
}
