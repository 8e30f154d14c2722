package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// BookingService orchestrates the ad-hoc reservation request lifecycle:
// submission with advisory warnings, edits while pending, and the
// accept/reject decision backed by the authoritative in-transaction conflict
// check.
type BookingService struct {
	bookings    persistence.BookingRepository
	rooms       persistence.RoomRepository
	conflicts   *ConflictService
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewBookingService constructs a booking service with the provided
// dependencies. conflicts may be nil, in which case submissions skip advisory
// warnings.
func NewBookingService(
	bookings persistence.BookingRepository,
	rooms persistence.RoomRepository,
	conflicts *ConflictService,
	idGenerator func() string,
	now func() time.Time,
	logger zerolog.Logger,
) *BookingService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &BookingService{
		bookings:    bookings,
		rooms:       rooms,
		conflicts:   conflicts,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

func (s *BookingService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "BookingService", operation)
}

// SubmitBooking validates and stores a new pending request, returning any
// advisory warnings about committed claims that already overlap the slot.
// Warnings never block submission.
func (s *BookingService) SubmitBooking(ctx context.Context, params SubmitBookingParams) (result SubmitBookingResult, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SubmitBooking").With().
		Str("requester_id", params.Requester.ID).
		Str("room_id", params.Input.RoomID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to submit booking")
			return
		}
		logger.Info().
			Str("booking_id", result.Booking.ID).
			Int("warning_count", len(result.Warnings)).
			Msg("booking submitted")
	}()

	if err = s.validateBookingInput(ctx, params.Input); err != nil {
		return
	}

	stamp := s.now()
	booking := persistence.BookingRequest{
		ID:          s.idGenerator(),
		Requester:   params.Requester,
		RoomID:      params.Input.RoomID,
		Date:        scheduler.DateOf(params.Input.Date),
		StartMinute: int(params.Input.Start),
		EndMinute:   int(params.Input.End),
		Reason:      strings.TrimSpace(params.Input.Reason),
		Status:      persistence.RequestPending,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}

	if err = s.bookings.CreateBooking(ctx, booking); err != nil {
		err = mapRequestRepoError(err)
		return
	}

	result.Booking = booking
	result.Warnings = s.advisoryWarnings(ctx, booking.RoomID, booking.Date, params.Input.Start, params.Input.End)
	return
}

// EditBooking rewrites the slot of a pending request. Only the original
// requester or an administrator may edit; decided requests refuse edits.
func (s *BookingService) EditBooking(ctx context.Context, params EditBookingParams) (booking persistence.BookingRequest, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EditBooking").With().
		Str("actor_id", params.Actor.ID).
		Str("booking_id", params.BookingID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to edit booking")
			return
		}
		logger.Info().Msg("booking edited")
	}()

	var existing persistence.BookingRequest
	existing, err = s.bookings.GetBooking(ctx, params.BookingID)
	if err != nil {
		err = mapRequestRepoError(err)
		return
	}
	if params.Actor.Kind != persistence.ActorAdmin && params.Actor.ID != existing.Requester.ID {
		err = ErrUnauthorized
		return
	}
	if existing.Status != persistence.RequestPending {
		err = ErrInvalidState
		return
	}

	if err = s.validateBookingInput(ctx, params.Input); err != nil {
		return
	}

	existing.RoomID = params.Input.RoomID
	existing.Date = scheduler.DateOf(params.Input.Date)
	existing.StartMinute = int(params.Input.Start)
	existing.EndMinute = int(params.Input.End)
	existing.Reason = strings.TrimSpace(params.Input.Reason)
	existing.UpdatedAt = s.now()

	if err = s.bookings.UpdateBooking(ctx, existing); err != nil {
		err = mapRequestRepoError(err)
		return
	}
	booking = existing
	return
}

// DecideBooking commits an administrator's accept or reject decision. Accept
// re-runs the conflict check inside the decision transaction; a conflicting
// claim surfaces as *ConflictError and the request stays pending.
func (s *BookingService) DecideBooking(ctx context.Context, params DecideBookingParams) (booking persistence.BookingRequest, err error) {
	if s == nil {
		err = fmt.Errorf("BookingService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DecideBooking").With().
		Str("approver_id", params.Approver.ID).
		Str("booking_id", params.BookingID).
		Bool("accept", params.Accept).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to decide booking")
			return
		}
		logger.Info().Str("status", string(booking.Status)).Msg("booking decided")
	}()

	if params.Approver.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	decidedAt := s.now()
	if params.Accept {
		booking, err = s.bookings.AcceptBooking(ctx, params.BookingID, params.Approver.ID, decidedAt)
	} else {
		booking, err = s.bookings.RejectBooking(ctx, params.BookingID, params.Approver.ID, decidedAt)
	}
	if err != nil {
		err = mapRequestRepoError(err)
		return
	}

	s.conflicts.Invalidate()
	return
}

// GetBooking returns one request. Students see only their own requests;
// instructors and administrators see all.
func (s *BookingService) GetBooking(ctx context.Context, actor Actor, id string) (persistence.BookingRequest, error) {
	if s == nil {
		return persistence.BookingRequest{}, fmt.Errorf("BookingService is nil")
	}
	booking, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return persistence.BookingRequest{}, mapRequestRepoError(err)
	}
	if actor.Kind == persistence.ActorStudent && actor.ID != booking.Requester.ID {
		return persistence.BookingRequest{}, ErrUnauthorized
	}
	return booking, nil
}

// ListBookings returns requests matching the filter. Students are always
// scoped to their own requests.
func (s *BookingService) ListBookings(ctx context.Context, params ListBookingsParams) ([]persistence.BookingRequest, error) {
	if s == nil {
		return nil, fmt.Errorf("BookingService is nil")
	}
	filter := params.Filter
	if params.Actor.Kind == persistence.ActorStudent {
		filter.RequesterID = params.Actor.ID
	}
	bookings, err := s.bookings.ListBookings(ctx, filter)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	return bookings, nil
}

func (s *BookingService) validateBookingInput(ctx context.Context, input BookingInput) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if err := scheduler.NewWindow(input.Date, input.Start, input.End).Validate(); err != nil {
		vErr.add("window", "end must be after start and both must fall within one day")
	}
	if vErr.HasErrors() {
		return vErr
	}

	room, err := s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			vErr.add("room_id", "room does not exist")
			return vErr
		}
		return err
	}
	if room.Status != persistence.RoomServiceable {
		vErr.add("room_id", "room is not serviceable")
		return vErr
	}
	return nil
}

func (s *BookingService) advisoryWarnings(ctx context.Context, roomID string, date time.Time, start, end scheduler.TimeOfDay) []ConflictWarning {
	if s.conflicts == nil {
		return nil
	}
	warnings, err := s.conflicts.CheckWindow(ctx, CheckWindowParams{
		RoomID: roomID,
		Date:   date,
		Start:  start,
		End:    end,
	})
	if err != nil {
		// Advisory only: a failed probe never blocks submission.
		logger := s.loggerWith(ctx, "SubmitBooking")
		logger.Warn().Err(err).Msg("advisory conflict probe failed")
		return nil
	}
	return warnings
}

func mapRequestRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrInvalidState) {
		return ErrInvalidState
	}
	var conflict *persistence.ConflictError
	if errors.As(err, &conflict) {
		return &ConflictError{
			RoomID:      conflict.RoomID,
			Date:        conflict.Date,
			StartMinute: conflict.StartMinute,
			EndMinute:   conflict.EndMinute,
			WithID:      conflict.WithID,
			Source:      conflict.Source,
		}
	}
	return err
}
