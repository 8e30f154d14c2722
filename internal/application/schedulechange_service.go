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

// ScheduleChangeService manages proposals to move a single materialized
// occurrence: a new slot, a new room, or a switch to remote delivery. The
// accept decision commits the request status and the occurrence rewrite in
// one transaction.
type ScheduleChangeService struct {
	changes     persistence.ChangeRequestRepository
	occurrences persistence.OccurrenceRepository
	rooms       persistence.RoomRepository
	conflicts   *ConflictService
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewScheduleChangeService constructs a schedule-change service with the
// provided dependencies. conflicts may be nil.
func NewScheduleChangeService(
	changes persistence.ChangeRequestRepository,
	occurrences persistence.OccurrenceRepository,
	rooms persistence.RoomRepository,
	conflicts *ConflictService,
	idGenerator func() string,
	now func() time.Time,
	logger zerolog.Logger,
) *ScheduleChangeService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleChangeService{
		changes:     changes,
		occurrences: occurrences,
		rooms:       rooms,
		conflicts:   conflicts,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

func (s *ScheduleChangeService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleChangeService", operation)
}

// ProposeChange validates and stores a new pending proposal targeting an
// existing active occurrence. Instructors and administrators may propose.
func (s *ScheduleChangeService) ProposeChange(ctx context.Context, params ProposeChangeParams) (request persistence.ScheduleChangeRequest, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleChangeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ProposeChange").With().
		Str("requester_id", params.Requester.ID).
		Str("occurrence_id", params.OccurrenceID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to propose change")
			return
		}
		logger.Info().Str("change_id", request.ID).Msg("change proposed")
	}()

	if params.Requester.Kind == persistence.ActorStudent {
		err = ErrUnauthorized
		return
	}

	var occurrence persistence.ScheduleOccurrence
	occurrence, err = s.occurrences.GetOccurrence(ctx, params.OccurrenceID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return
	}
	if occurrence.Status != persistence.OccurrenceActive {
		err = ErrInvalidState
		return
	}

	if err = s.validateChangeInput(ctx, params.Input); err != nil {
		return
	}

	stamp := s.now()
	request = persistence.ScheduleChangeRequest{
		ID:             s.idGenerator(),
		OccurrenceID:   occurrence.ID,
		Requester:      params.Requester,
		NewRoomID:      changeRoomID(params.Input),
		NewDate:        scheduler.DateOf(params.Input.Date),
		NewStartMinute: int(params.Input.Start),
		NewEndMinute:   int(params.Input.End),
		Mode:           params.Input.Mode,
		Reason:         strings.TrimSpace(params.Input.Reason),
		Status:         persistence.RequestPending,
		CreatedAt:      stamp,
		UpdatedAt:      stamp,
	}
	if err = s.changes.CreateChange(ctx, request); err != nil {
		err = mapRequestRepoError(err)
		return
	}
	return
}

// EditChange rewrites the proposal of a pending change request. Only the
// original requester or an administrator may edit.
func (s *ScheduleChangeService) EditChange(ctx context.Context, params EditChangeParams) (request persistence.ScheduleChangeRequest, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleChangeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "EditChange").With().
		Str("actor_id", params.Actor.ID).
		Str("change_id", params.ChangeID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to edit change")
			return
		}
		logger.Info().Msg("change edited")
	}()

	var existing persistence.ScheduleChangeRequest
	existing, err = s.changes.GetChange(ctx, params.ChangeID)
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

	if err = s.validateChangeInput(ctx, params.Input); err != nil {
		return
	}

	existing.NewRoomID = changeRoomID(params.Input)
	existing.NewDate = scheduler.DateOf(params.Input.Date)
	existing.NewStartMinute = int(params.Input.Start)
	existing.NewEndMinute = int(params.Input.End)
	existing.Mode = params.Input.Mode
	existing.Reason = strings.TrimSpace(params.Input.Reason)
	existing.UpdatedAt = s.now()

	if err = s.changes.UpdateChange(ctx, existing); err != nil {
		err = mapRequestRepoError(err)
		return
	}
	request = existing
	return
}

// DecideChange commits an administrator's decision. Accepting an in-person
// proposal re-checks the conflict rule inside the transaction, ignoring the
// occurrence being moved; accepting a remote proposal skips the check and
// clears the occurrence's room. Both writes land atomically.
func (s *ScheduleChangeService) DecideChange(ctx context.Context, params DecideChangeParams) (request persistence.ScheduleChangeRequest, occurrence persistence.ScheduleOccurrence, err error) {
	if s == nil {
		err = fmt.Errorf("ScheduleChangeService is nil")
		return
	}

	logger := s.loggerWith(ctx, "DecideChange").With().
		Str("approver_id", params.Approver.ID).
		Str("change_id", params.ChangeID).
		Bool("accept", params.Accept).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to decide change")
			return
		}
		logger.Info().Str("status", string(request.Status)).Msg("change decided")
	}()

	if params.Approver.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	decidedAt := s.now()
	if params.Accept {
		request, occurrence, err = s.changes.AcceptChange(ctx, params.ChangeID, params.Approver.ID, decidedAt)
	} else {
		request, err = s.changes.RejectChange(ctx, params.ChangeID, params.Approver.ID, decidedAt)
	}
	if err != nil {
		err = mapRequestRepoError(err)
		return
	}

	s.conflicts.Invalidate()
	return
}

// GetChange returns one change request.
func (s *ScheduleChangeService) GetChange(ctx context.Context, id string) (persistence.ScheduleChangeRequest, error) {
	if s == nil {
		return persistence.ScheduleChangeRequest{}, fmt.Errorf("ScheduleChangeService is nil")
	}
	request, err := s.changes.GetChange(ctx, id)
	if err != nil {
		return persistence.ScheduleChangeRequest{}, mapRequestRepoError(err)
	}
	return request, nil
}

// ListChanges returns change requests matching the filter.
func (s *ScheduleChangeService) ListChanges(ctx context.Context, params ListChangesParams) ([]persistence.ScheduleChangeRequest, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleChangeService is nil")
	}
	requests, err := s.changes.ListChanges(ctx, params.Filter)
	if err != nil {
		return nil, mapRequestRepoError(err)
	}
	return requests, nil
}

func (s *ScheduleChangeService) validateChangeInput(ctx context.Context, input ChangeInput) error {
	vErr := &ValidationError{}

	switch input.Mode {
	case persistence.ModeInPerson, persistence.ModeRemote:
	default:
		vErr.add("mode", "mode must be in_person or remote")
	}
	if err := scheduler.NewWindow(input.Date, input.Start, input.End).Validate(); err != nil {
		vErr.add("window", "end must be after start and both must fall within one day")
	}
	if input.Mode == persistence.ModeInPerson && (input.RoomID == nil || strings.TrimSpace(*input.RoomID) == "") {
		vErr.add("room_id", "room is required for in-person delivery")
	}
	if vErr.HasErrors() {
		return vErr
	}

	if input.Mode == persistence.ModeInPerson {
		room, err := s.rooms.GetRoom(ctx, *input.RoomID)
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
	}
	return nil
}

// changeRoomID returns the room claim for a proposal: nil for remote
// delivery regardless of the caller-provided room.
func changeRoomID(input ChangeInput) *string {
	if input.Mode == persistence.ModeRemote {
		return nil
	}
	return input.RoomID
}
