package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
)

// RoomService orchestrates validation, authorization, and persistence for the
// room catalog.
type RoomService struct {
	rooms       persistence.RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms persistence.RoomRepository, idGenerator func() string, now func() time.Time, logger zerolog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, idGenerator: idGenerator, now: now, logger: logger}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation)
}

// CreateRoom validates input and persists a new serviceable room for
// administrators.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom").With().Str("actor_id", params.Actor.ID).Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to create room")
			return
		}
		logger.Info().Str("room_id", room.ID).Msg("room created")
	}()

	if params.Actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	stamp := s.now()
	room = persistence.Room{
		ID:        s.idGenerator(),
		Name:      strings.TrimSpace(params.Input.Name),
		Building:  strings.TrimSpace(params.Input.Building),
		Floor:     params.Input.Floor,
		Capacity:  params.Input.Capacity,
		Status:    persistence.RoomServiceable,
		CreatedAt: stamp,
		UpdatedAt: stamp,
	}

	if err = s.rooms.CreateRoom(ctx, room); err != nil {
		err = mapRoomRepoError(err)
		return
	}
	return
}

// UpdateRoom validates input and updates an existing room's catalog fields
// for administrators. Serviceability transitions go through SetRoomStatus.
func (s *RoomService) UpdateRoom(ctx context.Context, params UpdateRoomParams) (room persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateRoom").With().
		Str("actor_id", params.Actor.ID).
		Str("room_id", params.RoomID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to update room")
			return
		}
		logger.Info().Msg("room updated")
	}()

	if params.Actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	var existing persistence.Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	vErr := validateRoomInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = strings.TrimSpace(params.Input.Name)
	updated.Building = strings.TrimSpace(params.Input.Building)
	updated.Floor = params.Input.Floor
	updated.Capacity = params.Input.Capacity
	updated.UpdatedAt = s.now()

	if err = s.rooms.UpdateRoom(ctx, updated); err != nil {
		err = mapRoomRepoError(err)
		return
	}
	room = updated
	return
}

// SetRoomStatus transitions a room's serviceability for administrators.
// Existing accepted bookings and materialized occurrences are left in place;
// the status only gates future template validation and materialization.
func (s *RoomService) SetRoomStatus(ctx context.Context, params SetRoomStatusParams) (room persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "SetRoomStatus").With().
		Str("actor_id", params.Actor.ID).
		Str("room_id", params.RoomID).
		Str("status", string(params.Status)).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to set room status")
			return
		}
		logger.Info().Msg("room status changed")
	}()

	if params.Actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	switch params.Status {
	case persistence.RoomServiceable, persistence.RoomUnserviceable, persistence.RoomUnderRepair:
	default:
		vErr := &ValidationError{}
		vErr.add("status", "status must be serviceable, unserviceable, or under_repair")
		err = vErr
		return
	}

	var existing persistence.Room
	existing, err = s.rooms.GetRoom(ctx, params.RoomID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	existing.Status = params.Status
	existing.UpdatedAt = s.now()
	if err = s.rooms.UpdateRoom(ctx, existing); err != nil {
		err = mapRoomRepoError(err)
		return
	}
	room = existing
	return
}

// DeleteRoom removes a room from the catalog for administrators.
func (s *RoomService) DeleteRoom(ctx context.Context, actor Actor, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if actor.Kind != persistence.ActorAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteRoom").With().
		Str("actor_id", actor.ID).
		Str("room_id", roomID).
		Logger()

	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		err = mapRoomRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to delete room")
		return err
	}

	logger.Info().Msg("room deleted")
	return nil
}

// GetRoom returns a single catalog entry.
func (s *RoomService) GetRoom(ctx context.Context, id string) (persistence.Room, error) {
	if s == nil {
		return persistence.Room{}, fmt.Errorf("RoomService is nil")
	}
	room, err := s.rooms.GetRoom(ctx, id)
	if err != nil {
		return persistence.Room{}, mapRoomRepoError(err)
	}
	return room, nil
}

// ListRooms returns the room catalog sorted by building then name.
func (s *RoomService) ListRooms(ctx context.Context) (rooms []persistence.Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListRooms")
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to list rooms")
			return
		}
		logger.Debug().Int("result_count", len(rooms)).Msg("rooms listed")
	}()

	var raw []persistence.Room
	raw, err = s.rooms.ListRooms(ctx)
	if err != nil {
		return
	}

	rooms = make([]persistence.Room, len(raw))
	copy(rooms, raw)
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].Building != rooms[j].Building {
			return rooms[i].Building < rooms[j].Building
		}
		if rooms[i].Name != rooms[j].Name {
			return rooms[i].Name < rooms[j].Name
		}
		return rooms[i].ID < rooms[j].ID
	})
	return
}

func validateRoomInput(input RoomInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Name) == "" {
		vErr.add("name", "name is required")
	}
	if strings.TrimSpace(input.Building) == "" {
		vErr.add("building", "building is required")
	}
	if input.Capacity <= 0 {
		vErr.add("capacity", "capacity must be positive")
	}

	return vErr
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "capacity must be positive")
		return vErr
	}
	return err
}
