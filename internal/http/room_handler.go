package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (persistence.Room, error)
	UpdateRoom(ctx context.Context, params application.UpdateRoomParams) (persistence.Room, error)
	SetRoomStatus(ctx context.Context, params application.SetRoomStatusParams) (persistence.Room, error)
	DeleteRoom(ctx context.Context, actor application.Actor, roomID string) error
	GetRoom(ctx context.Context, id string) (persistence.Room, error)
	ListRooms(ctx context.Context) ([]persistence.Room, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    zerolog.Logger
}

func NewRoomHandler(service roomService, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *RoomHandler) log(ctx context.Context, operation string) zerolog.Logger {
	return handlerLogger(ctx, h.logger, "RoomHandler", operation)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	room, err := h.service.CreateRoom(r.Context(), application.CreateRoomParams{
		Actor: actor,
		Input: req.toInput(),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room creation failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("room_id", room.ID).Msg("room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req roomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update")

	room, err := h.service.UpdateRoom(r.Context(), application.UpdateRoomParams{
		Actor:  actor,
		RoomID: roomID,
		Input:  req.toInput(),
	})
	if err != nil {
		logger.Error().Err(err).Str("room_id", roomID).Str("error_kind", application.ErrorKind(err)).Msg("room update failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("room_id", roomID).Msg("room updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req roomStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "SetStatus")

	room, err := h.service.SetRoomStatus(r.Context(), application.SetRoomStatusParams{
		Actor:  actor,
		RoomID: roomID,
		Status: persistence.RoomStatus(strings.TrimSpace(req.Status)),
	})
	if err != nil {
		logger.Error().Err(err).Str("room_id", roomID).Str("error_kind", application.ErrorKind(err)).Msg("room status change failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("room_id", roomID).Str("status", string(room.Status)).Msg("room status changed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	logger := h.log(r.Context(), "Delete")

	if err := h.service.DeleteRoom(r.Context(), actor, roomID); err != nil {
		logger.Error().Err(err).Str("room_id", roomID).Str("error_kind", application.ErrorKind(err)).Msg("room delete failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("room_id", roomID).Msg("room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if strings.TrimSpace(roomID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, roomResponse{Room: toRoomDTO(room)})
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.log(r.Context(), "List")

	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("room list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listRoomsResponse{Rooms: toRoomDTOs(rooms)})
}

type roomRequest struct {
	Name     string `json:"name"`
	Building string `json:"building"`
	Floor    int    `json:"floor"`
	Capacity int    `json:"capacity"`
}

func (r roomRequest) toInput() application.RoomInput {
	return application.RoomInput{
		Name:     strings.TrimSpace(r.Name),
		Building: strings.TrimSpace(r.Building),
		Floor:    r.Floor,
		Capacity: r.Capacity,
	}
}

type roomStatusRequest struct {
	Status string `json:"status"`
}

type roomResponse struct {
	Room roomDTO `json:"room"`
}

type listRoomsResponse struct {
	Rooms []roomDTO `json:"rooms"`
}

type roomDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Building  string `json:"building"`
	Floor     int    `json:"floor"`
	Capacity  int    `json:"capacity"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toRoomDTO(room persistence.Room) roomDTO {
	return roomDTO{
		ID:        room.ID,
		Name:      room.Name,
		Building:  room.Building,
		Floor:     room.Floor,
		Capacity:  room.Capacity,
		Status:    string(room.Status),
		CreatedAt: formatTimestamp(room.CreatedAt),
		UpdatedAt: formatTimestamp(room.UpdatedAt),
	}
}

func toRoomDTOs(rooms []persistence.Room) []roomDTO {
	if len(rooms) == 0 {
		return nil
	}
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
