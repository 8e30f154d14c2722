package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/telemetry"
)

type changeService interface {
	ProposeChange(ctx context.Context, params application.ProposeChangeParams) (persistence.ScheduleChangeRequest, error)
	EditChange(ctx context.Context, params application.EditChangeParams) (persistence.ScheduleChangeRequest, error)
	DecideChange(ctx context.Context, params application.DecideChangeParams) (persistence.ScheduleChangeRequest, persistence.ScheduleOccurrence, error)
	GetChange(ctx context.Context, id string) (persistence.ScheduleChangeRequest, error)
	ListChanges(ctx context.Context, params application.ListChangesParams) ([]persistence.ScheduleChangeRequest, error)
}

type ChangeHandler struct {
	service   changeService
	responder responder
	logger    zerolog.Logger
}

func NewChangeHandler(service changeService, logger zerolog.Logger) *ChangeHandler {
	return &ChangeHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *ChangeHandler) log(ctx context.Context, operation string) zerolog.Logger {
	return handlerLogger(ctx, h.logger, "ChangeHandler", operation)
}

func (h *ChangeHandler) Propose(w http.ResponseWriter, r *http.Request) {
	occurrenceID := chi.URLParam(r, "occurrenceID")
	if strings.TrimSpace(occurrenceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Propose")

	change, err := h.service.ProposeChange(r.Context(), application.ProposeChangeParams{
		Requester:    actor,
		OccurrenceID: occurrenceID,
		Input:        input,
	})
	if err != nil {
		logger.Error().Err(err).Str("occurrence_id", occurrenceID).Str("error_kind", application.ErrorKind(err)).Msg("change proposal failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("change_id", change.ID).Str("occurrence_id", occurrenceID).Msg("change proposed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, changeResponse{Change: toChangeDTO(change)})
}

func (h *ChangeHandler) Edit(w http.ResponseWriter, r *http.Request) {
	changeID := chi.URLParam(r, "changeID")
	if strings.TrimSpace(changeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req changeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Edit")

	change, err := h.service.EditChange(r.Context(), application.EditChangeParams{
		Actor:    actor,
		ChangeID: changeID,
		Input:    input,
	})
	if err != nil {
		logger.Error().Err(err).Str("change_id", changeID).Str("error_kind", application.ErrorKind(err)).Msg("change edit failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("change_id", changeID).Msg("change edited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, changeResponse{Change: toChangeDTO(change)})
}

func (h *ChangeHandler) Decide(w http.ResponseWriter, r *http.Request) {
	changeID := chi.URLParam(r, "changeID")
	if strings.TrimSpace(changeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	accept, err := req.accept()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Decide")

	change, occurrence, err := h.service.DecideChange(r.Context(), application.DecideChangeParams{
		Approver: actor,
		ChangeID: changeID,
		Accept:   accept,
	})
	if err != nil {
		kind := application.ErrorKind(err)
		if kind == "conflict" {
			telemetry.DecisionsTotal.WithLabelValues("change", "conflict").Inc()
		}
		logger.Error().Err(err).Str("change_id", changeID).Str("error_kind", kind).Msg("change decision failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	telemetry.DecisionsTotal.WithLabelValues("change", string(change.Status)).Inc()
	logger.Info().Str("change_id", changeID).Str("status", string(change.Status)).Msg("change decided")

	payload := changeResponse{Change: toChangeDTO(change)}
	if change.Status == persistence.RequestAccepted {
		occurrenceDTO := toOccurrenceDTO(occurrence)
		payload.Occurrence = &occurrenceDTO
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *ChangeHandler) Get(w http.ResponseWriter, r *http.Request) {
	changeID := chi.URLParam(r, "changeID")
	if strings.TrimSpace(changeID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	change, err := h.service.GetChange(r.Context(), changeID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, changeResponse{Change: toChangeDTO(change)})
}

func (h *ChangeHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	logger := h.log(r.Context(), "List")

	changes, err := h.service.ListChanges(r.Context(), application.ListChangesParams{
		Actor:  actor,
		Filter: changeFilterFromQuery(r.URL.Query()),
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("change list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listChangesResponse{Changes: toChangeDTOs(changes)})
}

func changeFilterFromQuery(query url.Values) persistence.ChangeRequestFilter {
	return persistence.ChangeRequestFilter{
		RequesterID:  strings.TrimSpace(query.Get("requester_id")),
		OccurrenceID: strings.TrimSpace(query.Get("occurrence_id")),
		Status:       persistence.RequestStatus(strings.TrimSpace(query.Get("status"))),
	}
}

type changeRequest struct {
	Mode   string  `json:"mode"`
	RoomID *string `json:"room_id"`
	slotFields
	Reason string `json:"reason"`
}

func (r changeRequest) toInput() (application.ChangeInput, error) {
	vErr := &application.ValidationError{}
	date, start, end := r.parseSlot(vErr)
	if vErr.HasErrors() {
		return application.ChangeInput{}, vErr
	}

	var roomID *string
	if r.RoomID != nil {
		trimmed := strings.TrimSpace(*r.RoomID)
		roomID = &trimmed
	}

	return application.ChangeInput{
		Mode:   persistence.DeliveryMode(strings.TrimSpace(r.Mode)),
		RoomID: roomID,
		Date:   date,
		Start:  start,
		End:    end,
		Reason: strings.TrimSpace(r.Reason),
	}, nil
}

type changeResponse struct {
	Change     changeDTO      `json:"change"`
	Occurrence *occurrenceDTO `json:"occurrence,omitempty"`
}

type listChangesResponse struct {
	Changes []changeDTO `json:"changes"`
}

type changeDTO struct {
	ID           string   `json:"id"`
	OccurrenceID string   `json:"occurrence_id"`
	Requester    actorDTO `json:"requester"`
	Mode         string   `json:"mode"`
	RoomID       *string  `json:"room_id,omitempty"`
	Date         string   `json:"date"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Reason       string   `json:"reason,omitempty"`
	Status       string   `json:"status"`
	ApproverID   string   `json:"approver_id,omitempty"`
	DecidedAt    *string  `json:"decided_at,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

func toChangeDTO(change persistence.ScheduleChangeRequest) changeDTO {
	return changeDTO{
		ID:           change.ID,
		OccurrenceID: change.OccurrenceID,
		Requester:    toActorDTO(change.Requester),
		Mode:         string(change.Mode),
		RoomID:       change.NewRoomID,
		Date:         change.NewDate.Format(dateLayout),
		Start:        minuteString(change.NewStartMinute),
		End:          minuteString(change.NewEndMinute),
		Reason:       change.Reason,
		Status:       string(change.Status),
		ApproverID:   change.ApproverID,
		DecidedAt:    formatDecidedAt(change.DecidedAt),
		CreatedAt:    formatTimestamp(change.CreatedAt),
		UpdatedAt:    formatTimestamp(change.UpdatedAt),
	}
}

func toChangeDTOs(changes []persistence.ScheduleChangeRequest) []changeDTO {
	if len(changes) == 0 {
		return nil
	}
	out := make([]changeDTO, 0, len(changes))
	for _, change := range changes {
		out = append(out, toChangeDTO(change))
	}
	return out
}
