package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/telemetry"
)

type scheduleService interface {
	Materialize(ctx context.Context, params application.MaterializeParams) (application.MaterializeResult, error)
	GetOccurrence(ctx context.Context, id string) (persistence.ScheduleOccurrence, error)
	ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.ScheduleOccurrence, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    zerolog.Logger
}

func NewScheduleHandler(service scheduleService, logger zerolog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string) zerolog.Logger {
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation)
}

func (h *ScheduleHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	semesterID := chi.URLParam(r, "semesterID")
	if strings.TrimSpace(semesterID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req materializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	startDate, err := req.startDate()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Materialize")

	result, err := h.service.Materialize(r.Context(), application.MaterializeParams{
		Actor:      actor,
		SemesterID: semesterID,
		StartDate:  startDate,
		Weeks:      req.Weeks,
	})
	if err != nil {
		logger.Error().Err(err).Str("semester_id", semesterID).Str("error_kind", application.ErrorKind(err)).Msg("materialization failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	telemetry.OccurrencesMaterialized.Add(float64(len(result.Occurrences)))
	logger.Info().
		Str("semester_id", semesterID).
		Int("occurrence_count", len(result.Occurrences)).
		Msg("semester materialized")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, materializeResponse{
		SemesterID:  result.SemesterID,
		Occurrences: toOccurrenceDTOs(result.Occurrences),
	})
}

func (h *ScheduleHandler) GetOccurrence(w http.ResponseWriter, r *http.Request) {
	occurrenceID := chi.URLParam(r, "occurrenceID")
	if strings.TrimSpace(occurrenceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	occurrence, err := h.service.GetOccurrence(r.Context(), occurrenceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, occurrenceResponse{Occurrence: toOccurrenceDTO(occurrence)})
}

func (h *ScheduleHandler) ListOccurrences(w http.ResponseWriter, r *http.Request) {
	filter, err := occurrenceFilterFromQuery(r.URL.Query())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "ListOccurrences")

	occurrences, err := h.service.ListOccurrences(r.Context(), filter)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("occurrence list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listOccurrencesResponse{Occurrences: toOccurrenceDTOs(occurrences)})
}

func occurrenceFilterFromQuery(query url.Values) (persistence.OccurrenceFilter, error) {
	filter := persistence.OccurrenceFilter{
		SemesterID: strings.TrimSpace(query.Get("semester_id")),
		RoomID:     strings.TrimSpace(query.Get("room_id")),
	}

	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return persistence.OccurrenceFilter{}, &application.ValidationError{
				FieldErrors: map[string]string{"date": "date must use the YYYY-MM-DD format"},
			}
		}
		filter.Date = &date
	}

	return filter, nil
}

type materializeRequest struct {
	StartDate string `json:"start_date"`
	Weeks     int    `json:"weeks"`
}

func (r materializeRequest) startDate() (time.Time, error) {
	date, err := time.Parse(dateLayout, strings.TrimSpace(r.StartDate))
	if err != nil {
		return time.Time{}, &application.ValidationError{
			FieldErrors: map[string]string{"start_date": "start_date must use the YYYY-MM-DD format"},
		}
	}
	return date, nil
}

type materializeResponse struct {
	SemesterID  string          `json:"semester_id"`
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type occurrenceResponse struct {
	Occurrence occurrenceDTO `json:"occurrence"`
}

type listOccurrencesResponse struct {
	Occurrences []occurrenceDTO `json:"occurrences"`
}

type occurrenceDTO struct {
	ID         string  `json:"id"`
	TemplateID string  `json:"template_id,omitempty"`
	SemesterID string  `json:"semester_id"`
	CourseID   string  `json:"course_id"`
	RoomID     *string `json:"room_id,omitempty"`
	Date       string  `json:"date"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Mode       string  `json:"mode"`
	Status     string  `json:"status"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func toOccurrenceDTO(occurrence persistence.ScheduleOccurrence) occurrenceDTO {
	return occurrenceDTO{
		ID:         occurrence.ID,
		TemplateID: occurrence.TemplateID,
		SemesterID: occurrence.SemesterID,
		CourseID:   occurrence.CourseID,
		RoomID:     occurrence.RoomID,
		Date:       occurrence.Date.Format(dateLayout),
		Start:      minuteString(occurrence.StartMinute),
		End:        minuteString(occurrence.EndMinute),
		Mode:       string(occurrence.Mode),
		Status:     string(occurrence.Status),
		CreatedAt:  formatTimestamp(occurrence.CreatedAt),
		UpdatedAt:  formatTimestamp(occurrence.UpdatedAt),
	}
}

func toOccurrenceDTOs(occurrences []persistence.ScheduleOccurrence) []occurrenceDTO {
	if len(occurrences) == 0 {
		return nil
	}
	out := make([]occurrenceDTO, 0, len(occurrences))
	for _, occurrence := range occurrences {
		out = append(out, toOccurrenceDTO(occurrence))
	}
	return out
}
