package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/timetable"
)

type templateService interface {
	CreateTemplate(ctx context.Context, params application.CreateTemplateParams) (persistence.CourseScheduleTemplate, error)
	UpdateTemplate(ctx context.Context, params application.UpdateTemplateParams) (persistence.CourseScheduleTemplate, error)
	DeleteTemplate(ctx context.Context, actor application.Actor, templateID string) error
	GetTemplate(ctx context.Context, id string) (persistence.CourseScheduleTemplate, error)
	ListTemplates(ctx context.Context) ([]persistence.CourseScheduleTemplate, error)
	ReplaceAll(ctx context.Context, actor application.Actor, inputs []application.TemplateInput) ([]persistence.CourseScheduleTemplate, error)
}

// maxImportBytes caps the accepted timetable document size.
const maxImportBytes = 1 << 20

type TemplateHandler struct {
	service   templateService
	responder responder
	logger    zerolog.Logger
}

func NewTemplateHandler(service templateService, logger zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *TemplateHandler) log(ctx context.Context, operation string) zerolog.Logger {
	return handlerLogger(ctx, h.logger, "TemplateHandler", operation)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Create")

	template, err := h.service.CreateTemplate(r.Context(), application.CreateTemplateParams{
		Actor: actor,
		Input: input,
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("template creation failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("template_id", template.ID).Msg("template created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, templateResponse{Template: toTemplateDTO(template)})
}

func (h *TemplateHandler) Update(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if strings.TrimSpace(templateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Update")

	template, err := h.service.UpdateTemplate(r.Context(), application.UpdateTemplateParams{
		Actor:      actor,
		TemplateID: templateID,
		Input:      input,
	})
	if err != nil {
		logger.Error().Err(err).Str("template_id", templateID).Str("error_kind", application.ErrorKind(err)).Msg("template update failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("template_id", templateID).Msg("template updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, templateResponse{Template: toTemplateDTO(template)})
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if strings.TrimSpace(templateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())
	logger := h.log(r.Context(), "Delete")

	if err := h.service.DeleteTemplate(r.Context(), actor, templateID); err != nil {
		logger.Error().Err(err).Str("template_id", templateID).Str("error_kind", application.ErrorKind(err)).Msg("template delete failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("template_id", templateID).Msg("template deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TemplateHandler) Get(w http.ResponseWriter, r *http.Request) {
	templateID := chi.URLParam(r, "templateID")
	if strings.TrimSpace(templateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	template, err := h.service.GetTemplate(r.Context(), templateID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, templateResponse{Template: toTemplateDTO(template)})
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	logger := h.log(r.Context(), "List")

	templates, err := h.service.ListTemplates(r.Context())
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("template list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTemplatesResponse{Templates: toTemplateDTOs(templates)})
}

// Import accepts a YAML timetable document and atomically replaces the whole
// template set with its entries.
func (h *TemplateHandler) Import(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	logger := h.log(r.Context(), "Import")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	document, err := timetable.Parse(body)
	if err != nil {
		logger.Error().Err(err).Msg("timetable parse failed")
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"document": err.Error()},
		})
		return
	}

	inputs, err := document.ToTemplates()
	if err != nil {
		logger.Error().Err(err).Msg("timetable conversion failed")
		h.responder.handleServiceError(r.Context(), w, &application.ValidationError{
			FieldErrors: map[string]string{"entries": err.Error()},
		})
		return
	}

	templates, err := h.service.ReplaceAll(r.Context(), actor, inputs)
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("timetable import failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Int("template_count", len(templates)).Msg("timetable imported")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTemplatesResponse{Templates: toTemplateDTOs(templates)})
}

type templateRequest struct {
	CourseID string `json:"course_id"`
	RoomID   string `json:"room_id"`
	Weekday  string `json:"weekday"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

var weekdaysByName = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

func (r templateRequest) toInput() (application.TemplateInput, error) {
	vErr := &application.ValidationError{}

	weekday, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(r.Weekday))]
	if !ok {
		addFieldError(vErr, "weekday", "weekday must be a weekday name between monday and friday")
	}

	start, err := scheduler.ParseTimeOfDay(strings.TrimSpace(r.Start))
	if err != nil {
		addFieldError(vErr, "start", "start must use the HH:MM format")
	}
	end, err := scheduler.ParseTimeOfDay(strings.TrimSpace(r.End))
	if err != nil {
		addFieldError(vErr, "end", "end must use the HH:MM format")
	}
	if vErr.HasErrors() {
		return application.TemplateInput{}, vErr
	}

	return application.TemplateInput{
		CourseID: strings.TrimSpace(r.CourseID),
		RoomID:   strings.TrimSpace(r.RoomID),
		Weekday:  weekday,
		Start:    start,
		End:      end,
	}, nil
}

type templateResponse struct {
	Template templateDTO `json:"template"`
}

type listTemplatesResponse struct {
	Templates []templateDTO `json:"templates"`
}

type templateDTO struct {
	ID        string `json:"id"`
	CourseID  string `json:"course_id"`
	RoomID    string `json:"room_id"`
	Weekday   string `json:"weekday"`
	Start     string `json:"start"`
	End       string `json:"end"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toTemplateDTO(template persistence.CourseScheduleTemplate) templateDTO {
	return templateDTO{
		ID:        template.ID,
		CourseID:  template.CourseID,
		RoomID:    template.RoomID,
		Weekday:   strings.ToLower(template.Weekday.String()),
		Start:     minuteString(template.StartMinute),
		End:       minuteString(template.EndMinute),
		Status:    string(template.Status),
		CreatedAt: formatTimestamp(template.CreatedAt),
		UpdatedAt: formatTimestamp(template.UpdatedAt),
	}
}

func toTemplateDTOs(templates []persistence.CourseScheduleTemplate) []templateDTO {
	if len(templates) == 0 {
		return nil
	}
	out := make([]templateDTO, 0, len(templates))
	for _, template := range templates {
		out = append(out, toTemplateDTO(template))
	}
	return out
}
