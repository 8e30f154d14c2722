package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/scheduler"
	"github.com/example/campus-scheduler/internal/telemetry"
)

type conflictService interface {
	CheckWindow(ctx context.Context, params application.CheckWindowParams) ([]application.ConflictWarning, error)
}

type ConflictHandler struct {
	service   conflictService
	responder responder
	logger    zerolog.Logger
}

func NewConflictHandler(service conflictService, logger zerolog.Logger) *ConflictHandler {
	return &ConflictHandler{service: service, responder: newResponder(logger), logger: logger}
}

// Check probes a candidate window against committed claims without holding
// anything. The result is advisory; decisions re-check inside a transaction.
func (h *ConflictHandler) Check(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	vErr := &application.ValidationError{}

	roomID := strings.TrimSpace(query.Get("room_id"))
	if roomID == "" {
		addFieldError(vErr, "room_id", "room_id is required")
	}

	var (
		date       time.Time
		start, end scheduler.TimeOfDay
		err        error
	)
	if date, err = time.Parse(dateLayout, strings.TrimSpace(query.Get("date"))); err != nil {
		addFieldError(vErr, "date", "date must use the YYYY-MM-DD format")
	}
	if start, err = scheduler.ParseTimeOfDay(strings.TrimSpace(query.Get("start"))); err != nil {
		addFieldError(vErr, "start", "start must use the HH:MM format")
	}
	if end, err = scheduler.ParseTimeOfDay(strings.TrimSpace(query.Get("end"))); err != nil {
		addFieldError(vErr, "end", "end must use the HH:MM format")
	}

	if vErr.HasErrors() {
		h.responder.handleServiceError(r.Context(), w, vErr)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "ConflictHandler", "Check")

	warnings, err := h.service.CheckWindow(r.Context(), application.CheckWindowParams{
		RoomID:    roomID,
		Date:      date,
		Start:     start,
		End:       end,
		ExcludeID: strings.TrimSpace(query.Get("exclude_id")),
	})
	if err != nil {
		logger.Error().Err(err).Str("room_id", roomID).Str("error_kind", application.ErrorKind(err)).Msg("conflict check failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if len(warnings) > 0 {
		telemetry.ConflictWarningsTotal.Add(float64(len(warnings)))
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictCheckResponse{Warnings: toWarningDTOs(warnings)})
}

type conflictCheckResponse struct {
	Warnings []warningDTO `json:"warnings"`
}
