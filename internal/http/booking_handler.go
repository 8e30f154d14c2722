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

type bookingService interface {
	SubmitBooking(ctx context.Context, params application.SubmitBookingParams) (application.SubmitBookingResult, error)
	EditBooking(ctx context.Context, params application.EditBookingParams) (persistence.BookingRequest, error)
	DecideBooking(ctx context.Context, params application.DecideBookingParams) (persistence.BookingRequest, error)
	GetBooking(ctx context.Context, actor application.Actor, id string) (persistence.BookingRequest, error)
	ListBookings(ctx context.Context, params application.ListBookingsParams) ([]persistence.BookingRequest, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
	logger    zerolog.Logger
}

func NewBookingHandler(service bookingService, logger zerolog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger), logger: logger}
}

func (h *BookingHandler) log(ctx context.Context, operation string) zerolog.Logger {
	return handlerLogger(ctx, h.logger, "BookingHandler", operation)
}

func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Submit")

	result, err := h.service.SubmitBooking(r.Context(), application.SubmitBookingParams{
		Requester: actor,
		Input:     input,
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("booking submission failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	if len(result.Warnings) > 0 {
		telemetry.ConflictWarningsTotal.Add(float64(len(result.Warnings)))
	}

	logger.Info().
		Str("booking_id", result.Booking.ID).
		Int("warning_count", len(result.Warnings)).
		Msg("booking submitted")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{
		Booking:  toBookingDTO(result.Booking),
		Warnings: toWarningDTOs(result.Warnings),
	})
}

func (h *BookingHandler) Edit(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	var req bookingRequest
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

	booking, err := h.service.EditBooking(r.Context(), application.EditBookingParams{
		Actor:     actor,
		BookingID: bookingID,
		Input:     input,
	})
	if err != nil {
		logger.Error().Err(err).Str("booking_id", bookingID).Str("error_kind", application.ErrorKind(err)).Msg("booking edit failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.Info().Str("booking_id", bookingID).Msg("booking edited")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Decide(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if strings.TrimSpace(bookingID) == "" {
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

	booking, err := h.service.DecideBooking(r.Context(), application.DecideBookingParams{
		Approver:  actor,
		BookingID: bookingID,
		Accept:    accept,
	})
	if err != nil {
		kind := application.ErrorKind(err)
		if kind == "conflict" {
			telemetry.DecisionsTotal.WithLabelValues("booking", "conflict").Inc()
		}
		logger.Error().Err(err).Str("booking_id", bookingID).Str("error_kind", kind).Msg("booking decision failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	telemetry.DecisionsTotal.WithLabelValues("booking", string(booking.Status)).Inc()
	logger.Info().Str("booking_id", bookingID).Str("status", string(booking.Status)).Msg("booking decided")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	bookingID := chi.URLParam(r, "bookingID")
	if strings.TrimSpace(bookingID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidID)
		return
	}

	actor, _ := ActorFromContext(r.Context())

	booking, err := h.service.GetBooking(r.Context(), actor, bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	filter, err := bookingFilterFromQuery(r.URL.Query())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "List")

	bookings, err := h.service.ListBookings(r.Context(), application.ListBookingsParams{
		Actor:  actor,
		Filter: filter,
	})
	if err != nil {
		logger.Error().Err(err).Str("error_kind", application.ErrorKind(err)).Msg("booking list failed")
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{Bookings: toBookingDTOs(bookings)})
}

func bookingFilterFromQuery(query url.Values) (persistence.BookingFilter, error) {
	filter := persistence.BookingFilter{
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
		RoomID:      strings.TrimSpace(query.Get("room_id")),
		Status:      persistence.RequestStatus(strings.TrimSpace(query.Get("status"))),
	}

	if raw := strings.TrimSpace(query.Get("date")); raw != "" {
		date, err := time.Parse(dateLayout, raw)
		if err != nil {
			return persistence.BookingFilter{}, &application.ValidationError{
				FieldErrors: map[string]string{"date": "date must use the YYYY-MM-DD format"},
			}
		}
		filter.Date = &date
	}

	return filter, nil
}

type bookingRequest struct {
	RoomID string `json:"room_id"`
	slotFields
	Reason string `json:"reason"`
}

func (r bookingRequest) toInput() (application.BookingInput, error) {
	vErr := &application.ValidationError{}
	date, start, end := r.parseSlot(vErr)
	if vErr.HasErrors() {
		return application.BookingInput{}, vErr
	}

	return application.BookingInput{
		RoomID: strings.TrimSpace(r.RoomID),
		Date:   date,
		Start:  start,
		End:    end,
		Reason: strings.TrimSpace(r.Reason),
	}, nil
}

type decisionRequest struct {
	Decision string `json:"decision"`
}

// accept maps the wire decision verb onto the boolean the services expect.
func (r decisionRequest) accept() (bool, error) {
	switch strings.TrimSpace(r.Decision) {
	case "accept":
		return true, nil
	case "reject":
		return false, nil
	default:
		return false, &application.ValidationError{
			FieldErrors: map[string]string{"decision": "decision must be accept or reject"},
		}
	}
}

type bookingResponse struct {
	Booking  bookingDTO   `json:"booking"`
	Warnings []warningDTO `json:"warnings,omitempty"`
}

type listBookingsResponse struct {
	Bookings []bookingDTO `json:"bookings"`
}

type bookingDTO struct {
	ID         string   `json:"id"`
	Requester  actorDTO `json:"requester"`
	RoomID     string   `json:"room_id"`
	Date       string   `json:"date"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Reason     string   `json:"reason,omitempty"`
	Status     string   `json:"status"`
	ApproverID string   `json:"approver_id,omitempty"`
	DecidedAt  *string  `json:"decided_at,omitempty"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
}

func toBookingDTO(booking persistence.BookingRequest) bookingDTO {
	return bookingDTO{
		ID:         booking.ID,
		Requester:  toActorDTO(booking.Requester),
		RoomID:     booking.RoomID,
		Date:       booking.Date.Format(dateLayout),
		Start:      minuteString(booking.StartMinute),
		End:        minuteString(booking.EndMinute),
		Reason:     booking.Reason,
		Status:     string(booking.Status),
		ApproverID: booking.ApproverID,
		DecidedAt:  formatDecidedAt(booking.DecidedAt),
		CreatedAt:  formatTimestamp(booking.CreatedAt),
		UpdatedAt:  formatTimestamp(booking.UpdatedAt),
	}
}

func toBookingDTOs(bookings []persistence.BookingRequest) []bookingDTO {
	if len(bookings) == 0 {
		return nil
	}
	out := make([]bookingDTO, 0, len(bookings))
	for _, booking := range bookings {
		out = append(out, toBookingDTO(booking))
	}
	return out
}

type warningDTO struct {
	RoomID string `json:"room_id"`
	Date   string `json:"date"`
	Start  string `json:"start"`
	End    string `json:"end"`
	WithID string `json:"with_id"`
	Source string `json:"source"`
}

func toWarningDTOs(warnings []application.ConflictWarning) []warningDTO {
	if len(warnings) == 0 {
		return nil
	}
	out := make([]warningDTO, 0, len(warnings))
	for _, warning := range warnings {
		out = append(out, warningDTO{
			RoomID: warning.RoomID,
			Date:   warning.Date.Format(dateLayout),
			Start:  minuteString(warning.StartMinute),
			End:    minuteString(warning.EndMinute),
			WithID: warning.WithID,
			Source: warning.Source,
		})
	}
	return out
}
