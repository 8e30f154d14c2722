package http

import (
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

const dateLayout = "2006-01-02"

// slotFields is the JSON shape shared by every payload that names a
// date-bounded time window.
type slotFields struct {
	Date  string `json:"date"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// parseSlot converts the wire strings into domain values, collecting parse
// failures into vErr under the given field prefix.
func (s slotFields) parseSlot(vErr *application.ValidationError) (time.Time, scheduler.TimeOfDay, scheduler.TimeOfDay) {
	var (
		date       time.Time
		start, end scheduler.TimeOfDay
		err        error
	)

	if date, err = time.Parse(dateLayout, strings.TrimSpace(s.Date)); err != nil {
		addFieldError(vErr, "date", "date must use the YYYY-MM-DD format")
	}
	if start, err = scheduler.ParseTimeOfDay(strings.TrimSpace(s.Start)); err != nil {
		addFieldError(vErr, "start", "start must use the HH:MM format")
	}
	if end, err = scheduler.ParseTimeOfDay(strings.TrimSpace(s.End)); err != nil {
		addFieldError(vErr, "end", "end must use the HH:MM format")
	}
	return date, start, end
}

func addFieldError(vErr *application.ValidationError, field, message string) {
	if vErr.FieldErrors == nil {
		vErr.FieldErrors = make(map[string]string)
	}
	vErr.FieldErrors[field] = message
}

type actorDTO struct {
	Kind        string `json:"kind"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
}

func toActorDTO(actor persistence.Actor) actorDTO {
	return actorDTO{
		Kind:        string(actor.Kind),
		ID:          actor.ID,
		DisplayName: actor.DisplayName,
		Email:       actor.Email,
	}
}

func minuteString(minute int) string {
	return scheduler.TimeOfDay(minute).String()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatDecidedAt(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := formatTimestamp(*t)
	return &formatted
}
