package recurrence

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/example/campus-scheduler/internal/scheduler"
)

// ErrInvalidRepeat indicates a non-positive repeat count.
var ErrInvalidRepeat = errors.New("recurrence: repeat count must be positive")

// ErrInvalidWeekday indicates a template weekday outside Monday through Friday.
var ErrInvalidWeekday = errors.New("recurrence: weekday must be Monday through Friday")

// Template is the weekly shape expanded into dated occurrences. It carries the
// identity of the recurring course meeting plus the slot it claims each week.
type Template struct {
	ID       string
	CourseID string
	RoomID   string
	Weekday  time.Weekday
	Start    scheduler.TimeOfDay
	End      scheduler.TimeOfDay
}

// Occurrence is one dated instance generated from a template.
type Occurrence struct {
	TemplateID string
	CourseID   string
	RoomID     string
	Window     scheduler.Window
}

// Engine expands weekly templates into dated occurrences.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that evaluates dates in the provided
// location. If loc is nil, UTC is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{location: loc}
}

var weekdayToRRule = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
}

// Expand emits repeat successive occurrences of the template, spaced exactly
// seven days apart, the first falling on or after startDate on the template's
// weekday. The expansion is pure: identical inputs always yield identical
// output, and the caller owns replacing any previously materialized set.
func (e *Engine) Expand(template Template, startDate time.Time, repeat int) ([]Occurrence, error) {
	if repeat <= 0 {
		return nil, ErrInvalidRepeat
	}
	if err := (scheduler.Window{Date: startDate, Start: template.Start, End: template.End}).Validate(); err != nil {
		return nil, err
	}

	weekday, ok := weekdayToRRule[template.Weekday]
	if !ok {
		return nil, ErrInvalidWeekday
	}

	loc := e.location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := startDate.In(loc).Date()
	dtstart := time.Date(y, m, d, 0, 0, 0, 0, loc)

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Count:     repeat,
		Byweekday: []rrule.Weekday{weekday},
		Dtstart:   dtstart,
	})
	if err != nil {
		return nil, err
	}

	dates := rule.All()
	occurrences := make([]Occurrence, 0, len(dates))
	for _, day := range dates {
		occurrences = append(occurrences, Occurrence{
			TemplateID: template.ID,
			CourseID:   template.CourseID,
			RoomID:     template.RoomID,
			Window:     scheduler.NewWindow(day, template.Start, template.End),
		})
	}
	return occurrences, nil
}
