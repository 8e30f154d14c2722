package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow indicates a window whose start does not precede its end.
var ErrInvalidWindow = errors.New("scheduler: window start must be before end")

// TimeOfDay is a wall-clock instant expressed as minutes since midnight.
type TimeOfDay int

const minutesPerDay = 24 * 60

// ParseTimeOfDay parses a "15:04" formatted clock value.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, fmt.Errorf("scheduler: invalid time of day %q: %w", value, err)
	}
	return TimeOfDay(parsed.Hour()*60 + parsed.Minute()), nil
}

// String renders the value in "15:04" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether the value falls within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < minutesPerDay
}

// DateOf truncates a timestamp to its civil date in UTC. Windows compare by
// date only, so every stored date passes through this normalization.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Window is a dated time interval claimed against a room.
type Window struct {
	Date  time.Time
	Start TimeOfDay
	End   TimeOfDay
}

// NewWindow builds a normalized window from a date and clock bounds.
func NewWindow(date time.Time, start, end TimeOfDay) Window {
	return Window{Date: DateOf(date), Start: start, End: end}
}

// Validate enforces the start < end invariant and day bounds.
func (w Window) Validate() error {
	if !w.Start.Valid() || !w.End.Valid() {
		return ErrInvalidWindow
	}
	if w.Start >= w.End {
		return ErrInvalidWindow
	}
	return nil
}

// SameDate reports whether both windows fall on the same civil date.
func (w Window) SameDate(other Window) bool {
	return DateOf(w.Date).Equal(DateOf(other.Date))
}

// Overlaps reports whether two windows contend for the same span of time.
// Two windows overlap iff they share a date and start1 < end2 && start2 < end1;
// back-to-back windows (end1 == start2) do not overlap.
func (w Window) Overlaps(other Window) bool {
	if !w.SameDate(other) {
		return false
	}
	return w.Start < other.End && other.Start < w.End
}

// String renders the window for logs and error messages.
func (w Window) String() string {
	return fmt.Sprintf("%s %s-%s", DateOf(w.Date).Format("2006-01-02"), w.Start, w.End)
}
