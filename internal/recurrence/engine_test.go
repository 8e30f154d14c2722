package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/example/campus-scheduler/internal/scheduler"
)

func mustTime(t *testing.T, value string) scheduler.TimeOfDay {
	t.Helper()
	parsed, err := scheduler.ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("failed to parse time of day %q: %v", value, err)
	}
	return parsed
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", value, err)
	}
	return parsed
}

func mondayTemplate(t *testing.T) Template {
	t.Helper()
	return Template{
		ID:       "template-1",
		CourseID: "course-1",
		RoomID:   "room-1",
		Weekday:  time.Monday,
		Start:    mustTime(t, "08:00"),
		End:      mustTime(t, "10:00"),
	}
}

func TestExpandFromMatchingStartDate(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	// 2025-03-03 is a Monday.
	occurrences, err := engine.Expand(mondayTemplate(t), mustDate(t, "2025-03-03"), 3)
	if err != nil {
		t.Fatalf("expected expansion to succeed, got %v", err)
	}

	wantDates := []string{"2025-03-03", "2025-03-10", "2025-03-17"}
	if len(occurrences) != len(wantDates) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(occurrences))
	}
	for i, occurrence := range occurrences {
		if got := occurrence.Window.Date.Format("2006-01-02"); got != wantDates[i] {
			t.Errorf("occurrence %d dated %s, want %s", i, got, wantDates[i])
		}
		if occurrence.Window.Start != mustTime(t, "08:00") || occurrence.Window.End != mustTime(t, "10:00") {
			t.Errorf("occurrence %d carries window %v, want template window", i, occurrence.Window)
		}
		if occurrence.RoomID != "room-1" || occurrence.TemplateID != "template-1" {
			t.Errorf("occurrence %d lost template identity: %+v", i, occurrence)
		}
	}
}

func TestExpandAdvancesToFirstMatchingWeekday(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	// 2025-03-05 is a Wednesday; the first Monday on or after it is 03-10.
	occurrences, err := engine.Expand(mondayTemplate(t), mustDate(t, "2025-03-05"), 2)
	if err != nil {
		t.Fatalf("expected expansion to succeed, got %v", err)
	}

	wantDates := []string{"2025-03-10", "2025-03-17"}
	if len(occurrences) != len(wantDates) {
		t.Fatalf("expected %d occurrences, got %d", len(wantDates), len(occurrences))
	}
	for i, occurrence := range occurrences {
		if got := occurrence.Window.Date.Format("2006-01-02"); got != wantDates[i] {
			t.Errorf("occurrence %d dated %s, want %s", i, got, wantDates[i])
		}
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)
	first, err := engine.Expand(mondayTemplate(t), mustDate(t, "2025-03-03"), 4)
	if err != nil {
		t.Fatalf("expected expansion to succeed, got %v", err)
	}
	second, err := engine.Expand(mondayTemplate(t), mustDate(t, "2025-03-03"), 4)
	if err != nil {
		t.Fatalf("expected expansion to succeed, got %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expansion is not deterministic: %d vs %d occurrences", len(first), len(second))
	}
	for i := range first {
		if !first[i].Window.Date.Equal(second[i].Window.Date) {
			t.Fatalf("expansion is not deterministic at index %d: %v vs %v", i, first[i].Window, second[i].Window)
		}
	}
}

func TestExpandRejectsInvalidInputs(t *testing.T) {
	t.Parallel()

	engine := NewEngine(nil)

	if _, err := engine.Expand(mondayTemplate(t), mustDate(t, "2025-03-03"), 0); !errors.Is(err, ErrInvalidRepeat) {
		t.Fatalf("expected ErrInvalidRepeat, got %v", err)
	}

	weekend := mondayTemplate(t)
	weekend.Weekday = time.Saturday
	if _, err := engine.Expand(weekend, mustDate(t, "2025-03-03"), 1); !errors.Is(err, ErrInvalidWeekday) {
		t.Fatalf("expected ErrInvalidWeekday, got %v", err)
	}

	inverted := mondayTemplate(t)
	inverted.Start = mustTime(t, "10:00")
	inverted.End = mustTime(t, "08:00")
	if _, err := engine.Expand(inverted, mustDate(t, "2025-03-03"), 1); !errors.Is(err, scheduler.ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow, got %v", err)
	}
}
