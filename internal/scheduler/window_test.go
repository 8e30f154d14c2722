package scheduler

import (
	"errors"
	"testing"
	"time"
)

func mustTime(t *testing.T, value string) TimeOfDay {
	t.Helper()
	parsed, err := ParseTimeOfDay(value)
	if err != nil {
		t.Fatalf("failed to parse time of day %q: %v", value, err)
	}
	return parsed
}

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("failed to parse date %q: %v", value, err)
	}
	return parsed
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "00:00", want: 0},
		{input: "08:00", want: 480},
		{input: "23:59", want: 1439},
		{input: "24:00", wantErr: true},
		{input: "8am", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseTimeOfDay(tc.input)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", tc.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): unexpected error %v", tc.input, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", tc.input, got, tc.want)
		}
	}
}

func TestWindowValidate(t *testing.T) {
	t.Parallel()

	day := date(t, "2025-04-01")

	valid := NewWindow(day, mustTime(t, "09:00"), mustTime(t, "10:00"))
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid window, got %v", err)
	}

	inverted := NewWindow(day, mustTime(t, "10:00"), mustTime(t, "09:00"))
	if err := inverted.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for inverted bounds, got %v", err)
	}

	empty := NewWindow(day, mustTime(t, "09:00"), mustTime(t, "09:00"))
	if err := empty.Validate(); !errors.Is(err, ErrInvalidWindow) {
		t.Fatalf("expected ErrInvalidWindow for empty span, got %v", err)
	}
}

func TestWindowOverlaps(t *testing.T) {
	t.Parallel()

	day := date(t, "2025-04-01")
	otherDay := date(t, "2025-04-02")

	cases := []struct {
		name string
		a    Window
		b    Window
		want bool
	}{
		{
			name: "partial overlap",
			a:    NewWindow(day, mustTime(t, "09:00"), mustTime(t, "10:00")),
			b:    NewWindow(day, mustTime(t, "09:30"), mustTime(t, "10:30")),
			want: true,
		},
		{
			name: "containment",
			a:    NewWindow(day, mustTime(t, "09:00"), mustTime(t, "12:00")),
			b:    NewWindow(day, mustTime(t, "10:00"), mustTime(t, "11:00")),
			want: true,
		},
		{
			name: "back to back",
			a:    NewWindow(day, mustTime(t, "09:00"), mustTime(t, "10:00")),
			b:    NewWindow(day, mustTime(t, "10:00"), mustTime(t, "11:00")),
			want: false,
		},
		{
			name: "different dates",
			a:    NewWindow(day, mustTime(t, "09:00"), mustTime(t, "10:00")),
			b:    NewWindow(otherDay, mustTime(t, "09:00"), mustTime(t, "10:00")),
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.a.Overlaps(tc.b); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
			// The overlap relation is symmetric.
			if got := tc.b.Overlaps(tc.a); got != tc.want {
				t.Fatalf("Overlaps(%v, %v) = %v, want %v", tc.b, tc.a, got, tc.want)
			}
		})
	}
}

func TestDateOfNormalizesToMidnightUTC(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("JST", 9*60*60)
	stamp := time.Date(2025, time.April, 1, 23, 45, 0, 0, loc)

	got := DateOf(stamp)
	want := time.Date(2025, time.April, 1, 14, 0, 0, 0, time.UTC)
	if !got.Equal(DateOf(want)) {
		t.Fatalf("DateOf(%v) = %v, want civil date of %v", stamp, got, want)
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Fatalf("DateOf must truncate to midnight, got %v", got)
	}
}
