package scheduler

import (
	"testing"
)

func entry(t *testing.T, id string, source EntrySource, roomID, day, start, end string) Entry {
	t.Helper()
	return Entry{
		ID:     id,
		Source: source,
		RoomID: roomID,
		Window: NewWindow(date(t, day), mustTime(t, start), mustTime(t, end)),
	}
}

func TestFindConflictsReportsOverlapsForRoomAndDate(t *testing.T) {
	t.Parallel()

	existing := []Entry{
		entry(t, "booking-1", SourceBooking, "room-1", "2025-04-01", "09:00", "10:00"),
		entry(t, "occurrence-1", SourceOccurrence, "room-1", "2025-04-01", "13:00", "15:00"),
		entry(t, "booking-2", SourceBooking, "room-2", "2025-04-01", "09:00", "10:00"),
		entry(t, "booking-3", SourceBooking, "room-1", "2025-04-02", "09:00", "10:00"),
	}

	candidate := NewWindow(date(t, "2025-04-01"), mustTime(t, "09:30"), mustTime(t, "10:30"))
	conflicts := FindConflicts(existing, "room-1", candidate, "")
	if len(conflicts) != 1 {
		t.Fatalf("expected one conflict, got %d: %v", len(conflicts), conflicts)
	}
	if conflicts[0].WithID != "booking-1" || conflicts[0].Source != SourceBooking {
		t.Fatalf("unexpected conflict %+v", conflicts[0])
	}

	afternoon := NewWindow(date(t, "2025-04-01"), mustTime(t, "14:00"), mustTime(t, "16:00"))
	conflicts = FindConflicts(existing, "room-1", afternoon, "")
	if len(conflicts) != 1 || conflicts[0].WithID != "occurrence-1" {
		t.Fatalf("expected occurrence conflict, got %v", conflicts)
	}
}

func TestFindConflictsIsSymmetric(t *testing.T) {
	t.Parallel()

	w1 := NewWindow(date(t, "2025-04-01"), mustTime(t, "09:00"), mustTime(t, "10:00"))
	w2 := NewWindow(date(t, "2025-04-01"), mustTime(t, "09:30"), mustTime(t, "10:30"))

	against := func(existing Window, candidate Window) bool {
		entries := []Entry{{ID: "x", Source: SourceBooking, RoomID: "room-1", Window: existing}}
		_, found := FindConflict(entries, "room-1", candidate, "")
		return found
	}

	if against(w1, w2) != against(w2, w1) {
		t.Fatalf("conflict detection must be symmetric for %v and %v", w1, w2)
	}
	if !against(w1, w2) {
		t.Fatalf("expected %v and %v to conflict", w1, w2)
	}
}

func TestFindConflictsExcludesMovedEntry(t *testing.T) {
	t.Parallel()

	existing := []Entry{
		entry(t, "occurrence-7", SourceOccurrence, "room-1", "2025-04-01", "09:00", "11:00"),
	}

	// Moving occurrence-7 within its own current slot must not conflict with itself.
	candidate := NewWindow(date(t, "2025-04-01"), mustTime(t, "09:00"), mustTime(t, "10:00"))
	if conflicts := FindConflicts(existing, "room-1", candidate, "occurrence-7"); len(conflicts) != 0 {
		t.Fatalf("expected moved entry to be excluded, got %v", conflicts)
	}

	if _, found := FindConflict(existing, "room-1", candidate, ""); !found {
		t.Fatalf("expected conflict without exclusion")
	}
}

func TestFindConflictsIgnoresOtherRooms(t *testing.T) {
	t.Parallel()

	existing := []Entry{
		entry(t, "booking-1", SourceBooking, "room-2", "2025-04-01", "09:00", "10:00"),
	}

	candidate := NewWindow(date(t, "2025-04-01"), mustTime(t, "09:00"), mustTime(t, "10:00"))
	if conflicts := FindConflicts(existing, "room-1", candidate, ""); conflicts != nil {
		t.Fatalf("expected no conflicts across rooms, got %v", conflicts)
	}
}
