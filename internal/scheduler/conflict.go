package scheduler

// EntrySource describes which aggregate claimed a room window.
type EntrySource string

const (
	// SourceBooking marks a window held by an accepted ad-hoc booking request.
	SourceBooking EntrySource = "booking"
	// SourceOccurrence marks a window held by an active class occurrence.
	SourceOccurrence EntrySource = "occurrence"
)

// Entry is one committed claim on a room examined by the conflict checker.
type Entry struct {
	ID     string
	Source EntrySource
	RoomID string
	Window Window
}

// Conflict details an overlapping claim that callers can present to users or
// use to refuse a decision.
type Conflict struct {
	WithID string
	Source EntrySource
	RoomID string
	Window Window
}

// FindConflicts reports every committed entry for roomID whose window overlaps
// the candidate window. Entries for other rooms or dates are skipped, as is the
// entry identified by excludeID (the occurrence being moved, when re-checking a
// schedule change). The scan is read-only; result ordering follows the input.
func FindConflicts(existing []Entry, roomID string, candidate Window, excludeID string) []Conflict {
	var conflicts []Conflict
	for _, entry := range existing {
		if entry.RoomID != roomID {
			continue
		}
		if excludeID != "" && entry.ID == excludeID {
			continue
		}
		if !entry.Window.Overlaps(candidate) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithID: entry.ID,
			Source: entry.Source,
			RoomID: entry.RoomID,
			Window: entry.Window,
		})
	}
	return conflicts
}

// FindConflict returns the first conflicting entry, if any.
func FindConflict(existing []Entry, roomID string, candidate Window, excludeID string) (Conflict, bool) {
	conflicts := FindConflicts(existing, roomID, candidate, excludeID)
	if len(conflicts) == 0 {
		return Conflict{}, false
	}
	return conflicts[0], true
}
