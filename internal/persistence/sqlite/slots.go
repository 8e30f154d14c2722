package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

const dateLayout = "2006-01-02"

func dateString(t time.Time) string {
	return scheduler.DateOf(t).Format(dateLayout)
}

const acceptedBookingSlotsQuery = `
	SELECT id, room_id, date, start_minute, end_minute
	FROM booking_requests
	WHERE room_id = ? AND date = ? AND status = 'accepted'
`

const activeOccurrenceSlotsQuery = `
	SELECT id, room_id, date, start_minute, end_minute
	FROM schedule_occurrences
	WHERE room_id = ? AND date = ? AND status = 'active' AND mode = 'in_person'
`

// SlotStore implements persistence.SlotReader over the SQLite pool, feeding
// the advisory conflict check.
type SlotStore struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSlotStore creates a slot reader over the pool.
func NewSlotStore(pool *ConnectionPool) *SlotStore {
	return &SlotStore{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ListRoomSlots returns the committed claims for roomID on date: accepted
// bookings and active in-person occurrences.
func (s *SlotStore) ListRoomSlots(ctx context.Context, roomID string, date time.Time) ([]persistence.RoomSlot, error) {
	day := dateString(date)

	var slots []persistence.RoomSlot
	collect := func(query, kind string) error {
		rows, err := s.helper.Query(ctx, query, roomID, day)
		if err != nil {
			return s.mapper.MapError(err)
		}
		defer rows.Close()
		scanned, err := scanSlots(rows, kind)
		if err != nil {
			return s.mapper.MapError(err)
		}
		slots = append(slots, scanned...)
		return nil
	}

	if err := collect(acceptedBookingSlotsQuery, persistence.SlotSourceBooking); err != nil {
		return nil, err
	}
	if err := collect(activeOccurrenceSlotsQuery, persistence.SlotSourceOccurrence); err != nil {
		return nil, err
	}
	return slots, nil
}

// listRoomSlotsTx gathers committed claims inside a decision transaction so
// the authoritative check and the status write observe one consistent state.
func listRoomSlotsTx(tx *sql.Tx, roomID string, day string) ([]persistence.RoomSlot, error) {
	var slots []persistence.RoomSlot

	collect := func(query, kind string) error {
		rows, err := tx.Query(query, roomID, day)
		if err != nil {
			return err
		}
		defer rows.Close()
		scanned, err := scanSlots(rows, kind)
		if err != nil {
			return err
		}
		slots = append(slots, scanned...)
		return nil
	}

	if err := collect(acceptedBookingSlotsQuery, persistence.SlotSourceBooking); err != nil {
		return nil, err
	}
	if err := collect(activeOccurrenceSlotsQuery, persistence.SlotSourceOccurrence); err != nil {
		return nil, err
	}
	return slots, nil
}

func scanSlots(rows *sql.Rows, kind string) ([]persistence.RoomSlot, error) {
	var slots []persistence.RoomSlot
	for rows.Next() {
		var slot persistence.RoomSlot
		var day string
		if err := rows.Scan(&slot.SourceID, &slot.RoomID, &day, &slot.StartMinute, &slot.EndMinute); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(dateLayout, day)
		if err != nil {
			return nil, err
		}
		slot.Date = parsed
		slot.SourceKind = kind
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return slots, nil
}

// findSlotConflict runs the overlap rule over committed slots, skipping
// excludeID (the occurrence being moved).
func findSlotConflict(slots []persistence.RoomSlot, roomID string, day time.Time, startMinute, endMinute int, excludeID string) *persistence.ConflictError {
	entries := make([]scheduler.Entry, 0, len(slots))
	for _, slot := range slots {
		source := scheduler.SourceBooking
		if slot.SourceKind == persistence.SlotSourceOccurrence {
			source = scheduler.SourceOccurrence
		}
		entries = append(entries, scheduler.Entry{
			ID:     slot.SourceID,
			Source: source,
			RoomID: slot.RoomID,
			Window: scheduler.NewWindow(slot.Date, scheduler.TimeOfDay(slot.StartMinute), scheduler.TimeOfDay(slot.EndMinute)),
		})
	}

	candidate := scheduler.NewWindow(day, scheduler.TimeOfDay(startMinute), scheduler.TimeOfDay(endMinute))
	conflict, found := scheduler.FindConflict(entries, roomID, candidate, excludeID)
	if !found {
		return nil
	}
	return &persistence.ConflictError{
		RoomID:      roomID,
		Date:        scheduler.DateOf(conflict.Window.Date),
		StartMinute: int(conflict.Window.Start),
		EndMinute:   int(conflict.Window.End),
		WithID:      conflict.WithID,
		Source:      string(conflict.Source),
	}
}
