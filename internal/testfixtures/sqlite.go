package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Rooms       persistence.RoomRepository
	Bookings    persistence.BookingRepository
	Templates   persistence.TemplateRepository
	Occurrences persistence.OccurrenceRepository
	Changes     persistence.ChangeRequestRepository
	Slots       persistence.SlotReader

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	pool, err := sqlite.NewConnectionPool("file:" + path + "?_txlock=immediate")
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Rooms:       sqlite.NewRoomRepository(pool),
		Bookings:    sqlite.NewBookingRepository(pool),
		Templates:   sqlite.NewTemplateRepository(pool),
		Occurrences: sqlite.NewOccurrenceRepository(pool),
		Changes:     sqlite.NewChangeRequestRepository(pool),
		Slots:       sqlite.NewSlotStore(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
