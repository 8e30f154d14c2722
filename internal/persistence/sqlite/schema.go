package sqlite

import (
	"context"
	"fmt"
)

// schemaStatements holds the fixed schema applied at open. Dates are stored as
// "2006-01-02" strings, clock bounds as minutes since midnight, and
// created/updated stamps as RFC3339 strings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS rooms (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		building   TEXT NOT NULL,
		floor      INTEGER NOT NULL DEFAULT 0,
		capacity   INTEGER NOT NULL CHECK (capacity > 0),
		status     TEXT NOT NULL CHECK (status IN ('serviceable', 'unserviceable', 'under_repair')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS booking_requests (
		id               TEXT PRIMARY KEY,
		requester_kind   TEXT NOT NULL CHECK (requester_kind IN ('student', 'instructor', 'admin')),
		requester_id     TEXT NOT NULL,
		requester_name   TEXT NOT NULL,
		requester_email  TEXT NOT NULL,
		room_id          TEXT NOT NULL REFERENCES rooms(id),
		date             TEXT NOT NULL,
		start_minute     INTEGER NOT NULL,
		end_minute       INTEGER NOT NULL CHECK (start_minute < end_minute),
		reason           TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected')),
		approver_id      TEXT NOT NULL DEFAULT '',
		decided_at       TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_booking_requests_room_date
		ON booking_requests(room_id, date) WHERE status = 'accepted'`,
	`CREATE TABLE IF NOT EXISTS schedule_templates (
		id           TEXT PRIMARY KEY,
		course_id    TEXT NOT NULL,
		room_id      TEXT NOT NULL REFERENCES rooms(id),
		weekday      INTEGER NOT NULL CHECK (weekday BETWEEN 1 AND 5),
		start_minute INTEGER NOT NULL,
		end_minute   INTEGER NOT NULL CHECK (start_minute < end_minute),
		status       TEXT NOT NULL CHECK (status IN ('active', 'inactive')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_occurrences (
		id           TEXT PRIMARY KEY,
		template_id  TEXT NOT NULL,
		semester_id  TEXT NOT NULL,
		course_id    TEXT NOT NULL,
		room_id      TEXT REFERENCES rooms(id),
		date         TEXT NOT NULL,
		start_minute INTEGER NOT NULL,
		end_minute   INTEGER NOT NULL CHECK (start_minute < end_minute),
		mode         TEXT NOT NULL CHECK (mode IN ('in_person', 'remote')),
		status       TEXT NOT NULL CHECK (status IN ('active', 'cancelled')),
		created_at   TEXT NOT NULL,
		updated_at   TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_occurrences_room_date
		ON schedule_occurrences(room_id, date) WHERE status = 'active'`,
	`CREATE INDEX IF NOT EXISTS idx_schedule_occurrences_semester
		ON schedule_occurrences(semester_id)`,
	`CREATE TABLE IF NOT EXISTS schedule_change_requests (
		id               TEXT PRIMARY KEY,
		occurrence_id    TEXT NOT NULL REFERENCES schedule_occurrences(id),
		requester_kind   TEXT NOT NULL CHECK (requester_kind IN ('student', 'instructor', 'admin')),
		requester_id     TEXT NOT NULL,
		requester_name   TEXT NOT NULL,
		requester_email  TEXT NOT NULL,
		new_room_id      TEXT,
		new_date         TEXT NOT NULL,
		new_start_minute INTEGER NOT NULL,
		new_end_minute   INTEGER NOT NULL CHECK (new_start_minute < new_end_minute),
		mode             TEXT NOT NULL CHECK (mode IN ('in_person', 'remote')),
		reason           TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL CHECK (status IN ('pending', 'accepted', 'rejected')),
		approver_id      TEXT NOT NULL DEFAULT '',
		decided_at       TEXT,
		created_at       TEXT NOT NULL,
		updated_at       TEXT NOT NULL
	)`,
}

// Migrate applies the schema. Statements are idempotent, so repeated startup
// runs are safe.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := cp.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
