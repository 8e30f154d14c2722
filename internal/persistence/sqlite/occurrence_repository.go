package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// OccurrenceRepository implements persistence.OccurrenceRepository using
// SQLite.
type OccurrenceRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewOccurrenceRepository creates a new SQLite occurrence repository.
func NewOccurrenceRepository(pool *ConnectionPool) *OccurrenceRepository {
	return &OccurrenceRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const occurrenceColumns = `id, template_id, semester_id, course_id, room_id, date, start_minute, end_minute, mode, status, created_at, updated_at`

// GetOccurrence retrieves an occurrence by ID.
func (r *OccurrenceRepository) GetOccurrence(ctx context.Context, id string) (persistence.ScheduleOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM schedule_occurrences WHERE id = ?`
	occurrence, err := scanOccurrence(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ScheduleOccurrence{}, persistence.ErrNotFound
		}
		return persistence.ScheduleOccurrence{}, r.mapper.MapError(err)
	}
	return occurrence, nil
}

// ListOccurrences returns occurrences matching the filter, ordered by date
// then start minute.
func (r *OccurrenceRepository) ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.ScheduleOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM schedule_occurrences`

	var conditions []string
	var args []any
	if filter.SemesterID != "" {
		conditions = append(conditions, "semester_id = ?")
		args = append(args, filter.SemesterID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Date != nil {
		conditions = append(conditions, "date = ?")
		args = append(args, dateString(*filter.Date))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, start_minute ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var occurrences []persistence.ScheduleOccurrence
	for rows.Next() {
		occurrence, err := scanOccurrence(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		occurrences = append(occurrences, occurrence)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return occurrences, nil
}

// ReplaceOccurrences clears the semester's occurrences and inserts the new set
// in one transaction. Every referenced room is re-checked for serviceability
// inside the transaction; a non-serviceable room aborts the whole replacement
// with ErrRoomNotServiceable. Each inserted claim is also checked against the
// committed slots still standing after the clear (accepted bookings, other
// semesters' occurrences, rows inserted earlier in this run); any overlap
// aborts with *ConflictError. The prior set survives every failure.
func (r *OccurrenceRepository) ReplaceOccurrences(ctx context.Context, semesterID string, occurrences []persistence.ScheduleOccurrence) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, occurrence := range occurrences {
			if occurrence.RoomID == nil {
				continue
			}
			var status string
			err := r.helper.QueryRowTx(tx, "SELECT status FROM rooms WHERE id = ?", *occurrence.RoomID).Scan(&status)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return persistence.ErrNotFound
				}
				return r.mapper.MapError(err)
			}
			if persistence.RoomStatus(status) != persistence.RoomServiceable {
				return persistence.ErrRoomNotServiceable
			}
		}

		if _, err := r.helper.ExecTx(tx, "DELETE FROM schedule_occurrences WHERE semester_id = ?", semesterID); err != nil {
			return r.mapper.MapError(err)
		}

		query := `
			INSERT INTO schedule_occurrences (` + occurrenceColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, occurrence := range occurrences {
			if occurrence.RoomID != nil && occurrence.Mode == persistence.ModeInPerson && occurrence.Status == persistence.OccurrenceActive {
				slots, err := listRoomSlotsTx(tx, *occurrence.RoomID, dateString(occurrence.Date))
				if err != nil {
					return r.mapper.MapError(err)
				}
				if conflict := findSlotConflict(slots, *occurrence.RoomID, occurrence.Date, occurrence.StartMinute, occurrence.EndMinute, ""); conflict != nil {
					return conflict
				}
			}

			_, err := r.helper.ExecTx(tx, query,
				occurrence.ID,
				occurrence.TemplateID,
				semesterID,
				occurrence.CourseID,
				nullableString(occurrence.RoomID),
				dateString(occurrence.Date),
				occurrence.StartMinute,
				occurrence.EndMinute,
				string(occurrence.Mode),
				string(occurrence.Status),
				occurrence.CreatedAt.UTC().Format(time.RFC3339),
				occurrence.UpdatedAt.UTC().Format(time.RFC3339),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

func scanOccurrence(row rowScanner) (persistence.ScheduleOccurrence, error) {
	var occurrence persistence.ScheduleOccurrence
	var roomID sql.NullString
	var day, mode, status, createdAt, updatedAt string

	err := row.Scan(
		&occurrence.ID,
		&occurrence.TemplateID,
		&occurrence.SemesterID,
		&occurrence.CourseID,
		&roomID,
		&day,
		&occurrence.StartMinute,
		&occurrence.EndMinute,
		&mode,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.ScheduleOccurrence{}, err
	}

	if roomID.Valid {
		room := roomID.String
		occurrence.RoomID = &room
	}
	occurrence.Mode = persistence.DeliveryMode(mode)
	occurrence.Status = persistence.OccurrenceStatus(status)

	if occurrence.Date, err = time.Parse(dateLayout, day); err != nil {
		return persistence.ScheduleOccurrence{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if occurrence.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.ScheduleOccurrence{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if occurrence.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.ScheduleOccurrence{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return occurrence, nil
}

func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
