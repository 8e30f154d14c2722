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

// ChangeRequestRepository implements persistence.ChangeRequestRepository
// using SQLite.
type ChangeRequestRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewChangeRequestRepository creates a new SQLite change-request repository.
func NewChangeRequestRepository(pool *ConnectionPool) *ChangeRequestRepository {
	return &ChangeRequestRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const changeColumns = `id, occurrence_id, requester_kind, requester_id, requester_name, requester_email,
	new_room_id, new_date, new_start_minute, new_end_minute, mode, reason, status, approver_id, decided_at, created_at, updated_at`

// CreateChange inserts a new schedule-change request.
func (r *ChangeRequestRepository) CreateChange(ctx context.Context, request persistence.ScheduleChangeRequest) error {
	query := `
		INSERT INTO schedule_change_requests (` + changeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		request.ID,
		request.OccurrenceID,
		string(request.Requester.Kind),
		request.Requester.ID,
		request.Requester.DisplayName,
		request.Requester.Email,
		nullableString(request.NewRoomID),
		dateString(request.NewDate),
		request.NewStartMinute,
		request.NewEndMinute,
		string(request.Mode),
		request.Reason,
		string(request.Status),
		request.ApproverID,
		nullableTime(request.DecidedAt),
		request.CreatedAt.UTC().Format(time.RFC3339),
		request.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateChange rewrites the proposal payload of a pending change request.
func (r *ChangeRequestRepository) UpdateChange(ctx context.Context, request persistence.ScheduleChangeRequest) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var status string
		err := r.helper.QueryRowTx(tx, "SELECT status FROM schedule_change_requests WHERE id = ?", request.ID).Scan(&status)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return persistence.ErrNotFound
			}
			return r.mapper.MapError(err)
		}
		if persistence.RequestStatus(status) != persistence.RequestPending {
			return persistence.ErrInvalidState
		}

		query := `
			UPDATE schedule_change_requests
			SET new_room_id = ?, new_date = ?, new_start_minute = ?, new_end_minute = ?, mode = ?, reason = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = r.helper.ExecTx(tx, query,
			nullableString(request.NewRoomID),
			dateString(request.NewDate),
			request.NewStartMinute,
			request.NewEndMinute,
			string(request.Mode),
			request.Reason,
			request.UpdatedAt.UTC().Format(time.RFC3339),
			request.ID,
		)
		return r.mapper.MapError(err)
	})
}

// GetChange retrieves a change request by ID.
func (r *ChangeRequestRepository) GetChange(ctx context.Context, id string) (persistence.ScheduleChangeRequest, error) {
	query := `SELECT ` + changeColumns + ` FROM schedule_change_requests WHERE id = ?`
	request, err := scanChange(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ScheduleChangeRequest{}, persistence.ErrNotFound
		}
		return persistence.ScheduleChangeRequest{}, r.mapper.MapError(err)
	}
	return request, nil
}

// ListChanges returns change requests matching the filter.
func (r *ChangeRequestRepository) ListChanges(ctx context.Context, filter persistence.ChangeRequestFilter) ([]persistence.ScheduleChangeRequest, error) {
	query := `SELECT ` + changeColumns + ` FROM schedule_change_requests`

	var conditions []string
	var args []any
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.OccurrenceID != "" {
		conditions = append(conditions, "occurrence_id = ?")
		args = append(args, filter.OccurrenceID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var requests []persistence.ScheduleChangeRequest
	for rows.Next() {
		request, err := scanChange(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return requests, nil
}

// AcceptChange commits the accept decision and the occurrence overwrite in
// one transaction. In-person proposals re-check room serviceability and the
// conflict rule against committed claims, excluding the occurrence being
// moved; remote proposals skip the conflict check and clear the room. Either
// both the request status and the occurrence land, or neither does.
func (r *ChangeRequestRepository) AcceptChange(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.ScheduleChangeRequest, persistence.ScheduleOccurrence, error) {
	var acceptedRequest persistence.ScheduleChangeRequest
	var movedOccurrence persistence.ScheduleOccurrence

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		request, err := r.getChangeTx(tx, id)
		if err != nil {
			return err
		}
		if request.Status != persistence.RequestPending {
			return persistence.ErrInvalidState
		}

		occurrence, err := r.getOccurrenceTx(tx, request.OccurrenceID)
		if err != nil {
			return err
		}

		if request.Mode == persistence.ModeInPerson {
			if request.NewRoomID == nil {
				return persistence.ErrConstraintViolation
			}
			var roomStatus string
			err := r.helper.QueryRowTx(tx, "SELECT status FROM rooms WHERE id = ?", *request.NewRoomID).Scan(&roomStatus)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return persistence.ErrNotFound
				}
				return r.mapper.MapError(err)
			}
			if persistence.RoomStatus(roomStatus) != persistence.RoomServiceable {
				return persistence.ErrRoomNotServiceable
			}

			slots, err := listRoomSlotsTx(tx, *request.NewRoomID, dateString(request.NewDate))
			if err != nil {
				return r.mapper.MapError(err)
			}
			if conflict := findSlotConflict(slots, *request.NewRoomID, request.NewDate, request.NewStartMinute, request.NewEndMinute, occurrence.ID); conflict != nil {
				return conflict
			}
		}

		stamp := decidedAt.UTC().Format(time.RFC3339)
		_, err = r.helper.ExecTx(tx, `
			UPDATE schedule_change_requests
			SET status = 'accepted', approver_id = ?, decided_at = ?, updated_at = ?
			WHERE id = ?
		`, approverID, stamp, stamp, id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		var newRoomID *string
		if request.Mode == persistence.ModeInPerson {
			newRoomID = request.NewRoomID
		}
		_, err = r.helper.ExecTx(tx, `
			UPDATE schedule_occurrences
			SET room_id = ?, date = ?, start_minute = ?, end_minute = ?, mode = ?, updated_at = ?
			WHERE id = ?
		`,
			nullableString(newRoomID),
			dateString(request.NewDate),
			request.NewStartMinute,
			request.NewEndMinute,
			string(request.Mode),
			stamp,
			occurrence.ID,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		decided := decidedAt.UTC()
		request.Status = persistence.RequestAccepted
		request.ApproverID = approverID
		request.DecidedAt = &decided
		request.UpdatedAt = decided
		acceptedRequest = request

		occurrence.RoomID = newRoomID
		occurrence.Date = request.NewDate
		occurrence.StartMinute = request.NewStartMinute
		occurrence.EndMinute = request.NewEndMinute
		occurrence.Mode = request.Mode
		occurrence.UpdatedAt = decided
		movedOccurrence = occurrence
		return nil
	})
	if err != nil {
		return persistence.ScheduleChangeRequest{}, persistence.ScheduleOccurrence{}, err
	}
	return acceptedRequest, movedOccurrence, nil
}

// RejectChange commits the reject decision for a pending request; the
// occurrence is left untouched.
func (r *ChangeRequestRepository) RejectChange(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.ScheduleChangeRequest, error) {
	var rejected persistence.ScheduleChangeRequest

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		request, err := r.getChangeTx(tx, id)
		if err != nil {
			return err
		}
		if request.Status != persistence.RequestPending {
			return persistence.ErrInvalidState
		}

		stamp := decidedAt.UTC().Format(time.RFC3339)
		_, err = r.helper.ExecTx(tx, `
			UPDATE schedule_change_requests
			SET status = 'rejected', approver_id = ?, decided_at = ?, updated_at = ?
			WHERE id = ?
		`, approverID, stamp, stamp, id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		decided := decidedAt.UTC()
		request.Status = persistence.RequestRejected
		request.ApproverID = approverID
		request.DecidedAt = &decided
		request.UpdatedAt = decided
		rejected = request
		return nil
	})
	if err != nil {
		return persistence.ScheduleChangeRequest{}, err
	}
	return rejected, nil
}

func (r *ChangeRequestRepository) getChangeTx(tx *sql.Tx, id string) (persistence.ScheduleChangeRequest, error) {
	query := `SELECT ` + changeColumns + ` FROM schedule_change_requests WHERE id = ?`
	request, err := scanChange(r.helper.QueryRowTx(tx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ScheduleChangeRequest{}, persistence.ErrNotFound
		}
		return persistence.ScheduleChangeRequest{}, r.mapper.MapError(err)
	}
	return request, nil
}

func (r *ChangeRequestRepository) getOccurrenceTx(tx *sql.Tx, id string) (persistence.ScheduleOccurrence, error) {
	query := `SELECT ` + occurrenceColumns + ` FROM schedule_occurrences WHERE id = ?`
	occurrence, err := scanOccurrence(r.helper.QueryRowTx(tx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.ScheduleOccurrence{}, persistence.ErrNotFound
		}
		return persistence.ScheduleOccurrence{}, r.mapper.MapError(err)
	}
	return occurrence, nil
}

func scanChange(row rowScanner) (persistence.ScheduleChangeRequest, error) {
	var request persistence.ScheduleChangeRequest
	var kind, day, mode, status, createdAt, updatedAt string
	var newRoomID, decidedAt sql.NullString

	err := row.Scan(
		&request.ID,
		&request.OccurrenceID,
		&kind,
		&request.Requester.ID,
		&request.Requester.DisplayName,
		&request.Requester.Email,
		&newRoomID,
		&day,
		&request.NewStartMinute,
		&request.NewEndMinute,
		&mode,
		&request.Reason,
		&status,
		&request.ApproverID,
		&decidedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.ScheduleChangeRequest{}, err
	}

	request.Requester.Kind = persistence.ActorKind(kind)
	request.Mode = persistence.DeliveryMode(mode)
	request.Status = persistence.RequestStatus(status)
	if newRoomID.Valid {
		room := newRoomID.String
		request.NewRoomID = &room
	}

	if request.NewDate, err = time.Parse(dateLayout, day); err != nil {
		return persistence.ScheduleChangeRequest{}, fmt.Errorf("failed to parse new_date: %w", err)
	}
	if request.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.ScheduleChangeRequest{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if request.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.ScheduleChangeRequest{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if decidedAt.Valid {
		stamp, err := time.Parse(time.RFC3339, decidedAt.String)
		if err != nil {
			return persistence.ScheduleChangeRequest{}, fmt.Errorf("failed to parse decided_at: %w", err)
		}
		request.DecidedAt = &stamp
	}
	return request, nil
}
