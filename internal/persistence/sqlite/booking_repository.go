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

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = `id, requester_kind, requester_id, requester_name, requester_email,
	room_id, date, start_minute, end_minute, reason, status, approver_id, decided_at, created_at, updated_at`

// CreateBooking inserts a new booking request.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.BookingRequest) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO booking_requests (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		booking.ID,
		string(booking.Requester.Kind),
		booking.Requester.ID,
		booking.Requester.DisplayName,
		booking.Requester.Email,
		booking.RoomID,
		dateString(booking.Date),
		booking.StartMinute,
		booking.EndMinute,
		booking.Reason,
		string(booking.Status),
		booking.ApproverID,
		nullableTime(booking.DecidedAt),
		booking.CreatedAt.UTC().Format(time.RFC3339),
		booking.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return r.mapper.MapError(err)
}

// UpdateBooking rewrites the payload of a pending booking request. Status,
// approver, and decision stamps are only mutated through the decision
// operations.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.BookingRequest) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var status string
		err := r.helper.QueryRowTx(tx, "SELECT status FROM booking_requests WHERE id = ?", booking.ID).Scan(&status)
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
			UPDATE booking_requests
			SET room_id = ?, date = ?, start_minute = ?, end_minute = ?, reason = ?, updated_at = ?
			WHERE id = ?
		`
		_, err = r.helper.ExecTx(tx, query,
			booking.RoomID,
			dateString(booking.Date),
			booking.StartMinute,
			booking.EndMinute,
			booking.Reason,
			booking.UpdatedAt.UTC().Format(time.RFC3339),
			booking.ID,
		)
		return r.mapper.MapError(err)
	})
}

// GetBooking retrieves a booking request by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.BookingRequest, error) {
	if id == "" {
		return persistence.BookingRequest{}, persistence.ErrNotFound
	}

	query := `SELECT ` + bookingColumns + ` FROM booking_requests WHERE id = ?`
	booking, err := scanBooking(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.BookingRequest{}, persistence.ErrNotFound
		}
		return persistence.BookingRequest{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// ListBookings returns booking requests matching the filter, ordered by date
// then start minute.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.BookingRequest, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_requests`

	var conditions []string
	var args []any
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if filter.RoomID != "" {
		conditions = append(conditions, "room_id = ?")
		args = append(args, filter.RoomID)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
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

	var bookings []persistence.BookingRequest
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return bookings, nil
}

// AcceptBooking commits the accept decision inside one transaction: the
// pending check, the authoritative conflict check over the booking's room and
// date, and the status write all observe the same state. A conflicting claim
// aborts with *persistence.ConflictError and leaves the request pending.
func (r *BookingRepository) AcceptBooking(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.BookingRequest, error) {
	var accepted persistence.BookingRequest

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		booking, err := r.getBookingTx(tx, id)
		if err != nil {
			return err
		}
		if booking.Status != persistence.RequestPending {
			return persistence.ErrInvalidState
		}

		day := dateString(booking.Date)
		slots, err := listRoomSlotsTx(tx, booking.RoomID, day)
		if err != nil {
			return r.mapper.MapError(err)
		}
		if conflict := findSlotConflict(slots, booking.RoomID, booking.Date, booking.StartMinute, booking.EndMinute, ""); conflict != nil {
			return conflict
		}

		stamp := decidedAt.UTC().Format(time.RFC3339)
		_, err = r.helper.ExecTx(tx, `
			UPDATE booking_requests
			SET status = 'accepted', approver_id = ?, decided_at = ?, updated_at = ?
			WHERE id = ?
		`, approverID, stamp, stamp, id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		booking.Status = persistence.RequestAccepted
		booking.ApproverID = approverID
		decided := decidedAt.UTC()
		booking.DecidedAt = &decided
		booking.UpdatedAt = decided
		accepted = booking
		return nil
	})
	if err != nil {
		return persistence.BookingRequest{}, err
	}
	return accepted, nil
}

// RejectBooking commits the reject decision unconditionally for a pending
// request.
func (r *BookingRepository) RejectBooking(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.BookingRequest, error) {
	var rejected persistence.BookingRequest

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		booking, err := r.getBookingTx(tx, id)
		if err != nil {
			return err
		}
		if booking.Status != persistence.RequestPending {
			return persistence.ErrInvalidState
		}

		stamp := decidedAt.UTC().Format(time.RFC3339)
		_, err = r.helper.ExecTx(tx, `
			UPDATE booking_requests
			SET status = 'rejected', approver_id = ?, decided_at = ?, updated_at = ?
			WHERE id = ?
		`, approverID, stamp, stamp, id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		booking.Status = persistence.RequestRejected
		booking.ApproverID = approverID
		decided := decidedAt.UTC()
		booking.DecidedAt = &decided
		booking.UpdatedAt = decided
		rejected = booking
		return nil
	})
	if err != nil {
		return persistence.BookingRequest{}, err
	}
	return rejected, nil
}

func (r *BookingRepository) getBookingTx(tx *sql.Tx, id string) (persistence.BookingRequest, error) {
	query := `SELECT ` + bookingColumns + ` FROM booking_requests WHERE id = ?`
	booking, err := scanBooking(r.helper.QueryRowTx(tx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.BookingRequest{}, persistence.ErrNotFound
		}
		return persistence.BookingRequest{}, r.mapper.MapError(err)
	}
	return booking, nil
}

func scanBooking(row rowScanner) (persistence.BookingRequest, error) {
	var booking persistence.BookingRequest
	var kind, day, status, createdAt, updatedAt string
	var decidedAt sql.NullString

	err := row.Scan(
		&booking.ID,
		&kind,
		&booking.Requester.ID,
		&booking.Requester.DisplayName,
		&booking.Requester.Email,
		&booking.RoomID,
		&day,
		&booking.StartMinute,
		&booking.EndMinute,
		&booking.Reason,
		&status,
		&booking.ApproverID,
		&decidedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.BookingRequest{}, err
	}

	booking.Requester.Kind = persistence.ActorKind(kind)
	booking.Status = persistence.RequestStatus(status)

	if booking.Date, err = time.Parse(dateLayout, day); err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("failed to parse date: %w", err)
	}
	if booking.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.BookingRequest{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if decidedAt.Valid {
		stamp, err := time.Parse(time.RFC3339, decidedAt.String)
		if err != nil {
			return persistence.BookingRequest{}, fmt.Errorf("failed to parse decided_at: %w", err)
		}
		booking.DecidedAt = &stamp
	}
	return booking, nil
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}
