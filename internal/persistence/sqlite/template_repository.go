package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/campus-scheduler/internal/persistence"
)

// TemplateRepository implements persistence.TemplateRepository using SQLite.
type TemplateRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTemplateRepository creates a new SQLite template repository.
func NewTemplateRepository(pool *ConnectionPool) *TemplateRepository {
	return &TemplateRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const templateColumns = `id, course_id, room_id, weekday, start_minute, end_minute, status, created_at, updated_at`

// CreateTemplate inserts a new recurring template.
func (r *TemplateRepository) CreateTemplate(ctx context.Context, template persistence.CourseScheduleTemplate) error {
	query := `
		INSERT INTO schedule_templates (` + templateColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query, templateArgs(template)...)
	return r.mapper.MapError(err)
}

// UpdateTemplate rewrites an existing template.
func (r *TemplateRepository) UpdateTemplate(ctx context.Context, template persistence.CourseScheduleTemplate) error {
	query := `
		UPDATE schedule_templates
		SET course_id = ?, room_id = ?, weekday = ?, start_minute = ?, end_minute = ?, status = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.helper.Exec(ctx, query,
		template.CourseID,
		template.RoomID,
		int(template.Weekday),
		template.StartMinute,
		template.EndMinute,
		string(template.Status),
		template.UpdatedAt.UTC().Format(time.RFC3339),
		template.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return r.mapper.MapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// GetTemplate retrieves a template by ID.
func (r *TemplateRepository) GetTemplate(ctx context.Context, id string) (persistence.CourseScheduleTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM schedule_templates WHERE id = ?`
	template, err := scanTemplate(r.helper.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.CourseScheduleTemplate{}, persistence.ErrNotFound
		}
		return persistence.CourseScheduleTemplate{}, r.mapper.MapError(err)
	}
	return template, nil
}

// ListTemplates returns all templates ordered by course, weekday, start minute.
func (r *TemplateRepository) ListTemplates(ctx context.Context) ([]persistence.CourseScheduleTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM schedule_templates ORDER BY course_id ASC, weekday ASC, start_minute ASC, id ASC`
	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var templates []persistence.CourseScheduleTemplate
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		templates = append(templates, template)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return templates, nil
}

// DeleteTemplate removes a template by ID.
func (r *TemplateRepository) DeleteTemplate(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM schedule_templates WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return r.mapper.MapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ReplaceTemplates swaps the full template set in one transaction. Either all
// incoming templates land or the previous set survives intact.
func (r *TemplateRepository) ReplaceTemplates(ctx context.Context, templates []persistence.CourseScheduleTemplate) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM schedule_templates"); err != nil {
			return r.mapper.MapError(err)
		}
		query := `
			INSERT INTO schedule_templates (` + templateColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, template := range templates {
			if _, err := r.helper.ExecTx(tx, query, templateArgs(template)...); err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

func templateArgs(template persistence.CourseScheduleTemplate) []any {
	return []any{
		template.ID,
		template.CourseID,
		template.RoomID,
		int(template.Weekday),
		template.StartMinute,
		template.EndMinute,
		string(template.Status),
		template.CreatedAt.UTC().Format(time.RFC3339),
		template.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func scanTemplate(row rowScanner) (persistence.CourseScheduleTemplate, error) {
	var template persistence.CourseScheduleTemplate
	var weekday int
	var status, createdAt, updatedAt string

	err := row.Scan(
		&template.ID,
		&template.CourseID,
		&template.RoomID,
		&weekday,
		&template.StartMinute,
		&template.EndMinute,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.CourseScheduleTemplate{}, err
	}

	template.Weekday = time.Weekday(weekday)
	template.Status = persistence.TemplateStatus(status)

	if template.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return persistence.CourseScheduleTemplate{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if template.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return persistence.CourseScheduleTemplate{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return template, nil
}
