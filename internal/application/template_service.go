package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
)

// TemplateService manages the weekly recurring templates that materialization
// expands. Templates referencing a non-serviceable room are refused at write
// time; serviceability is re-checked again when a semester is materialized.
type TemplateService struct {
	templates   persistence.TemplateRepository
	rooms       persistence.RoomRepository
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewTemplateService constructs a template service with the provided
// dependencies.
func NewTemplateService(
	templates persistence.TemplateRepository,
	rooms persistence.RoomRepository,
	idGenerator func() string,
	now func() time.Time,
	logger zerolog.Logger,
) *TemplateService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TemplateService{
		templates:   templates,
		rooms:       rooms,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

func (s *TemplateService) loggerWith(ctx context.Context, operation string) zerolog.Logger {
	return serviceLogger(ctx, s.logger, "TemplateService", operation)
}

// CreateTemplate validates and stores a new active template for
// administrators.
func (s *TemplateService) CreateTemplate(ctx context.Context, params CreateTemplateParams) (template persistence.CourseScheduleTemplate, err error) {
	if s == nil {
		err = fmt.Errorf("TemplateService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateTemplate").With().
		Str("actor_id", params.Actor.ID).
		Str("course_id", params.Input.CourseID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to create template")
			return
		}
		logger.Info().Str("template_id", template.ID).Msg("template created")
	}()

	if params.Actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}
	if err = s.validateTemplateInput(ctx, "", params.Input); err != nil {
		return
	}

	stamp := s.now()
	template = persistence.CourseScheduleTemplate{
		ID:          s.idGenerator(),
		CourseID:    strings.TrimSpace(params.Input.CourseID),
		RoomID:      params.Input.RoomID,
		Weekday:     params.Input.Weekday,
		StartMinute: int(params.Input.Start),
		EndMinute:   int(params.Input.End),
		Status:      persistence.TemplateActive,
		CreatedAt:   stamp,
		UpdatedAt:   stamp,
	}
	if err = s.templates.CreateTemplate(ctx, template); err != nil {
		err = mapTemplateRepoError(err)
		return
	}
	return
}

// UpdateTemplate validates and rewrites an existing template for
// administrators.
func (s *TemplateService) UpdateTemplate(ctx context.Context, params UpdateTemplateParams) (template persistence.CourseScheduleTemplate, err error) {
	if s == nil {
		err = fmt.Errorf("TemplateService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateTemplate").With().
		Str("actor_id", params.Actor.ID).
		Str("template_id", params.TemplateID).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to update template")
			return
		}
		logger.Info().Msg("template updated")
	}()

	if params.Actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	var existing persistence.CourseScheduleTemplate
	existing, err = s.templates.GetTemplate(ctx, params.TemplateID)
	if err != nil {
		err = mapTemplateRepoError(err)
		return
	}
	if err = s.validateTemplateInput(ctx, existing.ID, params.Input); err != nil {
		return
	}

	existing.CourseID = strings.TrimSpace(params.Input.CourseID)
	existing.RoomID = params.Input.RoomID
	existing.Weekday = params.Input.Weekday
	existing.StartMinute = int(params.Input.Start)
	existing.EndMinute = int(params.Input.End)
	existing.UpdatedAt = s.now()

	if err = s.templates.UpdateTemplate(ctx, existing); err != nil {
		err = mapTemplateRepoError(err)
		return
	}
	template = existing
	return
}

// DeleteTemplate removes a template for administrators. Previously
// materialized occurrences survive until the next materialization run.
func (s *TemplateService) DeleteTemplate(ctx context.Context, actor Actor, templateID string) error {
	if s == nil {
		return fmt.Errorf("TemplateService is nil")
	}
	if actor.Kind != persistence.ActorAdmin {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteTemplate").With().
		Str("actor_id", actor.ID).
		Str("template_id", templateID).
		Logger()

	if err := s.templates.DeleteTemplate(ctx, templateID); err != nil {
		err = mapTemplateRepoError(err)
		logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to delete template")
		return err
	}
	logger.Info().Msg("template deleted")
	return nil
}

// GetTemplate returns a single template.
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (persistence.CourseScheduleTemplate, error) {
	if s == nil {
		return persistence.CourseScheduleTemplate{}, fmt.Errorf("TemplateService is nil")
	}
	template, err := s.templates.GetTemplate(ctx, id)
	if err != nil {
		return persistence.CourseScheduleTemplate{}, mapTemplateRepoError(err)
	}
	return template, nil
}

// ListTemplates returns the full template set.
func (s *TemplateService) ListTemplates(ctx context.Context) ([]persistence.CourseScheduleTemplate, error) {
	if s == nil {
		return nil, fmt.Errorf("TemplateService is nil")
	}
	templates, err := s.templates.ListTemplates(ctx)
	if err != nil {
		return nil, mapTemplateRepoError(err)
	}
	return templates, nil
}

// ReplaceAll validates and swaps the complete template set in one
// transaction, used when loading the timetable generator's output.
func (s *TemplateService) ReplaceAll(ctx context.Context, actor Actor, inputs []TemplateInput) (templates []persistence.CourseScheduleTemplate, err error) {
	if s == nil {
		err = fmt.Errorf("TemplateService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ReplaceAll").With().
		Str("actor_id", actor.ID).
		Int("template_count", len(inputs)).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to replace templates")
			return
		}
		logger.Info().Msg("templates replaced")
	}()

	if actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	stamp := s.now()
	templates = make([]persistence.CourseScheduleTemplate, 0, len(inputs))
	for _, input := range inputs {
		if err = s.validateTemplateInput(ctx, "", input); err != nil {
			templates = nil
			return
		}
		templates = append(templates, persistence.CourseScheduleTemplate{
			ID:          s.idGenerator(),
			CourseID:    strings.TrimSpace(input.CourseID),
			RoomID:      input.RoomID,
			Weekday:     input.Weekday,
			StartMinute: int(input.Start),
			EndMinute:   int(input.End),
			Status:      persistence.TemplateActive,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		})
	}

	if err = s.templates.ReplaceTemplates(ctx, templates); err != nil {
		err = mapTemplateRepoError(err)
		templates = nil
		return
	}
	return
}

func (s *TemplateService) validateTemplateInput(ctx context.Context, templateID string, input TemplateInput) error {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.CourseID) == "" {
		vErr.add("course_id", "course is required")
	}
	if strings.TrimSpace(input.RoomID) == "" {
		vErr.add("room_id", "room is required")
	}
	if input.Weekday < time.Monday || input.Weekday > time.Friday {
		vErr.add("weekday", "weekday must be Monday through Friday")
	}
	if !input.Start.Valid() || !input.End.Valid() || input.Start >= input.End {
		vErr.add("window", "end must be after start and both must fall within one day")
	}
	if vErr.HasErrors() {
		return vErr
	}

	room, err := s.rooms.GetRoom(ctx, input.RoomID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return &InvalidTemplateError{TemplateID: templateID, RoomID: input.RoomID, Reason: "does not exist"}
		}
		return err
	}
	if room.Status != persistence.RoomServiceable {
		return &InvalidTemplateError{TemplateID: templateID, RoomID: input.RoomID, Reason: "is not serviceable"}
	}
	return nil
}

func mapTemplateRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("room_id", "room does not exist")
		return vErr
	}
	return err
}
