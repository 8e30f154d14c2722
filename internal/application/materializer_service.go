package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/recurrence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// MaterializerService expands every active template into dated occurrences for
// one semester and commits the result as a clear-then-insert replacement of
// the semester's previous set. Materialization is idempotent for identical
// inputs.
type MaterializerService struct {
	templates   persistence.TemplateRepository
	rooms       persistence.RoomRepository
	occurrences persistence.OccurrenceRepository
	conflicts   *ConflictService
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      zerolog.Logger
}

// NewMaterializerService constructs a materializer with the provided
// dependencies. conflicts may be nil.
func NewMaterializerService(
	templates persistence.TemplateRepository,
	rooms persistence.RoomRepository,
	occurrences persistence.OccurrenceRepository,
	conflicts *ConflictService,
	engine *recurrence.Engine,
	idGenerator func() string,
	now func() time.Time,
	logger zerolog.Logger,
) *MaterializerService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MaterializerService{
		templates:   templates,
		rooms:       rooms,
		occurrences: occurrences,
		conflicts:   conflicts,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// Materialize replaces the semester's occurrence set with the expansion of
// every active template. A template whose room is missing or not serviceable
// aborts the run with *InvalidTemplateError before anything is written, and
// two templates claiming the same room in overlapping windows abort it with
// *ConflictError. The replacement re-checks serviceability and overlap against
// the committed slots inside its transaction, so the prior set survives any
// failure.
func (s *MaterializerService) Materialize(ctx context.Context, params MaterializeParams) (result MaterializeResult, err error) {
	if s == nil {
		err = fmt.Errorf("MaterializerService is nil")
		return
	}

	logger := serviceLogger(ctx, s.logger, "MaterializerService", "Materialize").With().
		Str("actor_id", params.Actor.ID).
		Str("semester_id", params.SemesterID).
		Int("weeks", params.Weeks).
		Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to materialize semester")
			return
		}
		logger.Info().Int("occurrence_count", len(result.Occurrences)).Msg("semester materialized")
	}()

	if params.Actor.Kind != persistence.ActorAdmin {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	if strings.TrimSpace(params.SemesterID) == "" {
		vErr.add("semester_id", "semester is required")
	}
	if params.StartDate.IsZero() {
		vErr.add("start_date", "start date is required")
	}
	if params.Weeks <= 0 {
		vErr.add("weeks", "weeks must be positive")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var templates []persistence.CourseScheduleTemplate
	templates, err = s.templates.ListTemplates(ctx)
	if err != nil {
		err = mapTemplateRepoError(err)
		return
	}

	stamp := s.now()
	startDate := scheduler.DateOf(params.StartDate)
	var occurrences []persistence.ScheduleOccurrence
	var claimed []scheduler.Entry

	for _, template := range templates {
		if template.Status != persistence.TemplateActive {
			continue
		}

		var room persistence.Room
		room, err = s.rooms.GetRoom(ctx, template.RoomID)
		if err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				err = &InvalidTemplateError{TemplateID: template.ID, RoomID: template.RoomID, Reason: "does not exist"}
			}
			return
		}
		if room.Status != persistence.RoomServiceable {
			err = &InvalidTemplateError{TemplateID: template.ID, RoomID: template.RoomID, Reason: "is not serviceable"}
			return
		}

		var expanded []recurrence.Occurrence
		expanded, err = s.engine.Expand(recurrence.Template{
			ID:       template.ID,
			CourseID: template.CourseID,
			RoomID:   template.RoomID,
			Weekday:  template.Weekday,
			Start:    scheduler.TimeOfDay(template.StartMinute),
			End:      scheduler.TimeOfDay(template.EndMinute),
		}, startDate, params.Weeks)
		if err != nil {
			return
		}

		for _, occurrence := range expanded {
			roomID := occurrence.RoomID

			// Two active templates claiming the same room in overlapping
			// windows would materialize into an overlapping pair; fail the
			// whole run before anything is written.
			if conflict, found := scheduler.FindConflict(claimed, roomID, occurrence.Window, ""); found {
				err = &ConflictError{
					RoomID:      roomID,
					Date:        conflict.Window.Date,
					StartMinute: int(conflict.Window.Start),
					EndMinute:   int(conflict.Window.End),
					WithID:      conflict.WithID,
					Source:      string(conflict.Source),
				}
				return
			}
			claimed = append(claimed, scheduler.Entry{
				ID:     occurrence.TemplateID,
				Source: scheduler.SourceOccurrence,
				RoomID: roomID,
				Window: occurrence.Window,
			})

			occurrences = append(occurrences, persistence.ScheduleOccurrence{
				ID:          s.idGenerator(),
				TemplateID:  occurrence.TemplateID,
				SemesterID:  params.SemesterID,
				CourseID:    occurrence.CourseID,
				RoomID:      &roomID,
				Date:        occurrence.Window.Date,
				StartMinute: int(occurrence.Window.Start),
				EndMinute:   int(occurrence.Window.End),
				Mode:        persistence.ModeInPerson,
				Status:      persistence.OccurrenceActive,
				CreatedAt:   stamp,
				UpdatedAt:   stamp,
			})
		}
	}

	if err = s.occurrences.ReplaceOccurrences(ctx, params.SemesterID, occurrences); err != nil {
		if errors.Is(err, persistence.ErrRoomNotServiceable) {
			err = &InvalidTemplateError{Reason: "is not serviceable"}
			return
		}
		err = mapRequestRepoError(err)
		return
	}

	s.conflicts.Invalidate()
	result = MaterializeResult{SemesterID: params.SemesterID, Occurrences: occurrences}
	return
}

// GetOccurrence returns one materialized occurrence.
func (s *MaterializerService) GetOccurrence(ctx context.Context, id string) (persistence.ScheduleOccurrence, error) {
	if s == nil {
		return persistence.ScheduleOccurrence{}, fmt.Errorf("MaterializerService is nil")
	}
	occurrence, err := s.occurrences.GetOccurrence(ctx, id)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.ScheduleOccurrence{}, ErrNotFound
		}
		return persistence.ScheduleOccurrence{}, err
	}
	return occurrence, nil
}

// ListOccurrences returns occurrences matching the filter.
func (s *MaterializerService) ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.ScheduleOccurrence, error) {
	if s == nil {
		return nil, fmt.Errorf("MaterializerService is nil")
	}
	return s.occurrences.ListOccurrences(ctx, filter)
}
