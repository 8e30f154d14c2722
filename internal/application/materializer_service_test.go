package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/recurrence"
)

type occurrenceRepoStub struct {
	occurrences map[string]persistence.ScheduleOccurrence

	list    []persistence.ScheduleOccurrence
	listErr error

	replaceErr   error
	replacedFor  string
	replaced     []persistence.ScheduleOccurrence
	replaceCalls int
}

func (r *occurrenceRepoStub) GetOccurrence(ctx context.Context, id string) (persistence.ScheduleOccurrence, error) {
	occurrence, ok := r.occurrences[id]
	if !ok {
		return persistence.ScheduleOccurrence{}, persistence.ErrNotFound
	}
	return occurrence, nil
}

func (r *occurrenceRepoStub) ListOccurrences(ctx context.Context, filter persistence.OccurrenceFilter) ([]persistence.ScheduleOccurrence, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.list, nil
}

func (r *occurrenceRepoStub) ReplaceOccurrences(ctx context.Context, semesterID string, occurrences []persistence.ScheduleOccurrence) error {
	r.replaceCalls++
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.replacedFor = semesterID
	r.replaced = occurrences
	return nil
}

func activeTemplate(id, roomID string, weekday time.Weekday) persistence.CourseScheduleTemplate {
	return persistence.CourseScheduleTemplate{
		ID:          id,
		CourseID:    "course-101",
		RoomID:      roomID,
		Weekday:     weekday,
		StartMinute: 540,
		EndMinute:   630,
		Status:      persistence.TemplateActive,
	}
}

func newMaterializer(templates *templateRepoStub, rooms *roomRepoStub, occurrences *occurrenceRepoStub) *MaterializerService {
	return NewMaterializerService(
		templates, rooms, occurrences, nil,
		recurrence.NewEngine(time.UTC),
		sequentialIDs("occ"), fixedNow, zerolog.Nop(),
	)
}

func TestMaterializerService_Materialize(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := newMaterializer(&templateRepoStub{}, serviceableRoomRepo("room-1"), &occurrenceRepoStub{})

		_, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: instructorActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 3,
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("validates the run parameters", func(t *testing.T) {
		svc := newMaterializer(&templateRepoStub{}, serviceableRoomRepo("room-1"), &occurrenceRepoStub{})

		_, err := svc.Materialize(context.Background(), MaterializeParams{Actor: adminActor, Weeks: 0})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"semester_id", "start_date", "weeks"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected field error for %q, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("expands active templates week by week", func(t *testing.T) {
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Monday),
			{ID: "template-retired", RoomID: "room-1", Status: persistence.TemplateInactive},
		}}
		occurrences := &occurrenceRepoStub{}
		svc := newMaterializer(templates, serviceableRoomRepo("room-1"), occurrences)

		result, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 3,
		})
		if err != nil {
			t.Fatalf("Materialize() error = %v", err)
		}
		if len(result.Occurrences) != 3 {
			t.Fatalf("occurrence count = %d, want 3", len(result.Occurrences))
		}
		wantDates := []string{"2025-03-03", "2025-03-10", "2025-03-17"}
		for i, occurrence := range result.Occurrences {
			if got := occurrence.Date.Format("2006-01-02"); got != wantDates[i] {
				t.Errorf("occurrence[%d].Date = %s, want %s", i, got, wantDates[i])
			}
			if occurrence.SemesterID != "2025-spring" || occurrence.Mode != persistence.ModeInPerson {
				t.Errorf("occurrence[%d] = %+v", i, occurrence)
			}
			if occurrence.RoomID == nil || *occurrence.RoomID != "room-1" {
				t.Errorf("occurrence[%d].RoomID = %v, want room-1", i, occurrence.RoomID)
			}
		}
		if occurrences.replacedFor != "2025-spring" {
			t.Errorf("replaced semester = %q", occurrences.replacedFor)
		}
	})

	t.Run("aborts on templates referencing rooms that are not serviceable", func(t *testing.T) {
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Monday),
		}}
		rooms := serviceableRoomRepo("room-1")
		rooms.getRoom.Status = persistence.RoomUnderRepair
		occurrences := &occurrenceRepoStub{}
		svc := newMaterializer(templates, rooms, occurrences)

		_, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 3,
		})
		var tErr *InvalidTemplateError
		if !errors.As(err, &tErr) {
			t.Fatalf("expected InvalidTemplateError, got %v", err)
		}
		if tErr.TemplateID != "template-1" {
			t.Errorf("error = %+v", tErr)
		}
		if occurrences.replaceCalls != 0 {
			t.Errorf("replacement ran despite invalid template")
		}
	})

	t.Run("rejects templates claiming the same room in overlapping windows", func(t *testing.T) {
		second := activeTemplate("template-2", "room-1", time.Monday)
		second.StartMinute = 600
		second.EndMinute = 690
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Monday),
			second,
		}}
		occurrences := &occurrenceRepoStub{}
		svc := newMaterializer(templates, serviceableRoomRepo("room-1"), occurrences)

		_, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 3,
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.RoomID != "room-1" || cErr.WithID != "template-1" {
			t.Errorf("conflict = %+v", cErr)
		}
		if occurrences.replaceCalls != 0 {
			t.Errorf("replacement ran despite overlapping templates")
		}
	})

	t.Run("allows back to back templates in one room", func(t *testing.T) {
		second := activeTemplate("template-2", "room-1", time.Monday)
		second.StartMinute = 630
		second.EndMinute = 720
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Monday),
			second,
		}}
		occurrences := &occurrenceRepoStub{}
		svc := newMaterializer(templates, serviceableRoomRepo("room-1"), occurrences)

		result, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 2,
		})
		if err != nil {
			t.Fatalf("Materialize() error = %v", err)
		}
		if len(result.Occurrences) != 4 {
			t.Fatalf("occurrence count = %d, want 4", len(result.Occurrences))
		}
	})

	t.Run("maps the transactional serviceability failure", func(t *testing.T) {
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Monday),
		}}
		occurrences := &occurrenceRepoStub{replaceErr: persistence.ErrRoomNotServiceable}
		svc := newMaterializer(templates, serviceableRoomRepo("room-1"), occurrences)

		_, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 3,
		})
		var tErr *InvalidTemplateError
		if !errors.As(err, &tErr) {
			t.Fatalf("expected InvalidTemplateError, got %v", err)
		}
	})

	t.Run("maps the transactional conflict failure", func(t *testing.T) {
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Monday),
		}}
		occurrences := &occurrenceRepoStub{replaceErr: &persistence.ConflictError{
			RoomID: "room-1", Date: monday, StartMinute: 540, EndMinute: 630,
			WithID: "booking-9", Source: persistence.SlotSourceBooking,
		}}
		svc := newMaterializer(templates, serviceableRoomRepo("room-1"), occurrences)

		_, err := svc.Materialize(context.Background(), MaterializeParams{
			Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 3,
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.WithID != "booking-9" || cErr.Source != persistence.SlotSourceBooking {
			t.Errorf("conflict = %+v", cErr)
		}
	})

	t.Run("is deterministic for identical inputs", func(t *testing.T) {
		templates := &templateRepoStub{list: []persistence.CourseScheduleTemplate{
			activeTemplate("template-1", "room-1", time.Wednesday),
		}}
		params := MaterializeParams{Actor: adminActor, SemesterID: "2025-spring", StartDate: monday, Weeks: 2}

		first, err := newMaterializer(templates, serviceableRoomRepo("room-1"), &occurrenceRepoStub{}).Materialize(context.Background(), params)
		if err != nil {
			t.Fatalf("Materialize() error = %v", err)
		}
		second, err := newMaterializer(templates, serviceableRoomRepo("room-1"), &occurrenceRepoStub{}).Materialize(context.Background(), params)
		if err != nil {
			t.Fatalf("Materialize() repeat error = %v", err)
		}
		if len(first.Occurrences) != len(second.Occurrences) {
			t.Fatalf("run sizes differ: %d vs %d", len(first.Occurrences), len(second.Occurrences))
		}
		for i := range first.Occurrences {
			if !first.Occurrences[i].Date.Equal(second.Occurrences[i].Date) {
				t.Errorf("occurrence[%d] dates differ: %v vs %v", i, first.Occurrences[i].Date, second.Occurrences[i].Date)
			}
		}
	})
}
