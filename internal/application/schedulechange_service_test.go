package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

type changeRepoStub struct {
	createErr error
	created   persistence.ScheduleChangeRequest

	changes map[string]persistence.ScheduleChangeRequest

	updateErr error
	updated   persistence.ScheduleChangeRequest

	acceptRequest    persistence.ScheduleChangeRequest
	acceptOccurrence persistence.ScheduleOccurrence
	acceptErr        error

	rejectResult persistence.ScheduleChangeRequest
	rejectErr    error

	list    []persistence.ScheduleChangeRequest
	listErr error
}

func (r *changeRepoStub) CreateChange(ctx context.Context, request persistence.ScheduleChangeRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = request
	return nil
}

func (r *changeRepoStub) UpdateChange(ctx context.Context, request persistence.ScheduleChangeRequest) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updated = request
	return nil
}

func (r *changeRepoStub) GetChange(ctx context.Context, id string) (persistence.ScheduleChangeRequest, error) {
	request, ok := r.changes[id]
	if !ok {
		return persistence.ScheduleChangeRequest{}, persistence.ErrNotFound
	}
	return request, nil
}

func (r *changeRepoStub) ListChanges(ctx context.Context, filter persistence.ChangeRequestFilter) ([]persistence.ScheduleChangeRequest, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.list, nil
}

func (r *changeRepoStub) AcceptChange(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.ScheduleChangeRequest, persistence.ScheduleOccurrence, error) {
	if r.acceptErr != nil {
		return persistence.ScheduleChangeRequest{}, persistence.ScheduleOccurrence{}, r.acceptErr
	}
	return r.acceptRequest, r.acceptOccurrence, nil
}

func (r *changeRepoStub) RejectChange(ctx context.Context, id, approverID string, decidedAt time.Time) (persistence.ScheduleChangeRequest, error) {
	if r.rejectErr != nil {
		return persistence.ScheduleChangeRequest{}, r.rejectErr
	}
	return r.rejectResult, nil
}

func activeOccurrenceStub(id string) *occurrenceRepoStub {
	roomID := "room-1"
	return &occurrenceRepoStub{occurrences: map[string]persistence.ScheduleOccurrence{
		id: {
			ID:          id,
			TemplateID:  "template-1",
			SemesterID:  "2025-spring",
			CourseID:    "course-101",
			RoomID:      &roomID,
			Date:        time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
			StartMinute: 540,
			EndMinute:   630,
			Mode:        persistence.ModeInPerson,
			Status:      persistence.OccurrenceActive,
		},
	}}
}

func inPersonChangeInput(roomID string) ChangeInput {
	return ChangeInput{
		Mode:   persistence.ModeInPerson,
		RoomID: &roomID,
		Date:   time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		Start:  scheduler.TimeOfDay(600),
		End:    scheduler.TimeOfDay(690),
		Reason: "projector broken",
	}
}

func TestScheduleChangeService_ProposeChange(t *testing.T) {
	t.Run("students may not propose", func(t *testing.T) {
		svc := NewScheduleChangeService(&changeRepoStub{}, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.ProposeChange(context.Background(), ProposeChangeParams{
			Requester: studentActor, OccurrenceID: "occ-1", Input: inPersonChangeInput("room-1"),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("maps missing occurrences", func(t *testing.T) {
		svc := NewScheduleChangeService(&changeRepoStub{}, &occurrenceRepoStub{}, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.ProposeChange(context.Background(), ProposeChangeParams{
			Requester: instructorActor, OccurrenceID: "missing", Input: inPersonChangeInput("room-1"),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("refuses cancelled occurrences", func(t *testing.T) {
		occurrences := activeOccurrenceStub("occ-1")
		cancelled := occurrences.occurrences["occ-1"]
		cancelled.Status = persistence.OccurrenceCancelled
		occurrences.occurrences["occ-1"] = cancelled
		svc := NewScheduleChangeService(&changeRepoStub{}, occurrences, serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.ProposeChange(context.Background(), ProposeChangeParams{
			Requester: instructorActor, OccurrenceID: "occ-1", Input: inPersonChangeInput("room-1"),
		})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("in-person proposals require a room", func(t *testing.T) {
		svc := NewScheduleChangeService(&changeRepoStub{}, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		input := inPersonChangeInput("room-1")
		input.RoomID = nil
		_, err := svc.ProposeChange(context.Background(), ProposeChangeParams{
			Requester: instructorActor, OccurrenceID: "occ-1", Input: input,
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["room_id"]; !ok {
			t.Errorf("expected room_id field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("remote proposals drop the room claim", func(t *testing.T) {
		repo := &changeRepoStub{}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, sequentialIDs("change"), fixedNow, zerolog.Nop())

		roomID := "room-1"
		input := inPersonChangeInput("room-1")
		input.Mode = persistence.ModeRemote
		input.RoomID = &roomID
		request, err := svc.ProposeChange(context.Background(), ProposeChangeParams{
			Requester: instructorActor, OccurrenceID: "occ-1", Input: input,
		})
		if err != nil {
			t.Fatalf("ProposeChange() error = %v", err)
		}
		if request.NewRoomID != nil {
			t.Errorf("NewRoomID = %v, want nil for remote delivery", request.NewRoomID)
		}
		if repo.created.Mode != persistence.ModeRemote {
			t.Errorf("repo received mode %q", repo.created.Mode)
		}
	})

	t.Run("stores a pending proposal", func(t *testing.T) {
		repo := &changeRepoStub{}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, sequentialIDs("change"), fixedNow, zerolog.Nop())

		request, err := svc.ProposeChange(context.Background(), ProposeChangeParams{
			Requester: instructorActor, OccurrenceID: "occ-1", Input: inPersonChangeInput("room-1"),
		})
		if err != nil {
			t.Fatalf("ProposeChange() error = %v", err)
		}
		if request.Status != persistence.RequestPending || request.OccurrenceID != "occ-1" {
			t.Errorf("request = %+v", request)
		}
	})
}

func TestScheduleChangeService_DecideChange(t *testing.T) {
	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewScheduleChangeService(&changeRepoStub{}, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, _, err := svc.DecideChange(context.Background(), DecideChangeParams{Approver: instructorActor, ChangeID: "change-1", Accept: true})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("maps the transactional conflict", func(t *testing.T) {
		repo := &changeRepoStub{acceptErr: &persistence.ConflictError{
			RoomID: "room-2",
			WithID: "occ-busy",
			Source: persistence.SlotSourceOccurrence,
		}}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, _, err := svc.DecideChange(context.Background(), DecideChangeParams{Approver: adminActor, ChangeID: "change-1", Accept: true})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if cErr.WithID != "occ-busy" {
			t.Errorf("conflict = %+v", cErr)
		}
	})

	t.Run("returns the moved occurrence on accept", func(t *testing.T) {
		roomID := "room-2"
		repo := &changeRepoStub{
			acceptRequest: persistence.ScheduleChangeRequest{ID: "change-1", Status: persistence.RequestAccepted},
			acceptOccurrence: persistence.ScheduleOccurrence{
				ID:     "occ-1",
				RoomID: &roomID,
				Mode:   persistence.ModeInPerson,
			},
		}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		request, occurrence, err := svc.DecideChange(context.Background(), DecideChangeParams{Approver: adminActor, ChangeID: "change-1", Accept: true})
		if err != nil {
			t.Fatalf("DecideChange() error = %v", err)
		}
		if request.Status != persistence.RequestAccepted {
			t.Errorf("request = %+v", request)
		}
		if occurrence.RoomID == nil || *occurrence.RoomID != "room-2" {
			t.Errorf("occurrence = %+v", occurrence)
		}
	})

	t.Run("maps already decided requests on reject", func(t *testing.T) {
		repo := &changeRepoStub{rejectErr: persistence.ErrInvalidState}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, _, err := svc.DecideChange(context.Background(), DecideChangeParams{Approver: adminActor, ChangeID: "change-1", Accept: false})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})
}

func TestScheduleChangeService_EditChange(t *testing.T) {
	pending := persistence.ScheduleChangeRequest{
		ID:           "change-1",
		OccurrenceID: "occ-1",
		Requester:    instructorActor,
		Status:       persistence.RequestPending,
	}

	t.Run("only the requester or an administrator may edit", func(t *testing.T) {
		repo := &changeRepoStub{changes: map[string]persistence.ScheduleChangeRequest{"change-1": pending}}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		other := instructorActor
		other.ID = "instructor-2"
		_, err := svc.EditChange(context.Background(), EditChangeParams{Actor: other, ChangeID: "change-1", Input: inPersonChangeInput("room-1")})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("refuses decided requests", func(t *testing.T) {
		decided := pending
		decided.Status = persistence.RequestRejected
		repo := &changeRepoStub{changes: map[string]persistence.ScheduleChangeRequest{"change-1": decided}}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		_, err := svc.EditChange(context.Background(), EditChangeParams{Actor: instructorActor, ChangeID: "change-1", Input: inPersonChangeInput("room-1")})
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
	})

	t.Run("rewrites the pending proposal", func(t *testing.T) {
		repo := &changeRepoStub{changes: map[string]persistence.ScheduleChangeRequest{"change-1": pending}}
		svc := NewScheduleChangeService(repo, activeOccurrenceStub("occ-1"), serviceableRoomRepo("room-1"), nil, nil, fixedNow, zerolog.Nop())

		request, err := svc.EditChange(context.Background(), EditChangeParams{Actor: instructorActor, ChangeID: "change-1", Input: inPersonChangeInput("room-1")})
		if err != nil {
			t.Fatalf("EditChange() error = %v", err)
		}
		if request.NewStartMinute != 600 || request.NewEndMinute != 690 {
			t.Errorf("request = %+v", request)
		}
	})
}
