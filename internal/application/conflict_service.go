package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/scheduler"
)

// ConflictService answers advisory conflict probes against the committed
// schedule. Its answers may be stale by the time a decision runs; the
// authoritative re-check happens inside the decision transaction.
type ConflictService struct {
	slots  persistence.SlotReader
	rooms  persistence.RoomRepository
	cache  *warningCache
	logger zerolog.Logger
}

// ConflictServiceOption adjusts warning cache behavior.
type ConflictServiceOption func(*conflictServiceSettings)

type conflictServiceSettings struct {
	cacheTTL     time.Duration
	cacheEntries int
	now          func() time.Time
}

// WithWarningCacheTTL overrides how long advisory probe results stay cached.
// Non-positive values keep the default.
func WithWarningCacheTTL(ttl time.Duration) ConflictServiceOption {
	return func(s *conflictServiceSettings) {
		s.cacheTTL = ttl
	}
}

// WithWarningCacheClock overrides the cache expiry clock.
func WithWarningCacheClock(now func() time.Time) ConflictServiceOption {
	return func(s *conflictServiceSettings) {
		s.now = now
	}
}

// NewConflictService constructs a conflict service over the committed slot
// view.
func NewConflictService(slots persistence.SlotReader, rooms persistence.RoomRepository, logger zerolog.Logger, opts ...ConflictServiceOption) *ConflictService {
	settings := conflictServiceSettings{
		cacheTTL:     30 * time.Second,
		cacheEntries: 128,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return &ConflictService{
		slots:  slots,
		rooms:  rooms,
		cache:  newWarningCache(settings.cacheTTL, settings.cacheEntries, settings.now),
		logger: logger,
	}
}

// CheckWindow reports every committed claim overlapping the candidate window.
// Probing an unknown room returns ErrNotFound. An empty result is advisory,
// never a promise: a later decision can still fail with a conflict.
func (s *ConflictService) CheckWindow(ctx context.Context, params CheckWindowParams) (warnings []ConflictWarning, err error) {
	if s == nil {
		return nil, fmt.Errorf("ConflictService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "ConflictService", "CheckWindow").
		With().Str("room_id", params.RoomID).Logger()
	defer func() {
		if err != nil {
			logger.Error().Err(err).Str("error_kind", ErrorKind(err)).Msg("failed to check window")
			return
		}
		logger.Debug().Int("warning_count", len(warnings)).Msg("window checked")
	}()

	window := scheduler.NewWindow(params.Date, params.Start, params.End)
	if err := window.Validate(); err != nil {
		vErr := &ValidationError{}
		vErr.add("window", "end must be after start")
		return nil, vErr
	}

	if _, err := s.rooms.GetRoom(ctx, params.RoomID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	key := buildWarningCacheKey(params)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	slots, err := s.slots.ListRoomSlots(ctx, params.RoomID, params.Date)
	if err != nil {
		return nil, err
	}

	entries := make([]scheduler.Entry, 0, len(slots))
	for _, slot := range slots {
		entries = append(entries, scheduler.Entry{
			ID:     slot.SourceID,
			Source: scheduler.EntrySource(slot.SourceKind),
			RoomID: slot.RoomID,
			Window: scheduler.Window{
				Date:  slot.Date,
				Start: scheduler.TimeOfDay(slot.StartMinute),
				End:   scheduler.TimeOfDay(slot.EndMinute),
			},
		})
	}

	for _, conflict := range scheduler.FindConflicts(entries, params.RoomID, window, params.ExcludeID) {
		warnings = append(warnings, ConflictWarning{
			RoomID:      conflict.RoomID,
			Date:        conflict.Window.Date,
			StartMinute: int(conflict.Window.Start),
			EndMinute:   int(conflict.Window.End),
			WithID:      conflict.WithID,
			Source:      string(conflict.Source),
		})
	}

	s.cache.Store(key, warnings)
	return warnings, nil
}

// Invalidate drops cached probe results. Decision paths call it after any
// write that changes the committed schedule.
func (s *ConflictService) Invalidate() {
	if s == nil {
		return
	}
	s.cache.Invalidate()
}
