package testfixtures

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/persistence"
	"github.com/example/campus-scheduler/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      zerolog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger overrides the logger injected into constructed services.
func WithLogger(logger zerolog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewConflictService builds an advisory conflict service over the supplied
// slot reader and room repository.
func (f *ServiceFactory) NewConflictService(slots persistence.SlotReader, rooms persistence.RoomRepository) *application.ConflictService {
	return application.NewConflictService(slots, rooms, f.Logger,
		application.WithWarningCacheClock(f.Clock.NowFunc()))
}

// NewRoomService builds a room service using the factory defaults.
func (f *ServiceFactory) NewRoomService(rooms persistence.RoomRepository) *application.RoomService {
	return application.NewRoomService(rooms, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewBookingService builds a booking service using the factory defaults.
// conflicts may be nil to skip advisory warnings.
func (f *ServiceFactory) NewBookingService(
	bookings persistence.BookingRepository,
	rooms persistence.RoomRepository,
	conflicts *application.ConflictService,
) *application.BookingService {
	return application.NewBookingService(bookings, rooms, conflicts, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewTemplateService builds a template service using the factory defaults.
func (f *ServiceFactory) NewTemplateService(
	templates persistence.TemplateRepository,
	rooms persistence.RoomRepository,
) *application.TemplateService {
	return application.NewTemplateService(templates, rooms, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewMaterializerService builds a materializer using the factory defaults and
// a fresh recurrence engine.
func (f *ServiceFactory) NewMaterializerService(
	templates persistence.TemplateRepository,
	rooms persistence.RoomRepository,
	occurrences persistence.OccurrenceRepository,
	conflicts *application.ConflictService,
) *application.MaterializerService {
	return application.NewMaterializerService(
		templates,
		rooms,
		occurrences,
		conflicts,
		recurrence.NewEngine(nil),
		f.IDGenerator.NextFunc(),
		f.Clock.NowFunc(),
		f.Logger,
	)
}

// NewScheduleChangeService builds a schedule change service using the factory
// defaults.
func (f *ServiceFactory) NewScheduleChangeService(
	changes persistence.ChangeRequestRepository,
	occurrences persistence.OccurrenceRepository,
	rooms persistence.RoomRepository,
	conflicts *application.ConflictService,
) *application.ScheduleChangeService {
	return application.NewScheduleChangeService(changes, occurrences, rooms, conflicts, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}
