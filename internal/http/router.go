package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/telemetry"
)

type RouterConfig struct {
	Rooms     *RoomHandler
	Bookings  *BookingHandler
	Templates *TemplateHandler
	Schedules *ScheduleHandler
	Changes   *ChangeHandler
	Conflicts *ConflictHandler
	Logger    zerolog.Logger
}

// NewRouter assembles the API surface. The metrics and health endpoints stay
// outside the actor requirement so probes and scrapers need no identity.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(telemetry.MetricsMiddleware)
	r.Use(RequestLogger(cfg.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RequireActor(cfg.Logger))

		if cfg.Rooms != nil {
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", cfg.Rooms.List)
				r.Post("/", cfg.Rooms.Create)
				r.Get("/{roomID}", cfg.Rooms.Get)
				r.Put("/{roomID}", cfg.Rooms.Update)
				r.Delete("/{roomID}", cfg.Rooms.Delete)
				r.Put("/{roomID}/status", cfg.Rooms.SetStatus)
			})
		}

		if cfg.Bookings != nil {
			r.Route("/bookings", func(r chi.Router) {
				r.Get("/", cfg.Bookings.List)
				r.Post("/", cfg.Bookings.Submit)
				r.Get("/{bookingID}", cfg.Bookings.Get)
				r.Put("/{bookingID}", cfg.Bookings.Edit)
				r.Post("/{bookingID}/decision", cfg.Bookings.Decide)
			})
		}

		if cfg.Templates != nil {
			r.Route("/templates", func(r chi.Router) {
				r.Get("/", cfg.Templates.List)
				r.Post("/", cfg.Templates.Create)
				r.Post("/import", cfg.Templates.Import)
				r.Get("/{templateID}", cfg.Templates.Get)
				r.Put("/{templateID}", cfg.Templates.Update)
				r.Delete("/{templateID}", cfg.Templates.Delete)
			})
		}

		if cfg.Schedules != nil {
			r.Post("/semesters/{semesterID}/materialize", cfg.Schedules.Materialize)
			r.Route("/occurrences", func(r chi.Router) {
				r.Get("/", cfg.Schedules.ListOccurrences)
				r.Get("/{occurrenceID}", cfg.Schedules.GetOccurrence)
				if cfg.Changes != nil {
					r.Post("/{occurrenceID}/changes", cfg.Changes.Propose)
				}
			})
		}

		if cfg.Changes != nil {
			r.Route("/changes", func(r chi.Router) {
				r.Get("/", cfg.Changes.List)
				r.Get("/{changeID}", cfg.Changes.Get)
				r.Put("/{changeID}", cfg.Changes.Edit)
				r.Post("/{changeID}/decision", cfg.Changes.Decide)
			})
		}

		if cfg.Conflicts != nil {
			r.Get("/conflicts/check", cfg.Conflicts.Check)
		}
	})

	return r
}
