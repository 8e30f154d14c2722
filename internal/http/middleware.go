package http

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/logging"
	"github.com/example/campus-scheduler/internal/persistence"
)

// Actor identity headers. The gateway in front of this service authenticates
// callers and forwards their identity; this service trusts the headers.
const (
	headerActorKind  = "X-Actor-Kind"
	headerActorID    = "X-Actor-ID"
	headerActorName  = "X-Actor-Name"
	headerActorEmail = "X-Actor-Email"
)

// RequireActor rejects requests that do not carry a usable actor identity and
// attaches the extracted actor to the request context.
func RequireActor(logger zerolog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, err := actorFromHeaders(r)
			if err != nil {
				responder.writeError(r.Context(), w, http.StatusUnauthorized, err)
				return
			}

			ctx := ContextWithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromHeaders(r *http.Request) (application.Actor, error) {
	kind := persistence.ActorKind(strings.TrimSpace(r.Header.Get(headerActorKind)))
	id := strings.TrimSpace(r.Header.Get(headerActorID))
	if kind == "" || id == "" {
		return application.Actor{}, errMissingIdentity
	}

	switch kind {
	case persistence.ActorStudent, persistence.ActorInstructor, persistence.ActorAdmin:
	default:
		return application.Actor{}, errMissingIdentity
	}

	return application.Actor{
		Kind:        kind,
		ID:          id,
		DisplayName: strings.TrimSpace(r.Header.Get(headerActorName)),
		Email:       strings.TrimSpace(r.Header.Get(headerActorEmail)),
	}, nil
}

// RequestLogger attaches a request scoped logger to the context and records
// one entry per handled request.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := base.With().
				Str("request_id", chimiddleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()

			ctx := logging.ContextWithLogger(r.Context(), logger)
			start := time.Now()
			logger.Info().Msg("request started")
			next.ServeHTTP(w, r.WithContext(ctx))
			logger.Info().Dur("duration", time.Since(start)).Msg("request completed")
		})
	}
}
