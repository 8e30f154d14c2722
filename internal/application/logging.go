package application

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/logging"
	"github.com/example/campus-scheduler/internal/persistence"
)

func serviceLogger(ctx context.Context, base zerolog.Logger, serviceName, operation string) zerolog.Logger {
	logger := base
	if ctxLogger := logging.FromContext(ctx); ctxLogger != nil {
		logger = *ctxLogger
	}

	builder := logger.With().Str("service", serviceName)
	if operation != "" {
		builder = builder.Str("operation", operation)
	}
	return builder.Logger()
}

// ErrorKind maps sentinel and structured errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, persistence.ErrRoomNotServiceable):
		return "room_not_serviceable"
	}

	var cErr *ConflictError
	if errors.As(err, &cErr) {
		return "conflict"
	}
	var tErr *InvalidTemplateError
	if errors.As(err, &tErr) {
		return "invalid_template"
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}

	return "unexpected"
}
