package http

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/example/campus-scheduler/internal/logging"
)

func handlerLogger(ctx context.Context, fallback zerolog.Logger, handlerName, operation string) zerolog.Logger {
	base := fallback
	if logger := logging.FromContext(ctx); logger != nil {
		base = *logger
	}

	builder := base.With().Str("handler", handlerName)
	if operation != "" {
		builder = builder.Str("operation", operation)
	}
	return builder.Logger()
}
