package util

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	CTXKeyRequestID contextKey = "request_id"
)

// LogFromContext returns a request-aware logger bound to the given context.
// Falls back to the global logger if none was attached by the middleware.
func LogFromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		l = &log.Logger
	}

	return l
}

// LogFromEchoContext returns the logger bound to the request context of c.
func LogFromEchoContext(c echo.Context) *zerolog.Logger {
	return LogFromContext(c.Request().Context())
}

// RequestIDFromContext returns the request ID attached by the request ID middleware, if any.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(CTXKeyRequestID).(string); ok {
		return id
	}

	return ""
}
