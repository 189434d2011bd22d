package http

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/logging"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	return logging.OrDefault(logger)
}

// handlerLogger returns the request logger for c tagged with the handler,
// the operation and the calling principal's role.
func handlerLogger(c *fiber.Ctx, fallback *slog.Logger, handler, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, 6+len(attrs))
	pairs = append(pairs, "handler", handler, "operation", operation)
	if principal, ok := PrincipalFrom(c); ok {
		pairs = append(pairs, "role", string(principal.Role))
	}
	pairs = append(pairs, attrs...)
	return logging.FromContextOr(c.UserContext(), fallback).With(pairs...)
}
