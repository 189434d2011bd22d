package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/academy-scheduler/internal/logging"
)

// serviceLogger prefers the request logger carried by ctx so service records
// share the request id.
func serviceLogger(ctx context.Context, base *slog.Logger, service, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, 4+len(attrs))
	pairs = append(pairs, "service", service, "operation", operation)
	pairs = append(pairs, attrs...)
	return logging.FromContextOr(ctx, base).With(pairs...)
}

var errorKinds = []struct {
	target error
	kind   string
}{
	{ErrUnauthorized, "unauthorized"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{context.Canceled, "canceled"},
	{context.DeadlineExceeded, "canceled"},
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}

	var vErr *ValidationError
	var pErr *PersistenceError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &pErr):
		return "persistence"
	}
	return "unexpected"
}
