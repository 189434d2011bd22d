package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/example/academy-scheduler/internal/logging"
)

func TestServiceLoggerFallsBackToBase(t *testing.T) {
	t.Parallel()

	var records []slog.Record
	base := slog.New(recordingHandler{records: &records})

	serviceLogger(context.Background(), base, "TaskService", "CreateTask", "task_id", "t-1").Info("hello")
	if len(records) != 1 {
		t.Fatalf("expected base logger to receive the record, got %d", len(records))
	}
}

func TestServiceLogger_PrefersContextLogger(t *testing.T) {
	t.Parallel()

	var records []slog.Record
	ctxLogger := slog.New(recordingHandler{records: &records})
	ctx := logging.ContextWithLogger(context.Background(), ctxLogger)

	serviceLogger(ctx, slog.New(slog.NewTextHandler(io.Discard, nil)), "SlotService", "CreateSlot").Info("hello")
	if len(records) != 1 {
		t.Fatalf("expected context logger to receive the record, got %d", len(records))
	}
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	cases := map[string]error{
		"":             nil,
		"unauthorized": ErrUnauthorized,
		"not_found":    fmt.Errorf("wrap: %w", ErrNotFound),
		"conflict":     &SlotConflictError{DayOfWeek: 2, TimeSlot: "15:00-16:00"},
		"validation":   fieldError("title", "title is required"),
		"persistence":  &PersistenceError{Op: "list", Err: errors.New("boom")},
		"canceled":     fmt.Errorf("list: %w", context.Canceled),
		"unexpected":   errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("expected %q for %v, got %q", want, err, got)
		}
	}
}

type recordingHandler struct {
	records *[]slog.Record
}

func (h recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h recordingHandler) Handle(_ context.Context, r slog.Record) error {
	*h.records = append(*h.records, r)
	return nil
}

func (h recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h recordingHandler) WithGroup(string) slog.Handler      { return h }
