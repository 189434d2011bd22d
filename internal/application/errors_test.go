package application

import (
	"errors"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if got := err.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for nil error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"title": "required", "targetDate": "required"}}
	if got := withFields.Error(); got != "validation failed: targetDate, title" {
		t.Fatalf("expected sorted field list, got %q", got)
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("title", "title is required")
	base.add("title", "ignored")
	if got := base.FieldErrors["title"]; got != "title is required" {
		t.Fatalf("expected first message to win, got %q", got)
	}

	base.merge(&ValidationError{FieldErrors: map[string]string{"subject": "subject is required"}})
	base.merge(nil)
	if len(base.FieldErrors) != 2 || !base.HasErrors() {
		t.Fatalf("expected two field errors, got %v", base.FieldErrors)
	}
}

func TestSlotConflictError(t *testing.T) {
	t.Parallel()

	err := &SlotConflictError{DayOfWeek: 1, TimeSlot: "14:00-15:00", Occupant: &ScheduleSlot{ID: "slot-1"}}
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict error to match ErrConflict")
	}
	if got := err.Error(); got != "application: slot 1/14:00-15:00 is occupied by slot-1" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestPersistenceError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk I/O error")
	err := &PersistenceError{Op: "create task", Err: cause}
	if !errors.Is(err, cause) {
		t.Fatalf("expected persistence error to unwrap to cause")
	}
}
