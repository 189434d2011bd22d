package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/academy-scheduler/internal/persistence"
)

type timeSlotRepoStub struct {
	slots     map[string]TimeSlot
	updateErr error
	listedAll bool
}

func (r *timeSlotRepoStub) ListTimeSlots(ctx context.Context, activeOnly bool) ([]TimeSlot, error) {
	r.listedAll = !activeOnly
	var out []TimeSlot
	for _, slot := range r.slots {
		if activeOnly && !slot.IsActive {
			continue
		}
		out = append(out, slot)
	}
	return out, nil
}

func (r *timeSlotRepoStub) GetTimeSlot(ctx context.Context, id string) (TimeSlot, error) {
	slot, ok := r.slots[id]
	if !ok {
		return TimeSlot{}, persistence.ErrNotFound
	}
	return slot, nil
}

func (r *timeSlotRepoStub) UpdateTimeSlot(ctx context.Context, slot TimeSlot) (TimeSlot, error) {
	if r.updateErr != nil {
		return TimeSlot{}, r.updateErr
	}
	r.slots[slot.ID] = slot
	return slot, nil
}

func newTimeSlotRepoStub() *timeSlotRepoStub {
	return &timeSlotRepoStub{slots: map[string]TimeSlot{
		"ts-1400": {ID: "ts-1400", Name: "14:00-15:00", StartTime: "14:00", EndTime: "15:00", IsActive: true},
		"ts-2100": {ID: "ts-2100", Name: "21:00-22:00", StartTime: "21:00", EndTime: "22:00", IsActive: false},
	}}
}

func TestTimeSlotService_ListActive(t *testing.T) {
	repo := newTimeSlotRepoStub()
	svc := NewTimeSlotService(repo, nil)

	slots, err := svc.ListActive(context.Background(), staff)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(slots) != 1 || slots[0].ID != "ts-1400" || repo.listedAll {
		t.Fatalf("expected only active slots, got %+v", slots)
	}
}

func TestTimeSlotService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a manager", func(t *testing.T) {
		svc := NewTimeSlotService(newTimeSlotRepoStub(), nil)
		active := true
		_, err := svc.Update(ctx, teacher, "ts-2100", TimeSlotPatch{IsActive: &active})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("activates a period", func(t *testing.T) {
		repo := newTimeSlotRepoStub()
		svc := NewTimeSlotService(repo, nil)
		active := true
		slot, err := svc.Update(ctx, director, "ts-2100", TimeSlotPatch{IsActive: &active})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !slot.IsActive || !repo.slots["ts-2100"].IsActive {
			t.Fatalf("expected slot to be active, got %+v", slot)
		}
	})

	t.Run("rejects inverted times", func(t *testing.T) {
		svc := NewTimeSlotService(newTimeSlotRepoStub(), nil)
		end := "13:30"
		_, err := svc.Update(ctx, director, "ts-1400", TimeSlotPatch{EndTime: &end})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["endTime"] == "" {
			t.Fatalf("expected endTime error, got %v", err)
		}
	})

	t.Run("duplicate name", func(t *testing.T) {
		repo := newTimeSlotRepoStub()
		repo.updateErr = persistence.ErrDuplicate
		svc := NewTimeSlotService(repo, nil)
		name := "21:00-22:00"
		_, err := svc.Update(ctx, director, "ts-1400", TimeSlotPatch{Name: &name})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["name"] == "" {
			t.Fatalf("expected name error, got %v", err)
		}
	})

	t.Run("missing slot", func(t *testing.T) {
		svc := NewTimeSlotService(newTimeSlotRepoStub(), nil)
		_, err := svc.Update(ctx, director, "ts-0900", TimeSlotPatch{})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}
