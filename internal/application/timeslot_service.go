package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/logging"
	"github.com/example/academy-scheduler/internal/persistence"
)

// TimeSlotRepository captures the catalog operations needed by the service.
type TimeSlotRepository interface {
	ListTimeSlots(ctx context.Context, activeOnly bool) ([]TimeSlot, error)
	GetTimeSlot(ctx context.Context, id string) (TimeSlot, error)
	UpdateTimeSlot(ctx context.Context, slot TimeSlot) (TimeSlot, error)
}

// TimeSlotService exposes the catalog of teaching periods.
type TimeSlotService struct {
	timeSlots TimeSlotRepository
	logger    *slog.Logger
}

// NewTimeSlotService constructs a catalog service.
func NewTimeSlotService(timeSlots TimeSlotRepository, logger *slog.Logger) *TimeSlotService {
	return &TimeSlotService{timeSlots: timeSlots, logger: logging.OrDefault(logger)}
}

// ListActive returns the active periods ordered by start time.
func (s *TimeSlotService) ListActive(ctx context.Context, principal Principal) ([]TimeSlot, error) {
	if s == nil || s.timeSlots == nil {
		return nil, fmt.Errorf("time slot repository not configured")
	}
	slots, err := s.timeSlots.ListTimeSlots(ctx, true)
	if err != nil {
		return nil, mapTimeSlotRepoError("list time slots", err)
	}
	return slots, nil
}

// Update edits a catalog entry. Only managers may edit the catalog.
func (s *TimeSlotService) Update(ctx context.Context, principal Principal, id string, patch TimeSlotPatch) (slot TimeSlot, err error) {
	if s == nil || s.timeSlots == nil {
		err = fmt.Errorf("time slot repository not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "TimeSlotService", "Update",
		"principal_id", principal.UserID,
		"time_slot_id", id,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update time slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "time slot updated")
	}()

	if !principal.CanManage() {
		err = ErrUnauthorized
		return
	}

	var existing TimeSlot
	existing, err = s.timeSlots.GetTimeSlot(ctx, id)
	if err != nil {
		err = mapTimeSlotRepoError("get time slot", err)
		return
	}

	updated := existing
	vErr := &ValidationError{}
	if patch.Name != nil {
		updated.Name = strings.TrimSpace(*patch.Name)
		if updated.Name == "" {
			vErr.add("name", "name is required")
		}
	}
	if patch.StartTime != nil {
		value, tErr := calendar.NormalizeTimeOfDay(*patch.StartTime)
		if tErr != nil {
			vErr.add("startTime", "startTime must be HH:MM")
		}
		updated.StartTime = value
	}
	if patch.EndTime != nil {
		value, tErr := calendar.NormalizeTimeOfDay(*patch.EndTime)
		if tErr != nil {
			vErr.add("endTime", "endTime must be HH:MM")
		}
		updated.EndTime = value
	}
	if patch.IsActive != nil {
		updated.IsActive = *patch.IsActive
	}
	if !vErr.HasErrors() && updated.EndTime <= updated.StartTime {
		vErr.add("endTime", "endTime must be after startTime")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	slot, err = s.timeSlots.UpdateTimeSlot(ctx, updated)
	if err != nil {
		err = mapTimeSlotRepoError("update time slot", err)
	}
	return
}

func mapTimeSlotRepoError(op string, err error) error {
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return fieldError("name", "name is already used by another time slot")
	}
	return &PersistenceError{Op: op, Err: err}
}
