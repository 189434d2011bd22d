package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/logging"
	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/scheduler"
)

// SlotRepository captures the persistence operations needed by the slot service.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot ScheduleSlot) (ScheduleSlot, error)
	UpdateSlot(ctx context.Context, slot ScheduleSlot) (ScheduleSlot, error)
	GetSlot(ctx context.Context, id string) (ScheduleSlot, error)
	FindSlotByCell(ctx context.Context, dayOfWeek int, timeSlot string) (ScheduleSlot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]ScheduleSlot, error)
	DeleteSlot(ctx context.Context, id string) error
}

// CreateSlotParams wraps the data required to book a cell.
type CreateSlotParams struct {
	Principal Principal
	Input     SlotInput
}

// UpdateSlotParams wraps the data required to edit a booking.
type UpdateSlotParams struct {
	Principal Principal
	SlotID    string
	Patch     SlotPatch
}

// SlotService keeps the weekly grid exclusive: one booking per (day, time slot).
type SlotService struct {
	slots       SlotRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSlotService constructs a slot service with the provided dependencies.
func NewSlotService(slots SlotRepository, idGenerator func() string, now func() time.Time) *SlotService {
	return NewSlotServiceWithLogger(slots, idGenerator, now, nil)
}

// NewSlotServiceWithLogger constructs a slot service with a specified logger.
func NewSlotServiceWithLogger(slots SlotRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SlotService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SlotService{slots: slots, idGenerator: idGenerator, now: now, logger: logging.OrDefault(logger)}
}

func (s *SlotService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SlotService", operation, attrs...)
}

// FindConflict returns the booking holding the cell other than excludeID, or
// nil when the cell is free.
func (s *SlotService) FindConflict(ctx context.Context, principal Principal, dayOfWeek int, timeSlot, excludeID string) (*ScheduleSlot, error) {
	if s == nil || s.slots == nil {
		return nil, fmt.Errorf("slot repository not configured")
	}
	cell, err := newSlotCell(dayOfWeek, timeSlot)
	if err != nil {
		return nil, err
	}
	return s.findOccupant(ctx, cell, excludeID)
}

// CreateSlot books a free cell. An occupied cell fails with a
// *SlotConflictError naming the occupant.
func (s *SlotService) CreateSlot(ctx context.Context, params CreateSlotParams) (slot ScheduleSlot, err error) {
	if s == nil || s.slots == nil {
		err = fmt.Errorf("slot repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateSlot",
		"principal_id", params.Principal.UserID,
		"policy", scheduler.WriteStrict.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("slot_id", slot.ID).InfoContext(ctx, "slot created")
	}()

	if !params.Principal.CanWriteSlots() {
		err = ErrUnauthorized
		return
	}

	var candidate ScheduleSlot
	candidate, err = s.newSlot(params.Input)
	if err != nil {
		return
	}

	slot, _, err = s.write(ctx, candidate, true, scheduler.WriteStrict)
	return
}

// AssignSlot books a cell, overwriting its current occupant in place. The
// number of bookings never grows when the cell was already taken.
func (s *SlotService) AssignSlot(ctx context.Context, params CreateSlotParams) (result AssignResult, err error) {
	if s == nil || s.slots == nil {
		err = fmt.Errorf("slot repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AssignSlot",
		"principal_id", params.Principal.UserID,
		"policy", scheduler.WriteQuickAssign.String(),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("slot_id", result.Slot.ID, "replaced", result.Replaced).InfoContext(ctx, "slot assigned")
	}()

	if !params.Principal.CanWriteSlots() {
		err = ErrUnauthorized
		return
	}

	var candidate ScheduleSlot
	candidate, err = s.newSlot(params.Input)
	if err != nil {
		return
	}

	result.Slot, result.Replaced, err = s.write(ctx, candidate, true, scheduler.WriteQuickAssign)
	if errors.Is(err, ErrConflict) {
		// Another writer took the cell between the lookup and the insert.
		result.Slot, result.Replaced, err = s.write(ctx, candidate, true, scheduler.WriteQuickAssign)
	}
	return
}

// AssignSlots quick-assigns a batch of bookings against one snapshot of the
// grid. Later inputs for the same cell overwrite earlier ones. All inputs are
// validated before anything is written.
func (s *SlotService) AssignSlots(ctx context.Context, principal Principal, inputs []SlotInput) (result BulkAssignResult, err error) {
	if s == nil || s.slots == nil {
		err = fmt.Errorf("slot repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "AssignSlots",
		"principal_id", principal.UserID,
		"input_count", len(inputs),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to assign slots", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("created", result.Created, "replaced", result.Replaced).InfoContext(ctx, "slots assigned")
	}()

	if !principal.CanWriteSlots() {
		err = ErrUnauthorized
		return
	}

	vErr := &ValidationError{}
	candidates := make([]ScheduleSlot, 0, len(inputs))
	for i, input := range inputs {
		candidate, cErr := s.newSlot(input)
		var fieldErrs *ValidationError
		if errors.As(cErr, &fieldErrs) {
			for field, msg := range fieldErrs.FieldErrors {
				vErr.add(fmt.Sprintf("slots[%d].%s", i, field), msg)
			}
			continue
		}
		candidates = append(candidates, candidate)
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var current []ScheduleSlot
	current, err = s.slots.ListSlots(ctx, SlotFilter{})
	if err != nil {
		err = mapSlotRepoError("list slots", err, nil)
		return
	}
	byID := make(map[string]ScheduleSlot, len(current))
	occupants := make([]scheduler.Occupant, 0, len(current))
	for _, slot := range current {
		byID[slot.ID] = slot
		occupants = append(occupants, toOccupant(slot))
	}
	grid := scheduler.NewGrid(occupants)

	for _, candidate := range candidates {
		var decision scheduler.Decision
		decision, err = grid.Place(toOccupant(candidate), scheduler.WriteQuickAssign)
		if err != nil {
			return
		}

		var saved ScheduleSlot
		if decision.Action == scheduler.ActionReplace {
			existing := byID[decision.Existing.ID]
			candidate.ID = existing.ID
			candidate.CreatedAt = existing.CreatedAt
			saved, err = s.slots.UpdateSlot(ctx, candidate)
			result.Replaced++
		} else {
			saved, err = s.slots.CreateSlot(ctx, candidate)
			result.Created++
		}
		if err != nil {
			err = mapSlotRepoError("assign slot", err, &candidate)
			return
		}
		byID[saved.ID] = saved
		result.Slots = append(result.Slots, saved)
	}
	return
}

// UpdateSlot applies a partial update. Moving a booking onto an occupied cell
// fails with a *SlotConflictError instead of overwriting.
func (s *SlotService) UpdateSlot(ctx context.Context, params UpdateSlotParams) (slot ScheduleSlot, err error) {
	if s == nil || s.slots == nil {
		err = fmt.Errorf("slot repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSlot",
		"principal_id", params.Principal.UserID,
		"slot_id", params.SlotID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update slot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "slot updated")
	}()

	if !params.Principal.CanWriteSlots() {
		err = ErrUnauthorized
		return
	}

	var existing ScheduleSlot
	existing, err = s.slots.GetSlot(ctx, params.SlotID)
	if err != nil {
		err = mapSlotRepoError("get slot", err, nil)
		return
	}

	updated := applySlotPatch(existing, params.Patch)
	if vErr := validateSlot(updated); vErr.HasErrors() {
		err = vErr
		return
	}
	updated.UpdatedAt = s.now()

	slot, _, err = s.write(ctx, updated, false, scheduler.WriteStrict)
	return
}

// DeleteSlot removes a booking. Only managers may delete.
func (s *SlotService) DeleteSlot(ctx context.Context, principal Principal, slotID string) error {
	if s == nil || s.slots == nil {
		return fmt.Errorf("slot repository not configured")
	}
	if !principal.CanManage() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteSlot",
		"principal_id", principal.UserID,
		"slot_id", slotID,
	)

	if err := s.slots.DeleteSlot(ctx, slotID); err != nil {
		err = mapSlotRepoError("delete slot", err, nil)
		logger.ErrorContext(ctx, "failed to delete slot", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "slot deleted")
	return nil
}

// GetSlot returns one booking.
func (s *SlotService) GetSlot(ctx context.Context, principal Principal, slotID string) (ScheduleSlot, error) {
	if s == nil || s.slots == nil {
		return ScheduleSlot{}, fmt.Errorf("slot repository not configured")
	}
	slot, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return ScheduleSlot{}, mapSlotRepoError("get slot", err, nil)
	}
	return slot, nil
}

// ListSlots returns bookings ordered by day and time slot.
func (s *SlotService) ListSlots(ctx context.Context, principal Principal, filter SlotFilter) (slots []ScheduleSlot, err error) {
	if s == nil || s.slots == nil {
		return nil, fmt.Errorf("slot repository not configured")
	}

	logger := s.loggerWith(ctx, "ListSlots", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list slots", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(slots)).DebugContext(ctx, "slots listed")
	}()

	if filter.DayOfWeek != nil && !calendar.ValidDayOfWeek(*filter.DayOfWeek) {
		err = fieldError("day", "day must be between 0 and 6")
		return
	}

	slots, err = s.slots.ListSlots(ctx, filter)
	if err != nil {
		err = mapSlotRepoError("list slots", err, nil)
		return
	}
	slices.SortStableFunc(slots, func(a, b ScheduleSlot) int {
		return scheduler.CompareCells(
			scheduler.Cell{Day: a.DayOfWeek, TimeSlot: a.TimeSlot},
			scheduler.Cell{Day: b.DayOfWeek, TimeSlot: b.TimeSlot},
		)
	})
	return
}

// Stats returns per-day booking, teacher and student counts. Only managers may
// read them.
func (s *SlotService) Stats(ctx context.Context, principal Principal) ([]DayStats, error) {
	if s == nil || s.slots == nil {
		return nil, fmt.Errorf("slot repository not configured")
	}
	if !principal.CanManage() {
		return nil, ErrUnauthorized
	}

	slots, err := s.slots.ListSlots(ctx, SlotFilter{})
	if err != nil {
		return nil, mapSlotRepoError("list slots", err, nil)
	}

	occupants := make([]scheduler.Occupant, len(slots))
	for i, slot := range slots {
		occupants[i] = toOccupant(slot)
	}
	computed := scheduler.ComputeStats(occupants)
	stats := make([]DayStats, len(computed))
	for i, day := range computed {
		stats[i] = DayStats{DayOfWeek: day.Day, Slots: day.Slots, Teachers: day.Teachers, Students: day.Students}
	}
	return stats, nil
}

// write persists slot under policy. isNew selects insert over update when the
// target cell is free.
func (s *SlotService) write(ctx context.Context, slot ScheduleSlot, isNew bool, policy scheduler.WritePolicy) (ScheduleSlot, bool, error) {
	cell, err := newSlotCell(slot.DayOfWeek, slot.TimeSlot)
	if err != nil {
		return ScheduleSlot{}, false, err
	}

	excludeID := ""
	if !isNew {
		excludeID = slot.ID
	}
	existing, err := s.findOccupant(ctx, cell, excludeID)
	if err != nil {
		return ScheduleSlot{}, false, err
	}

	var occupant *scheduler.Occupant
	if existing != nil {
		o := toOccupant(*existing)
		occupant = &o
	}
	decision, err := scheduler.Decide(policy, cell, occupant)
	if err != nil {
		return ScheduleSlot{}, false, &SlotConflictError{DayOfWeek: cell.Day, TimeSlot: cell.TimeSlot, Occupant: existing}
	}

	var saved ScheduleSlot
	switch {
	case decision.Action == scheduler.ActionReplace:
		slot.ID = existing.ID
		slot.CreatedAt = existing.CreatedAt
		saved, err = s.slots.UpdateSlot(ctx, slot)
	case isNew:
		saved, err = s.slots.CreateSlot(ctx, slot)
	default:
		saved, err = s.slots.UpdateSlot(ctx, slot)
	}
	if err != nil {
		return ScheduleSlot{}, false, mapSlotRepoError("write slot", err, &slot)
	}
	return saved, decision.Action == scheduler.ActionReplace, nil
}

func (s *SlotService) findOccupant(ctx context.Context, cell scheduler.Cell, excludeID string) (*ScheduleSlot, error) {
	occupant, err := s.slots.FindSlotByCell(ctx, cell.Day, cell.TimeSlot)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, mapSlotRepoError("find slot by cell", err, nil)
	}
	if excludeID != "" && occupant.ID == excludeID {
		return nil, nil
	}
	return &occupant, nil
}

func (s *SlotService) newSlot(input SlotInput) (ScheduleSlot, error) {
	slot := ScheduleSlot{
		TimeSlot:   strings.TrimSpace(input.TimeSlot),
		Subject:    strings.TrimSpace(input.Subject),
		TeacherID:  input.TeacherID,
		StudentIDs: normalizeIDs(input.StudentIDs),
		Room:       normalizeOptionalString(input.Room),
		Notes:      normalizeOptionalString(input.Notes),
	}
	vErr := &ValidationError{}
	if input.DayOfWeek == nil {
		vErr.add("day", "day is required")
	} else {
		slot.DayOfWeek = *input.DayOfWeek
	}
	vErr.merge(validateSlot(slot))
	if vErr.HasErrors() {
		return ScheduleSlot{}, vErr
	}

	slot.ID = s.idGenerator()
	slot.CreatedAt = s.now()
	slot.UpdatedAt = slot.CreatedAt
	return slot, nil
}

func validateSlot(slot ScheduleSlot) *ValidationError {
	vErr := &ValidationError{}
	if !calendar.ValidDayOfWeek(slot.DayOfWeek) {
		vErr.add("day", "day must be between 0 and 6")
	}
	if slot.TimeSlot == "" {
		vErr.add("timeSlot", "timeSlot is required")
	}
	if slot.Subject == "" {
		vErr.add("subject", "subject is required")
	}
	if slot.TeacherID <= 0 {
		vErr.add("teacherId", "teacherId is required")
	}
	for _, id := range slot.StudentIDs {
		if id <= 0 {
			vErr.add("studentIds", "studentIds must be positive")
			break
		}
	}
	return vErr
}

func applySlotPatch(slot ScheduleSlot, patch SlotPatch) ScheduleSlot {
	if patch.DayOfWeek != nil {
		slot.DayOfWeek = *patch.DayOfWeek
	}
	if patch.TimeSlot != nil {
		slot.TimeSlot = strings.TrimSpace(*patch.TimeSlot)
	}
	if patch.Subject != nil {
		slot.Subject = strings.TrimSpace(*patch.Subject)
	}
	if patch.TeacherID != nil {
		slot.TeacherID = *patch.TeacherID
	}
	if patch.StudentIDs != nil {
		slot.StudentIDs = normalizeIDs(*patch.StudentIDs)
	}
	if patch.Room != nil {
		slot.Room = normalizeOptionalString(patch.Room)
	}
	if patch.Notes != nil {
		slot.Notes = normalizeOptionalString(patch.Notes)
	}
	return slot
}

func newSlotCell(dayOfWeek int, timeSlot string) (scheduler.Cell, error) {
	cell, err := scheduler.NewCell(dayOfWeek, timeSlot)
	if err != nil {
		vErr := &ValidationError{}
		if !calendar.ValidDayOfWeek(dayOfWeek) {
			vErr.add("day", "day must be between 0 and 6")
		}
		if strings.TrimSpace(timeSlot) == "" {
			vErr.add("timeSlot", "timeSlot is required")
		}
		return scheduler.Cell{}, vErr
	}
	return cell, nil
}

func toOccupant(slot ScheduleSlot) scheduler.Occupant {
	return scheduler.Occupant{
		ID:         slot.ID,
		Cell:       scheduler.Cell{Day: slot.DayOfWeek, TimeSlot: slot.TimeSlot},
		TeacherID:  slot.TeacherID,
		StudentIDs: slot.StudentIDs,
	}
}

// mapSlotRepoError translates repository failures. slot, when given, names the
// cell a uniqueness failure refers to.
func mapSlotRepoError(op string, err error, slot *ScheduleSlot) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, ErrConflict) {
		return err
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		conflict := &SlotConflictError{}
		if slot != nil {
			conflict.DayOfWeek = slot.DayOfWeek
			conflict.TimeSlot = slot.TimeSlot
		}
		return conflict
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("slot", "slot violates a storage constraint")
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// normalizeIDs drops duplicates and sorts ascending.
func normalizeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

func normalizeOptionalString(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
