package sqlite

import (
	"context"
	"fmt"

	"github.com/example/academy-scheduler/internal/persistence"
)

// TimeSlotRepository implements persistence.TimeSlotRepository using SQLite
type TimeSlotRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewTimeSlotRepository creates a new SQLite time slot repository
func NewTimeSlotRepository(pool *ConnectionPool) *TimeSlotRepository {
	return &TimeSlotRepository{pool: pool, mapper: NewErrorMapper()}
}

// ListTimeSlots returns catalog entries ordered by start time.
func (r *TimeSlotRepository) ListTimeSlots(ctx context.Context, activeOnly bool) ([]persistence.TimeSlot, error) {
	query := "SELECT id, slot_name, start_time, end_time, is_active FROM time_slots"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY start_time, slot_name"

	rows, err := r.pool.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []persistence.TimeSlot
	for rows.Next() {
		var slot persistence.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.Name, &slot.StartTime, &slot.EndTime, &slot.IsActive); err != nil {
			return nil, r.mapper.MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return slots, nil
}

// GetTimeSlot retrieves a catalog entry by ID.
func (r *TimeSlotRepository) GetTimeSlot(ctx context.Context, id string) (persistence.TimeSlot, error) {
	var slot persistence.TimeSlot
	err := r.pool.DB().QueryRowContext(ctx,
		"SELECT id, slot_name, start_time, end_time, is_active FROM time_slots WHERE id = ?", id,
	).Scan(&slot.ID, &slot.Name, &slot.StartTime, &slot.EndTime, &slot.IsActive)
	if err != nil {
		return persistence.TimeSlot{}, r.mapper.MapError(err)
	}
	return slot, nil
}

// UpdateTimeSlot rewrites a catalog entry.
func (r *TimeSlotRepository) UpdateTimeSlot(ctx context.Context, slot persistence.TimeSlot) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE time_slots SET slot_name = ?, start_time = ?, end_time = ?, is_active = ?
		WHERE id = ?`,
		slot.Name, slot.StartTime, slot.EndTime, boolToInt(slot.IsActive), slot.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}
