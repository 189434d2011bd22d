package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/academy-scheduler/internal/persistence"
)

// SlotRepository implements persistence.SlotRepository using SQLite. The
// UNIQUE(day_of_week, time_slot) constraint is the authority on cell exclusivity;
// a second booking of an occupied cell fails with persistence.ErrDuplicate.
type SlotRepository struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
}

// NewSlotRepository creates a new SQLite slot repository
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
	}
}

const slotColumns = `id, day_of_week, time_slot, subject, teacher_id, room, notes, created_at, updated_at`

// CreateSlot inserts a booking and its students in one transaction.
func (r *SlotRepository) CreateSlot(ctx context.Context, slot persistence.ScheduleSlot) error {
	if slot.ID == "" || slot.TimeSlot == "" {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO schedule_slots (`+slotColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				slot.ID,
				slot.DayOfWeek,
				slot.TimeSlot,
				slot.Subject,
				slot.TeacherID,
				nullString(slot.Room),
				nullString(slot.Notes),
				formatTimestamp(slot.CreatedAt),
				formatTimestamp(slot.UpdatedAt),
			)
			if err != nil {
				return err
			}
			return insertStudents(ctx, tx, slot.ID, slot.StudentIDs)
		})
	})
}

// UpdateSlot rewrites every column except created_at and replaces the student set.
func (r *SlotRepository) UpdateSlot(ctx context.Context, slot persistence.ScheduleSlot) error {
	if slot.ID == "" || slot.TimeSlot == "" {
		return persistence.ErrConstraintViolation
	}

	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			result, err := tx.ExecContext(ctx, `
				UPDATE schedule_slots
				SET day_of_week = ?, time_slot = ?, subject = ?, teacher_id = ?, room = ?, notes = ?, updated_at = ?
				WHERE id = ?`,
				slot.DayOfWeek,
				slot.TimeSlot,
				slot.Subject,
				slot.TeacherID,
				nullString(slot.Room),
				nullString(slot.Notes),
				formatTimestamp(slot.UpdatedAt),
				slot.ID,
			)
			if err != nil {
				return err
			}
			rowsAffected, err := result.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to get rows affected: %w", err)
			}
			if rowsAffected == 0 {
				return persistence.ErrNotFound
			}

			if _, err := tx.ExecContext(ctx, "DELETE FROM schedule_slot_students WHERE slot_id = ?", slot.ID); err != nil {
				return err
			}
			return insertStudents(ctx, tx, slot.ID, slot.StudentIDs)
		})
	})
}

// GetSlot retrieves a booking by ID.
func (r *SlotRepository) GetSlot(ctx context.Context, id string) (persistence.ScheduleSlot, error) {
	if id == "" {
		return persistence.ScheduleSlot{}, persistence.ErrNotFound
	}
	return r.getOne(ctx, "WHERE id = ?", id)
}

// FindSlotByCell returns the occupant of a grid cell or persistence.ErrNotFound.
func (r *SlotRepository) FindSlotByCell(ctx context.Context, dayOfWeek int, timeSlot string) (persistence.ScheduleSlot, error) {
	return r.getOne(ctx, "WHERE day_of_week = ? AND time_slot = ?", dayOfWeek, timeSlot)
}

func (r *SlotRepository) getOne(ctx context.Context, where string, args ...any) (persistence.ScheduleSlot, error) {
	row := r.pool.DB().QueryRowContext(ctx, "SELECT "+slotColumns+" FROM schedule_slots "+where, args...)
	slot, err := scanSlot(row)
	if err != nil {
		return persistence.ScheduleSlot{}, r.mapper.MapError(err)
	}

	students, err := loadStudents(ctx, r.pool.DB(), []string{slot.ID})
	if err != nil {
		return persistence.ScheduleSlot{}, r.mapper.MapError(err)
	}
	slot.StudentIDs = students[slot.ID]
	return slot, nil
}

// ListSlots returns bookings ordered by day of week and time slot label.
func (r *SlotRepository) ListSlots(ctx context.Context, filter persistence.SlotFilter) ([]persistence.ScheduleSlot, error) {
	query, args := buildSlotListQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []persistence.ScheduleSlot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	if len(slots) == 0 {
		return slots, nil
	}

	ids := make([]string, len(slots))
	for i, slot := range slots {
		ids[i] = slot.ID
	}
	students, err := loadStudents(ctx, r.pool.DB(), ids)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	for i := range slots {
		slots[i].StudentIDs = students[slots[i].ID]
	}
	return slots, nil
}

// DeleteSlot removes a booking; its students cascade.
func (r *SlotRepository) DeleteSlot(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM schedule_slots WHERE id = ?", id)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}
		return nil
	})
}

func buildSlotListQuery(filter persistence.SlotFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.DayOfWeek != nil {
		conditions = append(conditions, "day_of_week = ?")
		args = append(args, *filter.DayOfWeek)
	}
	if filter.TeacherID != nil {
		conditions = append(conditions, "teacher_id = ?")
		args = append(args, *filter.TeacherID)
	}
	if filter.StudentID != nil {
		conditions = append(conditions, "id IN (SELECT slot_id FROM schedule_slot_students WHERE student_id = ?)")
		args = append(args, *filter.StudentID)
	}

	query := "SELECT " + slotColumns + " FROM schedule_slots"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY day_of_week, time_slot"
	return query, args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSlot(row rowScanner) (persistence.ScheduleSlot, error) {
	var slot persistence.ScheduleSlot
	var room, notes sql.NullString
	var createdAtStr, updatedAtStr string
	if err := row.Scan(
		&slot.ID,
		&slot.DayOfWeek,
		&slot.TimeSlot,
		&slot.Subject,
		&slot.TeacherID,
		&room,
		&notes,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.ScheduleSlot{}, err
	}

	slot.Room = stringPtr(room)
	slot.Notes = stringPtr(notes)

	var err error
	if slot.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.ScheduleSlot{}, err
	}
	if slot.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.ScheduleSlot{}, err
	}
	return slot, nil
}

func insertStudents(ctx context.Context, tx *sql.Tx, slotID string, studentIDs []int64) error {
	if len(studentIDs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO schedule_slot_students (slot_id, student_id) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, studentID := range studentIDs {
		if _, err := stmt.ExecContext(ctx, slotID, studentID); err != nil {
			return err
		}
	}
	return nil
}

// loadStudents returns the student ids of each slot, ascending.
func loadStudents(ctx context.Context, q queryer, slotIDs []string) (map[string][]int64, error) {
	args := make([]any, len(slotIDs))
	for i, id := range slotIDs {
		args[i] = id
	}
	rows, err := q.QueryContext(ctx, `
		SELECT slot_id, student_id FROM schedule_slot_students
		WHERE slot_id IN (`+placeholders(len(slotIDs))+`)
		ORDER BY slot_id, student_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make(map[string][]int64, len(slotIDs))
	for rows.Next() {
		var (
			slotID    string
			studentID int64
		)
		if err := rows.Scan(&slotID, &studentID); err != nil {
			return nil, err
		}
		students[slotID] = append(students[slotID], studentID)
	}
	return students, rows.Err()
}
