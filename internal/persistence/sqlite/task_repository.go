package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/academy-scheduler/internal/persistence"
)

// TaskRepository implements persistence.TaskRepository using SQLite
type TaskRepository struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
}

// NewTaskRepository creates a new SQLite task repository
func NewTaskRepository(pool *ConnectionPool) *TaskRepository {
	return &TaskRepository{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
	}
}

const taskColumns = `id, title, description, category, priority, status, assignment_mode, assignee_id,
	is_recurring, recurrence_kind, recurrence_weekdays, recurrence_start, recurrence_end,
	target_date, created_by, created_at, updated_at, completed_at`

// CreateTask inserts one task instance. Each call is its own statement so a
// failing instance never rolls back its siblings.
func (r *TaskRepository) CreateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.TargetDate.IsZero() {
		return persistence.ErrConstraintViolation
	}

	args := append([]any{task.ID}, taskValues(task)...)
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx,
			"INSERT INTO tasks ("+taskColumns+") VALUES ("+placeholders(18)+")", args...)
		return err
	})
}

// UpdateTask rewrites every mutable column of a task.
func (r *TaskRepository) UpdateTask(ctx context.Context, task persistence.Task) error {
	if task.ID == "" || task.TargetDate.IsZero() {
		return persistence.ErrConstraintViolation
	}

	args := append(taskValues(task), task.ID)
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `
			UPDATE tasks
			SET title = ?, description = ?, category = ?, priority = ?, status = ?, assignment_mode = ?, assignee_id = ?,
				is_recurring = ?, recurrence_kind = ?, recurrence_weekdays = ?, recurrence_start = ?, recurrence_end = ?,
				target_date = ?, created_by = ?, created_at = ?, updated_at = ?, completed_at = ?
			WHERE id = ?`, args...)
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

// GetTask retrieves a task by ID.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	if id == "" {
		return persistence.Task{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		return persistence.Task{}, r.mapper.MapError(err)
	}
	return task, nil
}

// ListTasks returns tasks ordered by target date, then priority from high to
// low, then creation time.
func (r *TaskRepository) ListTasks(ctx context.Context, filter persistence.TaskFilter) ([]persistence.Task, error) {
	query, args := buildTaskListQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var tasks []persistence.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return tasks, nil
}

// DeleteTask removes one task instance.
func (r *TaskRepository) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
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

func buildTaskListQuery(filter persistence.TaskFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.TargetDate != nil {
		conditions = append(conditions, "target_date = ?")
		args = append(args, filter.TargetDate.String())
	}
	if filter.AssigneeID != nil {
		conditions = append(conditions, "(assignee_id = ? OR assignment_mode IN ('anyone', 'everyone'))")
		args = append(args, *filter.AssigneeID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY target_date,
		CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
		created_at, id`
	return query, args
}

// taskValues returns the column values after id, in taskColumns order.
func taskValues(task persistence.Task) []any {
	var kind, weekdays, start, end sql.NullString
	if task.Recurrence != nil {
		kind = sql.NullString{String: task.Recurrence.Kind, Valid: true}
		weekdays = sql.NullString{String: joinInts(task.Recurrence.Weekdays), Valid: len(task.Recurrence.Weekdays) > 0}
		start = nullDate(&task.Recurrence.StartDate)
		end = nullDate(&task.Recurrence.EndDate)
	}
	return []any{
		task.Title,
		nullString(task.Description),
		task.Category,
		task.Priority,
		task.Status,
		task.AssignmentMode,
		nullInt64(task.AssigneeID),
		boolToInt(task.IsRecurring),
		kind,
		weekdays,
		start,
		end,
		task.TargetDate.String(),
		task.CreatedBy,
		formatTimestamp(task.CreatedAt),
		formatTimestamp(task.UpdatedAt),
		nullTime(task.CompletedAt),
	}
}

func scanTask(row rowScanner) (persistence.Task, error) {
	var task persistence.Task
	var description, kind, weekdays, start, end, completedAt sql.NullString
	var assigneeID sql.NullInt64
	var targetDate, createdAtStr, updatedAtStr string

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&description,
		&task.Category,
		&task.Priority,
		&task.Status,
		&task.AssignmentMode,
		&assigneeID,
		&task.IsRecurring,
		&kind,
		&weekdays,
		&start,
		&end,
		&targetDate,
		&task.CreatedBy,
		&createdAtStr,
		&updatedAtStr,
		&completedAt,
	); err != nil {
		return persistence.Task{}, err
	}

	task.Description = stringPtr(description)
	task.AssigneeID = int64Ptr(assigneeID)

	var err error
	if task.TargetDate, err = parseDateColumn("target_date", targetDate); err != nil {
		return persistence.Task{}, err
	}
	if task.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.Task{}, err
	}
	if task.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.Task{}, err
	}
	if completedAt.Valid {
		t, err := parseTimestamp("completed_at", completedAt.String)
		if err != nil {
			return persistence.Task{}, err
		}
		task.CompletedAt = &t
	}

	if kind.Valid {
		rec := &persistence.TaskRecurrence{Kind: kind.String}
		if rec.Weekdays, err = splitInts(weekdays.String); err != nil {
			return persistence.Task{}, err
		}
		if start.Valid {
			if rec.StartDate, err = parseDateColumn("recurrence_start", start.String); err != nil {
				return persistence.Task{}, err
			}
		}
		if end.Valid {
			if rec.EndDate, err = parseDateColumn("recurrence_end", end.String); err != nil {
				return persistence.Task{}, err
			}
		}
		task.Recurrence = rec
	}
	return task, nil
}
