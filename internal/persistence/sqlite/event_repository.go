package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/academy-scheduler/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite
type EventRepository struct {
	pool   *ConnectionPool
	retry  *RetryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite calendar event repository
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		retry:  NewRetryHelper(DefaultRetryConfig()),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = `id, title, description, start_date, end_date, start_time, end_time, is_all_day, is_holiday,
	color, category, location, calendar_type, created_by, created_at, updated_at`

// CreateEvent inserts a calendar event.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	if event.ID == "" || event.StartDate.IsZero() {
		return persistence.ErrConstraintViolation
	}

	args := append([]any{event.ID}, eventValues(event)...)
	return r.retry.WithRetry(ctx, func() error {
		_, err := r.pool.DB().ExecContext(ctx,
			"INSERT INTO calendar_events ("+eventColumns+") VALUES ("+placeholders(16)+")", args...)
		return err
	})
}

// UpdateEvent rewrites every mutable column of an event.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.CalendarEvent) error {
	if event.ID == "" || event.StartDate.IsZero() {
		return persistence.ErrConstraintViolation
	}

	args := append(eventValues(event), event.ID)
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, `
			UPDATE calendar_events
			SET title = ?, description = ?, start_date = ?, end_date = ?, start_time = ?, end_time = ?,
				is_all_day = ?, is_holiday = ?, color = ?, category = ?, location = ?, calendar_type = ?,
				created_by = ?, created_at = ?, updated_at = ?
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

// GetEvent retrieves an event by ID regardless of scope.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.CalendarEvent, error) {
	if id == "" {
		return persistence.CalendarEvent{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, "SELECT "+eventColumns+" FROM calendar_events WHERE id = ?", id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.CalendarEvent{}, r.mapper.MapError(err)
	}
	return event, nil
}

// ListEvents runs a scoped overlap, window or search query.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.CalendarEvent, error) {
	query, args := buildEventListQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.CalendarEvent
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return events, nil
}

// DeleteEvent removes an event.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}
	return r.retry.WithRetry(ctx, func() error {
		result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM calendar_events WHERE id = ?", id)
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

func buildEventListQuery(filter persistence.EventFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	switch filter.Scope {
	case persistence.ScopePersonal:
		conditions = append(conditions, "calendar_type = 'personal' AND created_by = ?")
		args = append(args, filter.OwnerID)
	case persistence.ScopeShared:
		conditions = append(conditions, "calendar_type = 'shared'")
	default:
		conditions = append(conditions, "(calendar_type = 'shared' OR created_by = ?)")
		args = append(args, filter.OwnerID)
	}

	// An event occupies [start_date, COALESCE(end_date, start_date)].
	if rng := filter.Overlapping; rng != nil {
		conditions = append(conditions, "start_date <= ? AND COALESCE(end_date, start_date) >= ?")
		args = append(args, rng.End.String(), rng.Start.String())
	}
	if rng := filter.StartingWithin; rng != nil {
		conditions = append(conditions, "start_date BETWEEN ? AND ?")
		args = append(args, rng.Start.String(), rng.End.String())
	}
	if term := strings.TrimSpace(filter.Term); term != "" {
		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		conditions = append(conditions, `(LOWER(title) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\'
			OR LOWER(category) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(location, '')) LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern, pattern, pattern)
	}

	query := "SELECT " + eventColumns + " FROM calendar_events WHERE " + strings.Join(conditions, " AND ")
	switch filter.Order {
	case persistence.EventOrderStartDesc:
		query += " ORDER BY start_date DESC, COALESCE(start_time, '') DESC, created_at DESC, id"
	default:
		query += " ORDER BY start_date, is_all_day DESC, COALESCE(start_time, ''), created_at, id"
	}
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	return query, args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// eventValues returns the column values after id, in eventColumns order.
func eventValues(event persistence.CalendarEvent) []any {
	return []any{
		event.Title,
		nullString(event.Description),
		event.StartDate.String(),
		nullDate(event.EndDate),
		nullString(event.StartTime),
		nullString(event.EndTime),
		boolToInt(event.IsAllDay),
		boolToInt(event.IsHoliday),
		event.Color,
		event.Category,
		nullString(event.Location),
		event.Scope,
		event.CreatedBy,
		formatTimestamp(event.CreatedAt),
		formatTimestamp(event.UpdatedAt),
	}
}

func scanEvent(row rowScanner) (persistence.CalendarEvent, error) {
	var event persistence.CalendarEvent
	var description, endDate, startTime, endTime, location sql.NullString
	var startDate, createdAtStr, updatedAtStr string

	if err := row.Scan(
		&event.ID,
		&event.Title,
		&description,
		&startDate,
		&endDate,
		&startTime,
		&endTime,
		&event.IsAllDay,
		&event.IsHoliday,
		&event.Color,
		&event.Category,
		&location,
		&event.Scope,
		&event.CreatedBy,
		&createdAtStr,
		&updatedAtStr,
	); err != nil {
		return persistence.CalendarEvent{}, err
	}

	event.Description = stringPtr(description)
	event.StartTime = stringPtr(startTime)
	event.EndTime = stringPtr(endTime)
	event.Location = stringPtr(location)

	var err error
	if event.StartDate, err = parseDateColumn("start_date", startDate); err != nil {
		return persistence.CalendarEvent{}, err
	}
	if endDate.Valid {
		end, err := parseDateColumn("end_date", endDate.String)
		if err != nil {
			return persistence.CalendarEvent{}, err
		}
		event.EndDate = &end
	}
	if event.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.CalendarEvent{}, err
	}
	if event.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.CalendarEvent{}, err
	}
	return event, nil
}
