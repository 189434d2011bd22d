package persistence

import (
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
)

// ScheduleSlot is a weekly class booking occupying one grid cell.
type ScheduleSlot struct {
	ID         string
	DayOfWeek  int
	TimeSlot   string
	Subject    string
	TeacherID  int64
	StudentIDs []int64
	Room       *string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TimeSlot is a catalog entry naming one period of the teaching day.
type TimeSlot struct {
	ID        string
	Name      string
	StartTime string
	EndTime   string
	IsActive  bool
}

// TaskRecurrence is the rule a recurring task instance was materialized from.
type TaskRecurrence struct {
	Kind      string
	Weekdays  []int
	StartDate calendar.Date
	EndDate   calendar.Date
}

// Task is one dated task instance.
type Task struct {
	ID             string
	Title          string
	Description    *string
	Category       string
	Priority       string
	Status         string
	AssignmentMode string
	AssigneeID     *int64
	IsRecurring    bool
	Recurrence     *TaskRecurrence
	TargetDate     calendar.Date
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// CalendarEvent is a calendar entry that may span several days.
type CalendarEvent struct {
	ID          string
	Title       string
	Description *string
	StartDate   calendar.Date
	EndDate     *calendar.Date
	StartTime   *string
	EndTime     *string
	IsAllDay    bool
	IsHoliday   bool
	Color       string
	Category    string
	Location    *string
	Scope       string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
