package persistence

import (
	"context"

	"github.com/example/academy-scheduler/internal/calendar"
)

// SlotFilter narrows slot queries. Nil fields are ignored.
type SlotFilter struct {
	DayOfWeek *int
	TeacherID *int64
	StudentID *int64
}

// SlotRepository stores weekly bookings and their students.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot ScheduleSlot) error
	UpdateSlot(ctx context.Context, slot ScheduleSlot) error
	GetSlot(ctx context.Context, id string) (ScheduleSlot, error)
	FindSlotByCell(ctx context.Context, dayOfWeek int, timeSlot string) (ScheduleSlot, error)
	ListSlots(ctx context.Context, filter SlotFilter) ([]ScheduleSlot, error)
	DeleteSlot(ctx context.Context, id string) error
}

// TimeSlotRepository exposes the period catalog.
type TimeSlotRepository interface {
	ListTimeSlots(ctx context.Context, activeOnly bool) ([]TimeSlot, error)
	GetTimeSlot(ctx context.Context, id string) (TimeSlot, error)
	UpdateTimeSlot(ctx context.Context, slot TimeSlot) error
}

// TaskFilter narrows task queries. AssigneeID also matches tasks open to anyone or everyone.
type TaskFilter struct {
	TargetDate *calendar.Date
	AssigneeID *int64
	Status     *string
}

// TaskRepository stores task instances.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	UpdateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// EventOrder selects the ordering of event queries.
type EventOrder int

const (
	// EventOrderStartAsc orders by start date and time, earliest first.
	EventOrderStartAsc EventOrder = iota
	// EventOrderStartDesc orders by start date, newest first.
	EventOrderStartDesc
)

// Calendar scopes as stored.
const (
	ScopeShared   = "shared"
	ScopePersonal = "personal"
)

// EventFilter narrows event queries. ScopePersonal is restricted to OwnerID and
// ScopeShared never filters by owner. An empty Scope returns everything visible
// to OwnerID: shared events plus the owner's personal ones.
type EventFilter struct {
	Scope   string
	OwnerID int64
	// Overlapping keeps events whose occupied days intersect the range.
	Overlapping *calendar.Range
	// StartingWithin keeps events whose start date falls inside the range.
	StartingWithin *calendar.Range
	// Term is matched case-insensitively against title, description, category and location.
	Term  string
	Order EventOrder
	Limit int
}

// EventRepository stores calendar events.
type EventRepository interface {
	CreateEvent(ctx context.Context, event CalendarEvent) error
	UpdateEvent(ctx context.Context, event CalendarEvent) error
	GetEvent(ctx context.Context, id string) (CalendarEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]CalendarEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}
