package testfixtures

import (
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/persistence"
)

var (
	slotCounter  uint64
	taskCounter  uint64
	eventCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate is the calendar date of ReferenceTime.
func ReferenceDate() calendar.Date {
	return calendar.FromTime(referenceTime)
}

// DiscardLogger returns a logger that drops every record.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stringPtr(v string) *string { return &v }

// ----------------------------- Slot fixtures -----------------------------

// SlotFixture is a deterministic weekly booking.
type SlotFixture struct {
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

// SlotOption configures a slot fixture.
type SlotOption func(*SlotFixture)

// NewSlotFixture returns a Monday 14:00 booking unless overridden.
func NewSlotFixture(opts ...SlotOption) SlotFixture {
	idx := atomic.AddUint64(&slotCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SlotFixture{
		ID:         fmt.Sprintf("slot-%03d", idx),
		DayOfWeek:  1,
		TimeSlot:   "14:00-15:00",
		Subject:    fmt.Sprintf("Subject %03d", idx),
		TeacherID:  10,
		StudentIDs: []int64{100, 101},
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSlotID overrides the generated slot ID.
func WithSlotID(id string) SlotOption {
	return func(f *SlotFixture) { f.ID = id }
}

// WithSlotCell places the booking in a grid cell.
func WithSlotCell(day int, timeSlot string) SlotOption {
	return func(f *SlotFixture) {
		f.DayOfWeek = day
		f.TimeSlot = timeSlot
	}
}

// WithSlotSubject overrides the subject.
func WithSlotSubject(subject string) SlotOption {
	return func(f *SlotFixture) { f.Subject = subject }
}

// WithSlotTeacher overrides the teacher.
func WithSlotTeacher(id int64) SlotOption {
	return func(f *SlotFixture) { f.TeacherID = id }
}

// WithSlotStudents replaces the enrolled students.
func WithSlotStudents(ids ...int64) SlotOption {
	return func(f *SlotFixture) { f.StudentIDs = ids }
}

// WithSlotRoom sets the room.
func WithSlotRoom(room string) SlotOption {
	return func(f *SlotFixture) { f.Room = stringPtr(room) }
}

// Application returns the fixture as an application.ScheduleSlot.
func (f SlotFixture) Application() application.ScheduleSlot {
	return application.ScheduleSlot{
		ID:         f.ID,
		DayOfWeek:  f.DayOfWeek,
		TimeSlot:   f.TimeSlot,
		Subject:    f.Subject,
		TeacherID:  f.TeacherID,
		StudentIDs: append([]int64(nil), f.StudentIDs...),
		Room:       f.Room,
		Notes:      f.Notes,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.ScheduleSlot.
func (f SlotFixture) Persistence() persistence.ScheduleSlot {
	return persistence.ScheduleSlot{
		ID:         f.ID,
		DayOfWeek:  f.DayOfWeek,
		TimeSlot:   f.TimeSlot,
		Subject:    f.Subject,
		TeacherID:  f.TeacherID,
		StudentIDs: append([]int64(nil), f.StudentIDs...),
		Room:       f.Room,
		Notes:      f.Notes,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
}

// Input returns the fixture as create input.
func (f SlotFixture) Input() application.SlotInput {
	day := f.DayOfWeek
	return application.SlotInput{
		DayOfWeek:  &day,
		TimeSlot:   f.TimeSlot,
		Subject:    f.Subject,
		TeacherID:  f.TeacherID,
		StudentIDs: append([]int64(nil), f.StudentIDs...),
		Room:       f.Room,
		Notes:      f.Notes,
	}
}

// ----------------------------- Task fixtures -----------------------------

// TaskFixture is a deterministic dated task.
type TaskFixture struct {
	ID             string
	Title          string
	Category       string
	Priority       string
	Status         string
	AssignmentMode string
	AssigneeID     *int64
	TargetDate     calendar.Date
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// TaskOption configures a task fixture.
type TaskOption func(*TaskFixture)

// NewTaskFixture returns an incomplete medium-priority task due on ReferenceDate.
func NewTaskFixture(opts ...TaskOption) TaskFixture {
	idx := atomic.AddUint64(&taskCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TaskFixture{
		ID:             fmt.Sprintf("task-%03d", idx),
		Title:          fmt.Sprintf("Task %03d", idx),
		Category:       application.DefaultTaskCategory,
		Priority:       string(application.PriorityMedium),
		Status:         string(application.TaskIncomplete),
		AssignmentMode: string(application.AssignAnyone),
		TargetDate:     ReferenceDate(),
		CreatedBy:      1,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTaskID overrides the generated task ID.
func WithTaskID(id string) TaskOption {
	return func(f *TaskFixture) { f.ID = id }
}

// WithTaskTitle overrides the title.
func WithTaskTitle(title string) TaskOption {
	return func(f *TaskFixture) { f.Title = title }
}

// WithTaskTargetDate moves the task to date, given as YYYY-MM-DD.
func WithTaskTargetDate(date string) TaskOption {
	return func(f *TaskFixture) { f.TargetDate = calendar.MustParseDate(date) }
}

// WithTaskPriority overrides the priority.
func WithTaskPriority(priority application.TaskPriority) TaskOption {
	return func(f *TaskFixture) { f.Priority = string(priority) }
}

// WithTaskAssignee assigns the task to one user.
func WithTaskAssignee(id int64) TaskOption {
	return func(f *TaskFixture) {
		f.AssignmentMode = string(application.AssignSpecific)
		f.AssigneeID = &id
	}
}

// WithTaskDone marks the task done at the given instant.
func WithTaskDone(at time.Time) TaskOption {
	return func(f *TaskFixture) {
		f.Status = string(application.TaskDone)
		f.CompletedAt = &at
	}
}

// WithTaskCreatedAt overrides both timestamps.
func WithTaskCreatedAt(t time.Time) TaskOption {
	return func(f *TaskFixture) {
		f.CreatedAt = t
		f.UpdatedAt = t
	}
}

// Application returns the fixture as an application.Task.
func (f TaskFixture) Application() application.Task {
	return application.Task{
		ID:             f.ID,
		Title:          f.Title,
		Category:       f.Category,
		Priority:       application.TaskPriority(f.Priority),
		Status:         application.TaskStatus(f.Status),
		AssignmentMode: application.AssignmentMode(f.AssignmentMode),
		AssigneeID:     f.AssigneeID,
		TargetDate:     f.TargetDate,
		CreatedBy:      f.CreatedBy,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
		CompletedAt:    f.CompletedAt,
	}
}

// Persistence returns the fixture as a persistence.Task.
func (f TaskFixture) Persistence() persistence.Task {
	return persistence.Task{
		ID:             f.ID,
		Title:          f.Title,
		Category:       f.Category,
		Priority:       f.Priority,
		Status:         f.Status,
		AssignmentMode: f.AssignmentMode,
		AssigneeID:     f.AssigneeID,
		TargetDate:     f.TargetDate,
		CreatedBy:      f.CreatedBy,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
		CompletedAt:    f.CompletedAt,
	}
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture is a deterministic calendar event.
type EventFixture struct {
	ID        string
	Title     string
	StartDate calendar.Date
	EndDate   *calendar.Date
	StartTime *string
	EndTime   *string
	IsAllDay  bool
	Category  string
	Location  *string
	Scope     string
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// EventOption configures an event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a shared point event on ReferenceDate.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%03d", idx),
		Title:     fmt.Sprintf("Event %03d", idx),
		StartDate: ReferenceDate(),
		Category:  application.DefaultEventCategory,
		Scope:     persistence.ScopeShared,
		CreatedBy: 1,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) { f.ID = id }
}

// WithEventTitle overrides the title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) { f.Title = title }
}

// WithEventDates sets the start and, when end is non-empty, the end date.
func WithEventDates(start, end string) EventOption {
	return func(f *EventFixture) {
		f.StartDate = calendar.MustParseDate(start)
		f.EndDate = nil
		if end != "" {
			d := calendar.MustParseDate(end)
			f.EndDate = &d
		}
	}
}

// WithEventTimes sets wall-clock start and end times.
func WithEventTimes(start, end string) EventOption {
	return func(f *EventFixture) {
		f.IsAllDay = false
		f.StartTime = stringPtr(start)
		f.EndTime = stringPtr(end)
	}
}

// WithEventAllDay marks the event all-day and drops its times.
func WithEventAllDay() EventOption {
	return func(f *EventFixture) {
		f.IsAllDay = true
		f.StartTime = nil
		f.EndTime = nil
	}
}

// WithEventLocation sets the location.
func WithEventLocation(location string) EventOption {
	return func(f *EventFixture) { f.Location = stringPtr(location) }
}

// WithEventPersonal makes the event personal to owner.
func WithEventPersonal(owner int64) EventOption {
	return func(f *EventFixture) {
		f.Scope = persistence.ScopePersonal
		f.CreatedBy = owner
	}
}

// Application returns the fixture as an application.CalendarEvent.
func (f EventFixture) Application() application.CalendarEvent {
	return application.CalendarEvent{
		ID:        f.ID,
		Title:     f.Title,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		IsAllDay:  f.IsAllDay,
		Color:     application.DefaultEventColor,
		Category:  f.Category,
		Location:  f.Location,
		Scope:     application.Scope(f.Scope),
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.CalendarEvent.
func (f EventFixture) Persistence() persistence.CalendarEvent {
	return persistence.CalendarEvent{
		ID:        f.ID,
		Title:     f.Title,
		StartDate: f.StartDate,
		EndDate:   f.EndDate,
		StartTime: f.StartTime,
		EndTime:   f.EndTime,
		IsAllDay:  f.IsAllDay,
		Color:     application.DefaultEventColor,
		Category:  f.Category,
		Location:  f.Location,
		Scope:     f.Scope,
		CreatedBy: f.CreatedBy,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// ----------------------------- Principals -----------------------------

// Director returns a principal allowed to manage the grid and catalog.
func Director() application.Principal {
	return application.Principal{UserID: 1, Name: "Director", Role: application.RoleDirector}
}

// Teacher returns a principal allowed to write slots but not delete them.
func Teacher() application.Principal {
	return application.Principal{UserID: 2, Name: "Teacher", Role: application.RoleTeacher}
}

// Staff returns a principal with read access to the grid.
func Staff() application.Principal {
	return application.Principal{UserID: 3, Name: "Staff", Role: application.RoleStaff}
}
