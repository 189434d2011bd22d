package application

import (
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
)

// Role is the staff position of an authenticated user.
type Role string

const (
	RoleDirector     Role = "director"
	RoleViceDirector Role = "vice_director"
	RoleTeacher      Role = "teacher"
	RoleStaff        Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDirector, RoleViceDirector, RoleTeacher, RoleStaff:
		return true
	}
	return false
}

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID int64
	Name   string
	Role   Role
}

// CanWriteSlots reports whether the principal may book or move weekly slots.
func (p Principal) CanWriteSlots() bool {
	return p.Role == RoleDirector || p.Role == RoleViceDirector || p.Role == RoleTeacher
}

// CanManage reports whether the principal holds a management role. Managers
// delete slots, read grid statistics and edit the time-slot catalog.
func (p Principal) CanManage() bool {
	return p.Role == RoleDirector || p.Role == RoleViceDirector
}

// ----------------------------- Slots -----------------------------

// ScheduleSlot is a recurring weekly class booking.
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

// SlotInput captures caller provided slot fields. DayOfWeek is nil when the
// caller omitted it.
type SlotInput struct {
	DayOfWeek  *int
	TimeSlot   string
	Subject    string
	TeacherID  int64
	StudentIDs []int64
	Room       *string
	Notes      *string
}

// SlotPatch carries a partial slot update. Nil fields are left unchanged; an
// empty Room or Notes clears the value.
type SlotPatch struct {
	DayOfWeek  *int
	TimeSlot   *string
	Subject    *string
	TeacherID  *int64
	StudentIDs *[]int64
	Room       *string
	Notes      *string
}

// SlotFilter narrows slot listings. With no field set the whole grid is returned.
type SlotFilter struct {
	DayOfWeek *int
	TeacherID *int64
	StudentID *int64
}

// AssignResult is the outcome of a quick assign.
type AssignResult struct {
	Slot     ScheduleSlot
	Replaced bool
}

// BulkAssignResult summarizes a batch quick assign.
type BulkAssignResult struct {
	Slots    []ScheduleSlot
	Created  int
	Replaced int
}

// DayStats aggregates one weekday of the grid.
type DayStats struct {
	DayOfWeek int
	Slots     int
	Teachers  int
	Students  int
}

// TimeSlot is a named period of the teaching day.
type TimeSlot struct {
	ID        string
	Name      string
	StartTime string
	EndTime   string
	IsActive  bool
}

// TimeSlotPatch carries a partial catalog update.
type TimeSlotPatch struct {
	Name      *string
	StartTime *string
	EndTime   *string
	IsActive  *bool
}

// ----------------------------- Tasks -----------------------------

// TaskStatus is the progress state of a task instance.
type TaskStatus string

const (
	TaskIncomplete TaskStatus = "incomplete"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskHeld       TaskStatus = "held"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskIncomplete, TaskInProgress, TaskDone, TaskHeld:
		return true
	}
	return false
}

// TaskPriority orders tasks within a day.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// AssignmentMode says who is expected to pick up a task.
type AssignmentMode string

const (
	AssignAnyone   AssignmentMode = "anyone"
	AssignEveryone AssignmentMode = "everyone"
	AssignSpecific AssignmentMode = "specific"
)

// Valid reports whether m is a known mode.
func (m AssignmentMode) Valid() bool {
	return m == AssignAnyone || m == AssignEveryone || m == AssignSpecific
}

const (
	// DefaultTaskCategory is applied when a task has no category.
	DefaultTaskCategory = "일반"
	// FixedTaskCategory is applied to standing tasks without a category.
	FixedTaskCategory = "고정업무"
	// PreviewLimit bounds the instances returned from a bulk creation.
	PreviewLimit = 10
)

// TaskRecurrence records the rule a task instance was materialized from.
type TaskRecurrence struct {
	Kind      string
	Weekdays  []time.Weekday
	StartDate calendar.Date
	EndDate   calendar.Date
}

// Task is one dated task instance.
type Task struct {
	ID             string
	Title          string
	Description    *string
	Category       string
	Priority       TaskPriority
	Status         TaskStatus
	AssignmentMode AssignmentMode
	AssigneeID     *int64
	IsRecurring    bool
	Recurrence     *TaskRecurrence
	TargetDate     calendar.Date
	CreatedBy      int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// TaskInput is the template of a task. Empty enum fields take their defaults.
type TaskInput struct {
	Title          string
	Description    *string
	Category       string
	Priority       TaskPriority
	Status         TaskStatus
	AssignmentMode AssignmentMode
	AssigneeID     *int64
	TargetDate     calendar.Date
}

// RecurringTaskInput pairs a template with a recurrence rule. Kind and Weekdays
// accept English and Korean names.
type RecurringTaskInput struct {
	Template  TaskInput
	Kind      string
	Weekdays  []string
	StartDate calendar.Date
	EndDate   *calendar.Date
}

// TaskPatch carries a partial task update.
type TaskPatch struct {
	Title          *string
	Description    *string
	Category       *string
	Priority       *TaskPriority
	Status         *TaskStatus
	AssignmentMode *AssignmentMode
	AssigneeID     *int64
	TargetDate     *calendar.Date
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	TargetDate *calendar.Date
	AssigneeID *int64
	Status     *TaskStatus
}

// MaterializeResult is the caller-visible outcome of a bulk task creation.
type MaterializeResult struct {
	CreatedCount int
	FailedCount  int
	Preview      []Task
}

// ----------------------------- Events -----------------------------

// Scope is the visibility class of a calendar event.
type Scope string

const (
	ScopeShared   Scope = "shared"
	ScopePersonal Scope = "personal"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeShared || s == ScopePersonal
}

const (
	DefaultEventColor    = "#3B82F6"
	DefaultEventCategory = "중요"
	// SearchLimit caps search results.
	SearchLimit = 50
	// UpcomingLimit caps each half of the upcoming listing.
	UpcomingLimit = 5
	// DefaultUpcomingDays is the upcoming horizon when none is given.
	DefaultUpcomingDays = 7
)

// CalendarEvent is a possibly multi-day, possibly timed calendar entry.
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
	Scope       Scope
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Occupies returns the closed range of days the event covers.
func (e CalendarEvent) Occupies() calendar.Range {
	return calendar.Occupied(e.StartDate, e.EndDate)
}

// EventInput captures caller provided event fields.
type EventInput struct {
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
	Scope       Scope
}

// EventPatch carries a partial event update. ClearEndDate turns a ranged event
// back into a point event.
type EventPatch struct {
	Title        *string
	Description  *string
	StartDate    *calendar.Date
	EndDate      *calendar.Date
	ClearEndDate bool
	StartTime    *string
	EndTime      *string
	IsAllDay     *bool
	IsHoliday    *bool
	Color        *string
	Category     *string
	Location     *string
	Scope        *Scope
}

// EventOrder selects the ordering of an event query.
type EventOrder int

const (
	OrderStartAsc EventOrder = iota
	OrderStartDesc
)

// EventQuery is the repository-level event filter. An empty Scope selects
// everything visible to OwnerID.
type EventQuery struct {
	Scope          Scope
	OwnerID        int64
	Overlapping    *calendar.Range
	StartingWithin *calendar.Range
	Term           string
	Order          EventOrder
	Limit          int
}

// UpcomingEvents splits the upcoming listing by scope.
type UpcomingEvents struct {
	Shared   []CalendarEvent
	Personal []CalendarEvent
}
