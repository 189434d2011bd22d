package http

import (
	"strings"
	"time"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

// ----------------------------- Slots -----------------------------

type slotDTO struct {
	ID         string    `json:"id"`
	Day        int       `json:"day"`
	DayName    string    `json:"dayName"`
	TimeSlot   string    `json:"timeSlot"`
	Subject    string    `json:"subject"`
	TeacherID  int64     `json:"teacherId"`
	StudentIDs []int64   `json:"studentIds"`
	Room       *string   `json:"room,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type slotRequest struct {
	Day        *int    `json:"day" validate:"required,min=0,max=6"`
	TimeSlot   string  `json:"timeSlot" validate:"required,max=32"`
	Subject    string  `json:"subject" validate:"required,max=100"`
	TeacherID  int64   `json:"teacherId" validate:"required,gt=0"`
	StudentIDs []int64 `json:"studentIds" validate:"omitempty,dive,gt=0"`
	Room       *string `json:"room" validate:"omitempty,max=50"`
	Notes      *string `json:"notes" validate:"omitempty,max=500"`
}

type assignBatchRequest struct {
	Slots []slotRequest `json:"slots" validate:"required,min=1,dive"`
}

type slotPatchRequest struct {
	Day        *int     `json:"day" validate:"omitempty,min=0,max=6"`
	TimeSlot   *string  `json:"timeSlot" validate:"omitempty,max=32"`
	Subject    *string  `json:"subject" validate:"omitempty,max=100"`
	TeacherID  *int64   `json:"teacherId" validate:"omitempty,gt=0"`
	StudentIDs *[]int64 `json:"studentIds"`
	Room       *string  `json:"room" validate:"omitempty,max=50"`
	Notes      *string  `json:"notes" validate:"omitempty,max=500"`
}

type assignResponse struct {
	Slot     slotDTO `json:"slot"`
	Replaced bool    `json:"replaced"`
}

type bulkAssignResponse struct {
	Slots    []slotDTO `json:"slots"`
	Created  int       `json:"created"`
	Replaced int       `json:"replaced"`
}

type conflictResponse struct {
	Conflict bool     `json:"conflict"`
	Slot     *slotDTO `json:"slot,omitempty"`
}

type dayStatsDTO struct {
	Day      int    `json:"day"`
	DayName  string `json:"dayName"`
	Slots    int    `json:"slots"`
	Teachers int    `json:"teachers"`
	Students int    `json:"students"`
}

func (r slotRequest) toInput() application.SlotInput {
	return application.SlotInput{
		DayOfWeek:  r.Day,
		TimeSlot:   r.TimeSlot,
		Subject:    r.Subject,
		TeacherID:  r.TeacherID,
		StudentIDs: r.StudentIDs,
		Room:       r.Room,
		Notes:      r.Notes,
	}
}

func (r slotPatchRequest) toPatch() application.SlotPatch {
	return application.SlotPatch{
		DayOfWeek:  r.Day,
		TimeSlot:   r.TimeSlot,
		Subject:    r.Subject,
		TeacherID:  r.TeacherID,
		StudentIDs: r.StudentIDs,
		Room:       r.Room,
		Notes:      r.Notes,
	}
}

func toSlotDTO(slot application.ScheduleSlot) slotDTO {
	students := slot.StudentIDs
	if students == nil {
		students = []int64{}
	}
	return slotDTO{
		ID:         slot.ID,
		Day:        slot.DayOfWeek,
		DayName:    calendar.KoreanWeekday(time.Weekday(slot.DayOfWeek)),
		TimeSlot:   slot.TimeSlot,
		Subject:    slot.Subject,
		TeacherID:  slot.TeacherID,
		StudentIDs: students,
		Room:       slot.Room,
		Notes:      slot.Notes,
		CreatedAt:  slot.CreatedAt,
		UpdatedAt:  slot.UpdatedAt,
	}
}

func toSlotDTOs(slots []application.ScheduleSlot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotDTO(slot))
	}
	return out
}

// ----------------------------- Time slots -----------------------------

type timeSlotDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	IsActive  bool   `json:"isActive"`
}

type timeSlotPatchRequest struct {
	Name      *string `json:"name" validate:"omitempty,max=32"`
	StartTime *string `json:"startTime" validate:"omitempty,clock"`
	EndTime   *string `json:"endTime" validate:"omitempty,clock"`
	IsActive  *bool   `json:"isActive"`
}

func toTimeSlotDTO(slot application.TimeSlot) timeSlotDTO {
	return timeSlotDTO{
		ID:        slot.ID,
		Name:      slot.Name,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		IsActive:  slot.IsActive,
	}
}

// ----------------------------- Tasks -----------------------------

type recurrenceDTO struct {
	Kind      string `json:"kind"`
	Weekdays  []int  `json:"weekdays,omitempty"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type taskDTO struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    *string        `json:"description,omitempty"`
	Category       string         `json:"category"`
	Priority       string         `json:"priority"`
	Status         string         `json:"status"`
	AssignmentMode string         `json:"assignmentMode"`
	AssigneeID     *int64         `json:"assigneeId,omitempty"`
	IsRecurring    bool           `json:"isRecurring"`
	Recurrence     *recurrenceDTO `json:"recurrence,omitempty"`
	TargetDate     string         `json:"targetDate"`
	CreatedBy      int64          `json:"createdBy"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
}

type taskRequest struct {
	Title          string  `json:"title" validate:"required,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	Category       string  `json:"category" validate:"max=50"`
	Priority       string  `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status         string  `json:"status" validate:"omitempty,oneof=incomplete in_progress done held"`
	AssignmentMode string  `json:"assignmentMode" validate:"omitempty,oneof=anyone everyone specific"`
	AssigneeID     *int64  `json:"assigneeId" validate:"omitempty,gt=0"`
	TargetDate     string  `json:"targetDate" validate:"omitempty,isodate"`
}

type recurringTaskRequest struct {
	taskRequest
	RecurrenceKind string   `json:"recurrenceKind" validate:"required"`
	RecurringDays  []string `json:"recurringDays"`
	StartDate      string   `json:"startDate" validate:"required,isodate"`
	EndDate        *string  `json:"endDate" validate:"omitempty,isodate"`
}

type taskPatchRequest struct {
	Title          *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description    *string `json:"description" validate:"omitempty,max=2000"`
	Category       *string `json:"category" validate:"omitempty,max=50"`
	Priority       *string `json:"priority" validate:"omitempty,oneof=low medium high"`
	Status         *string `json:"status" validate:"omitempty,oneof=incomplete in_progress done held"`
	AssignmentMode *string `json:"assignmentMode" validate:"omitempty,oneof=anyone everyone specific"`
	AssigneeID     *int64  `json:"assigneeId" validate:"omitempty,gt=0"`
	TargetDate     *string `json:"targetDate" validate:"omitempty,isodate"`
}

type taskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=incomplete in_progress done held"`
}

type materializeResponse struct {
	CreatedCount int       `json:"createdCount"`
	FailedCount  int       `json:"failedCount"`
	Preview      []taskDTO `json:"preview"`
}

func (r taskRequest) toInput() application.TaskInput {
	input := application.TaskInput{
		Title:          r.Title,
		Description:    r.Description,
		Category:       r.Category,
		Priority:       application.TaskPriority(r.Priority),
		Status:         application.TaskStatus(r.Status),
		AssignmentMode: application.AssignmentMode(r.AssignmentMode),
		AssigneeID:     r.AssigneeID,
	}
	if date := parseOptionalDate(&r.TargetDate); date != nil {
		input.TargetDate = *date
	}
	return input
}

func (r recurringTaskRequest) toInput() application.RecurringTaskInput {
	input := application.RecurringTaskInput{
		Template: r.taskRequest.toInput(),
		Kind:     r.RecurrenceKind,
		Weekdays: r.RecurringDays,
		EndDate:  parseOptionalDate(r.EndDate),
	}
	if start := parseOptionalDate(&r.StartDate); start != nil {
		input.StartDate = *start
	}
	return input
}

func (r taskPatchRequest) toPatch() application.TaskPatch {
	patch := application.TaskPatch{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		AssigneeID:  r.AssigneeID,
		TargetDate:  parseOptionalDate(r.TargetDate),
	}
	if r.Priority != nil {
		priority := application.TaskPriority(*r.Priority)
		patch.Priority = &priority
	}
	if r.Status != nil {
		status := application.TaskStatus(*r.Status)
		patch.Status = &status
	}
	if r.AssignmentMode != nil {
		mode := application.AssignmentMode(*r.AssignmentMode)
		patch.AssignmentMode = &mode
	}
	return patch
}

func toTaskDTO(task application.Task) taskDTO {
	dto := taskDTO{
		ID:             task.ID,
		Title:          task.Title,
		Description:    task.Description,
		Category:       task.Category,
		Priority:       string(task.Priority),
		Status:         string(task.Status),
		AssignmentMode: string(task.AssignmentMode),
		AssigneeID:     task.AssigneeID,
		IsRecurring:    task.IsRecurring,
		TargetDate:     task.TargetDate.String(),
		CreatedBy:      task.CreatedBy,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CompletedAt:    task.CompletedAt,
	}
	if rec := task.Recurrence; rec != nil {
		dto.Recurrence = &recurrenceDTO{
			Kind:      rec.Kind,
			StartDate: rec.StartDate.String(),
			EndDate:   rec.EndDate.String(),
		}
		for _, day := range rec.Weekdays {
			dto.Recurrence.Weekdays = append(dto.Recurrence.Weekdays, int(day))
		}
	}
	return dto
}

func toTaskDTOs(tasks []application.Task) []taskDTO {
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}

func toMaterializeResponse(result application.MaterializeResult) materializeResponse {
	return materializeResponse{
		CreatedCount: result.CreatedCount,
		FailedCount:  result.FailedCount,
		Preview:      toTaskDTOs(result.Preview),
	}
}

// ----------------------------- Events -----------------------------

type eventDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	StartDate   string    `json:"startDate"`
	EndDate     *string   `json:"endDate,omitempty"`
	StartTime   *string   `json:"startTime,omitempty"`
	EndTime     *string   `json:"endTime,omitempty"`
	IsAllDay    bool      `json:"isAllDay"`
	IsHoliday   bool      `json:"isHoliday"`
	Color       string    `json:"color"`
	Category    string    `json:"category"`
	Location    *string   `json:"location,omitempty"`
	Scope       string    `json:"scope"`
	CreatedBy   int64     `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type eventRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	StartDate   string  `json:"startDate" validate:"required,isodate"`
	EndDate     *string `json:"endDate" validate:"omitempty,isodate"`
	StartTime   *string `json:"startTime" validate:"omitempty,clock"`
	EndTime     *string `json:"endTime" validate:"omitempty,clock"`
	IsAllDay    bool    `json:"isAllDay"`
	IsHoliday   bool    `json:"isHoliday"`
	Color       string  `json:"color" validate:"omitempty,hexcolor"`
	Category    string  `json:"category" validate:"max=50"`
	Location    *string `json:"location" validate:"omitempty,max=200"`
	Scope       string  `json:"scope" validate:"omitempty,oneof=shared personal"`
}

type eventPatchRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description  *string `json:"description" validate:"omitempty,max=2000"`
	StartDate    *string `json:"startDate" validate:"omitempty,isodate"`
	EndDate      *string `json:"endDate" validate:"omitempty,isodate"`
	ClearEndDate bool    `json:"clearEndDate"`
	StartTime    *string `json:"startTime" validate:"omitempty,clock"`
	EndTime      *string `json:"endTime" validate:"omitempty,clock"`
	IsAllDay     *bool   `json:"isAllDay"`
	IsHoliday    *bool   `json:"isHoliday"`
	Color        *string `json:"color" validate:"omitempty,hexcolor"`
	Category     *string `json:"category" validate:"omitempty,max=50"`
	Location     *string `json:"location" validate:"omitempty,max=200"`
	Scope        *string `json:"scope" validate:"omitempty,oneof=shared personal"`
}

type upcomingResponse struct {
	Shared   []eventDTO `json:"shared"`
	Personal []eventDTO `json:"personal"`
}

type importResponse struct {
	Created []eventDTO        `json:"created"`
	Skipped map[string]string `json:"skipped,omitempty"`
}

func (r eventRequest) toInput() application.EventInput {
	input := application.EventInput{
		Title:       r.Title,
		Description: r.Description,
		EndDate:     parseOptionalDate(r.EndDate),
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		IsAllDay:    r.IsAllDay,
		IsHoliday:   r.IsHoliday,
		Color:       r.Color,
		Category:    r.Category,
		Location:    r.Location,
		Scope:       application.Scope(r.Scope),
	}
	if start := parseOptionalDate(&r.StartDate); start != nil {
		input.StartDate = *start
	}
	return input
}

func (r eventPatchRequest) toPatch() application.EventPatch {
	patch := application.EventPatch{
		Title:        r.Title,
		Description:  r.Description,
		StartDate:    parseOptionalDate(r.StartDate),
		EndDate:      parseOptionalDate(r.EndDate),
		ClearEndDate: r.ClearEndDate,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		IsAllDay:     r.IsAllDay,
		IsHoliday:    r.IsHoliday,
		Color:        r.Color,
		Category:     r.Category,
		Location:     r.Location,
	}
	if r.Scope != nil {
		scope := application.Scope(*r.Scope)
		patch.Scope = &scope
	}
	return patch
}

func toEventDTO(event application.CalendarEvent) eventDTO {
	dto := eventDTO{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		StartDate:   event.StartDate.String(),
		StartTime:   event.StartTime,
		EndTime:     event.EndTime,
		IsAllDay:    event.IsAllDay,
		IsHoliday:   event.IsHoliday,
		Color:       event.Color,
		Category:    event.Category,
		Location:    event.Location,
		Scope:       string(event.Scope),
		CreatedBy:   event.CreatedBy,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
	if event.EndDate != nil {
		end := event.EndDate.String()
		dto.EndDate = &end
	}
	return dto
}

func toEventDTOs(events []application.CalendarEvent) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event))
	}
	return out
}

func parseOptionalDate(value *string) *calendar.Date {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	date, err := calendar.ParseDate(*value)
	if err != nil {
		return nil
	}
	return &date
}
