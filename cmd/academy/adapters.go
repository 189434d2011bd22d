package main

import (
	"context"
	"time"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/persistence"
)

type slotRepositoryAdapter struct {
	repo persistence.SlotRepository
}

func newSlotRepositoryAdapter(repo persistence.SlotRepository) *slotRepositoryAdapter {
	return &slotRepositoryAdapter{repo: repo}
}

func (a *slotRepositoryAdapter) CreateSlot(ctx context.Context, slot application.ScheduleSlot) (application.ScheduleSlot, error) {
	if err := a.repo.CreateSlot(ctx, toPersistenceSlot(slot)); err != nil {
		return application.ScheduleSlot{}, err
	}
	return a.GetSlot(ctx, slot.ID)
}

func (a *slotRepositoryAdapter) UpdateSlot(ctx context.Context, slot application.ScheduleSlot) (application.ScheduleSlot, error) {
	if err := a.repo.UpdateSlot(ctx, toPersistenceSlot(slot)); err != nil {
		return application.ScheduleSlot{}, err
	}
	return a.GetSlot(ctx, slot.ID)
}

func (a *slotRepositoryAdapter) GetSlot(ctx context.Context, id string) (application.ScheduleSlot, error) {
	model, err := a.repo.GetSlot(ctx, id)
	if err != nil {
		return application.ScheduleSlot{}, err
	}
	return toApplicationSlot(model), nil
}

func (a *slotRepositoryAdapter) FindSlotByCell(ctx context.Context, dayOfWeek int, timeSlot string) (application.ScheduleSlot, error) {
	model, err := a.repo.FindSlotByCell(ctx, dayOfWeek, timeSlot)
	if err != nil {
		return application.ScheduleSlot{}, err
	}
	return toApplicationSlot(model), nil
}

func (a *slotRepositoryAdapter) ListSlots(ctx context.Context, filter application.SlotFilter) ([]application.ScheduleSlot, error) {
	models, err := a.repo.ListSlots(ctx, persistence.SlotFilter{
		DayOfWeek: filter.DayOfWeek,
		TeacherID: filter.TeacherID,
		StudentID: filter.StudentID,
	})
	if err != nil {
		return nil, err
	}
	slots := make([]application.ScheduleSlot, 0, len(models))
	for _, model := range models {
		slots = append(slots, toApplicationSlot(model))
	}
	return slots, nil
}

func (a *slotRepositoryAdapter) DeleteSlot(ctx context.Context, id string) error {
	return a.repo.DeleteSlot(ctx, id)
}

type timeSlotRepositoryAdapter struct {
	repo persistence.TimeSlotRepository
}

func newTimeSlotRepositoryAdapter(repo persistence.TimeSlotRepository) *timeSlotRepositoryAdapter {
	return &timeSlotRepositoryAdapter{repo: repo}
}

func (a *timeSlotRepositoryAdapter) ListTimeSlots(ctx context.Context, activeOnly bool) ([]application.TimeSlot, error) {
	models, err := a.repo.ListTimeSlots(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	slots := make([]application.TimeSlot, 0, len(models))
	for _, model := range models {
		slots = append(slots, application.TimeSlot(model))
	}
	return slots, nil
}

func (a *timeSlotRepositoryAdapter) GetTimeSlot(ctx context.Context, id string) (application.TimeSlot, error) {
	model, err := a.repo.GetTimeSlot(ctx, id)
	if err != nil {
		return application.TimeSlot{}, err
	}
	return application.TimeSlot(model), nil
}

func (a *timeSlotRepositoryAdapter) UpdateTimeSlot(ctx context.Context, slot application.TimeSlot) (application.TimeSlot, error) {
	if err := a.repo.UpdateTimeSlot(ctx, persistence.TimeSlot(slot)); err != nil {
		return application.TimeSlot{}, err
	}
	return a.GetTimeSlot(ctx, slot.ID)
}

type taskRepositoryAdapter struct {
	repo persistence.TaskRepository
}

func newTaskRepositoryAdapter(repo persistence.TaskRepository) *taskRepositoryAdapter {
	return &taskRepositoryAdapter{repo: repo}
}

func (a *taskRepositoryAdapter) CreateTask(ctx context.Context, task application.Task) (application.Task, error) {
	if err := a.repo.CreateTask(ctx, toPersistenceTask(task)); err != nil {
		return application.Task{}, err
	}
	return a.GetTask(ctx, task.ID)
}

func (a *taskRepositoryAdapter) UpdateTask(ctx context.Context, task application.Task) (application.Task, error) {
	if err := a.repo.UpdateTask(ctx, toPersistenceTask(task)); err != nil {
		return application.Task{}, err
	}
	return a.GetTask(ctx, task.ID)
}

func (a *taskRepositoryAdapter) GetTask(ctx context.Context, id string) (application.Task, error) {
	model, err := a.repo.GetTask(ctx, id)
	if err != nil {
		return application.Task{}, err
	}
	return toApplicationTask(model), nil
}

func (a *taskRepositoryAdapter) ListTasks(ctx context.Context, filter application.TaskFilter) ([]application.Task, error) {
	persisted := persistence.TaskFilter{
		TargetDate: filter.TargetDate,
		AssigneeID: filter.AssigneeID,
	}
	if filter.Status != nil {
		status := string(*filter.Status)
		persisted.Status = &status
	}
	models, err := a.repo.ListTasks(ctx, persisted)
	if err != nil {
		return nil, err
	}
	tasks := make([]application.Task, 0, len(models))
	for _, model := range models {
		tasks = append(tasks, toApplicationTask(model))
	}
	return tasks, nil
}

func (a *taskRepositoryAdapter) DeleteTask(ctx context.Context, id string) error {
	return a.repo.DeleteTask(ctx, id)
}

type eventRepositoryAdapter struct {
	repo persistence.EventRepository
}

func newEventRepositoryAdapter(repo persistence.EventRepository) *eventRepositoryAdapter {
	return &eventRepositoryAdapter{repo: repo}
}

func (a *eventRepositoryAdapter) CreateEvent(ctx context.Context, event application.CalendarEvent) (application.CalendarEvent, error) {
	if err := a.repo.CreateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.CalendarEvent{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) UpdateEvent(ctx context.Context, event application.CalendarEvent) (application.CalendarEvent, error) {
	if err := a.repo.UpdateEvent(ctx, toPersistenceEvent(event)); err != nil {
		return application.CalendarEvent{}, err
	}
	return a.GetEvent(ctx, event.ID)
}

func (a *eventRepositoryAdapter) GetEvent(ctx context.Context, id string) (application.CalendarEvent, error) {
	model, err := a.repo.GetEvent(ctx, id)
	if err != nil {
		return application.CalendarEvent{}, err
	}
	return toApplicationEvent(model), nil
}

func (a *eventRepositoryAdapter) ListEvents(ctx context.Context, query application.EventQuery) ([]application.CalendarEvent, error) {
	filter := persistence.EventFilter{
		Scope:          string(query.Scope),
		OwnerID:        query.OwnerID,
		Overlapping:    query.Overlapping,
		StartingWithin: query.StartingWithin,
		Term:           query.Term,
		Order:          persistence.EventOrderStartAsc,
		Limit:          query.Limit,
	}
	if query.Order == application.OrderStartDesc {
		filter.Order = persistence.EventOrderStartDesc
	}
	models, err := a.repo.ListEvents(ctx, filter)
	if err != nil {
		return nil, err
	}
	events := make([]application.CalendarEvent, 0, len(models))
	for _, model := range models {
		events = append(events, toApplicationEvent(model))
	}
	return events, nil
}

func (a *eventRepositoryAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.repo.DeleteEvent(ctx, id)
}

func toApplicationSlot(model persistence.ScheduleSlot) application.ScheduleSlot {
	return application.ScheduleSlot{
		ID:         model.ID,
		DayOfWeek:  model.DayOfWeek,
		TimeSlot:   model.TimeSlot,
		Subject:    model.Subject,
		TeacherID:  model.TeacherID,
		StudentIDs: append([]int64(nil), model.StudentIDs...),
		Room:       cloneString(model.Room),
		Notes:      cloneString(model.Notes),
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  model.UpdatedAt,
	}
}

func toPersistenceSlot(slot application.ScheduleSlot) persistence.ScheduleSlot {
	return persistence.ScheduleSlot{
		ID:         slot.ID,
		DayOfWeek:  slot.DayOfWeek,
		TimeSlot:   slot.TimeSlot,
		Subject:    slot.Subject,
		TeacherID:  slot.TeacherID,
		StudentIDs: append([]int64(nil), slot.StudentIDs...),
		Room:       cloneString(slot.Room),
		Notes:      cloneString(slot.Notes),
		CreatedAt:  slot.CreatedAt,
		UpdatedAt:  slot.UpdatedAt,
	}
}

func toApplicationTask(model persistence.Task) application.Task {
	task := application.Task{
		ID:             model.ID,
		Title:          model.Title,
		Description:    cloneString(model.Description),
		Category:       model.Category,
		Priority:       application.TaskPriority(model.Priority),
		Status:         application.TaskStatus(model.Status),
		AssignmentMode: application.AssignmentMode(model.AssignmentMode),
		AssigneeID:     cloneInt64(model.AssigneeID),
		IsRecurring:    model.IsRecurring,
		TargetDate:     model.TargetDate,
		CreatedBy:      model.CreatedBy,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
		CompletedAt:    cloneTime(model.CompletedAt),
	}
	if rule := model.Recurrence; rule != nil {
		weekdays := make([]time.Weekday, 0, len(rule.Weekdays))
		for _, day := range rule.Weekdays {
			weekdays = append(weekdays, time.Weekday(day))
		}
		task.Recurrence = &application.TaskRecurrence{
			Kind:      rule.Kind,
			Weekdays:  weekdays,
			StartDate: rule.StartDate,
			EndDate:   rule.EndDate,
		}
	}
	return task
}

func toPersistenceTask(task application.Task) persistence.Task {
	model := persistence.Task{
		ID:             task.ID,
		Title:          task.Title,
		Description:    cloneString(task.Description),
		Category:       task.Category,
		Priority:       string(task.Priority),
		Status:         string(task.Status),
		AssignmentMode: string(task.AssignmentMode),
		AssigneeID:     cloneInt64(task.AssigneeID),
		IsRecurring:    task.IsRecurring,
		TargetDate:     task.TargetDate,
		CreatedBy:      task.CreatedBy,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
		CompletedAt:    cloneTime(task.CompletedAt),
	}
	if rule := task.Recurrence; rule != nil {
		weekdays := make([]int, 0, len(rule.Weekdays))
		for _, day := range rule.Weekdays {
			weekdays = append(weekdays, int(day))
		}
		model.Recurrence = &persistence.TaskRecurrence{
			Kind:      rule.Kind,
			Weekdays:  weekdays,
			StartDate: rule.StartDate,
			EndDate:   rule.EndDate,
		}
	}
	return model
}

func toApplicationEvent(model persistence.CalendarEvent) application.CalendarEvent {
	return application.CalendarEvent{
		ID:          model.ID,
		Title:       model.Title,
		Description: cloneString(model.Description),
		StartDate:   model.StartDate,
		EndDate:     model.EndDate,
		StartTime:   cloneString(model.StartTime),
		EndTime:     cloneString(model.EndTime),
		IsAllDay:    model.IsAllDay,
		IsHoliday:   model.IsHoliday,
		Color:       model.Color,
		Category:    model.Category,
		Location:    cloneString(model.Location),
		Scope:       application.Scope(model.Scope),
		CreatedBy:   model.CreatedBy,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func toPersistenceEvent(event application.CalendarEvent) persistence.CalendarEvent {
	return persistence.CalendarEvent{
		ID:          event.ID,
		Title:       event.Title,
		Description: cloneString(event.Description),
		StartDate:   event.StartDate,
		EndDate:     event.EndDate,
		StartTime:   cloneString(event.StartTime),
		EndTime:     cloneString(event.EndTime),
		IsAllDay:    event.IsAllDay,
		IsHoliday:   event.IsHoliday,
		Color:       event.Color,
		Category:    event.Category,
		Location:    cloneString(event.Location),
		Scope:       string(event.Scope),
		CreatedBy:   event.CreatedBy,
		CreatedAt:   event.CreatedAt,
		UpdatedAt:   event.UpdatedAt,
	}
}

func cloneString(value *string) *string {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneInt64(value *int64) *int64 {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	v := *value
	return &v
}
