package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/logging"
	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/recurrence"
)

// TaskRepository captures the persistence operations needed by the task service.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) (Task, error)
	UpdateTask(ctx context.Context, task Task) (Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// CreateTaskParams wraps the data required to create a single task.
type CreateTaskParams struct {
	Principal Principal
	Input     TaskInput
}

// CreateRecurringTasksParams wraps a template and its recurrence rule.
type CreateRecurringTasksParams struct {
	Principal Principal
	Input     RecurringTaskInput
}

// UpdateTaskParams wraps a partial task update.
type UpdateTaskParams struct {
	Principal Principal
	TaskID    string
	Patch     TaskPatch
}

// TaskService creates and tracks dated task instances, including bulk
// materialization of recurring and standing tasks.
type TaskService struct {
	tasks       TaskRepository
	idGenerator func() string
	now         func() time.Time
	horizonDays int
	logger      *slog.Logger
}

// NewTaskService constructs a task service with the default standing-task horizon.
func NewTaskService(tasks TaskRepository, idGenerator func() string, now func() time.Time) *TaskService {
	return NewTaskServiceWithLogger(tasks, idGenerator, now, recurrence.DefaultHorizonDays, nil)
}

// NewTaskServiceWithLogger constructs a task service. horizonDays is the length
// of the window standing tasks are materialized over.
func NewTaskServiceWithLogger(tasks TaskRepository, idGenerator func() string, now func() time.Time, horizonDays int, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if horizonDays <= 0 {
		horizonDays = recurrence.DefaultHorizonDays
	}
	return &TaskService{tasks: tasks, idGenerator: idGenerator, now: now, horizonDays: horizonDays, logger: logging.OrDefault(logger)}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// CreateTask stores one non-recurring task. Title and target date are required.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (task Task, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateTask", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("task_id", task.ID, "target_date", task.TargetDate.String()).InfoContext(ctx, "task created")
	}()

	template, vErr := s.buildTemplate(params.Input, params.Principal, DefaultTaskCategory)
	if params.Input.TargetDate.IsZero() {
		vErr.add("targetDate", "targetDate is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	task = s.instance(template, params.Input.TargetDate)
	task, err = s.tasks.CreateTask(ctx, task)
	if err != nil {
		err = mapTaskRepoError("create task", err)
	}
	return
}

// CreateRecurringTasks expands the rule and stores one task per date. A date
// whose insert fails is logged and skipped; the batch never aborts once the
// rule is valid.
func (s *TaskService) CreateRecurringTasks(ctx context.Context, params CreateRecurringTasksParams) (result MaterializeResult, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRecurringTasks",
		"principal_id", params.Principal.UserID,
		"kind", params.Input.Kind,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create recurring tasks", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("created_count", result.CreatedCount, "failed_count", result.FailedCount).InfoContext(ctx, "recurring tasks created")
	}()

	template, vErr := s.buildTemplate(params.Input.Template, params.Principal, DefaultTaskCategory)
	rule, rErr := buildRule(params.Input)
	vErr.merge(rErr)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	result = s.materialize(ctx, logger, template, rule)
	return
}

// CreateFixedTasks materializes a standing task every day from today through
// the configured horizon.
func (s *TaskService) CreateFixedTasks(ctx context.Context, params CreateTaskParams) (result MaterializeResult, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateFixedTasks", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create fixed tasks", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("created_count", result.CreatedCount, "failed_count", result.FailedCount).InfoContext(ctx, "fixed tasks created")
	}()

	template, vErr := s.buildTemplate(params.Input, params.Principal, FixedTaskCategory)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	today := calendar.Today(s.now)
	end := today.AddDays(s.horizonDays)
	rule := recurrence.Rule{Kind: recurrence.KindDaily, StartDate: today, EndDate: &end}

	result = s.materialize(ctx, logger, template, rule)
	return
}

// materialize inserts one instance per date of rule. Inserts are independent:
// a failure never rolls back or stops the others.
func (s *TaskService) materialize(ctx context.Context, logger *slog.Logger, template Task, rule recurrence.Rule) MaterializeResult {
	window := rule.Window()
	template.IsRecurring = true
	template.Recurrence = &TaskRecurrence{
		Kind:      rule.Kind.String(),
		Weekdays:  rule.Weekdays,
		StartDate: window.Start,
		EndDate:   window.End,
	}

	var result MaterializeResult
	dates, err := recurrence.Dates(rule)
	if err != nil {
		logger.WarnContext(ctx, "recurrence rule produced no dates", "error", err)
		return result
	}

	for date := range dates {
		if ctx.Err() != nil {
			result.FailedCount++
			continue
		}
		created, err := s.tasks.CreateTask(ctx, s.instance(template, date))
		if err != nil {
			result.FailedCount++
			logger.WarnContext(ctx, "skipped task instance", "target_date", date.String(), "error", err)
			continue
		}
		result.CreatedCount++
		if len(result.Preview) < PreviewLimit {
			result.Preview = append(result.Preview, created)
		}
	}
	return result
}

// instance stamps a fresh id and target date onto a template.
func (s *TaskService) instance(template Task, date calendar.Date) Task {
	task := template
	task.ID = s.idGenerator()
	task.TargetDate = date
	task.CreatedAt = s.now()
	task.UpdatedAt = task.CreatedAt
	if task.Status == TaskDone {
		completed := task.CreatedAt
		task.CompletedAt = &completed
	}
	return task
}

// GetTask returns one task.
func (s *TaskService) GetTask(ctx context.Context, principal Principal, taskID string) (Task, error) {
	if s == nil || s.tasks == nil {
		return Task{}, fmt.Errorf("task repository not configured")
	}
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return Task{}, mapTaskRepoError("get task", err)
	}
	return task, nil
}

// ListTasks returns tasks ordered by target date, priority and creation time.
func (s *TaskService) ListTasks(ctx context.Context, principal Principal, filter TaskFilter) (tasks []Task, err error) {
	if s == nil || s.tasks == nil {
		return nil, fmt.Errorf("task repository not configured")
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, fieldError("status", "status is not recognised")
	}
	tasks, err = s.tasks.ListTasks(ctx, filter)
	if err != nil {
		return nil, mapTaskRepoError("list tasks", err)
	}
	return tasks, nil
}

// UpdateTask applies a partial update to one instance. Sibling instances from
// the same rule are untouched.
func (s *TaskService) UpdateTask(ctx context.Context, params UpdateTaskParams) (task Task, err error) {
	if s == nil || s.tasks == nil {
		err = fmt.Errorf("task repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateTask",
		"principal_id", params.Principal.UserID,
		"task_id", params.TaskID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update task", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "task updated")
	}()

	var existing Task
	existing, err = s.tasks.GetTask(ctx, params.TaskID)
	if err != nil {
		err = mapTaskRepoError("get task", err)
		return
	}

	updated := existing
	p := params.Patch
	if p.Title != nil {
		updated.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		updated.Description = normalizeOptionalString(p.Description)
	}
	if p.Category != nil {
		updated.Category = strings.TrimSpace(*p.Category)
	}
	if p.Priority != nil {
		updated.Priority = *p.Priority
	}
	if p.AssignmentMode != nil {
		updated.AssignmentMode = *p.AssignmentMode
	}
	if p.AssigneeID != nil {
		updated.AssigneeID = p.AssigneeID
	}
	if p.TargetDate != nil {
		updated.TargetDate = *p.TargetDate
	}
	if p.Status != nil {
		updated.Status = *p.Status
	}

	vErr := validateTask(updated)
	if updated.TargetDate.IsZero() {
		vErr.add("targetDate", "targetDate is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated.UpdatedAt = s.now()
	setCompletion(&updated, existing.Status, updated.UpdatedAt)

	task, err = s.tasks.UpdateTask(ctx, updated)
	if err != nil {
		err = mapTaskRepoError("update task", err)
	}
	return
}

// UpdateTaskStatus moves a task to status, setting completedAt exactly when the
// task becomes done.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, principal Principal, taskID string, status TaskStatus) (Task, error) {
	return s.UpdateTask(ctx, UpdateTaskParams{
		Principal: principal,
		TaskID:    taskID,
		Patch:     TaskPatch{Status: &status},
	})
}

// DeleteTask removes one task instance.
func (s *TaskService) DeleteTask(ctx context.Context, principal Principal, taskID string) error {
	if s == nil || s.tasks == nil {
		return fmt.Errorf("task repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTask",
		"principal_id", principal.UserID,
		"task_id", taskID,
	)
	if err := s.tasks.DeleteTask(ctx, taskID); err != nil {
		err = mapTaskRepoError("delete task", err)
		logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "task deleted")
	return nil
}

// buildTemplate normalizes a task input, applies defaults and stamps the creator.
func (s *TaskService) buildTemplate(input TaskInput, principal Principal, defaultCategory string) (Task, *ValidationError) {
	task := Task{
		Title:          strings.TrimSpace(input.Title),
		Description:    normalizeOptionalString(input.Description),
		Category:       strings.TrimSpace(input.Category),
		Priority:       input.Priority,
		Status:         input.Status,
		AssignmentMode: input.AssignmentMode,
		AssigneeID:     input.AssigneeID,
		CreatedBy:      principal.UserID,
	}
	if task.Category == "" {
		task.Category = defaultCategory
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}
	if task.Status == "" {
		task.Status = TaskIncomplete
	}
	if task.AssignmentMode == "" {
		task.AssignmentMode = AssignAnyone
	}

	return task, validateTask(task)
}

func validateTask(task Task) *ValidationError {
	vErr := &ValidationError{}
	if task.Title == "" {
		vErr.add("title", "title is required")
	}
	if !task.Priority.Valid() {
		vErr.add("priority", "priority must be low, medium or high")
	}
	if !task.Status.Valid() {
		vErr.add("status", "status is not recognised")
	}
	if !task.AssignmentMode.Valid() {
		vErr.add("assignmentMode", "assignmentMode is not recognised")
	}
	if task.AssignmentMode == AssignSpecific && task.AssigneeID == nil {
		vErr.add("assigneeId", "assigneeId is required for a specific assignee")
	}
	return vErr
}

// buildRule resolves kind and weekday names into a validated rule.
func buildRule(input RecurringTaskInput) (recurrence.Rule, *ValidationError) {
	vErr := &ValidationError{}
	rule := recurrence.Rule{StartDate: input.StartDate, EndDate: input.EndDate}

	kind, err := recurrence.ParseKind(input.Kind)
	if err != nil {
		vErr.add("recurrenceKind", "recurrenceKind must be daily, weekly, monthly or weekdays")
		return rule, vErr
	}
	rule.Kind = kind

	if kind == recurrence.KindWeekdaySet {
		days, err := calendar.ParseWeekdays(input.Weekdays)
		if err != nil {
			vErr.add("recurringDays", "recurringDays contains an unknown weekday")
			return rule, vErr
		}
		rule.Weekdays = days
	}

	switch err := rule.Validate(); {
	case err == nil:
	case errors.Is(err, recurrence.ErrMissingStart):
		vErr.add("startDate", "startDate is required")
	case errors.Is(err, recurrence.ErrEmptyWeekdays):
		vErr.add("recurringDays", "recurringDays is required for weekday recurrence")
	case errors.Is(err, recurrence.ErrInvalidWindow):
		vErr.add("endDate", "endDate must not precede startDate")
	default:
		vErr.add("recurrenceKind", err.Error())
	}
	return rule, vErr
}

// setCompletion keeps completedAt set exactly while the task is done.
func setCompletion(task *Task, previous TaskStatus, at time.Time) {
	switch {
	case task.Status != TaskDone:
		task.CompletedAt = nil
	case previous != TaskDone || task.CompletedAt == nil:
		completed := at
		task.CompletedAt = &completed
	}
}

func mapTaskRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("task", "task violates a storage constraint")
	}
	return &PersistenceError{Op: op, Err: err}
}
