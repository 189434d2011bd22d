package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/persistence"
)

type taskRepoStub struct {
	tasks map[string]Task

	// failEvery makes every n-th create fail when positive.
	failEvery int
	createErr error
	deleteErr error

	attempts int
	created  []Task
}

func newTaskRepoStub(existing ...Task) *taskRepoStub {
	r := &taskRepoStub{tasks: make(map[string]Task)}
	for _, task := range existing {
		r.tasks[task.ID] = task
	}
	return r
}

func (r *taskRepoStub) CreateTask(ctx context.Context, task Task) (Task, error) {
	r.attempts++
	if r.createErr != nil {
		return Task{}, r.createErr
	}
	if r.failEvery > 0 && r.attempts%r.failEvery == 0 {
		return Task{}, errors.New("database is locked")
	}
	r.tasks[task.ID] = task
	r.created = append(r.created, task)
	return task, nil
}

func (r *taskRepoStub) UpdateTask(ctx context.Context, task Task) (Task, error) {
	if _, ok := r.tasks[task.ID]; !ok {
		return Task{}, persistence.ErrNotFound
	}
	r.tasks[task.ID] = task
	return task, nil
}

func (r *taskRepoStub) GetTask(ctx context.Context, id string) (Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return Task{}, persistence.ErrNotFound
	}
	return task, nil
}

func (r *taskRepoStub) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	var out []Task
	for _, task := range r.tasks {
		if filter.Status != nil && task.Status != *filter.Status {
			continue
		}
		out = append(out, task)
	}
	return out, nil
}

func (r *taskRepoStub) DeleteTask(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	if _, ok := r.tasks[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func newTestTaskService(repo TaskRepository) *TaskService {
	return NewTaskService(repo, sequentialIDs("task"), func() time.Time { return fixedNow })
}

func datePtr(value string) *calendar.Date {
	d := calendar.MustParseDate(value)
	return &d
}

func TestTaskService_CreateTask(t *testing.T) {
	t.Run("requires title and target date", func(t *testing.T) {
		svc := newTestTaskService(newTaskRepoStub())
		_, err := svc.CreateTask(context.Background(), CreateTaskParams{Principal: staff, Input: TaskInput{Title: "  "}})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["title"] == "" || vErr.FieldErrors["targetDate"] == "" {
			t.Fatalf("expected title and targetDate errors, got %v", vErr.FieldErrors)
		}
	})

	t.Run("applies defaults", func(t *testing.T) {
		repo := newTaskRepoStub()
		svc := newTestTaskService(repo)

		task, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Principal: staff,
			Input:     TaskInput{Title: "출석부 정리", TargetDate: calendar.MustParseDate("2024-03-05")},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if task.Category != DefaultTaskCategory || task.Priority != PriorityMedium || task.Status != TaskIncomplete || task.AssignmentMode != AssignAnyone {
			t.Fatalf("unexpected defaults %+v", task)
		}
		if task.CreatedBy != staff.UserID || task.IsRecurring || task.CompletedAt != nil {
			t.Fatalf("unexpected task %+v", task)
		}
	})

	t.Run("specific assignment needs an assignee", func(t *testing.T) {
		svc := newTestTaskService(newTaskRepoStub())
		_, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Principal: staff,
			Input:     TaskInput{Title: "상담", AssignmentMode: AssignSpecific, TargetDate: calendar.MustParseDate("2024-03-05")},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["assigneeId"] == "" {
			t.Fatalf("expected assigneeId error, got %v", err)
		}
	})

	t.Run("created done task carries completion time", func(t *testing.T) {
		svc := newTestTaskService(newTaskRepoStub())
		task, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Principal: staff,
			Input:     TaskInput{Title: "완료", Status: TaskDone, TargetDate: calendar.MustParseDate("2024-03-05")},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if task.CompletedAt == nil || !task.CompletedAt.Equal(fixedNow) {
			t.Fatalf("expected completedAt %v, got %v", fixedNow, task.CompletedAt)
		}
	})
}

func TestTaskService_CreateRecurringTasks(t *testing.T) {
	ctx := context.Background()
	template := TaskInput{Title: "교실 점검"}

	t.Run("weekly repeats the start weekday", func(t *testing.T) {
		repo := newTaskRepoStub()
		svc := newTestTaskService(repo)

		result, err := svc.CreateRecurringTasks(ctx, CreateRecurringTasksParams{Principal: staff, Input: RecurringTaskInput{
			Template:  template,
			Kind:      "weekly",
			StartDate: calendar.MustParseDate("2024-01-02"),
			EndDate:   datePtr("2024-01-31"),
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.CreatedCount != 5 || result.FailedCount != 0 {
			t.Fatalf("expected 5 tuesdays, got %+v", result)
		}
		for _, task := range repo.created {
			if task.TargetDate.Weekday() != time.Tuesday {
				t.Fatalf("expected tuesday, got %s", task.TargetDate)
			}
			if !task.IsRecurring || task.Recurrence == nil || task.Recurrence.Kind != "weekly" {
				t.Fatalf("expected recurrence metadata, got %+v", task.Recurrence)
			}
		}
	})

	t.Run("korean weekday set", func(t *testing.T) {
		repo := newTaskRepoStub()
		svc := newTestTaskService(repo)

		result, err := svc.CreateRecurringTasks(ctx, CreateRecurringTasksParams{Principal: staff, Input: RecurringTaskInput{
			Template:  template,
			Kind:      "요일별",
			Weekdays:  []string{"월", "수", "금"},
			StartDate: calendar.MustParseDate("2024-01-01"),
			EndDate:   datePtr("2024-01-14"),
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.CreatedCount != 6 {
			t.Fatalf("expected 6 instances, got %+v", result)
		}
		for _, task := range repo.created {
			switch task.TargetDate.Weekday() {
			case time.Monday, time.Wednesday, time.Friday:
			default:
				t.Fatalf("unexpected weekday %s", task.TargetDate.Weekday())
			}
		}
	})

	t.Run("monthly skips months without the day", func(t *testing.T) {
		repo := newTaskRepoStub()
		svc := newTestTaskService(repo)

		result, err := svc.CreateRecurringTasks(ctx, CreateRecurringTasksParams{Principal: staff, Input: RecurringTaskInput{
			Template:  template,
			Kind:      "monthly",
			StartDate: calendar.MustParseDate("2024-01-31"),
			EndDate:   datePtr("2024-05-31"),
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.CreatedCount != 3 {
			t.Fatalf("expected jan, mar and may, got %+v", result)
		}
	})

	t.Run("preview is capped", func(t *testing.T) {
		svc := newTestTaskService(newTaskRepoStub())
		result, err := svc.CreateRecurringTasks(ctx, CreateRecurringTasksParams{Principal: staff, Input: RecurringTaskInput{
			Template:  template,
			Kind:      "daily",
			StartDate: calendar.MustParseDate("2024-01-01"),
			EndDate:   datePtr("2024-01-31"),
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.CreatedCount != 31 || len(result.Preview) != PreviewLimit {
			t.Fatalf("expected 31 created with %d preview, got %d/%d", PreviewLimit, result.CreatedCount, len(result.Preview))
		}
		if result.Preview[0].TargetDate.String() != "2024-01-01" {
			t.Fatalf("expected preview in date order, got %s", result.Preview[0].TargetDate)
		}
	})

	t.Run("rule errors are reported by field", func(t *testing.T) {
		cases := []struct {
			name  string
			input RecurringTaskInput
			field string
		}{
			{"unknown kind", RecurringTaskInput{Template: template, Kind: "yearly", StartDate: calendar.MustParseDate("2024-01-01")}, "recurrenceKind"},
			{"missing start", RecurringTaskInput{Template: template, Kind: "daily"}, "startDate"},
			{"empty weekdays", RecurringTaskInput{Template: template, Kind: "weekdays", StartDate: calendar.MustParseDate("2024-01-01")}, "recurringDays"},
			{"unknown weekday", RecurringTaskInput{Template: template, Kind: "weekdays", Weekdays: []string{"funday"}, StartDate: calendar.MustParseDate("2024-01-01")}, "recurringDays"},
			{"inverted window", RecurringTaskInput{Template: template, Kind: "daily", StartDate: calendar.MustParseDate("2024-02-01"), EndDate: datePtr("2024-01-01")}, "endDate"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				repo := newTaskRepoStub()
				svc := newTestTaskService(repo)
				_, err := svc.CreateRecurringTasks(ctx, CreateRecurringTasksParams{Principal: staff, Input: tc.input})
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.FieldErrors[tc.field] == "" {
					t.Fatalf("expected %s error, got %v", tc.field, err)
				}
				if repo.attempts != 0 {
					t.Fatalf("expected no inserts, got %d", repo.attempts)
				}
			})
		}
	})
}

func TestTaskService_CreateFixedTasks(t *testing.T) {
	t.Run("partial failures never abort the batch", func(t *testing.T) {
		repo := newTaskRepoStub()
		repo.failEvery = 10
		svc := newTestTaskService(repo)

		result, err := svc.CreateFixedTasks(context.Background(), CreateTaskParams{Principal: staff, Input: TaskInput{Title: "문단속"}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		// today through today+365, both ends included
		total := 366
		if repo.attempts != total {
			t.Fatalf("expected %d insert attempts, got %d", total, repo.attempts)
		}
		if result.FailedCount != total/10 || result.CreatedCount != total-total/10 {
			t.Fatalf("unexpected counts %+v", result)
		}
		first := repo.created[0]
		if first.Category != FixedTaskCategory || first.TargetDate.String() != "2024-03-04" {
			t.Fatalf("expected fixed category starting today, got %+v", first)
		}
	})

	t.Run("every insert failing still reports counts", func(t *testing.T) {
		repo := newTaskRepoStub()
		repo.createErr = errors.New("disk full")
		svc := NewTaskServiceWithLogger(repo, sequentialIDs("task"), func() time.Time { return fixedNow }, 6, nil)

		result, err := svc.CreateFixedTasks(context.Background(), CreateTaskParams{Principal: staff, Input: TaskInput{Title: "문단속"}})
		if err != nil {
			t.Fatalf("expected partial-failure result, got %v", err)
		}
		if result.CreatedCount != 0 || result.FailedCount != 7 || len(result.Preview) != 0 {
			t.Fatalf("unexpected result %+v", result)
		}
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	existing := Task{
		ID:             "task-1",
		Title:          "정리",
		Category:       DefaultTaskCategory,
		Priority:       PriorityMedium,
		Status:         TaskIncomplete,
		AssignmentMode: AssignAnyone,
		TargetDate:     calendar.MustParseDate("2024-03-05"),
	}

	t.Run("completion time follows done status", func(t *testing.T) {
		repo := newTaskRepoStub(existing)
		svc := newTestTaskService(repo)
		ctx := context.Background()

		done, err := svc.UpdateTaskStatus(ctx, staff, "task-1", TaskDone)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if done.CompletedAt == nil {
			t.Fatalf("expected completedAt to be set")
		}

		reopened, err := svc.UpdateTaskStatus(ctx, staff, "task-1", TaskInProgress)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if reopened.CompletedAt != nil {
			t.Fatalf("expected completedAt to be cleared, got %v", reopened.CompletedAt)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		svc := newTestTaskService(newTaskRepoStub(existing))
		_, err := svc.UpdateTaskStatus(context.Background(), staff, "task-1", TaskStatus("archived"))
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["status"] == "" {
			t.Fatalf("expected status error, got %v", err)
		}
	})

	t.Run("edits one instance only", func(t *testing.T) {
		sibling := existing
		sibling.ID = "task-2"
		repo := newTaskRepoStub(existing, sibling)
		svc := newTestTaskService(repo)
		title := "대청소"

		if _, err := svc.UpdateTask(context.Background(), UpdateTaskParams{Principal: staff, TaskID: "task-1", Patch: TaskPatch{Title: &title}}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if repo.tasks["task-2"].Title != "정리" {
			t.Fatalf("expected sibling untouched, got %q", repo.tasks["task-2"].Title)
		}
	})

	t.Run("missing task", func(t *testing.T) {
		svc := newTestTaskService(newTaskRepoStub())
		_, err := svc.UpdateTaskStatus(context.Background(), staff, "nope", TaskDone)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTaskService_ListAndDelete(t *testing.T) {
	repo := newTaskRepoStub(Task{ID: "task-1", Title: "a", Status: TaskDone})
	svc := newTestTaskService(repo)
	ctx := context.Background()

	bad := TaskStatus("archived")
	if _, err := svc.ListTasks(ctx, staff, TaskFilter{Status: &bad}); ErrorKind(err) != "validation" {
		t.Fatalf("expected validation error, got %v", err)
	}
	done := TaskDone
	tasks, err := svc.ListTasks(ctx, staff, TaskFilter{Status: &done})
	if err != nil || len(tasks) != 1 {
		t.Fatalf("expected one task, got %v (err %v)", tasks, err)
	}

	if err := svc.DeleteTask(ctx, staff, "task-1"); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if err := svc.DeleteTask(ctx, staff, "task-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	repo.deleteErr = errors.New("boom")
	var pErr *PersistenceError
	if err := svc.DeleteTask(ctx, staff, "task-1"); !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
