package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/testfixtures"
)

func TestTaskRepositoryRoundTrip(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	task := testfixtures.NewTaskFixture(testfixtures.WithTaskAssignee(42)).Persistence()
	end := calendar.MustParseDate("2024-12-31")
	task.IsRecurring = true
	task.Recurrence = &persistence.TaskRecurrence{
		Kind:      "weekdays",
		Weekdays:  []int{1, 3, 5},
		StartDate: calendar.MustParseDate("2024-01-01"),
		EndDate:   end,
	}
	if err := h.Tasks.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	got, err := h.Tasks.GetTask(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.AssigneeID == nil || *got.AssigneeID != 42 || got.AssignmentMode != "specific" {
		t.Fatalf("unexpected assignee %+v", got)
	}
	if got.Recurrence == nil || len(got.Recurrence.Weekdays) != 3 || got.Recurrence.Weekdays[1] != 3 {
		t.Fatalf("unexpected recurrence %+v", got.Recurrence)
	}
	if !got.Recurrence.EndDate.Equal(end) || !got.TargetDate.Equal(task.TargetDate) {
		t.Fatalf("dates did not round trip: %+v", got)
	}
	if !got.CreatedAt.Equal(task.CreatedAt) {
		t.Fatalf("expected created at %v, got %v", task.CreatedAt, got.CreatedAt)
	}
}

func TestTaskRepositoryCompletionConstraint(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	task := testfixtures.NewTaskFixture().Persistence()
	task.Status = string(application.TaskDone)
	if err := h.Tasks.CreateTask(ctx, task); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected done without completedAt to be rejected, got %v", err)
	}

	done := testfixtures.NewTaskFixture(testfixtures.WithTaskDone(testfixtures.ReferenceTime())).Persistence()
	if err := h.Tasks.CreateTask(ctx, done); err != nil {
		t.Fatalf("CreateTask done: %v", err)
	}
	done.Status = string(application.TaskInProgress)
	done.CompletedAt = nil
	if err := h.Tasks.UpdateTask(ctx, done); err != nil {
		t.Fatalf("UpdateTask reopen: %v", err)
	}
	got, err := h.Tasks.GetTask(ctx, done.ID)
	if err != nil || got.CompletedAt != nil {
		t.Fatalf("expected completedAt cleared, got %+v (err %v)", got.CompletedAt, err)
	}
}

func TestTaskRepositoryListOrderingAndFilters(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	base := testfixtures.ReferenceTime()

	low := testfixtures.NewTaskFixture(testfixtures.WithTaskID("low"), testfixtures.WithTaskPriority(application.PriorityLow), testfixtures.WithTaskCreatedAt(base)).Persistence()
	high := testfixtures.NewTaskFixture(testfixtures.WithTaskID("high"), testfixtures.WithTaskPriority(application.PriorityHigh), testfixtures.WithTaskCreatedAt(base.Add(time.Hour))).Persistence()
	mediumLate := testfixtures.NewTaskFixture(testfixtures.WithTaskID("medium-late"), testfixtures.WithTaskCreatedAt(base.Add(2*time.Hour))).Persistence()
	mediumEarly := testfixtures.NewTaskFixture(testfixtures.WithTaskID("medium-early"), testfixtures.WithTaskCreatedAt(base.Add(time.Minute))).Persistence()
	tomorrow := testfixtures.NewTaskFixture(testfixtures.WithTaskID("tomorrow"), testfixtures.WithTaskTargetDate("2024-01-03"), testfixtures.WithTaskPriority(application.PriorityHigh)).Persistence()
	mine := testfixtures.NewTaskFixture(testfixtures.WithTaskID("mine"), testfixtures.WithTaskAssignee(7), testfixtures.WithTaskTargetDate("2024-01-04")).Persistence()
	theirs := testfixtures.NewTaskFixture(testfixtures.WithTaskID("theirs"), testfixtures.WithTaskAssignee(8), testfixtures.WithTaskTargetDate("2024-01-04")).Persistence()

	for _, task := range []persistence.Task{low, high, mediumLate, mediumEarly, tomorrow, mine, theirs} {
		if err := h.Tasks.CreateTask(ctx, task); err != nil {
			t.Fatalf("CreateTask %s: %v", task.ID, err)
		}
	}

	day := testfixtures.ReferenceDate()
	onDay, err := h.Tasks.ListTasks(ctx, persistence.TaskFilter{TargetDate: &day})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	want := []string{"high", "medium-early", "medium-late", "low"}
	if got := taskIDs(onDay); !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	assignee := int64(7)
	fourth := calendar.MustParseDate("2024-01-04")
	forSeven, err := h.Tasks.ListTasks(ctx, persistence.TaskFilter{TargetDate: &fourth, AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("ListTasks assignee: %v", err)
	}
	if got := taskIDs(forSeven); !equalStrings(got, []string{"mine"}) {
		t.Fatalf("expected only mine, got %v", got)
	}

	forSevenAll, err := h.Tasks.ListTasks(ctx, persistence.TaskFilter{AssigneeID: &assignee})
	if err != nil {
		t.Fatalf("ListTasks assignee all: %v", err)
	}
	if len(forSevenAll) != 6 {
		t.Fatalf("expected open tasks plus mine, got %v", taskIDs(forSevenAll))
	}

	if err := h.Tasks.DeleteTask(ctx, "low"); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if _, err := h.Tasks.GetTask(ctx, "low"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func taskIDs(tasks []persistence.Task) []string {
	ids := make([]string, len(tasks))
	for i, task := range tasks {
		ids[i] = task.ID
	}
	return ids
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
