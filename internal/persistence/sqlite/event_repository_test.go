package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/testfixtures"
)

func seedEvents(t *testing.T, h *testfixtures.SQLiteHarness, events ...persistence.CalendarEvent) {
	t.Helper()
	for _, event := range events {
		if err := h.Events.CreateEvent(context.Background(), event); err != nil {
			t.Fatalf("CreateEvent %s: %v", event.ID, err)
		}
	}
}

func monthRange(t *testing.T, year, month int) *calendar.Range {
	t.Helper()
	rng, err := calendar.MonthRange(year, month)
	if err != nil {
		t.Fatalf("MonthRange: %v", err)
	}
	return &rng
}

func eventIDs(events []persistence.CalendarEvent) []string {
	ids := make([]string, len(events))
	for i, event := range events {
		ids[i] = event.ID
	}
	return ids
}

func TestEventRepositoryOverlap(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	seedEvents(t, h,
		testfixtures.NewEventFixture(testfixtures.WithEventID("point-may31"), testfixtures.WithEventDates("2024-05-31", "")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("apr-may"), testfixtures.WithEventDates("2024-04-28", "2024-05-02")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("may-jun"), testfixtures.WithEventDates("2024-05-30", "2024-06-01")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("apr-jun"), testfixtures.WithEventDates("2024-04-01", "2024-06-30")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("april"), testfixtures.WithEventDates("2024-04-10", "")).Persistence(),
	)

	may, err := h.Events.ListEvents(ctx, persistence.EventFilter{Scope: persistence.ScopeShared, Overlapping: monthRange(t, 2024, 5)})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	want := []string{"apr-jun", "apr-may", "may-jun", "point-may31"}
	if got := eventIDs(may); !equalStrings(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	june, err := h.Events.ListEvents(ctx, persistence.EventFilter{Scope: persistence.ScopeShared, Overlapping: monthRange(t, 2024, 6)})
	if err != nil {
		t.Fatalf("ListEvents june: %v", err)
	}
	if got := eventIDs(june); !equalStrings(got, []string{"apr-jun", "may-jun"}) {
		t.Fatalf("unexpected june events %v", got)
	}

	day := calendar.MustParseDate("2024-05-02")
	onDay, err := h.Events.ListEvents(ctx, persistence.EventFilter{Scope: persistence.ScopeShared, Overlapping: &calendar.Range{Start: day, End: day}})
	if err != nil {
		t.Fatalf("ListEvents day: %v", err)
	}
	if got := eventIDs(onDay); !equalStrings(got, []string{"apr-jun", "apr-may"}) {
		t.Fatalf("expected inclusive end date match, got %v", got)
	}
}

func TestEventRepositoryScopes(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	seedEvents(t, h,
		testfixtures.NewEventFixture(testfixtures.WithEventID("shared")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("mine"), testfixtures.WithEventPersonal(7)).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("theirs"), testfixtures.WithEventPersonal(8)).Persistence(),
	)

	cases := []struct {
		scope string
		want  []string
	}{
		{persistence.ScopeShared, []string{"shared"}},
		{persistence.ScopePersonal, []string{"mine"}},
		{"", []string{"mine", "shared"}},
	}
	for _, tc := range cases {
		events, err := h.Events.ListEvents(ctx, persistence.EventFilter{Scope: tc.scope, OwnerID: 7})
		if err != nil {
			t.Fatalf("ListEvents(%q): %v", tc.scope, err)
		}
		got := eventIDs(events)
		if len(got) == 2 && got[0] > got[1] {
			got[0], got[1] = got[1], got[0]
		}
		if !equalStrings(got, tc.want) {
			t.Fatalf("scope %q: expected %v, got %v", tc.scope, tc.want, got)
		}
	}
}

func TestEventRepositorySearchAndOrdering(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	seedEvents(t, h,
		testfixtures.NewEventFixture(testfixtures.WithEventID("old"), testfixtures.WithEventTitle("Parent Meeting"), testfixtures.WithEventDates("2024-01-10", "")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("new"), testfixtures.WithEventTitle("Exam"), testfixtures.WithEventLocation("meeting room"), testfixtures.WithEventDates("2024-02-10", "")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("pct"), testfixtures.WithEventTitle("100% attendance"), testfixtures.WithEventDates("2024-03-10", "")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("other"), testfixtures.WithEventTitle("Holiday"), testfixtures.WithEventDates("2024-03-01", "")).Persistence(),
	)

	found, err := h.Events.ListEvents(ctx, persistence.EventFilter{Term: "MEETING", Order: persistence.EventOrderStartDesc})
	if err != nil {
		t.Fatalf("ListEvents search: %v", err)
	}
	if got := eventIDs(found); !equalStrings(got, []string{"new", "old"}) {
		t.Fatalf("expected newest first [new old], got %v", got)
	}

	limited, err := h.Events.ListEvents(ctx, persistence.EventFilter{Term: "e", Order: persistence.EventOrderStartDesc, Limit: 1})
	if err != nil || len(limited) != 1 {
		t.Fatalf("expected one result, got %v (err %v)", eventIDs(limited), err)
	}

	literal, err := h.Events.ListEvents(ctx, persistence.EventFilter{Term: "0%"})
	if err != nil {
		t.Fatalf("ListEvents literal: %v", err)
	}
	if got := eventIDs(literal); !equalStrings(got, []string{"pct"}) {
		t.Fatalf("expected %% to match literally, got %v", got)
	}
}

func TestEventRepositorySameDayOrdering(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	seedEvents(t, h,
		testfixtures.NewEventFixture(testfixtures.WithEventID("late"), testfixtures.WithEventTimes("15:00", "16:00")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("early"), testfixtures.WithEventTimes("09:00", "10:00")).Persistence(),
		testfixtures.NewEventFixture(testfixtures.WithEventID("all-day"), testfixtures.WithEventAllDay()).Persistence(),
	)

	day := testfixtures.ReferenceDate()
	events, err := h.Events.ListEvents(ctx, persistence.EventFilter{StartingWithin: &calendar.Range{Start: day, End: day}})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if got := eventIDs(events); !equalStrings(got, []string{"all-day", "early", "late"}) {
		t.Fatalf("expected all-day then by time, got %v", got)
	}
}

func TestEventRepositoryConstraints(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	inverted := testfixtures.NewEventFixture(testfixtures.WithEventDates("2024-05-02", "2024-05-01")).Persistence()
	if err := h.Events.CreateEvent(ctx, inverted); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected inverted range to be rejected, got %v", err)
	}

	event := testfixtures.NewEventFixture(testfixtures.WithEventTimes("09:00", "10:00")).Persistence()
	seedEvents(t, h, event)
	event.IsAllDay = true
	if err := h.Events.UpdateEvent(ctx, event); !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected all-day event with times to be rejected, got %v", err)
	}

	event.StartTime, event.EndTime = nil, nil
	if err := h.Events.UpdateEvent(ctx, event); err != nil {
		t.Fatalf("UpdateEvent: %v", err)
	}
	got, err := h.Events.GetEvent(ctx, event.ID)
	if err != nil || !got.IsAllDay || got.StartTime != nil {
		t.Fatalf("unexpected event %+v (err %v)", got, err)
	}

	if err := h.Events.DeleteEvent(ctx, event.ID); err != nil {
		t.Fatalf("DeleteEvent: %v", err)
	}
	if err := h.Events.DeleteEvent(ctx, event.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
