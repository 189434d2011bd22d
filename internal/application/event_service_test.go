package application

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/persistence"
)

// eventRepoStub applies EventQuery the way the SQL repository does.
type eventRepoStub struct {
	events  map[string]CalendarEvent
	listErr error
	queries []EventQuery
}

func newEventRepoStub(existing ...CalendarEvent) *eventRepoStub {
	r := &eventRepoStub{events: make(map[string]CalendarEvent)}
	for _, event := range existing {
		r.events[event.ID] = event
	}
	return r
}

func (r *eventRepoStub) CreateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error) {
	r.events[event.ID] = event
	return event, nil
}

func (r *eventRepoStub) UpdateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error) {
	if _, ok := r.events[event.ID]; !ok {
		return CalendarEvent{}, persistence.ErrNotFound
	}
	r.events[event.ID] = event
	return event, nil
}

func (r *eventRepoStub) GetEvent(ctx context.Context, id string) (CalendarEvent, error) {
	event, ok := r.events[id]
	if !ok {
		return CalendarEvent{}, persistence.ErrNotFound
	}
	return event, nil
}

func (r *eventRepoStub) ListEvents(ctx context.Context, q EventQuery) ([]CalendarEvent, error) {
	r.queries = append(r.queries, q)
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []CalendarEvent
	for _, event := range r.events {
		switch q.Scope {
		case ScopeShared:
			if event.Scope != ScopeShared {
				continue
			}
		case ScopePersonal:
			if event.Scope != ScopePersonal || event.CreatedBy != q.OwnerID {
				continue
			}
		default:
			if event.Scope != ScopeShared && event.CreatedBy != q.OwnerID {
				continue
			}
		}
		if q.Overlapping != nil && !event.Occupies().Overlaps(*q.Overlapping) {
			continue
		}
		if q.StartingWithin != nil && !q.StartingWithin.Contains(event.StartDate) {
			continue
		}
		if q.Term != "" && !strings.Contains(strings.ToLower(event.Title), strings.ToLower(q.Term)) {
			continue
		}
		out = append(out, event)
	}
	slices.SortFunc(out, func(a, b CalendarEvent) int {
		if q.Order == OrderStartDesc {
			return b.StartDate.Compare(a.StartDate)
		}
		return a.StartDate.Compare(b.StartDate)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (r *eventRepoStub) DeleteEvent(ctx context.Context, id string) error {
	if _, ok := r.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

func newTestEventService(repo EventRepository) *EventService {
	return NewEventService(repo, sequentialIDs("event"), func() time.Time { return fixedNow })
}

func strPtr(v string) *string { return &v }

func sharedEvent(id, start string, end *calendar.Date) CalendarEvent {
	return CalendarEvent{ID: id, Title: id, StartDate: calendar.MustParseDate(start), EndDate: end, Scope: ScopeShared, CreatedBy: 1}
}

func eventIDs(events []CalendarEvent) []string {
	ids := make([]string, len(events))
	for i, event := range events {
		ids[i] = event.ID
	}
	return ids
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("all-day events drop times", func(t *testing.T) {
		svc := newTestEventService(newEventRepoStub())
		event, err := svc.CreateEvent(ctx, CreateEventParams{Principal: staff, Input: EventInput{
			Title:     "개원기념일",
			StartDate: calendar.MustParseDate("2024-05-01"),
			StartTime: strPtr("09:00"),
			EndTime:   strPtr("10:00"),
			IsAllDay:  true,
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if event.StartTime != nil || event.EndTime != nil {
			t.Fatalf("expected times to be cleared, got %v/%v", event.StartTime, event.EndTime)
		}
		if event.Color != DefaultEventColor || event.Category != DefaultEventCategory || event.Scope != ScopeShared {
			t.Fatalf("unexpected defaults %+v", event)
		}
		if event.CreatedBy != staff.UserID {
			t.Fatalf("expected creator %d, got %d", staff.UserID, event.CreatedBy)
		}
	})

	t.Run("normalizes times", func(t *testing.T) {
		svc := newTestEventService(newEventRepoStub())
		event, err := svc.CreateEvent(ctx, CreateEventParams{Principal: staff, Input: EventInput{
			Title:     "회의",
			StartDate: calendar.MustParseDate("2024-05-01"),
			StartTime: strPtr("9:05"),
			EndTime:   strPtr("10:30"),
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if *event.StartTime != "09:05" {
			t.Fatalf("expected 09:05, got %s", *event.StartTime)
		}
	})

	t.Run("validation", func(t *testing.T) {
		cases := []struct {
			name  string
			input EventInput
			field string
		}{
			{"missing title", EventInput{StartDate: calendar.MustParseDate("2024-05-01")}, "title"},
			{"missing start", EventInput{Title: "x"}, "startDate"},
			{"end before start", EventInput{Title: "x", StartDate: calendar.MustParseDate("2024-05-02"), EndDate: datePtr("2024-05-01")}, "endDate"},
			{"bad scope", EventInput{Title: "x", StartDate: calendar.MustParseDate("2024-05-01"), Scope: "team"}, "scope"},
			{"bad time", EventInput{Title: "x", StartDate: calendar.MustParseDate("2024-05-01"), StartTime: strPtr("25:00")}, "startTime"},
			{"inverted times", EventInput{Title: "x", StartDate: calendar.MustParseDate("2024-05-01"), StartTime: strPtr("11:00"), EndTime: strPtr("10:00")}, "endTime"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc := newTestEventService(newEventRepoStub())
				_, err := svc.CreateEvent(ctx, CreateEventParams{Principal: staff, Input: tc.input})
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.FieldErrors[tc.field] == "" {
					t.Fatalf("expected %s error, got %v", tc.field, err)
				}
			})
		}
	})

	t.Run("times may invert across days", func(t *testing.T) {
		svc := newTestEventService(newEventRepoStub())
		_, err := svc.CreateEvent(ctx, CreateEventParams{Principal: staff, Input: EventInput{
			Title:     "수련회",
			StartDate: calendar.MustParseDate("2024-05-01"),
			EndDate:   datePtr("2024-05-02"),
			StartTime: strPtr("18:00"),
			EndTime:   strPtr("09:00"),
		}})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	repo := newEventRepoStub(CalendarEvent{
		ID:        "e1",
		Title:     "워크숍",
		StartDate: calendar.MustParseDate("2024-05-01"),
		EndDate:   datePtr("2024-05-03"),
		StartTime: strPtr("09:00"),
		Color:     DefaultEventColor,
		Category:  DefaultEventCategory,
		Scope:     ScopeShared,
		CreatedBy: 1,
	})
	svc := newTestEventService(repo)
	allDay := true

	updated, err := svc.UpdateEvent(context.Background(), UpdateEventParams{Principal: staff, EventID: "e1", Patch: EventPatch{IsAllDay: &allDay, ClearEndDate: true}})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if updated.EndDate != nil || updated.StartTime != nil || !updated.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := svc.UpdateEvent(context.Background(), UpdateEventParams{Principal: staff, EventID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEventService_RangeQueries(t *testing.T) {
	repo := newEventRepoStub(
		sharedEvent("point-may31", "2024-05-31", nil),
		sharedEvent("span-apr-may", "2024-04-28", datePtr("2024-05-02")),
		sharedEvent("span-may-jun", "2024-05-30", datePtr("2024-06-01")),
		sharedEvent("june", "2024-06-10", nil),
		CalendarEvent{ID: "mine", Title: "mine", StartDate: calendar.MustParseDate("2024-05-15"), Scope: ScopePersonal, CreatedBy: staff.UserID},
		CalendarEvent{ID: "theirs", Title: "theirs", StartDate: calendar.MustParseDate("2024-05-15"), Scope: ScopePersonal, CreatedBy: 99},
	)
	svc := newTestEventService(repo)
	ctx := context.Background()

	t.Run("month includes events crossing its edges", func(t *testing.T) {
		events, err := svc.ByMonth(ctx, staff, 2024, 5, ScopeShared)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		got := eventIDs(events)
		want := []string{"span-apr-may", "span-may-jun", "point-may31"}
		if !slices.Equal(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("point event stays in its own month", func(t *testing.T) {
		events, err := svc.ByMonth(ctx, staff, 2024, 6, ScopeShared)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if slices.Contains(eventIDs(events), "point-may31") {
			t.Fatalf("point event leaked into june: %v", eventIDs(events))
		}
	})

	t.Run("invalid month", func(t *testing.T) {
		if _, err := svc.ByMonth(ctx, staff, 2024, 13, ScopeShared); ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("range with inverted bounds", func(t *testing.T) {
		_, err := svc.ByRange(ctx, staff, calendar.MustParseDate("2024-05-10"), calendar.MustParseDate("2024-05-01"), ScopeShared)
		var vErr *ValidationError
		if !errors.As(err, &vErr) || vErr.FieldErrors["end"] == "" {
			t.Fatalf("expected end validation error, got %v", err)
		}
	})

	t.Run("on date hits spanning events", func(t *testing.T) {
		events, err := svc.OnDate(ctx, staff, calendar.MustParseDate("2024-06-01"), ScopeShared)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !slices.Equal(eventIDs(events), []string{"span-may-jun"}) {
			t.Fatalf("unexpected events %v", eventIDs(events))
		}
	})

	t.Run("personal scope only returns own events", func(t *testing.T) {
		events, err := svc.ByMonth(ctx, staff, 2024, 5, ScopePersonal)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !slices.Equal(eventIDs(events), []string{"mine"}) {
			t.Fatalf("expected only mine, got %v", eventIDs(events))
		}
	})

	t.Run("visible listing merges shared and own personal", func(t *testing.T) {
		events, err := svc.ListVisible(ctx, staff, calendar.Range{Start: calendar.MustParseDate("2024-05-15"), End: calendar.MustParseDate("2024-05-15")})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if !slices.Equal(eventIDs(events), []string{"mine"}) {
			t.Fatalf("expected mine only, got %v", eventIDs(events))
		}
	})

	t.Run("rejects unknown scope", func(t *testing.T) {
		if _, err := svc.ByMonth(ctx, staff, 2024, 5, Scope("team")); ErrorKind(err) != "validation" {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestEventService_GetEvent(t *testing.T) {
	repo := newEventRepoStub(
		CalendarEvent{ID: "theirs", Title: "theirs", StartDate: calendar.MustParseDate("2024-05-15"), Scope: ScopePersonal, CreatedBy: 99},
	)
	svc := newTestEventService(repo)

	if _, err := svc.GetEvent(context.Background(), staff, "theirs"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected another user's personal event to be hidden, got %v", err)
	}
	owner := Principal{UserID: 99, Role: RoleTeacher}
	if _, err := svc.GetEvent(context.Background(), owner, "theirs"); err != nil {
		t.Fatalf("expected owner to see event, got %v", err)
	}
}

func TestEventService_Search(t *testing.T) {
	repo := newEventRepoStub()
	for i := 0; i < SearchLimit+5; i++ {
		start := calendar.MustParseDate("2024-01-01").AddDays(i)
		id := "exam-" + start.String()
		repo.events[id] = CalendarEvent{ID: id, Title: "Exam", StartDate: start, Scope: ScopeShared, CreatedBy: 1}
	}
	svc := newTestEventService(repo)
	ctx := context.Background()

	if _, err := svc.Search(ctx, staff, "   ", ""); ErrorKind(err) != "validation" {
		t.Fatalf("expected validation error for empty term, got %v", err)
	}

	events, err := svc.Search(ctx, staff, "exam", "")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(events) != SearchLimit {
		t.Fatalf("expected %d results, got %d", SearchLimit, len(events))
	}
	if events[0].StartDate.Before(events[len(events)-1].StartDate) {
		t.Fatalf("expected newest first")
	}
	last := repo.queries[len(repo.queries)-1]
	if last.Order != OrderStartDesc || last.Limit != SearchLimit {
		t.Fatalf("unexpected query %+v", last)
	}
}

func TestEventService_Upcoming(t *testing.T) {
	repo := newEventRepoStub(
		sharedEvent("yesterday", "2024-03-03", nil),
		sharedEvent("today", "2024-03-04", nil),
		sharedEvent("in-a-week", "2024-03-11", nil),
		sharedEvent("too-late", "2024-03-12", nil),
		CalendarEvent{ID: "mine", Title: "mine", StartDate: calendar.MustParseDate("2024-03-05"), Scope: ScopePersonal, CreatedBy: staff.UserID},
	)
	for i := 0; i < UpcomingLimit+2; i++ {
		id := "bulk-" + string(rune('a'+i))
		repo.events[id] = sharedEvent(id, "2024-03-06", nil)
	}
	svc := newTestEventService(repo)

	upcoming, err := svc.Upcoming(context.Background(), staff, 0)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(upcoming.Shared) != UpcomingLimit {
		t.Fatalf("expected %d shared events, got %d", UpcomingLimit, len(upcoming.Shared))
	}
	if upcoming.Shared[0].ID != "today" {
		t.Fatalf("expected today first, got %v", eventIDs(upcoming.Shared))
	}
	for _, event := range upcoming.Shared {
		if event.ID == "yesterday" || event.ID == "too-late" {
			t.Fatalf("unexpected event %s", event.ID)
		}
	}
	if !slices.Equal(eventIDs(upcoming.Personal), []string{"mine"}) {
		t.Fatalf("expected personal mine, got %v", eventIDs(upcoming.Personal))
	}

	repo.listErr = errors.New("boom")
	var pErr *PersistenceError
	if _, err := svc.Upcoming(context.Background(), staff, 3); !errors.As(err, &pErr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}
