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
)

// EventRepository captures the persistence operations needed by the event service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error)
	UpdateEvent(ctx context.Context, event CalendarEvent) (CalendarEvent, error)
	GetEvent(ctx context.Context, id string) (CalendarEvent, error)
	ListEvents(ctx context.Context, query EventQuery) ([]CalendarEvent, error)
	DeleteEvent(ctx context.Context, id string) error
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// UpdateEventParams wraps a partial event update.
type UpdateEventParams struct {
	Principal Principal
	EventID   string
	Patch     EventPatch
}

// EventService answers month, range, date and search queries over calendar
// events. An event without an end date occupies only its start date.
// Personal events are only ever returned to their owner.
type EventService struct {
	events       EventRepository
	idGenerator  func() string
	now          func() time.Time
	upcomingDays int
	logger       *slog.Logger
}

// NewEventService constructs an event service with the default upcoming horizon.
func NewEventService(events EventRepository, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, idGenerator, now, DefaultUpcomingDays, nil)
}

// NewEventServiceWithLogger constructs an event service. upcomingDays is the
// horizon used when Upcoming is called without one.
func NewEventServiceWithLogger(events EventRepository, idGenerator func() string, now func() time.Time, upcomingDays int, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if upcomingDays <= 0 {
		upcomingDays = DefaultUpcomingDays
	}
	return &EventService{events: events, idGenerator: idGenerator, now: now, upcomingDays: upcomingDays, logger: logging.OrDefault(logger)}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent normalizes and stores an event. All-day events never keep times.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event CalendarEvent, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "principal_id", params.Principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID, "scope", string(event.Scope)).InfoContext(ctx, "event created")
	}()

	in := params.Input
	candidate := CalendarEvent{
		Title:       strings.TrimSpace(in.Title),
		Description: normalizeOptionalString(in.Description),
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		StartTime:   normalizeOptionalString(in.StartTime),
		EndTime:     normalizeOptionalString(in.EndTime),
		IsAllDay:    in.IsAllDay,
		IsHoliday:   in.IsHoliday,
		Color:       strings.TrimSpace(in.Color),
		Category:    strings.TrimSpace(in.Category),
		Location:    normalizeOptionalString(in.Location),
		Scope:       in.Scope,
		CreatedBy:   params.Principal.UserID,
	}

	if vErr := normalizeEvent(&candidate); vErr.HasErrors() {
		err = vErr
		return
	}

	candidate.ID = s.idGenerator()
	candidate.CreatedAt = s.now()
	candidate.UpdatedAt = candidate.CreatedAt

	event, err = s.events.CreateEvent(ctx, candidate)
	if err != nil {
		err = mapEventRepoError("create event", err)
	}
	return
}

// UpdateEvent applies a partial update and re-normalizes the result.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event CalendarEvent, err error) {
	if s == nil || s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	var existing CalendarEvent
	existing, err = s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		err = mapEventRepoError("get event", err)
		return
	}

	updated := applyEventPatch(existing, params.Patch)
	if vErr := normalizeEvent(&updated); vErr.HasErrors() {
		err = vErr
		return
	}
	updated.UpdatedAt = s.now()

	event, err = s.events.UpdateEvent(ctx, updated)
	if err != nil {
		err = mapEventRepoError("update event", err)
	}
	return
}

// DeleteEvent removes an event.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) error {
	if s == nil || s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent",
		"principal_id", principal.UserID,
		"event_id", eventID,
	)
	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		err = mapEventRepoError("delete event", err)
		logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	logger.InfoContext(ctx, "event deleted")
	return nil
}

// GetEvent returns an event visible to principal. Another user's personal
// event is reported as not found.
func (s *EventService) GetEvent(ctx context.Context, principal Principal, eventID string) (CalendarEvent, error) {
	if s == nil || s.events == nil {
		return CalendarEvent{}, fmt.Errorf("event repository not configured")
	}
	event, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		return CalendarEvent{}, mapEventRepoError("get event", err)
	}
	if !visibleTo(event, "", principal.UserID) {
		return CalendarEvent{}, ErrNotFound
	}
	return event, nil
}

// ByMonth returns events whose occupied days intersect the month.
func (s *EventService) ByMonth(ctx context.Context, principal Principal, year, month int, scope Scope) ([]CalendarEvent, error) {
	rng, err := calendar.MonthRange(year, month)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("month", "month must be between 1 and 12")
		return nil, vErr
	}
	return s.overlapping(ctx, "ByMonth", principal, rng, scope)
}

// ByRange returns events whose occupied days intersect [start, end].
func (s *EventService) ByRange(ctx context.Context, principal Principal, start, end calendar.Date, scope Scope) ([]CalendarEvent, error) {
	vErr := &ValidationError{}
	if start.IsZero() {
		vErr.add("start", "start is required")
	}
	if end.IsZero() {
		vErr.add("end", "end is required")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	rng, err := calendar.NewRange(start, end)
	if err != nil {
		return nil, fieldError("end", "end must not precede start")
	}
	return s.overlapping(ctx, "ByRange", principal, rng, scope)
}

// OnDate returns events that contain date.
func (s *EventService) OnDate(ctx context.Context, principal Principal, date calendar.Date, scope Scope) ([]CalendarEvent, error) {
	if date.IsZero() {
		return nil, fieldError("date", "date is required")
	}
	return s.overlapping(ctx, "OnDate", principal, calendar.Range{Start: date, End: date}, scope)
}

// Search matches term against title, description, category and location,
// newest first, capped at SearchLimit.
func (s *EventService) Search(ctx context.Context, principal Principal, term string, scope Scope) (events []CalendarEvent, err error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fieldError("q", "search term is required")
	}
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	events, err = s.events.ListEvents(ctx, EventQuery{
		Scope:   scope,
		OwnerID: principal.UserID,
		Term:    term,
		Order:   OrderStartDesc,
		Limit:   SearchLimit,
	})
	if err != nil {
		err = mapEventRepoError("search events", err)
		s.loggerWith(ctx, "Search", "principal_id", principal.UserID).
			ErrorContext(ctx, "failed to search events", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}
	return filterVisible(events, scope, principal.UserID, nil), nil
}

// Upcoming returns up to UpcomingLimit shared and UpcomingLimit personal events
// starting between today and today+days. days <= 0 uses the configured horizon.
func (s *EventService) Upcoming(ctx context.Context, principal Principal, days int) (UpcomingEvents, error) {
	if s == nil || s.events == nil {
		return UpcomingEvents{}, fmt.Errorf("event repository not configured")
	}
	if days <= 0 {
		days = s.upcomingDays
	}
	today := calendar.Today(s.now)
	window := calendar.Range{Start: today, End: today.AddDays(days)}

	var result UpcomingEvents
	for _, scope := range []Scope{ScopeShared, ScopePersonal} {
		events, err := s.events.ListEvents(ctx, EventQuery{
			Scope:          scope,
			OwnerID:        principal.UserID,
			StartingWithin: &window,
			Order:          OrderStartAsc,
			Limit:          UpcomingLimit,
		})
		if err != nil {
			err = mapEventRepoError("upcoming events", err)
			s.loggerWith(ctx, "Upcoming", "principal_id", principal.UserID, "scope", string(scope)).
				ErrorContext(ctx, "failed to list upcoming events", "error", err, "error_kind", ErrorKind(err))
			return UpcomingEvents{}, err
		}
		events = filterVisible(events, scope, principal.UserID, nil)
		if scope == ScopeShared {
			result.Shared = events
		} else {
			result.Personal = events
		}
	}
	return result, nil
}

// ListVisible returns every event visible to principal that intersects rng,
// shared and personal alike.
func (s *EventService) ListVisible(ctx context.Context, principal Principal, rng calendar.Range) ([]CalendarEvent, error) {
	return s.overlapping(ctx, "ListVisible", principal, rng, "")
}

func (s *EventService) overlapping(ctx context.Context, operation string, principal Principal, rng calendar.Range, scope Scope) (events []CalendarEvent, err error) {
	if s == nil || s.events == nil {
		return nil, fmt.Errorf("event repository not configured")
	}
	if err := validateScope(scope); err != nil {
		return nil, err
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
		"range", rng.String(),
		"scope", string(scope),
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to query events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(events)).DebugContext(ctx, "events queried")
	}()

	events, err = s.events.ListEvents(ctx, EventQuery{
		Scope:       scope,
		OwnerID:     principal.UserID,
		Overlapping: &rng,
		Order:       OrderStartAsc,
	})
	if err != nil {
		err = mapEventRepoError("list events", err)
		return nil, err
	}
	return filterVisible(events, scope, principal.UserID, &rng), nil
}

// filterVisible drops events outside scope or rng. Storage already applies
// both; the check keeps the contract independent of the repository.
func filterVisible(events []CalendarEvent, scope Scope, ownerID int64, rng *calendar.Range) []CalendarEvent {
	out := events[:0]
	for _, event := range events {
		if !visibleTo(event, scope, ownerID) {
			continue
		}
		if rng != nil && !event.Occupies().Overlaps(*rng) {
			continue
		}
		out = append(out, event)
	}
	return out
}

func visibleTo(event CalendarEvent, scope Scope, ownerID int64) bool {
	if scope != "" && event.Scope != scope {
		return false
	}
	return event.Scope == ScopeShared || event.CreatedBy == ownerID
}

func validateScope(scope Scope) error {
	if scope != "" && !scope.Valid() {
		return fieldError("scope", "scope must be shared or personal")
	}
	return nil
}

// normalizeEvent applies defaults, clears times on all-day events and validates.
func normalizeEvent(event *CalendarEvent) *ValidationError {
	vErr := &ValidationError{}

	if event.Title == "" {
		vErr.add("title", "title is required")
	}
	if event.StartDate.IsZero() {
		vErr.add("startDate", "startDate is required")
	}
	if event.EndDate != nil && event.EndDate.IsZero() {
		event.EndDate = nil
	}
	if event.EndDate != nil && !event.StartDate.IsZero() && event.EndDate.Before(event.StartDate) {
		vErr.add("endDate", "endDate must not precede startDate")
	}

	if event.Color == "" {
		event.Color = DefaultEventColor
	}
	if event.Category == "" {
		event.Category = DefaultEventCategory
	}
	if event.Scope == "" {
		event.Scope = ScopeShared
	}
	if !event.Scope.Valid() {
		vErr.add("scope", "scope must be shared or personal")
	}

	if event.IsAllDay {
		event.StartTime = nil
		event.EndTime = nil
		return vErr
	}
	if event.StartTime != nil {
		normalized, err := calendar.NormalizeTimeOfDay(*event.StartTime)
		if err != nil {
			vErr.add("startTime", "startTime must be HH:MM")
		} else {
			event.StartTime = &normalized
		}
	}
	if event.EndTime != nil {
		normalized, err := calendar.NormalizeTimeOfDay(*event.EndTime)
		if err != nil {
			vErr.add("endTime", "endTime must be HH:MM")
		} else {
			event.EndTime = &normalized
		}
	}
	singleDay := event.EndDate == nil || event.EndDate.Equal(event.StartDate)
	if singleDay && !vErr.HasErrors() && event.StartTime != nil && event.EndTime != nil && *event.EndTime < *event.StartTime {
		vErr.add("endTime", "endTime must not precede startTime")
	}
	return vErr
}

func applyEventPatch(event CalendarEvent, patch EventPatch) CalendarEvent {
	if patch.Title != nil {
		event.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		event.Description = normalizeOptionalString(patch.Description)
	}
	if patch.StartDate != nil {
		event.StartDate = *patch.StartDate
	}
	if patch.ClearEndDate {
		event.EndDate = nil
	} else if patch.EndDate != nil {
		end := *patch.EndDate
		event.EndDate = &end
	}
	if patch.StartTime != nil {
		event.StartTime = normalizeOptionalString(patch.StartTime)
	}
	if patch.EndTime != nil {
		event.EndTime = normalizeOptionalString(patch.EndTime)
	}
	if patch.IsAllDay != nil {
		event.IsAllDay = *patch.IsAllDay
	}
	if patch.IsHoliday != nil {
		event.IsHoliday = *patch.IsHoliday
	}
	if patch.Color != nil {
		event.Color = strings.TrimSpace(*patch.Color)
	}
	if patch.Category != nil {
		event.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Location != nil {
		event.Location = normalizeOptionalString(patch.Location)
	}
	if patch.Scope != nil {
		event.Scope = *patch.Scope
	}
	return event
}

func mapEventRepoError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return fieldError("event", "event violates a storage constraint")
	}
	return &PersistenceError{Op: op, Err: err}
}
