package http

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.CalendarEvent, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.CalendarEvent, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (application.CalendarEvent, error)
	ByMonth(ctx context.Context, principal application.Principal, year, month int, scope application.Scope) ([]application.CalendarEvent, error)
	ByRange(ctx context.Context, principal application.Principal, start, end calendar.Date, scope application.Scope) ([]application.CalendarEvent, error)
	OnDate(ctx context.Context, principal application.Principal, date calendar.Date, scope application.Scope) ([]application.CalendarEvent, error)
	Search(ctx context.Context, principal application.Principal, term string, scope application.Scope) ([]application.CalendarEvent, error)
	Upcoming(ctx context.Context, principal application.Principal, days int) (application.UpcomingEvents, error)
	ListVisible(ctx context.Context, principal application.Principal, rng calendar.Range) ([]application.CalendarEvent, error)
}

// EventHandler serves calendar event queries and edits.
type EventHandler struct {
	service   eventService
	responder responder
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, responder: newResponder(logger)}
}

func (h *EventHandler) ByMonth(c *fiber.Ctx) error {
	year, err := strconv.Atoi(strings.TrimSpace(c.Query("year")))
	if err != nil {
		return h.responder.handleServiceError(c, invalidField("year", "year must be an integer"))
	}
	month, err := strconv.Atoi(strings.TrimSpace(c.Query("month")))
	if err != nil {
		return h.responder.handleServiceError(c, invalidField("month", "month must be between 1 and 12"))
	}

	principal, _ := PrincipalFrom(c)
	events, err := h.service.ByMonth(c.UserContext(), principal, year, month, queryScope(c))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeList(c, toEventDTOs(events), len(events))
}

func (h *EventHandler) ByRange(c *fiber.Ctx) error {
	start, err := queryDate(c, "start")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	end, err := queryDate(c, "end")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	events, err := h.service.ByRange(c.UserContext(), principal, start, end, queryScope(c))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeList(c, toEventDTOs(events), len(events))
}

func (h *EventHandler) OnDate(c *fiber.Ctx) error {
	date, err := parseDateValue("date", c.Params("date"))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	events, err := h.service.OnDate(c.UserContext(), principal, date, queryScope(c))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeList(c, toEventDTOs(events), len(events))
}

func (h *EventHandler) Search(c *fiber.Ctx) error {
	principal, _ := PrincipalFrom(c)
	events, err := h.service.Search(c.UserContext(), principal, c.Query("q"), queryScope(c))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeList(c, toEventDTOs(events), len(events))
}

func (h *EventHandler) Upcoming(c *fiber.Ctx) error {
	days, err := queryInt(c, "days")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	horizon := 0
	if days != nil {
		horizon = *days
	}

	principal, _ := PrincipalFrom(c)
	upcoming, err := h.service.Upcoming(c.UserContext(), principal, horizon)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, upcomingResponse{
		Shared:   toEventDTOs(upcoming.Shared),
		Personal: toEventDTOs(upcoming.Personal),
	})
}

func (h *EventHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	event, err := h.service.GetEvent(c.UserContext(), principal, id)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Create(c *fiber.Ctx) error {
	var req eventRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	event, err := h.service.CreateEvent(c.UserContext(), application.CreateEventParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusCreated, toEventDTO(event))
}

func (h *EventHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	var req eventPatchRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	event, err := h.service.UpdateEvent(c.UserContext(), application.UpdateEventParams{
		Principal: principal,
		EventID:   id,
		Patch:     req.toPatch(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	if err := h.service.DeleteEvent(c.UserContext(), principal, id); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeJSON(c, fiber.StatusNoContent, nil)
}
