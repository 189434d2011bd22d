package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
	"github.com/example/academy-scheduler/internal/ics"
)

const maxImportBytes = 2 << 20

// CalendarHandler exchanges calendar events as iCalendar files.
type CalendarHandler struct {
	service   eventService
	location  *time.Location
	responder responder
	logger    *slog.Logger
}

// NewCalendarHandler returns a handler interpreting wall-clock event times in
// loc. A nil loc uses time.Local.
func NewCalendarHandler(service eventService, loc *time.Location, logger *slog.Logger) *CalendarHandler {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarHandler{
		service:   service,
		location:  loc,
		responder: newResponder(logger),
		logger:    defaultLogger(logger),
	}
}

// Export answers the events visible to the caller between from and to. Without
// a scope both shared and personal events are included.
func (h *CalendarHandler) Export(c *fiber.Ctx) error {
	from, err := queryDate(c, "from")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	to, err := queryDate(c, "to")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	var events []application.CalendarEvent
	if scope := strings.TrimSpace(c.Query("scope")); scope != "" {
		events, err = h.service.ByRange(c.UserContext(), principal, from, to, application.Scope(scope))
	} else {
		var rng calendar.Range
		if rng, err = rangeOf(from, to); err == nil {
			events, err = h.service.ListVisible(c.UserContext(), principal, rng)
		}
	}
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}

	var buf bytes.Buffer
	if err := ics.Export(&buf, events, "academy", h.location); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="academy-%s-%s.ics"`, from, to))
	return c.Status(fiber.StatusOK).Send(buf.Bytes())
}

func rangeOf(from, to calendar.Date) (calendar.Range, error) {
	vErr := &application.ValidationError{FieldErrors: map[string]string{}}
	if from.IsZero() {
		vErr.FieldErrors["from"] = "from is required"
	}
	if to.IsZero() {
		vErr.FieldErrors["to"] = "to is required"
	}
	if vErr.HasErrors() {
		return calendar.Range{}, vErr
	}
	rng, err := calendar.NewRange(from, to)
	if err != nil {
		return calendar.Range{}, invalidField("to", "to must not precede from")
	}
	return rng, nil
}

// Import creates one event per VEVENT of the uploaded file. The file is read
// from the "file" form field or, failing that, the raw body. A scope query
// parameter overrides the scope recorded in the file.
func (h *CalendarHandler) Import(c *fiber.Ctx) error {
	body, err := h.importBody(c)
	if err != nil {
		return h.responder.writeError(c, fiber.StatusBadRequest, errBadRequestBody)
	}

	inputs, skipped, err := ics.Parse(bytes.NewReader(body), h.location)
	if err != nil {
		if errors.Is(err, ics.ErrEmptyCalendar) {
			return h.responder.handleServiceError(c, invalidField("file", "calendar has no events"))
		}
		return h.responder.handleServiceError(c, invalidField("file", "file is not a valid iCalendar document"))
	}

	override := application.Scope(strings.ToLower(strings.TrimSpace(c.Query("scope"))))
	if override != "" && !override.Valid() {
		return h.responder.handleServiceError(c, invalidField("scope", "scope must be shared or personal"))
	}

	principal, _ := PrincipalFrom(c)
	response := importResponse{Created: []eventDTO{}, Skipped: map[string]string{}}
	for i, err := range skipped {
		response.Skipped[fmt.Sprintf("parse[%d]", i)] = err.Error()
	}
	for i, input := range inputs {
		if override != "" {
			input.Scope = override
		}
		event, err := h.service.CreateEvent(c.UserContext(), application.CreateEventParams{Principal: principal, Input: input})
		if err != nil {
			var vErr *application.ValidationError
			if errors.As(err, &vErr) {
				response.Skipped[fmt.Sprintf("events[%d]", i)] = vErr.Error()
				continue
			}
			return h.responder.handleServiceError(c, err)
		}
		response.Created = append(response.Created, toEventDTO(event))
	}

	handlerLogger(c, h.logger, "CalendarHandler", "Import").
		InfoContext(c.UserContext(), "calendar imported", "created_count", len(response.Created), "skipped_count", len(response.Skipped))
	return h.responder.writeData(c, fiber.StatusCreated, response)
}

func (h *CalendarHandler) importBody(c *fiber.Ctx) ([]byte, error) {
	if header, err := c.FormFile("file"); err == nil {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxImportBytes))
	}
	body := c.Body()
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if len(body) > maxImportBytes {
		body = body[:maxImportBytes]
	}
	return body, nil
}
