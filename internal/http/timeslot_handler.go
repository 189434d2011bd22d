package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
)

type timeSlotService interface {
	ListActive(ctx context.Context, principal application.Principal) ([]application.TimeSlot, error)
	Update(ctx context.Context, principal application.Principal, id string, patch application.TimeSlotPatch) (application.TimeSlot, error)
}

// TimeSlotHandler serves the catalog of teaching periods.
type TimeSlotHandler struct {
	service   timeSlotService
	responder responder
}

func NewTimeSlotHandler(service timeSlotService, logger *slog.Logger) *TimeSlotHandler {
	return &TimeSlotHandler{service: service, responder: newResponder(logger)}
}

func (h *TimeSlotHandler) List(c *fiber.Ctx) error {
	principal, _ := PrincipalFrom(c)
	slots, err := h.service.ListActive(c.UserContext(), principal)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	out := make([]timeSlotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toTimeSlotDTO(slot))
	}
	return h.responder.writeList(c, out, len(out))
}

func (h *TimeSlotHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	var req timeSlotPatchRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	slot, err := h.service.Update(c.UserContext(), principal, id, application.TimeSlotPatch{
		Name:      req.Name,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsActive:  req.IsActive,
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toTimeSlotDTO(slot))
}
