package http

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

type slotService interface {
	FindConflict(ctx context.Context, principal application.Principal, dayOfWeek int, timeSlot, excludeID string) (*application.ScheduleSlot, error)
	CreateSlot(ctx context.Context, params application.CreateSlotParams) (application.ScheduleSlot, error)
	AssignSlot(ctx context.Context, params application.CreateSlotParams) (application.AssignResult, error)
	AssignSlots(ctx context.Context, principal application.Principal, inputs []application.SlotInput) (application.BulkAssignResult, error)
	UpdateSlot(ctx context.Context, params application.UpdateSlotParams) (application.ScheduleSlot, error)
	DeleteSlot(ctx context.Context, principal application.Principal, slotID string) error
	GetSlot(ctx context.Context, principal application.Principal, slotID string) (application.ScheduleSlot, error)
	ListSlots(ctx context.Context, principal application.Principal, filter application.SlotFilter) ([]application.ScheduleSlot, error)
	Stats(ctx context.Context, principal application.Principal) ([]application.DayStats, error)
}

// ScheduleHandler serves the weekly slot grid.
type ScheduleHandler struct {
	service   slotService
	responder responder
}

func NewScheduleHandler(service slotService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

func (h *ScheduleHandler) List(c *fiber.Ctx) error {
	var filter application.SlotFilter
	var err error
	if filter.DayOfWeek, err = queryInt(c, "day"); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	if filter.TeacherID, err = queryInt64(c, "teacherId"); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	if filter.StudentID, err = queryInt64(c, "studentId"); err != nil {
		return h.responder.handleServiceError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	slots, err := h.service.ListSlots(c.UserContext(), principal, filter)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeList(c, toSlotDTOs(slots), len(slots))
}

func (h *ScheduleHandler) Conflict(c *fiber.Ctx) error {
	day, err := queryInt(c, "day")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	if day == nil {
		return h.responder.handleServiceError(c, invalidField("day", "day is required"))
	}

	principal, _ := PrincipalFrom(c)
	occupant, err := h.service.FindConflict(c.UserContext(), principal, *day, c.Query("timeSlot"), c.Query("excludeId"))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	response := conflictResponse{Conflict: occupant != nil}
	if occupant != nil {
		dto := toSlotDTO(*occupant)
		response.Slot = &dto
	}
	return h.responder.writeData(c, fiber.StatusOK, response)
}

func (h *ScheduleHandler) Stats(c *fiber.Ctx) error {
	principal, _ := PrincipalFrom(c)
	stats, err := h.service.Stats(c.UserContext(), principal)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	out := make([]dayStatsDTO, 0, len(stats))
	for _, day := range stats {
		weekday, _ := calendar.DayOfWeek(day.DayOfWeek)
		out = append(out, dayStatsDTO{
			Day:      day.DayOfWeek,
			DayName:  calendar.KoreanWeekday(weekday),
			Slots:    day.Slots,
			Teachers: day.Teachers,
			Students: day.Students,
		})
	}
	return h.responder.writeList(c, out, len(out))
}

func (h *ScheduleHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	slot, err := h.service.GetSlot(c.UserContext(), principal, id)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toSlotDTO(slot))
}

func (h *ScheduleHandler) Create(c *fiber.Ctx) error {
	var req slotRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	slot, err := h.service.CreateSlot(c.UserContext(), application.CreateSlotParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusCreated, toSlotDTO(slot))
}

// Assign books a cell regardless of its occupant. A body with a "slots" array
// is applied as a batch in order.
func (h *ScheduleHandler) Assign(c *fiber.Ctx) error {
	principal, _ := PrincipalFrom(c)

	var batch assignBatchRequest
	if err := c.BodyParser(&batch); err != nil {
		return h.responder.writeError(c, fiber.StatusBadRequest, errBadRequestBody)
	}
	if batch.Slots != nil {
		if err := validateStruct(&batch); err != nil {
			return h.responder.handleServiceError(c, err)
		}
		inputs := make([]application.SlotInput, 0, len(batch.Slots))
		for _, req := range batch.Slots {
			inputs = append(inputs, req.toInput())
		}
		result, err := h.service.AssignSlots(c.UserContext(), principal, inputs)
		if err != nil {
			return h.responder.handleServiceError(c, err)
		}
		return h.responder.writeData(c, fiber.StatusOK, bulkAssignResponse{
			Slots:    toSlotDTOs(result.Slots),
			Created:  result.Created,
			Replaced: result.Replaced,
		})
	}

	var req slotRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	result, err := h.service.AssignSlot(c.UserContext(), application.CreateSlotParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	status := fiber.StatusCreated
	if result.Replaced {
		status = fiber.StatusOK
	}
	return h.responder.writeData(c, status, assignResponse{Slot: toSlotDTO(result.Slot), Replaced: result.Replaced})
}

func (h *ScheduleHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	var req slotPatchRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}

	principal, _ := PrincipalFrom(c)
	slot, err := h.service.UpdateSlot(c.UserContext(), application.UpdateSlotParams{
		Principal: principal,
		SlotID:    id,
		Patch:     req.toPatch(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toSlotDTO(slot))
}

func (h *ScheduleHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	if err := h.service.DeleteSlot(c.UserContext(), principal, id); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeJSON(c, fiber.StatusNoContent, nil)
}
