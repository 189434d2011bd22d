package http

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
)

type taskService interface {
	CreateTask(ctx context.Context, params application.CreateTaskParams) (application.Task, error)
	CreateRecurringTasks(ctx context.Context, params application.CreateRecurringTasksParams) (application.MaterializeResult, error)
	CreateFixedTasks(ctx context.Context, params application.CreateTaskParams) (application.MaterializeResult, error)
	GetTask(ctx context.Context, principal application.Principal, taskID string) (application.Task, error)
	ListTasks(ctx context.Context, principal application.Principal, filter application.TaskFilter) ([]application.Task, error)
	UpdateTask(ctx context.Context, params application.UpdateTaskParams) (application.Task, error)
	UpdateTaskStatus(ctx context.Context, principal application.Principal, taskID string, status application.TaskStatus) (application.Task, error)
	DeleteTask(ctx context.Context, principal application.Principal, taskID string) error
}

// TaskHandler serves dated tasks and their bulk creation.
type TaskHandler struct {
	service   taskService
	responder responder
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{service: service, responder: newResponder(logger)}
}

func (h *TaskHandler) List(c *fiber.Ctx) error {
	var filter application.TaskFilter
	date, err := queryDate(c, "date")
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	if !date.IsZero() {
		filter.TargetDate = &date
	}
	if filter.AssigneeID, err = queryInt64(c, "assigneeId"); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		s := application.TaskStatus(status)
		filter.Status = &s
	}

	principal, _ := PrincipalFrom(c)
	tasks, err := h.service.ListTasks(c.UserContext(), principal, filter)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeList(c, toTaskDTOs(tasks), len(tasks))
}

func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	task, err := h.service.GetTask(c.UserContext(), principal, id)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req taskRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	task, err := h.service.CreateTask(c.UserContext(), application.CreateTaskParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusCreated, toTaskDTO(task))
}

func (h *TaskHandler) CreateRecurring(c *fiber.Ctx) error {
	var req recurringTaskRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	result, err := h.service.CreateRecurringTasks(c.UserContext(), application.CreateRecurringTasksParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusCreated, toMaterializeResponse(result))
}

func (h *TaskHandler) CreateFixed(c *fiber.Ctx) error {
	var req taskRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	result, err := h.service.CreateFixedTasks(c.UserContext(), application.CreateTaskParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusCreated, toMaterializeResponse(result))
}

func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	var req taskPatchRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	task, err := h.service.UpdateTask(c.UserContext(), application.UpdateTaskParams{
		Principal: principal,
		TaskID:    id,
		Patch:     req.toPatch(),
	})
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	var req taskStatusRequest
	if err := bindJSON(c, &req); err != nil {
		return h.responder.handleRequestError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	task, err := h.service.UpdateTaskStatus(c.UserContext(), principal, id, application.TaskStatus(req.Status))
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeData(c, fiber.StatusOK, toTaskDTO(task))
}

func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return h.responder.handleServiceError(c, err)
	}
	principal, _ := PrincipalFrom(c)
	if err := h.service.DeleteTask(c.UserContext(), principal, id); err != nil {
		return h.responder.handleServiceError(c, err)
	}
	return h.responder.writeJSON(c, fiber.StatusNoContent, nil)
}
