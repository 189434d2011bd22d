package http

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/logging"
)

var (
	errBadRequestBody = errors.New("잘못된 요청 형식입니다.")
	errMissingToken   = errors.New("인증 토큰이 필요합니다.")
	errInvalidToken   = errors.New("인증 토큰이 유효하지 않습니다.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	return responder{logger: defaultLogger(logger)}
}

type dataResponse struct {
	Data  any  `json:"data"`
	Count *int `json:"count,omitempty"`
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflict  *slotDTO          `json:"conflict,omitempty"`
}

func (r responder) writeJSON(c *fiber.Ctx, status int, payload any) error {
	if status == fiber.StatusNoContent || payload == nil {
		return c.SendStatus(status)
	}
	return c.Status(status).JSON(payload)
}

func (r responder) writeData(c *fiber.Ctx, status int, data any) error {
	return r.writeJSON(c, status, dataResponse{Data: data})
}

func (r responder) writeList(c *fiber.Ctx, data any, count int) error {
	return r.writeJSON(c, fiber.StatusOK, dataResponse{Data: data, Count: &count})
}

func (r responder) writeError(c *fiber.Ctx, status int, err error) error {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(c).WarnContext(c.UserContext(), "request rejected", "status", status, "error", err)
	}
	return r.writeJSON(c, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return r.writeError(c, fiber.StatusInternalServerError, errors.New("unknown error"))
	}

	var (
		vErr        *application.ValidationError
		conflictErr *application.SlotConflictError
	)
	switch {
	case errors.As(err, &vErr):
		return r.writeJSON(c, fiber.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   localizedStatusMessage(fiber.StatusUnprocessableEntity),
			Errors:    vErr.FieldErrors,
		})
	case errors.As(err, &conflictErr):
		body := errorResponse{
			ErrorCode: "SLOT_CONFLICT",
			Message:   "해당 요일과 시간대에 이미 수업이 있습니다.",
		}
		if conflictErr.Occupant != nil {
			occupant := toSlotDTO(*conflictErr.Occupant)
			body.Conflict = &occupant
		}
		return r.writeJSON(c, fiber.StatusConflict, body)
	case errors.Is(err, application.ErrConflict):
		return r.writeJSON(c, fiber.StatusConflict, errorResponse{Message: localizedStatusMessage(fiber.StatusConflict)})
	case errors.Is(err, application.ErrUnauthorized):
		return r.writeJSON(c, fiber.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   localizedStatusMessage(fiber.StatusForbidden),
		})
	case errors.Is(err, application.ErrNotFound):
		return r.writeJSON(c, fiber.StatusNotFound, errorResponse{Message: localizedStatusMessage(fiber.StatusNotFound)})
	default:
		r.loggerFor(c).ErrorContext(c.UserContext(), "request failed", "error", err, "error_kind", application.ErrorKind(err))
		return r.writeJSON(c, fiber.StatusInternalServerError, errorResponse{Message: localizedStatusMessage(fiber.StatusInternalServerError)})
	}
}

// handleRequestError renders a binding or service error.
func (r responder) handleRequestError(c *fiber.Ctx, err error) error {
	if errors.Is(err, errBadRequestBody) {
		return r.writeError(c, fiber.StatusBadRequest, err)
	}
	return r.handleServiceError(c, err)
}

func (r responder) loggerFor(c *fiber.Ctx) *slog.Logger {
	if logger := logging.FromContext(c.UserContext()); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "요청 내용이 올바르지 않습니다."
	case fiber.StatusUnauthorized:
		return "인증이 필요합니다."
	case fiber.StatusForbidden:
		return "이 작업을 수행할 권한이 없습니다."
	case fiber.StatusNotFound:
		return "요청한 리소스를 찾을 수 없습니다."
	case fiber.StatusMethodNotAllowed:
		return "허용되지 않은 메서드입니다."
	case fiber.StatusConflict:
		return "요청이 현재 리소스 상태와 충돌합니다."
	case fiber.StatusUnprocessableEntity:
		return "입력 내용에 오류가 있습니다."
	default:
		return "서버 오류가 발생했습니다."
	}
}

// errorHandler renders errors that escape handlers, including fiber's own
// routing errors and recovered panics.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	r := newResponder(logger)
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return r.writeJSON(c, fiberErr.Code, errorResponse{Message: localizedStatusMessage(fiberErr.Code)})
		}
		return r.handleServiceError(c, err)
	}
}
