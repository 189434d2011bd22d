package http

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/logging"
)

// TokenVerifier resolves a bearer token into a principal.
type TokenVerifier interface {
	Verify(token string) (application.Principal, error)
}

// RequireToken rejects requests without a valid bearer token and stores the
// principal for handlers.
func RequireToken(verifier TokenVerifier, logger *slog.Logger) fiber.Handler {
	responder := newResponder(logger)

	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return responder.writeError(c, fiber.StatusUnauthorized, errMissingToken)
		}

		principal, err := verifier.Verify(token)
		if err != nil {
			responder.loggerFor(c).InfoContext(c.UserContext(), "token rejected", "error", err)
			return responder.writeJSON(c, fiber.StatusUnauthorized, errorResponse{
				ErrorCode: "AUTH_INVALID_TOKEN",
				Message:   errInvalidToken.Error(),
			})
		}

		setPrincipal(c, principal)
		ctx := logging.ContextWithLogger(c.UserContext(), responder.loggerFor(c).With("principal_id", principal.UserID))
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequestLogger attaches a per-request logger to the user context and logs the
// outcome of each request. It expects the requestid middleware to run first.
func RequestLogger(base *slog.Logger) fiber.Handler {
	base = defaultLogger(base)

	return func(c *fiber.Ctx) error {
		logger := base.With(
			"request_id", requestID(c),
			"method", c.Method(),
			"path", c.Path(),
		)
		ctx := logging.ContextWithLogger(c.UserContext(), logger)
		c.SetUserContext(ctx)

		start := time.Now()
		err := c.Next()
		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		logger.InfoContext(ctx, "request completed", "status", status, "duration", time.Since(start))
		return err
	}
}
