package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
)

const (
	principalLocalsKey = "principal"
	requestIDLocalsKey = "requestid"
)

func setPrincipal(c *fiber.Ctx, principal application.Principal) {
	c.Locals(principalLocalsKey, principal)
}

// PrincipalFrom returns the principal stored by RequireToken.
func PrincipalFrom(c *fiber.Ctx) (application.Principal, bool) {
	principal, ok := c.Locals(principalLocalsKey).(application.Principal)
	return principal, ok
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDLocalsKey).(string)
	return id
}
