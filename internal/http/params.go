package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/calendar"
)

func invalidField(field, message string) *application.ValidationError {
	return &application.ValidationError{FieldErrors: map[string]string{field: message}}
}

func queryInt(c *fiber.Ctx, key string) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalidField(key, key+" must be an integer")
	}
	return &value, nil
}

func queryInt64(c *fiber.Ctx, key string) (*int64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return nil, invalidField(key, key+" must be a positive integer")
	}
	return &value, nil
}

// queryDate parses a YYYY-MM-DD query value. A missing value returns the zero
// date so services can report it as required.
func queryDate(c *fiber.Ctx, key string) (calendar.Date, error) {
	return parseDateValue(key, c.Query(key))
}

func parseDateValue(field, raw string) (calendar.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.Date{}, nil
	}
	date, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, invalidField(field, field+" must be YYYY-MM-DD")
	}
	return date, nil
}

// queryScope returns the requested scope, shared when omitted.
func queryScope(c *fiber.Ctx) application.Scope {
	scope := strings.ToLower(strings.TrimSpace(c.Query("scope")))
	if scope == "" {
		return application.ScopeShared
	}
	return application.Scope(scope)
}

func pathID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return "", invalidField("id", "id is required")
	}
	return id, nil
}
