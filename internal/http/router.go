package http

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// RouterConfig wires handlers into the application. Nil handlers leave their
// routes unregistered.
type RouterConfig struct {
	Tokens      TokenVerifier
	Schedules   *ScheduleHandler
	TimeSlots   *TimeSlotHandler
	Tasks       *TaskHandler
	Events      *EventHandler
	Calendar    *CalendarHandler
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the fiber application serving the academy API.
func NewRouter(cfg RouterConfig) *fiber.App {
	logger := defaultLogger(cfg.Logger)

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
		BodyLimit:             4 << 20,
	})

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{ContextKey: requestIDLocalsKey}))
	app.Use(RequestLogger(logger))
	if len(cfg.CORSOrigins) > 0 {
		app.Use(cors.New(cors.Config{
			AllowOrigins: strings.Join(cfg.CORSOrigins, ","),
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		}))
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	if cfg.Tokens != nil {
		api.Use(RequireToken(cfg.Tokens, logger))
	}

	if h := cfg.Schedules; h != nil {
		schedules := api.Group("/schedules")
		schedules.Get("/", h.List)
		schedules.Get("/conflict", h.Conflict)
		schedules.Get("/stats", h.Stats)
		schedules.Put("/assign", h.Assign)
		schedules.Post("/", h.Create)
		schedules.Get("/:id", h.Get)
		schedules.Put("/:id", h.Update)
		schedules.Delete("/:id", h.Delete)
	}

	if h := cfg.TimeSlots; h != nil {
		api.Get("/time-slots", h.List)
		api.Put("/time-slots/:id", h.Update)
	}

	if h := cfg.Tasks; h != nil {
		tasks := api.Group("/tasks")
		tasks.Get("/", h.List)
		tasks.Post("/", h.Create)
		tasks.Post("/recurring", h.CreateRecurring)
		tasks.Post("/fixed", h.CreateFixed)
		tasks.Get("/:id", h.Get)
		tasks.Put("/:id", h.Update)
		tasks.Patch("/:id/status", h.UpdateStatus)
		tasks.Delete("/:id", h.Delete)
	}

	if h := cfg.Events; h != nil {
		events := api.Group("/calendar/events")
		events.Get("/", h.ByMonth)
		events.Get("/range", h.ByRange)
		events.Get("/date/:date", h.OnDate)
		events.Get("/search", h.Search)
		events.Get("/upcoming", h.Upcoming)
		events.Post("/", h.Create)
		events.Get("/:id", h.Get)
		events.Put("/:id", h.Update)
		events.Delete("/:id", h.Delete)
	}

	if h := cfg.Calendar; h != nil {
		api.Get("/calendar/export.ics", h.Export)
		api.Post("/calendar/import", h.Import)
	}

	return app
}
