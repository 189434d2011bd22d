package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/academy-scheduler/internal/application"
	"github.com/example/academy-scheduler/internal/config"
	httptransport "github.com/example/academy-scheduler/internal/http"
	"github.com/example/academy-scheduler/internal/logging"
	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/persistence/sqlite"
)

var version = "dev"

type cli struct {
	Version kong.VersionFlag `help:"Print the version and exit."`
	Config  string           `help:"YAML configuration file." type:"path" short:"c"`

	Serve   serveCmd   `cmd:"" default:"1" help:"Run the academy API server."`
	Migrate migrateCmd `cmd:"" help:"Apply pending database migrations."`
	Token   tokenCmd   `cmd:"" help:"Mint a bearer token for a staff member."`
}

// runContext is bound to every command's Run method.
type runContext struct {
	ctx    context.Context
	cfg    config.Config
	logger *slog.Logger
	out    io.Writer
	now    func() time.Time
	newID  func() string
}

func main() {
	var args cli
	parser, err := newParser(&args, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	kctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, kctx, args.Config, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newParser(args *cli, out io.Writer) (*kong.Kong, error) {
	return kong.New(args,
		kong.Name("academy"),
		kong.Description("Weekly timetable, task board and calendar API for a small academy."),
		kong.UsageOnError(),
		kong.Writers(out, out),
		kong.Vars{"version": version},
	)
}

func run(ctx context.Context, kctx *kong.Context, configPath string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(cfg.LoggingOptions(), os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() {
		_ = closer.Close()
	}()

	return kctx.Run(&runContext{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger,
		out:    out,
		now:    time.Now,
		newID:  uuid.NewString,
	})
}

type serveCmd struct {
	Port int `help:"Listen port. Overrides the configured port."`
}

func (c *serveCmd) Run(rc *runContext) error {
	if err := rc.cfg.RequireJWTSecret(); err != nil {
		return err
	}

	storage, err := openStorage(rc.ctx, rc.cfg, rc.logger, true)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			rc.logger.Error("failed to close storage", "error", cerr)
		}
	}()

	app := newApp(rc.cfg, storage, rc.logger, rc.now, rc.newID)

	port := rc.cfg.HTTP.Port
	if c.Port > 0 {
		port = c.Port
	}
	addr := fmt.Sprintf(":%d", port)

	errCh := make(chan error, 1)
	go func() {
		rc.logger.Info("academy API listening", "addr", addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server encountered error: %w", err)
	case <-rc.ctx.Done():
	}

	rc.logger.Info("shutting down", "timeout", rc.cfg.HTTP.ShutdownTimeout)
	if err := app.ShutdownWithTimeout(rc.cfg.HTTP.ShutdownTimeout); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

type migrateCmd struct {
	Status bool `help:"Only report migration status."`
}

func (c *migrateCmd) Run(rc *runContext) error {
	storage, err := openStorage(rc.ctx, rc.cfg, rc.logger, !c.Status)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.Close()
	}()

	status, err := storage.MigrationStatus(rc.ctx)
	if err != nil {
		return fmt.Errorf("failed to read migration status: %w", err)
	}
	current := status.CurrentVersion
	if current == "" {
		current = "none"
	}
	fmt.Fprintf(rc.out, "schema version: %s\n", current)
	fmt.Fprintf(rc.out, "applied: %d, pending: %d\n", len(status.AppliedMigrations), len(status.PendingMigrations))
	for _, pending := range status.PendingMigrations {
		fmt.Fprintf(rc.out, "  pending %s %s\n", pending.Version, pending.Description)
	}
	return nil
}

type tokenCmd struct {
	ID   int64         `help:"Staff member id." required:""`
	Name string        `help:"Display name carried in the token."`
	Role string        `help:"Staff role." enum:"director,vice_director,teacher,staff" default:"teacher"`
	TTL  time.Duration `help:"Token lifetime. Defaults to the configured TTL."`
}

func (c *tokenCmd) Run(rc *runContext) error {
	if err := rc.cfg.RequireJWTSecret(); err != nil {
		return err
	}
	ttl := rc.cfg.Auth.TokenTTL
	if c.TTL > 0 {
		ttl = c.TTL
	}
	issuer := httptransport.NewTokenIssuer(rc.cfg.Auth.JWTSecret, ttl, rc.now)
	token, expiresAt, err := issuer.Issue(application.Principal{
		UserID: c.ID,
		Name:   c.Name,
		Role:   application.Role(c.Role),
	})
	if err != nil {
		return err
	}
	rc.logger.Info("token issued", "principal_id", c.ID, "role", c.Role, "expires_at", expiresAt)
	fmt.Fprintln(rc.out, token)
	return nil
}

func openStorage(ctx context.Context, cfg config.Config, logger *slog.Logger, migrate bool) (*sqlite.Storage, error) {
	storage, err := sqlite.Open(cfg.SQLiteSettings(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if !migrate {
		return storage, nil
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return storage, nil
}

// repositories is the storage surface the API needs.
type repositories interface {
	persistence.SlotRepository
	persistence.TimeSlotRepository
	persistence.TaskRepository
	persistence.EventRepository
}

func newApp(cfg config.Config, repos repositories, logger *slog.Logger, now func() time.Time, newID func() string) *fiber.App {
	slotService := application.NewSlotServiceWithLogger(newSlotRepositoryAdapter(repos), newID, now, logger)
	timeSlotService := application.NewTimeSlotService(newTimeSlotRepositoryAdapter(repos), logger)
	taskService := application.NewTaskServiceWithLogger(newTaskRepositoryAdapter(repos), newID, now, cfg.Calendar.MaterializeHorizonDays, logger)
	eventService := application.NewEventServiceWithLogger(newEventRepositoryAdapter(repos), newID, now, cfg.Calendar.UpcomingDays, logger)

	return httptransport.NewRouter(httptransport.RouterConfig{
		Tokens:      httptransport.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, now),
		Schedules:   httptransport.NewScheduleHandler(slotService, logger),
		TimeSlots:   httptransport.NewTimeSlotHandler(timeSlotService, logger),
		Tasks:       httptransport.NewTaskHandler(taskService, logger),
		Events:      httptransport.NewEventHandler(eventService, logger),
		Calendar:    httptransport.NewCalendarHandler(eventService, time.Local, logger),
		CORSOrigins: cfg.HTTP.CORSOrigins,
		Logger:      logger,
	})
}
