package sqlite

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationDir = "migrations"

// Storage bundles the SQLite repositories over one connection pool. It
// satisfies every repository interface in the persistence package.
type Storage struct {
	*SlotRepository
	*TimeSlotRepository
	*TaskRepository
	*EventRepository

	pool   *ConnectionPool
	logger *slog.Logger
}

var (
	_ persistence.SlotRepository     = (*Storage)(nil)
	_ persistence.TimeSlotRepository = (*Storage)(nil)
	_ persistence.TaskRepository     = (*Storage)(nil)
	_ persistence.EventRepository    = (*Storage)(nil)
)

// Open connects to the database described by config. Call Migrate before use
// on a fresh database.
func Open(config migration.SQLiteConfig, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}
	return &Storage{
		SlotRepository:     NewSlotRepository(pool),
		TimeSlotRepository: NewTimeSlotRepository(pool),
		TaskRepository:     NewTaskRepository(pool),
		EventRepository:    NewEventRepository(pool),
		pool:               pool,
		logger:             logger,
	}, nil
}

// Close releases the connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping checks that the database is reachable.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies the embedded schema migrations that have not run yet.
func (s *Storage) Migrate(ctx context.Context) error {
	if err := s.migrations().RunMigrations(ctx); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// MigrationStatus reports applied and pending embedded migrations.
func (s *Storage) MigrationStatus(ctx context.Context) (*migration.MigrationStatus, error) {
	return s.migrations().GetMigrationStatus(ctx)
}

func (s *Storage) migrations() migration.MigrationManager {
	return migration.NewMigrationManager(
		migration.NewFileScanner(migrationFiles),
		migration.NewSQLiteExecutor(s.pool.DB()),
		migrationDir,
		s.logger,
	)
}
