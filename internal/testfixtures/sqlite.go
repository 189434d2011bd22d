package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/academy-scheduler/internal/persistence"
	"github.com/example/academy-scheduler/internal/persistence/sqlite"
	"github.com/example/academy-scheduler/internal/persistence/sqlite/migration"
)

// SQLiteHarness provides repository access backed by a migrated temporary
// SQLite database for integration-style persistence tests.
type SQLiteHarness struct {
	Storage   *sqlite.Storage
	Slots     persistence.SlotRepository
	TimeSlots persistence.TimeSlotRepository
	Tasks     persistence.TaskRepository
	Events    persistence.EventRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens and migrates a database file in tb's temp dir. The
// harness closes itself through tb.Cleanup.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "academy.db")
	storage, err := sqlite.Open(migration.TempFileTestSQLiteConfig(path), DiscardLogger())
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage:   storage,
		Slots:     storage,
		TimeSlots: storage,
		Tasks:     storage,
		Events:    storage,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
