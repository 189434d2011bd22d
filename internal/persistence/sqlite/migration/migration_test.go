package migration

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(TempFileTestSQLiteConfig(filepath.Join(t.TempDir(), "migrate.db")))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testFiles() fstest.MapFS {
	return fstest.MapFS{
		"sql/001_create_items.sql": {Data: []byte("-- Description: create items\nCREATE TABLE items (id TEXT PRIMARY KEY, name TEXT NOT NULL);\n")},
		"sql/002_seed_items.sql":   {Data: []byte("INSERT INTO items (id, name) VALUES ('a', 'first');\nINSERT INTO items (id, name) VALUES ('b', 'second');\n")},
		"sql/README.md":            {Data: []byte("ignored")},
	}
}

func TestFileScanner(t *testing.T) {
	t.Run("scans and orders migrations", func(t *testing.T) {
		migrations, err := NewFileScanner(testFiles()).ScanMigrations("sql")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}
		if migrations[0].Version != "001" || migrations[0].Description != "create items" {
			t.Fatalf("unexpected first migration: %+v", migrations[0])
		}
		if migrations[1].Description != "seed items" {
			t.Fatalf("expected description from filename, got %q", migrations[1].Description)
		}
		if migrations[0].Checksum == "" {
			t.Fatal("expected checksum to be computed")
		}
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		files := fstest.MapFS{"sql/create.sql": {Data: []byte("SELECT 1;")}}
		_, err := NewFileScanner(files).ScanMigrations("sql")
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})

	t.Run("rejects duplicate versions", func(t *testing.T) {
		files := fstest.MapFS{
			"sql/001_a.sql": {Data: []byte("SELECT 1;")},
			"sql/1_b.sql":   {Data: []byte("SELECT 2;")},
		}
		_, err := NewFileScanner(files).ScanMigrations("sql")
		if err == nil {
			t.Fatal("expected duplicate detection error")
		}
	})

	t.Run("rejects comment-only files", func(t *testing.T) {
		files := fstest.MapFS{"sql/001_empty.sql": {Data: []byte("-- nothing here\n")}}
		_, err := NewFileScanner(files).ScanMigrations("sql")
		if !errors.Is(err, ErrInvalidMigrationFile) {
			t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
		}
	})
}

func TestMigrationManager(t *testing.T) {
	ctx := context.Background()

	t.Run("applies pending migrations once", func(t *testing.T) {
		db := openTestDB(t)
		manager := NewMigrationManager(NewFileScanner(testFiles()), NewSQLiteExecutor(db), "sql", nil)

		if err := manager.RunMigrations(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := manager.RunMigrations(ctx); err != nil {
			t.Fatalf("expected second run to be a no-op, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected 2 seeded items, got %d", count)
		}

		status, err := manager.GetMigrationStatus(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if status.CurrentVersion != "002" || status.PendingCount != 0 || len(status.AppliedMigrations) != 2 {
			t.Fatalf("unexpected status: %+v", status)
		}
	})

	t.Run("rolls back a failing migration", func(t *testing.T) {
		db := openTestDB(t)
		files := testFiles()
		files["sql/003_broken.sql"] = &fstest.MapFile{Data: []byte("INSERT INTO items (id, name) VALUES ('c', 'third');\nINSERT INTO missing_table VALUES (1);\n")}
		manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), "sql", nil)

		err := manager.RunMigrations(ctx)
		if !errors.Is(err, ErrMigrationFailed) {
			t.Fatalf("expected ErrMigrationFailed, got %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count); err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 2 {
			t.Fatalf("expected failed migration to roll back, got %d items", count)
		}

		pending, err := manager.GetPendingMigrations(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(pending) != 1 || pending[0].Version != "003" {
			t.Fatalf("expected 003 to remain pending, got %+v", pending)
		}
	})

	t.Run("detects gaps in the sequence", func(t *testing.T) {
		db := openTestDB(t)
		files := fstest.MapFS{
			"sql/001_a.sql": {Data: []byte("CREATE TABLE a (id INTEGER);")},
			"sql/003_c.sql": {Data: []byte("CREATE TABLE c (id INTEGER);")},
		}
		manager := NewMigrationManager(NewFileScanner(files), NewSQLiteExecutor(db), "sql", nil)
		if err := manager.RunMigrations(ctx); !errors.Is(err, ErrVersionConflict) {
			t.Fatalf("expected ErrVersionConflict, got %v", err)
		}
	})
}

func TestSplitStatements(t *testing.T) {
	statements := splitStatements("-- header\nCREATE TABLE a (id INTEGER);\n\n-- note\nINSERT INTO a VALUES (1);\n")
	if len(statements) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(statements), statements)
	}
	if !strings.HasPrefix(statements[0], "CREATE TABLE") {
		t.Fatalf("unexpected first statement %q", statements[0])
	}
}

func TestSQLiteConfig(t *testing.T) {
	cfg := DefaultSQLiteConfig("data/academy.db")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dsn := cfg.ConnectionString()
	if !strings.HasPrefix(dsn, "data/academy.db?") || !strings.Contains(dsn, "foreign_keys") {
		t.Fatalf("expected pragmas in connection string, got %q", dsn)
	}

	cfg.JournalMode = "SIDEWAYS"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected invalid journal mode to be rejected")
	}

	if path := (SQLiteConfig{DSN: "file::memory:?cache=shared&mode=memory"}).filePath(); path != "" {
		t.Fatalf("expected in-memory DSN to have no file path, got %q", path)
	}
}
