package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	logger.Info("dropped")
	logger.Warn("kept", "slot_id", "slot-1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %q", buf.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	if record["msg"] != "kept" || record["slot_id"] != "slot-1" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestNewTextWritesRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "academy.log")
	var buf bytes.Buffer
	logger, closer, err := New(Options{Format: "text", File: path}, &buf)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("task created", "task_id", "task-1")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "task_id=task-1") || !strings.Contains(buf.String(), "task_id=task-1") {
		t.Fatalf("expected record in file and stream, got file=%q stream=%q", data, buf.String())
	}
}

func TestNewRejectsUnknownSettings(t *testing.T) {
	if _, _, err := New(Options{Level: "loud"}, nil); err == nil {
		t.Fatalf("expected unknown level error")
	}
	if _, _, err := New(Options{Format: "xml"}, nil); err == nil {
		t.Fatalf("expected unknown format error")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected no logger on a bare context")
	}
	logger, closer, err := New(Options{}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closer.Close()

	ctx := ContextWithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatalf("expected attached logger")
	}
	if ContextWithLogger(ctx, nil) != ctx {
		t.Fatalf("expected nil logger to leave context unchanged")
	}

	fallback := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if FromContextOr(ctx, fallback) != logger {
		t.Fatalf("expected context logger to win over the fallback")
	}
	if FromContextOr(context.Background(), fallback) != fallback {
		t.Fatalf("expected fallback on a bare context")
	}
	if FromContextOr(context.Background(), nil) != slog.Default() {
		t.Fatalf("expected slog.Default without a fallback")
	}
}
