package testfixtures

import (
	"testing"

	"github.com/google/uuid"
)

func TestIDGeneratorReadableSequence(t *testing.T) {
	gen := NewIDGenerator("slot")

	if first, second := gen.Next(), gen.Next(); first != "slot-1" || second != "slot-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
	gen.Reset()
	if next := gen.Next(); next != "slot-1" {
		t.Fatalf("expected slot-1 after reset, got %q", next)
	}
}

func TestUUIDGeneratorIsDeterministic(t *testing.T) {
	a := NewUUIDGenerator("task")
	b := NewUUIDGenerator("task")

	first := a.Next()
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected a UUID, got %q: %v", first, err)
	}
	if first != b.Next() {
		t.Fatalf("expected identical sequences")
	}
	if first == a.Next() {
		t.Fatalf("expected distinct ids within a sequence")
	}
}
