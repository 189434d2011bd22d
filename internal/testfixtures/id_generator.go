package testfixtures

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// fixtureNamespace seeds deterministic UUIDs so fixture ids are stable across runs.
var fixtureNamespace = uuid.MustParse("6f1c8a52-3c1d-4b57-9a5e-2f0d7a0c4e11")

// IDGenerator yields deterministic identifiers. In readable mode ids look like
// "slot-3"; in UUID mode they are name-based UUIDs shaped like production ids.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	uuids   bool
}

// NewIDGenerator returns a readable generator. An empty prefix becomes "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// NewUUIDGenerator returns a generator of deterministic UUID strings.
func NewUUIDGenerator(prefix string) *IDGenerator {
	g := NewIDGenerator(prefix)
	g.uuids = true
	return g
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	name := fmt.Sprintf("%s-%d", g.prefix, g.counter)
	if g.uuids {
		return uuid.NewSHA1(fixtureNamespace, []byte(name)).String()
	}
	return name
}

// NextFunc exposes Next for injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Reset restarts the sequence.
func (g *IDGenerator) Reset() {
	g.mu.Lock()
	g.counter = 0
	g.mu.Unlock()
}
