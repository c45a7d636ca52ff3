package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic event identifiers. Queued ids are
// handed out first; after that ids are "<prefix>-<n>".
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter uint64
	queued  []string
}

// NewIDGenerator returns a generator with the given prefix ("evt" when empty).
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "evt"
	}
	return &IDGenerator{prefix: prefix}
}

// Queue makes the next calls return ids in order, e.g. Queue("42").
func (g *IDGenerator) Queue(ids ...string) *IDGenerator {
	g.mu.Lock()
	g.queued = append(g.queued, ids...)
	g.mu.Unlock()
	return g
}

// Next returns the next identifier.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next for injection into services.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}
