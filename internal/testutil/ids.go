package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator returns predictable submission IDs: "sub-0001",
// "sub-0002", ... It satisfies store.IDGenerator and is safe for
// concurrent use.
type SequentialIDGenerator struct {
	prefix string

	mu  sync.Mutex
	seq int
}

// NewSequentialIDGenerator creates a generator. An empty prefix uses "sub".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "sub"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next ID.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	g.seq++
	n := g.seq
	g.mu.Unlock()
	return fmt.Sprintf("%s-%04d", g.prefix, n)
}

// Issued reports how many IDs have been generated since the last Reset.
func (g *SequentialIDGenerator) Issued() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence at 1.
func (g *SequentialIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
