package testutil

import "sync"

// DefaultRunID is returned by a FixedRunIDGenerator created without IDs.
const DefaultRunID = "test-run-default"

// FixedRunIDGenerator returns predetermined run IDs in order and then keeps
// returning the last one. It satisfies runner.IDGenerator.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator over ids.
//
//	gen := NewFixedRunIDGenerator("run-1", "run-2")
//	gen.Generate() // "run-1"
//	gen.Generate() // "run-2"
//	gen.Generate() // "run-2"
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	if len(ids) == 0 {
		ids = []string{DefaultRunID}
	}
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next run ID.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.ids[g.idx]
	if g.idx < len(g.ids)-1 {
		g.idx++
	}
	return id
}
