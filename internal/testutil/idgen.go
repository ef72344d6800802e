// Package testutil provides deterministic fakes for engine tests:
// predictable transition IDs and scriptable side-effect executors.
package testutil

import (
	"strconv"
	"sync"
)

// FixedIDGenerator returns predetermined transition IDs for testing.
//
// This enables deterministic test execution and golden trace
// comparison: tests provide a known sequence of IDs and verify exact
// audit output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("tr-1", "tr-2")
//	gen.Generate() // "tr-1"
//	gen.Generate() // "tr-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics when all ids are consumed. Fail-fast catches a test that
// performs more transitions than it declared.
func (g *FixedIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}

// SeqIDGenerator returns "tr-1", "tr-2", ... without a fixed budget.
// Use when a test doesn't care about the exact number of transitions.
type SeqIDGenerator struct {
	mu sync.Mutex
	n  int
}

// Generate returns the next sequential id.
func (g *SeqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "tr-" + strconv.Itoa(g.n)
}
