package testutil

import (
	"fmt"
	"sync"
)

// SequentialOpIDGenerator returns "op-1", "op-2", ... for deterministic
// operation IDs in tests and golden traces.
//
// Unlike engine.UUIDv7Generator, SequentialOpIDGenerator can be reset for
// test reuse.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequentialOpIDGenerator struct {
	mu  sync.Mutex
	seq int64
}

// NewSequentialOpIDGenerator creates a generator whose first ID is "op-1".
func NewSequentialOpIDGenerator() *SequentialOpIDGenerator {
	return &SequentialOpIDGenerator{}
}

// Generate returns the next operation ID.
//
// Implements engine.OpIDGenerator interface.
func (g *SequentialOpIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("op-%d", g.seq)
}

// Reset restarts the sequence. After Reset(), the next ID is "op-1".
func (g *SequentialOpIDGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}
