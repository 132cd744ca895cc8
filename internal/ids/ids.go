// Package ids generates client-side query correlation ids.
package ids

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Prefix starts every generated correlation id.
const Prefix = "qry"

// Len is the length of ids produced by UUIDGenerator.
const Len = len(Prefix) + 32

// Generator produces correlation ids. Implementations must be safe for
// concurrent use.
type Generator interface {
	Generate() string
}

// UUIDGenerator generates ids from time-sortable UUIDv7 values with the
// hyphens removed, so every id is alphanumeric and Len characters long.
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a fresh id such as "qry0192f1c4b7a87c3e9d2b5a6f01c2d3e4".
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDGenerator) Generate() string {
	return Prefix + strings.ReplaceAll(uuid.Must(uuid.NewV7()).String(), "-", "")
}

// Valid reports whether id has the shape UUIDGenerator produces.
func Valid(id string) bool {
	if len(id) != Len || !strings.HasPrefix(id, Prefix) {
		return false
	}
	for _, c := range id[len(Prefix):] {
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

// FixedGenerator returns predetermined ids for testing.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedGenerator creates a generator that returns ids in order.
//
//	gen := NewFixedGenerator("qry-1", "qry-2")
//	gen.Generate() // "qry-1"
//	gen.Generate() // "qry-2"
//	gen.Generate() // panic: all ids exhausted
func NewFixedGenerator(ids ...string) *FixedGenerator {
	return &FixedGenerator{ids: ids}
}

// Generate returns the next predetermined id.
//
// Panics once all ids have been consumed; a test that builds more envelopes
// than it declared is misconfigured.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
