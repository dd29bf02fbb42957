package engine

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator produces session tokens. Tokens identify a live session in
// traces and logs; they are opaque strings with no ordering guarantees.
type TokenGenerator interface {
	NewToken() string
}

// UUIDv7Generator produces time-ordered UUID tokens. It is stateless and
// safe for concurrent use.
type UUIDv7Generator struct{}

// NewToken returns a fresh UUIDv7 string.
func (UUIDv7Generator) NewToken() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns tokens from a predetermined list, for tests that
// need stable session identity. It panics when the list is exhausted so a
// misconfigured test fails loudly instead of reusing tokens.
type FixedGenerator struct {
	mu     sync.Mutex
	tokens []string
	next   int
}

// NewFixedGenerator returns a generator that yields the given tokens in
// order.
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// NewToken returns the next predetermined token.
func (g *FixedGenerator) NewToken() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.next >= len(g.tokens) {
		panic(fmt.Sprintf("fixed token generator exhausted after %d tokens", len(g.tokens)))
	}
	t := g.tokens[g.next]
	g.next++
	return t
}
