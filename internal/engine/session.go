package engine

import (
	"log/slog"
	"sync/atomic"

	"github.com/kinetic-lang/kinetic/internal/ir"
)

// Session is a live animation runtime for one program. A single goroutine
// owns the frame loop (ExecuteFrame, Swap adoption); staging channel
// values and requesting a program swap are safe from any goroutine.
type Session struct {
	token string
	log   *slog.Logger
	clock *Clock

	active  atomic.Pointer[ir.Program]
	pending atomic.Pointer[ir.Program]

	state *RuntimeState
	chans *Channels
	pool  *BufferPool
	wrap  WrapState
	memo  []memoEntry
}

// SessionOption configures a Session at construction.
type SessionOption func(*sessionConfig)

type sessionConfig struct {
	tokens    TokenGenerator
	clock     *Clock
	logger    *slog.Logger
	maxPooled int
}

// WithTokenGenerator overrides the session token source. Tests use
// FixedGenerator for stable tokens.
func WithTokenGenerator(g TokenGenerator) SessionOption {
	return func(c *sessionConfig) { c.tokens = g }
}

// WithClock overrides the frame sequence clock, letting replays resume
// numbering from an archived trace.
func WithClock(clock *Clock) SessionOption {
	return func(c *sessionConfig) { c.clock = clock }
}

// WithLogger sets the session logger.
func WithLogger(l *slog.Logger) SessionOption {
	return func(c *sessionConfig) { c.logger = l }
}

// WithMaxPooledBuffers caps each buffer pool free list.
func WithMaxPooledBuffers(n int) SessionOption {
	return func(c *sessionConfig) { c.maxPooled = n }
}

// NewSession creates a runtime for prog with freshly initialized state.
func NewSession(prog *ir.Program, opts ...SessionOption) *Session {
	cfg := sessionConfig{
		tokens: UUIDv7Generator{},
		clock:  NewClock(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Session{
		token: cfg.tokens.NewToken(),
		log:   cfg.logger,
		clock: cfg.clock,
		state: NewRuntimeState(prog),
		chans: NewChannels(),
		pool:  NewBufferPool(cfg.maxPooled),
		memo:  newMemo(prog),
	}
	s.active.Store(prog)
	return s
}

// Token returns the session's identity token.
func (s *Session) Token() string { return s.token }

// Program returns the currently active program. A swapped-in program
// becomes active only once the frame loop adopts it.
func (s *Session) Program() *ir.Program { return s.active.Load() }

// Channels returns the external input surface.
func (s *Session) Channels() *Channels { return s.chans }

// Swap schedules prog to replace the active program. The frame loop adopts
// it at the start of its next frame, remapping state by continuity key.
// A second Swap before adoption supersedes the first.
func (s *Session) Swap(prog *ir.Program) {
	s.pending.Store(prog)
}

// adoptPending installs a pending program swap, if any, and returns the
// program to execute this frame. Runs on the frame goroutine so the state
// remap never races a frame in flight.
func (s *Session) adoptPending() *ir.Program {
	if next := s.pending.Swap(nil); next != nil {
		prev := s.active.Load()
		s.state = s.state.Remap(next)
		s.memo = newMemo(next)
		s.active.Store(next)
		s.log.Info("program swapped",
			"session", s.token,
			"from", prev.Hash,
			"to", next.Hash)
	}
	return s.active.Load()
}
