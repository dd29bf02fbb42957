package engine

import "sync"

// Channels is the double-buffered external input surface. Producers stage
// values from any goroutine; the frame executor commits once at the start
// of each frame, so every expression in a frame observes the same channel
// snapshot. A channel that was never staged reads as zero, which keeps
// graphs runnable before their inputs come online.
type Channels struct {
	mu     sync.Mutex
	staged map[string][4]float64

	// committed is read only by the frame goroutine between commits.
	committed map[string][4]float64
}

// NewChannels returns an empty channel surface.
func NewChannels() *Channels {
	return &Channels{
		staged:    make(map[string][4]float64),
		committed: make(map[string][4]float64),
	}
}

// Stage records a pending value for name. Components beyond the first four
// are ignored; missing components are zero. The value becomes visible to
// expressions after the next Commit.
func (c *Channels) Stage(name string, components ...float64) {
	var v [4]float64
	n := len(components)
	if n > len(v) {
		n = len(v)
	}
	copy(v[:n], components[:n])

	c.mu.Lock()
	c.staged[name] = v
	c.mu.Unlock()
}

// Commit promotes all staged values into the committed snapshot and clears
// the staging buffer. Channels not staged since the last commit keep their
// previous committed value.
func (c *Channels) Commit() {
	c.mu.Lock()
	for name, v := range c.staged {
		c.committed[name] = v
		delete(c.staged, name)
	}
	c.mu.Unlock()
}

// Get returns the committed value of name, or zero when the channel has
// never been committed. Called only from the frame goroutine.
func (c *Channels) Get(name string) [4]float64 {
	return c.committed[name]
}
