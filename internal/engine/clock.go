package engine

import "sync/atomic"

// Clock issues monotonically increasing frame sequence numbers. Sequence
// numbers stamp evaluator memo entries and frame traces; they carry no
// wall-time meaning.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first Next call yields 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first Next call yields seq+1. Replays
// use it to resume numbering from an archived trace.
func NewClockAt(seq int64) *Clock {
	c := &Clock{}
	c.seq.Store(seq)
	return c
}

// Next advances the clock and returns the new sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the most recently issued sequence number without
// advancing the clock.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
