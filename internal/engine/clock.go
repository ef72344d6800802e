package engine

import "sync/atomic"

// Clock is the monotonic logical clock stamping transition records.
//
// Audit log ordering uses the seq from this clock rather than wall
// time, so two transitions recorded within the same wall-clock instant
// still carry a total order and reads of the log sort identically.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific sequence
// number. Used to resume numbering above an existing audit log.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number and increments the clock.
// Calls are linearizable - each call returns a unique, increasing value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
// Useful for resuming a clock above the highest persisted seq.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
