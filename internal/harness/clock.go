package harness

import "sync/atomic"

// clock is a monotonic logical clock for trace ordering.
// Each event is stamped with a strictly increasing seq starting at 1.
type clock struct {
	seq atomic.Int64
}

// Next returns the next sequence number and increments the clock.
func (c *clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *clock) Current() int64 {
	return c.seq.Load()
}
