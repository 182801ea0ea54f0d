package store

import "sync/atomic"

// Metrics is a point-in-time copy of the store counters.
type Metrics struct {
	Reads             uint64
	InterpolatedReads uint64
	Writes            uint64
	TimelinesCreated  uint64
	TypesCreated      uint64
	KeyframesPruned   uint64
}

// counters is nil when metrics are disabled; every method tolerates that.
type counters struct {
	reads             atomic.Uint64
	interpolatedReads atomic.Uint64
	writes            atomic.Uint64
	timelinesCreated  atomic.Uint64
	typesCreated      atomic.Uint64
	keyframesPruned   atomic.Uint64
}

func (c *counters) read(interpolated bool) {
	if c == nil {
		return
	}
	c.reads.Add(1)
	if interpolated {
		c.interpolatedReads.Add(1)
	}
}

func (c *counters) write() {
	if c != nil {
		c.writes.Add(1)
	}
}

func (c *counters) timelineCreated() {
	if c != nil {
		c.timelinesCreated.Add(1)
	}
}

func (c *counters) typeCreated() {
	if c != nil {
		c.typesCreated.Add(1)
	}
}

func (c *counters) pruned(n int) {
	if c != nil && n > 0 {
		c.keyframesPruned.Add(uint64(n))
	}
}

func (c *counters) snapshot() Metrics {
	if c == nil {
		return Metrics{}
	}
	return Metrics{
		Reads:             c.reads.Load(),
		InterpolatedReads: c.interpolatedReads.Load(),
		Writes:            c.writes.Load(),
		TimelinesCreated:  c.timelinesCreated.Load(),
		TypesCreated:      c.typesCreated.Load(),
		KeyframesPruned:   c.keyframesPruned.Load(),
	}
}
