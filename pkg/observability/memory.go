package observability

import "sync"

// MemoryCollector keeps the most recent closed segments in a fixed-size
// ring buffer, newest first. It backs the debug endpoint and doubles as
// the collector used in tests.
type MemoryCollector struct {
	mu   sync.Mutex
	buf  []*Segment
	next int
	full bool
}

// NewMemoryCollector creates a collector retaining up to max segments
func NewMemoryCollector(max int) *MemoryCollector {
	if max <= 0 {
		max = 100
	}
	return &MemoryCollector{buf: make([]*Segment, max)}
}

// Emit implements Collector
func (c *MemoryCollector) Emit(seg *Segment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.buf[c.next] = seg
	c.next++
	if c.next == len(c.buf) {
		c.next = 0
		c.full = true
	}
}

// Recent returns the retained segments, newest first
func (c *MemoryCollector) Recent() []*Segment {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := c.next
	if c.full {
		n = len(c.buf)
	}

	out := make([]*Segment, 0, n)
	for i := 1; i <= n; i++ {
		idx := c.next - i
		if idx < 0 {
			idx += len(c.buf)
		}
		out = append(out, c.buf[idx])
	}
	return out
}

// Len reports how many segments are currently retained
func (c *MemoryCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.full {
		return len(c.buf)
	}
	return c.next
}
