package dashboard

import "sync"

// defaultBufferSize bounds how many inlet events the dashboard retains for
// late-joining clients. Settings events are a few hundred bytes each, so
// this keeps the initial_state payload comfortably small.
const defaultBufferSize = 512

// RingBuffer retains the most recent DashboardEvents in arrival order.
// Safe for concurrent use by the hub and the HTTP handlers.
type RingBuffer struct {
	mu   sync.RWMutex
	buf  []*DashboardEvent
	next int  // write cursor
	full bool // buf has wrapped at least once
}

// NewRingBuffer creates a ring buffer with the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = defaultBufferSize
	}
	return &RingBuffer{buf: make([]*DashboardEvent, capacity)}
}

// Add records an event, evicting the oldest once capacity is reached.
func (rb *RingBuffer) Add(event *DashboardEvent) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.buf[rb.next] = event
	rb.next++
	if rb.next == len(rb.buf) {
		rb.next = 0
		rb.full = true
	}
}

// All returns the retained events, oldest first.
func (rb *RingBuffer) All() []*DashboardEvent {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if !rb.full {
		out := make([]*DashboardEvent, rb.next)
		copy(out, rb.buf[:rb.next])
		return out
	}
	out := make([]*DashboardEvent, 0, len(rb.buf))
	out = append(out, rb.buf[rb.next:]...)
	out = append(out, rb.buf[:rb.next]...)
	return out
}

// Len returns the number of retained events.
func (rb *RingBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.full {
		return len(rb.buf)
	}
	return rb.next
}
