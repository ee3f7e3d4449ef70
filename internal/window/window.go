// Package window implements the rolling keystroke window behind the KPM
// counter.
//
// A Window keeps the gaps between recent keystrokes in a fixed-capacity ring.
// The oldest retained entry always carries a zero gap, so the running total is
// the time between the oldest and the newest retained keystroke. An entry is
// evicted once that total plus the time since the newest keystroke reaches the
// window duration.
package window

import (
	"fmt"
	"time"

	"github.com/verte-zerg/kpmoled/internal/clock"
)

const (
	// DefaultDuration is the trailing span the counter covers.
	DefaultDuration = 60 * time.Second
	// DefaultCapacity bounds the number of retained keystrokes.
	DefaultCapacity = 2048
)

// Window is a sliding list of inter-keystroke gaps. It is not safe for
// concurrent use; each keyboard half owns its own Window.
type Window struct {
	clock    clock.Clock
	duration time.Duration

	buf   []time.Duration
	tail  int // index of the oldest entry
	count int
	total time.Duration
	last  time.Duration // clock reading at the newest keystroke
}

// New returns an empty Window reading time from c.
func New(c clock.Clock, duration time.Duration, capacity int) (*Window, error) {
	if c == nil {
		return nil, fmt.Errorf("clock must not be nil")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("window duration must be > 0")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("window capacity must be > 0")
	}
	return &Window{
		clock:    c,
		duration: duration,
		buf:      make([]time.Duration, capacity),
		last:     c.Now(),
	}, nil
}

// Record appends a keystroke at the current clock reading.
func (w *Window) Record() {
	w.Evict()
	now := w.clock.Now()
	delta := now - w.last
	w.last = now
	if w.count == 0 || delta < 0 {
		delta = 0
	}
	if w.count == len(w.buf) {
		w.dropOldest()
	}
	w.buf[(w.tail+w.count)%len(w.buf)] = delta
	w.count++
	w.total += delta
}

// Evict drops every keystroke that has aged out of the window.
func (w *Window) Evict() {
	since := max(w.SinceLast(), 0)
	for w.count > 0 && w.total+since >= w.duration {
		w.dropOldest()
	}
}

func (w *Window) dropOldest() {
	w.total -= w.buf[w.tail]
	w.buf[w.tail] = 0
	w.tail = (w.tail + 1) % len(w.buf)
	w.count--
	if w.count == 0 {
		w.total = 0
		return
	}
	// The new oldest keystroke starts the span, so its gap no longer counts.
	w.total -= w.buf[w.tail]
	w.buf[w.tail] = 0
}

// Count returns the number of keystrokes inside the window.
func (w *Window) Count() int {
	w.Evict()
	return w.count
}

// Total returns the span between the oldest and newest retained keystroke.
func (w *Window) Total() time.Duration {
	w.Evict()
	return w.total
}

// SinceLast returns the time elapsed since the newest keystroke.
func (w *Window) SinceLast() time.Duration {
	return w.clock.Now() - w.last
}

// Duration returns the configured window span.
func (w *Window) Duration() time.Duration {
	return w.duration
}

// Capacity returns the maximum number of retained keystrokes.
func (w *Window) Capacity() int {
	return len(w.buf)
}

// Deltas returns the retained gaps, oldest first. It does not evict.
func (w *Window) Deltas() []time.Duration {
	out := make([]time.Duration, w.count)
	for i := 0; i < w.count; i++ {
		out[i] = w.buf[(w.tail+i)%len(w.buf)]
	}
	return out
}

// Reset empties the window.
func (w *Window) Reset() {
	for i := range w.buf {
		w.buf[i] = 0
	}
	w.tail = 0
	w.count = 0
	w.total = 0
	w.last = w.clock.Now()
}
