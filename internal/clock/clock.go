// Package clock provides monotonic time sources for the counter and animator.
package clock

import "time"

// Clock reports monotonic elapsed time since an arbitrary origin.
type Clock interface {
	Now() time.Duration
}

// Monotonic reads the process monotonic clock.
type Monotonic struct {
	start time.Time
}

// NewMonotonic returns a Monotonic clock starting at zero.
func NewMonotonic() *Monotonic {
	return &Monotonic{start: time.Now()}
}

// Now returns the time elapsed since the clock was created.
func (m *Monotonic) Now() time.Duration {
	return time.Since(m.start)
}

// Manual is a clock that only moves when told to.
type Manual struct {
	now time.Duration
}

// NewManual returns a Manual clock set to start.
func NewManual(start time.Duration) *Manual {
	return &Manual{now: start}
}

// Now returns the current reading.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Advance moves the clock forward by d. Negative values are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.now += d
}

// Set moves the clock to t if t is not in the past.
func (m *Manual) Set(t time.Duration) {
	if t < m.now {
		return
	}
	m.now = t
}
