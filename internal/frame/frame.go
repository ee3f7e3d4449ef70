// Package frame animates the border length drawn around the counter.
package frame

import (
	"fmt"
	"time"

	"github.com/verte-zerg/kpmoled/internal/clock"
)

const (
	// DefaultInterval is the minimum time between two animation steps.
	DefaultInterval = 100 * time.Millisecond
	// DefaultScale is the window total that maps to one pixel of border.
	DefaultScale = 200 * time.Millisecond
)

// Animator moves the border length one pixel at a time toward the length
// implied by the window total.
type Animator struct {
	clock    clock.Clock
	interval time.Duration
	scale    time.Duration
	max      int

	value int
	last  time.Duration
}

// NewAnimator returns an Animator for a border of max pixels.
func NewAnimator(c clock.Clock, max int, interval, scale time.Duration) (*Animator, error) {
	if c == nil {
		return nil, fmt.Errorf("clock must not be nil")
	}
	if max <= 0 {
		return nil, fmt.Errorf("border length must be > 0")
	}
	if interval < 0 {
		return nil, fmt.Errorf("frame interval must be >= 0")
	}
	if scale <= 0 {
		return nil, fmt.Errorf("frame scale must be > 0")
	}
	return &Animator{
		clock:    c,
		interval: interval,
		scale:    scale,
		max:      max,
		last:     c.Now(),
	}, nil
}

// Tick steps toward total when more than the interval has passed since the
// previous step. It reports whether a step was taken.
func (a *Animator) Tick(total time.Duration) bool {
	now := a.clock.Now()
	if now-a.last <= a.interval {
		return false
	}
	a.last = now
	a.Step(total)
	return true
}

// Step moves the value at most one pixel toward the target for total.
func (a *Animator) Step(total time.Duration) {
	a.value += a.direction(total)
	if a.value > a.max {
		a.value = a.max
	}
	if a.value < 0 {
		a.value = 0
	}
}

func (a *Animator) direction(total time.Duration) int {
	diff := time.Duration(a.value)*a.scale - total
	if diff < 0 {
		diff = -diff
	}
	if diff < a.scale {
		return 0
	}
	if time.Duration(a.value)*a.scale > total {
		return -1
	}
	if a.value >= a.max {
		return 0
	}
	return 1
}

// Target returns the border length the animator converges to for total.
func (a *Animator) Target(total time.Duration) int {
	if total <= 0 {
		return 0
	}
	t := int(total / a.scale)
	if t > a.max {
		return a.max
	}
	return t
}

// Value returns the current border length.
func (a *Animator) Value() int {
	return a.value
}

// Max returns the full border length.
func (a *Animator) Max() int {
	return a.max
}

// Set forces the border length, clamped to [0, Max].
func (a *Animator) Set(v int) {
	switch {
	case v < 0:
		a.value = 0
	case v > a.max:
		a.value = a.max
	default:
		a.value = v
	}
}
