package clock

import (
	"testing"
	"time"
)

func TestManualNeverGoesBack(t *testing.T) {
	c := NewManual(time.Second)
	c.Advance(250 * time.Millisecond)
	c.Advance(-time.Second)
	if got := c.Now(); got != 1250*time.Millisecond {
		t.Fatalf("expected 1.25s, got %s", got)
	}
	c.Set(time.Second)
	if got := c.Now(); got != 1250*time.Millisecond {
		t.Fatalf("set into the past moved the clock to %s", got)
	}
	c.Set(2 * time.Second)
	if got := c.Now(); got != 2*time.Second {
		t.Fatalf("expected 2s, got %s", got)
	}
}

func TestMonotonicStartsNearZero(t *testing.T) {
	c := NewMonotonic()
	first := c.Now()
	if first < 0 || first > time.Second {
		t.Fatalf("unexpected first reading %s", first)
	}
	if c.Now() < first {
		t.Fatalf("monotonic clock went back")
	}
}
