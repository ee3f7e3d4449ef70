package window

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kpmoled/internal/clock"
)

func newTestWindow(t *testing.T, capacity int) (*Window, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(0)
	w, err := New(clk, DefaultDuration, capacity)
	require.NoError(t, err)
	return w, clk
}

func sum(deltas []time.Duration) time.Duration {
	var total time.Duration
	for _, d := range deltas {
		total += d
	}
	return total
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	clk := clock.NewManual(0)
	_, err := New(nil, time.Second, 1)
	require.Error(t, err)
	_, err = New(clk, 0, 1)
	require.Error(t, err)
	_, err = New(clk, time.Second, 0)
	require.Error(t, err)
}

func TestFirstKeystrokeHasZeroDelta(t *testing.T) {
	w, clk := newTestWindow(t, 16)
	clk.Advance(45 * time.Second)
	w.Record()

	require.Equal(t, 1, w.Count())
	require.Equal(t, []time.Duration{0}, w.Deltas())
	require.Equal(t, time.Duration(0), w.Total())
}

func TestRecordAccumulatesDeltas(t *testing.T) {
	w, clk := newTestWindow(t, 16)
	w.Record()
	clk.Advance(150 * time.Millisecond)
	w.Record()
	clk.Advance(250 * time.Millisecond)
	w.Record()

	require.Equal(t, 3, w.Count())
	require.Equal(t, []time.Duration{0, 150 * time.Millisecond, 250 * time.Millisecond}, w.Deltas())
	require.Equal(t, 400*time.Millisecond, w.Total())
}

func TestEvictDropsOldestAndZeroesNewOldest(t *testing.T) {
	w, clk := newTestWindow(t, 16)
	w.Record()
	clk.Advance(10 * time.Second)
	w.Record()
	clk.Advance(20 * time.Second)
	w.Record()

	// Oldest keystroke is now 60s old.
	clk.Advance(30 * time.Second)
	require.Equal(t, 2, w.Count())
	require.Equal(t, []time.Duration{0, 20 * time.Second}, w.Deltas())
	require.Equal(t, 20*time.Second, w.Total())

	clk.Advance(10 * time.Second)
	require.Equal(t, 1, w.Count())
	require.Equal(t, time.Duration(0), w.Total())

	clk.Advance(30 * time.Second)
	require.Equal(t, 0, w.Count())
}

func TestRecordAfterExpiryStartsFresh(t *testing.T) {
	w, clk := newTestWindow(t, 16)
	w.Record()
	clk.Advance(2 * time.Minute)
	w.Record()

	require.Equal(t, 1, w.Count())
	require.Equal(t, []time.Duration{0}, w.Deltas())
}

func TestCapacityDropsOldest(t *testing.T) {
	w, clk := newTestWindow(t, 4)
	for i := 0; i < 6; i++ {
		w.Record()
		clk.Advance(100 * time.Millisecond)
	}
	require.Equal(t, 4, w.Count())
	require.Equal(t, sum(w.Deltas()), w.Total())
	require.Equal(t, time.Duration(0), w.Deltas()[0])
	require.Equal(t, 300*time.Millisecond, w.Total())
}

func TestWindowInvariantsUnderRandomTraffic(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	w, clk := newTestWindow(t, 256)
	for i := 0; i < 5000; i++ {
		switch rnd.Intn(10) {
		case 0:
			clk.Advance(time.Duration(rnd.Intn(30000)) * time.Millisecond)
		default:
			clk.Advance(time.Duration(rnd.Intn(400)) * time.Millisecond)
		}
		if rnd.Intn(3) == 0 {
			w.Evict()
		} else {
			w.Record()
		}

		deltas := w.Deltas()
		require.Equal(t, sum(deltas), w.total, "total must equal the sum of retained deltas")
		require.Len(t, deltas, w.count)
		if len(deltas) > 0 {
			require.Equal(t, time.Duration(0), deltas[0])
			age := w.total + w.SinceLast()
			require.Less(t, age, w.Duration(), "oldest keystroke must be inside the window")
		}
	}
}

func TestReset(t *testing.T) {
	w, clk := newTestWindow(t, 8)
	w.Record()
	clk.Advance(time.Second)
	w.Record()
	w.Reset()
	require.Equal(t, 0, w.Count())
	require.Equal(t, time.Duration(0), w.Total())
	require.Empty(t, w.Deltas())
}
