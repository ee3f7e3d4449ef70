package frame

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kpmoled/internal/clock"
)

const perimeter = 301

func newTestAnimator(t *testing.T) (*Animator, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(0)
	a, err := NewAnimator(clk, perimeter, DefaultInterval, DefaultScale)
	require.NoError(t, err)
	return a, clk
}

func TestStepConvergesWithoutOvershoot(t *testing.T) {
	a, _ := newTestAnimator(t)
	total := 150 * DefaultScale
	prev := a.Value()
	for i := 0; i < 400; i++ {
		a.Step(total)
		require.GreaterOrEqual(t, a.Value(), prev)
		require.LessOrEqual(t, a.Value(), 150)
		prev = a.Value()
	}
	require.Equal(t, 150, a.Value())
}

func TestStepSnapsWithinScale(t *testing.T) {
	a, _ := newTestAnimator(t)
	a.Set(150)
	a.Step(150*DefaultScale + 150*time.Millisecond)
	require.Equal(t, 150, a.Value())
	a.Step(150*DefaultScale - 150*time.Millisecond)
	require.Equal(t, 150, a.Value())
	a.Step(152 * DefaultScale)
	require.Equal(t, 151, a.Value())
}

func TestStepDecaysTowardZero(t *testing.T) {
	a, _ := newTestAnimator(t)
	a.Set(3)
	for i := 0; i < 10; i++ {
		a.Step(0)
	}
	require.Equal(t, 0, a.Value())
}

func TestStepStaysInBounds(t *testing.T) {
	a, _ := newTestAnimator(t)
	for i := 0; i < 1000; i++ {
		a.Step(time.Hour)
		require.LessOrEqual(t, a.Value(), perimeter)
	}
	require.Equal(t, perimeter, a.Value())
	for i := 0; i < 1000; i++ {
		a.Step(-time.Hour)
		require.GreaterOrEqual(t, a.Value(), 0)
	}
	require.Equal(t, 0, a.Value())
}

func TestTickIsRateLimited(t *testing.T) {
	a, clk := newTestAnimator(t)
	total := 10 * DefaultScale

	require.False(t, a.Tick(total))
	clk.Advance(DefaultInterval)
	require.False(t, a.Tick(total), "step needs strictly more than the interval")
	clk.Advance(time.Millisecond)
	require.True(t, a.Tick(total))
	require.Equal(t, 1, a.Value())
	require.False(t, a.Tick(total))
}

func TestTarget(t *testing.T) {
	a, _ := newTestAnimator(t)
	require.Equal(t, 0, a.Target(0))
	require.Equal(t, 150, a.Target(30*time.Second))
	require.Equal(t, perimeter, a.Target(time.Hour))
}
