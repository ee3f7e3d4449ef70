package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kpmoled/internal/display"
	"github.com/verte-zerg/kpmoled/internal/model"
)

func testTrace() model.Trace {
	var events []model.Event
	for i := 0; i < 10; i++ {
		events = append(events, model.Event{OffsetMs: int64(i * 100), Row: 1, Col: i % 6})
	}
	for i := 0; i < 5; i++ {
		events = append(events, model.Event{OffsetMs: int64(i*200 + 50), Row: 5, Col: i})
	}
	return model.Trace{Name: "mixed", Events: events}
}

func TestRunCountsPerHalf(t *testing.T) {
	opts := DefaultOptions()
	left := display.NewMemory(32, 128)
	right := display.NewMemory(32, 128)
	opts.Left, opts.Right = left, right

	res, err := Run(context.Background(), testTrace(), opts)
	require.NoError(t, err)
	require.Equal(t, 15, res.Keys)
	require.Equal(t, 15, res.Counted)

	// Last event is at 900ms; refreshes run at 0, 50, ..., 900.
	require.Len(t, res.Samples, 19)
	last := res.Samples[len(res.Samples)-1]
	require.Equal(t, 900*time.Millisecond, last.At)
	require.Equal(t, 10, last.Left.Count)
	require.Equal(t, 5, last.Right.Count)
	require.True(t, last.Left.Primary)
	require.False(t, last.Right.Primary)
	require.Equal(t, 19, left.Frames())
	require.Equal(t, 19, right.Frames())
	require.NotEqual(t, make([]byte, 512), left.Bytes())
}

func TestRunDrainsWithTail(t *testing.T) {
	opts := DefaultOptions()
	opts.Refresh = time.Second
	opts.Tail = 90 * time.Second

	res, err := Run(context.Background(), testTrace(), opts)
	require.NoError(t, err)
	last := res.Samples[len(res.Samples)-1]
	require.Equal(t, 0, last.Left.Count)
	require.Equal(t, 0, last.Left.Frame)
}

func TestRunCallbackAndCancel(t *testing.T) {
	opts := DefaultOptions()
	var seen int
	stop := errors.New("stop")
	opts.OnRefresh = func(f Frame) error {
		require.Equal(t, seen, f.Index)
		seen++
		if seen == 3 {
			return stop
		}
		return nil
	}
	_, err := Run(context.Background(), testTrace(), opts)
	require.ErrorIs(t, err, stop)
	require.Equal(t, 3, seen)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, testTrace(), DefaultOptions())
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsBadOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Refresh = 0
	_, err := Run(context.Background(), testTrace(), opts)
	require.Error(t, err)
}

func TestBeforeRefreshRunsBeforeFrameIsSent(t *testing.T) {
	opts := DefaultOptions()
	left := display.NewMemory(32, 128)
	opts.Left = left
	var calls int
	opts.BeforeRefresh = func(at time.Duration) error {
		require.Equal(t, time.Duration(calls)*DefaultRefresh, at)
		require.Equal(t, calls, left.Frames(), "frame for %s sent before the pacing hook", at)
		calls++
		return nil
	}
	res, err := Run(context.Background(), testTrace(), opts)
	require.NoError(t, err)
	require.Equal(t, len(res.Samples), calls)

	stop := errors.New("stop")
	opts.BeforeRefresh = func(time.Duration) error { return stop }
	left = display.NewMemory(32, 128)
	opts.Left = left
	_, err = Run(context.Background(), testTrace(), opts)
	require.ErrorIs(t, err, stop)
	require.Equal(t, 0, left.Frames())
}
