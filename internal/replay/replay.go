// Package replay drives a recorded trace through both keyboard halves on a
// simulated clock.
package replay

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/verte-zerg/kpmoled/internal/clock"
	"github.com/verte-zerg/kpmoled/internal/device"
	"github.com/verte-zerg/kpmoled/internal/model"
)

// DefaultRefresh is the simulated display refresh interval.
const DefaultRefresh = 50 * time.Millisecond

// Options configures a replay.
type Options struct {
	Config  device.Config
	Refresh time.Duration
	// Tail keeps refreshing after the last event so the counter can drain.
	Tail time.Duration
	// Left and Right receive every rendered frame and may be nil.
	Left  io.Writer
	Right io.Writer
	// BeforeRefresh is called with the frame time before the halves render
	// it, so a caller pacing a real display can wait until then.
	BeforeRefresh func(at time.Duration) error
	// OnRefresh is called after every refresh pass.
	OnRefresh func(Frame) error
}

// DefaultOptions returns options matching the firmware defaults.
func DefaultOptions() Options {
	return Options{
		Config:  device.DefaultConfig(),
		Refresh: DefaultRefresh,
	}
}

// Sample is the state of both halves after one refresh.
type Sample struct {
	At    time.Duration
	Left  device.Snapshot
	Right device.Snapshot
}

// Frame is passed to Options.OnRefresh.
type Frame struct {
	Index  int
	Sample Sample
	Left   *device.Device
	Right  *device.Device
}

// Result collects a finished replay.
type Result struct {
	Samples []Sample
	Keys    int
	Counted int
}

// Run replays trace and returns one sample per refresh.
func Run(ctx context.Context, trace model.Trace, opts Options) (Result, error) {
	if opts.Refresh <= 0 {
		return Result{}, fmt.Errorf("refresh interval must be > 0")
	}
	if opts.Tail < 0 {
		return Result{}, fmt.Errorf("tail must be >= 0")
	}
	clk := clock.NewManual(0)
	left, err := device.New(opts.Config, clk, device.Fixed(true), opts.Left)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build left half: %w", err)
	}
	right, err := device.New(opts.Config, clk, device.Fixed(false), opts.Right)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build right half: %w", err)
	}

	events := make([]model.Event, len(trace.Events))
	copy(events, trace.Events)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OffsetMs < events[j].OffsetMs
	})

	end := opts.Tail
	if len(events) > 0 {
		end = events[len(events)-1].Offset() + opts.Tail
	}
	res := Result{Keys: len(events)}
	next := 0
	for i, at := 0, time.Duration(0); at <= end; i, at = i+1, at+opts.Refresh {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		for next < len(events) && events[next].Offset() <= at {
			ev := events[next]
			clk.Set(ev.Offset())
			key := device.Key{Row: ev.Row, Col: ev.Col, Pressed: true}
			if left.Process(key) {
				res.Counted++
			}
			if right.Process(key) {
				res.Counted++
			}
			next++
		}
		clk.Set(at)
		if opts.BeforeRefresh != nil {
			if err := opts.BeforeRefresh(at); err != nil {
				return res, err
			}
		}
		if err := left.Refresh(); err != nil {
			return res, fmt.Errorf("failed to refresh left half: %w", err)
		}
		if err := right.Refresh(); err != nil {
			return res, fmt.Errorf("failed to refresh right half: %w", err)
		}
		sample := Sample{At: at, Left: left.Snapshot(), Right: right.Snapshot()}
		res.Samples = append(res.Samples, sample)
		if opts.OnRefresh != nil {
			if err := opts.OnRefresh(Frame{Index: i, Sample: sample, Left: left, Right: right}); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}
