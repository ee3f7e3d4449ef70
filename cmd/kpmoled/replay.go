package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/verte-zerg/kpmoled/internal/matrix"
	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/replay"
	"github.com/verte-zerg/kpmoled/internal/stats"
)

var (
	replayFile     string
	replayTail     time.Duration
	replayPNGDir   string
	replayEvery    int
	replayScale    int
	replayPlot     bool
	replaySmooth   int
	replayHardware bool
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [trace-id]",
		Short: "Replay a trace through both halves",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runReplayCmd,
	}
	cmd.Flags().StringVar(&replayFile, "file", "", "replay a YAML trace instead of a stored one")
	cmd.Flags().DurationVar(&replayTail, "tail", 0, "keep refreshing after the last key")
	cmd.Flags().StringVar(&replayPNGDir, "png-dir", "", "write frames of both halves as PNG files")
	cmd.Flags().IntVar(&replayEvery, "every", 10, "write every Nth frame with --png-dir")
	cmd.Flags().IntVar(&replayScale, "scale", 4, "PNG pixel scale")
	cmd.Flags().BoolVar(&replayPlot, "plot", true, "plot both counters over time")
	cmd.Flags().IntVar(&replaySmooth, "smooth", defaultSmooth, "sparkline smoothing window in refreshes")
	cmd.Flags().BoolVar(&replayHardware, "hardware", false, "play the left half on the SSD1306 panel in real time")
	return cmd
}

func runReplayCmd(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if replayEvery <= 0 {
		return fmt.Errorf("--every must be > 0")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trace, err := resolveTrace(ctx, args)
	if err != nil {
		return err
	}

	opts := replay.DefaultOptions()
	opts.Config = settings.Device
	opts.Refresh = settings.Refresh
	opts.Tail = replayTail
	var hooks []func(replay.Frame) error
	if replayPNGDir != "" {
		if err := os.MkdirAll(replayPNGDir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", replayPNGDir, err)
		}
		hooks = append(hooks, func(f replay.Frame) error {
			if f.Index%replayEvery != 0 {
				return nil
			}
			halves := []struct {
				name string
				img  *image1bit.VerticalLSB
			}{
				{"left", f.Left.Image()},
				{"right", f.Right.Image()},
			}
			for _, half := range halves {
				if err := writePNGFile(framePath(replayPNGDir, half.name, f.Index), half.img, replayScale); err != nil {
					return fmt.Errorf("failed to write %s frame %d: %w", half.name, f.Index, err)
				}
			}
			return nil
		})
	}
	if replayHardware {
		panel, err := openPanel(settings)
		if err != nil {
			return err
		}
		defer closePanel(panel)
		opts.Left = panel
		start := time.Now()
		opts.BeforeRefresh = func(at time.Duration) error {
			return waitUntil(ctx, start.Add(at))
		}
	}
	opts.OnRefresh = func(f replay.Frame) error {
		for _, hook := range hooks {
			if err := hook(f); err != nil {
				return err
			}
		}
		return nil
	}

	res, err := replay.Run(ctx, trace, opts)
	if err != nil {
		return fmt.Errorf("failed to replay trace: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := writeOut(out, fmt.Sprintf("Trace %s (%s)", trace.Name, stats.ShortID(trace.ID))); err != nil {
		return err
	}
	if err := stats.RenderMetrics(out, stats.Summarize(trace, settings.Device.RowsPerHalf, res)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := writeOut(out, ""); err != nil {
		return err
	}
	if err := stats.RenderSparklines(out, res.Samples, 0, replaySmooth); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if replayPlot {
		if err := writeOut(out, ""); err != nil {
			return err
		}
		if err := stats.RenderTimeline(out, res.Samples, 0, 0, false); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if replayPNGDir != "" {
		logErrf("Wrote frames to %s\n", replayPNGDir)
	}
	return nil
}

// waitUntil blocks until deadline or until ctx is done.
func waitUntil(ctx context.Context, deadline time.Time) error {
	wait := time.Until(deadline)
	if wait <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func framePath(dir, half string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%05d.png", half, index))
}

// resolveTrace loads the trace named by args or --file.
func resolveTrace(ctx context.Context, args []string) (model.Trace, error) {
	if replayFile != "" {
		if len(args) > 0 {
			return model.Trace{}, fmt.Errorf("pass either a trace id or --file, not both")
		}
		return readTraceFile(replayFile)
	}
	if len(args) == 0 {
		return model.Trace{}, fmt.Errorf("a trace id or --file is required")
	}
	st, err := openStore()
	if err != nil {
		return model.Trace{}, err
	}
	defer closeStore(st)
	return loadTrace(ctx, st, args[0])
}

func validateTrace(trace model.Trace) error {
	var prev int64
	for i, ev := range trace.Events {
		if ev.OffsetMs < prev {
			return fmt.Errorf("event %d goes back in time", i)
		}
		if ev.Row < 0 || ev.Row >= matrix.Rows || ev.Col < 0 || ev.Col >= matrix.Cols {
			return fmt.Errorf("event %d is outside the matrix (%d,%d)", i, ev.Row, ev.Col)
		}
		prev = ev.OffsetMs
	}
	return nil
}
