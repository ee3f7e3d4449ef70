// Package stats contains trace statistics and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/verte-zerg/kpmoled/internal/model"
	"github.com/verte-zerg/kpmoled/internal/replay"
)

var sparkBlocks = []rune("▁▂▃▄▅▆▇█")

// sparkLabelWidth is the room taken by the half name and peak suffix.
const sparkLabelWidth = 16

// Metrics summarizes a trace and, when replayed, the counters it produced.
type Metrics struct {
	Keys      int
	Left      int
	Right     int
	Duration  time.Duration
	AvgKPM    float64
	PeakLeft  int
	PeakRight int
	PeakFrame int
}

// TraceMetrics counts presses per half and the average rate of a trace.
func TraceMetrics(trace model.Trace, rowsPerHalf int) Metrics {
	m := Metrics{Keys: len(trace.Events), Duration: trace.Duration()}
	for _, ev := range trace.Events {
		if ev.Row < rowsPerHalf {
			m.Left++
		} else {
			m.Right++
		}
	}
	m.AvgKPM = Rate(m.Keys, m.Duration)
	return m
}

// Summarize adds the replay peaks to the trace metrics.
func Summarize(trace model.Trace, rowsPerHalf int, res replay.Result) Metrics {
	m := TraceMetrics(trace, rowsPerHalf)
	for _, s := range res.Samples {
		m.PeakLeft = max(m.PeakLeft, s.Left.Count)
		m.PeakRight = max(m.PeakRight, s.Right.Count)
		m.PeakFrame = max(m.PeakFrame, s.Left.Frame, s.Right.Frame)
	}
	return m
}

// Rate converts a key count over d into keys per minute.
func Rate(keys int, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(keys) / d.Minutes()
}

// CountSeries extracts the per-refresh counters of both halves.
func CountSeries(samples []replay.Sample) (left, right []float64) {
	left = make([]float64, len(samples))
	right = make([]float64, len(samples))
	for i, s := range samples {
		left[i] = float64(s.Left.Count)
		right[i] = float64(s.Right.Count)
	}
	return left, right
}

// MovingAverage smooths values with a trailing mean over window samples.
// Early samples average over what is available.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if window > 0 && n > window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}

// Sparkline draws values as block glyphs scaled to 0..top. Zero stays blank
// so idle stretches read as gaps.
func Sparkline(values []float64, top float64) string {
	var b strings.Builder
	for _, v := range values {
		if v <= 0 || top <= 0 {
			b.WriteByte(' ')
			continue
		}
		idx := int(math.Ceil(v/top*float64(len(sparkBlocks)))) - 1
		b.WriteRune(sparkBlocks[min(max(idx, 0), len(sparkBlocks)-1)])
	}
	return b.String()
}

// RenderSparklines prints one sparkline per half, smoothed over smooth
// samples and fitted into width columns (terminal width when 0). Both lines
// share one scale.
func RenderSparklines(w io.Writer, samples []replay.Sample, width, smooth int) error {
	if len(samples) == 0 {
		return nil
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), sparkLabelWidth)
	}
	width = min(width, len(samples))
	left, right := CountSeries(samples)
	halves := []struct {
		name   string
		raw    []float64
		smooth []float64
	}{
		{"left", left, resamplePeak(MovingAverage(left, smooth), width)},
		{"right", right, resamplePeak(MovingAverage(right, smooth), width)},
	}
	var top float64
	for _, h := range halves {
		for _, v := range h.smooth {
			top = math.Max(top, v)
		}
	}
	for _, h := range halves {
		var peak float64
		for _, v := range h.raw {
			peak = math.Max(peak, v)
		}
		if _, err := fmt.Fprintf(w, "%-5s %s  peak %d\n", h.name, Sparkline(h.smooth, top), int(peak)); err != nil {
			return err
		}
	}
	return nil
}

// RenderSummary prints a table of stored traces.
func RenderSummary(w io.Writer, traces []model.TraceSummary) error {
	if len(traces) == 0 {
		_, err := fmt.Fprintln(w, "No traces found.")
		return err
	}
	cols := []column{
		{title: "ID"},
		{title: "Name"},
		{title: "Source"},
		{title: "Created"},
		{title: "Keys", right: true},
		{title: "Duration", right: true},
		{title: "KPM", right: true},
	}
	rows := make([][]string, 0, len(traces))
	var keys int
	var total time.Duration
	for _, t := range traces {
		keys += t.Keys
		total += t.Duration()
		rows = append(rows, []string{
			ShortID(t.ID),
			t.Name,
			t.Source,
			t.CreatedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", t.Keys),
			formatDuration(t.Duration()),
			fmt.Sprintf("%.1f", Rate(t.Keys, t.Duration())),
		})
	}
	if err := writeTable(w, cols, rows); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "\nTraces: %d  Keys: %d  Avg KPM: %.1f\n", len(traces), keys, Rate(keys, total)); err != nil {
		return err
	}
	return nil
}

// RenderMetrics prints the metrics of one trace.
func RenderMetrics(w io.Writer, m Metrics) error {
	lines := []string{
		fmt.Sprintf("Keys: %d (left %d, right %d)", m.Keys, m.Left, m.Right),
		fmt.Sprintf("Duration: %s", formatDuration(m.Duration)),
		fmt.Sprintf("Avg KPM: %.1f", m.AvgKPM),
	}
	if m.PeakLeft > 0 || m.PeakRight > 0 {
		lines = append(lines,
			fmt.Sprintf("Peak count: left %d, right %d", m.PeakLeft, m.PeakRight),
			fmt.Sprintf("Peak border: %d", m.PeakFrame),
		)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTimeline plots both counters over the replay.
func RenderTimeline(w io.Writer, samples []replay.Sample, width, height int, useColor bool) error {
	if len(samples) == 0 {
		return nil
	}
	left, right := CountSeries(samples)
	span := formatDuration(samples[len(samples)-1].At)
	return PlotTimeline(w, "Count over time", span, []Series{
		{Name: "left", Values: left},
		{Name: "right", Values: right},
	}, width, height, useColor)
}

// ShortID returns the first eight characters of a trace id.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

func formatDuration(d time.Duration) string {
	return d.Round(100 * time.Millisecond).String()
}
