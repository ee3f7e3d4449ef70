package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

type ansiColor struct {
	name string
	code string
}

const (
	defaultPlotHeight   = 8
	minPlotWidth        = 10
	axisSeparator       = " │ "
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

var colorPalette = []ansiColor{
	{name: "cyan", code: "\x1b[36m"},
	{name: "magenta", code: "\x1b[35m"},
	{name: "yellow", code: "\x1b[33m"},
	{name: "green", code: "\x1b[32m"},
}

// PlotTimeline renders series sharing one y axis from zero to the largest
// value, in braille cells. span labels the x axis and may be empty.
func PlotTimeline(w io.Writer, title, span string, series []Series, width, height int, forceColor bool) error {
	series = filterSeries(series)
	if len(series) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	top := 0.0
	for _, s := range series {
		for _, v := range s.Values {
			top = math.Max(top, v)
		}
	}
	if top <= 0 {
		top = 1
	}
	labels := axisLabels(top, height)
	axisWidth := 0
	for _, l := range labels {
		axisWidth = max(axisWidth, utf8.RuneCountInString(l))
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth(), axisWidth)
	}
	width = max(width, minPlotWidth)

	cells := make([][][]uint8, len(series))
	for si, s := range series {
		cells[si] = makeCells(height, width)
		values := resamplePeak(s.Values, width*2)
		prevX, prevY := -1, -1
		for x, v := range values {
			y := valueToRow(v, top, height*4)
			if prevX >= 0 {
				drawLine(prevX, prevY, x, y, func(dx, dy int) {
					setBrailleDot(cells[si], dx, dy)
				})
			} else {
				setBrailleDot(cells[si], x, y)
			}
			prevX, prevY = x, y
		}
	}

	useColor := shouldUseColor(w, forceColor)
	if title != "" {
		if _, err := fmt.Fprintln(w, title); err != nil {
			return err
		}
	}
	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(fmt.Sprintf("%*s%s", axisWidth, labels[y], axisSeparator))
		for x := 0; x < width; x++ {
			mask, idx := composeCell(cells, x, y)
			ch := rune(0x2800 + int(mask))
			if useColor && idx >= 0 {
				row.WriteString(colorPalette[idx%len(colorPalette)].code)
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}
	if span != "" {
		pad := strings.Repeat(" ", axisWidth+utf8.RuneCountInString(axisSeparator))
		if _, err := fmt.Fprintf(w, "%s0%*s\n", pad, width-1, span); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, renderLegend(series, useColor)); err != nil {
		return err
	}
	return nil
}

// PlotWidthFor computes a plot width that fits next to an axis of axisWidth
// runes within totalWidth.
func PlotWidthFor(totalWidth, axisWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-axisWidth-utf8.RuneCountInString(axisSeparator), minPlotWidth)
}

func filterSeries(series []Series) []Series {
	out := make([]Series, 0, len(series))
	for _, s := range series {
		if len(s.Values) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func axisLabels(top float64, height int) []string {
	labels := make([]string, height)
	labels[0] = fmt.Sprintf("%.0f", top)
	if height > 2 {
		labels[height/2] = fmt.Sprintf("%.0f", top/2)
	}
	if height > 1 {
		labels[height-1] = "0"
	}
	return labels
}

func makeCells(height, width int) [][]uint8 {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return cells
}

func composeCell(seriesCells [][][]uint8, x, y int) (uint8, int) {
	var mask uint8
	idx := -1
	for i, cells := range seriesCells {
		if cells[y][x] == 0 {
			continue
		}
		if idx == -1 {
			idx = i
		}
		mask |= cells[y][x]
	}
	return mask, idx
}

// resamplePeak fits values into n points, keeping the largest value of each
// bucket so short bursts stay visible.
func resamplePeak(values []float64, n int) []float64 {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	out := make([]float64, n)
	if len(values) >= n {
		for i := 0; i < n; i++ {
			start := i * len(values) / n
			end := max((i+1)*len(values)/n, start+1)
			peak := values[start]
			for _, v := range values[start:end] {
				peak = math.Max(peak, v)
			}
			out[i] = peak
		}
		return out
	}
	for i := range out {
		out[i] = values[i*len(values)/n]
	}
	return out
}

func valueToRow(v, top float64, dots int) int {
	if dots <= 1 {
		return 0
	}
	row := int(math.Round((1 - v/top) * float64(dots-1)))
	return min(max(row, 0), dots-1)
}

func renderLegend(series []Series, useColor bool) string {
	parts := make([]string, 0, len(series))
	for i, s := range series {
		label := "⠉ " + s.Name
		if useColor {
			label = colorPalette[i%len(colorPalette)].code + label + colorReset
		}
		parts = append(parts, label)
	}
	return "Legend: " + strings.Join(parts, "  ")
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func setBrailleDot(cells [][]uint8, x, y int) {
	cy, cx := y/4, x/2
	if y < 0 || x < 0 || cy >= len(cells) || cx >= len(cells[cy]) {
		return
	}
	cells[cy][cx] |= brailleDots[y%4][x%2]
}

// brailleDots[row][col] is the dot bit inside a braille cell.
var brailleDots = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}
