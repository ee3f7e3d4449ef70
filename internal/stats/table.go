package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one table column.
type column struct {
	title string
	right bool
}

// writeTable prints a header, a rule under it and the rows, padding cells to
// the widest display width in each column.
func writeTable(w io.Writer, cols []column, rows [][]string) error {
	for _, line := range formatTable(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = displayWidth(c.title)
	}
	for _, row := range rows {
		for i := range cols {
			widths[i] = max(widths[i], displayWidth(cell(row, i)))
		}
	}

	titles := make([]string, len(cols))
	rules := make([]string, len(cols))
	for i, c := range cols {
		titles[i] = c.title
		rules[i] = strings.Repeat("─", widths[i])
	}
	lines := make([]string, 0, len(rows)+2)
	lines = append(lines, formatRow(cols, titles, widths), formatRow(cols, rules, widths))
	for _, row := range rows {
		lines = append(lines, formatRow(cols, row, widths))
	}
	return lines
}

func formatRow(cols []column, row []string, widths []int) string {
	cells := make([]string, len(cols))
	for i, c := range cols {
		cells[i] = padCell(cell(row, i), widths[i], c.right)
	}
	return strings.TrimRight(strings.Join(cells, "  "), " ")
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
