package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// promptLine renders the practice text as one line of at most width cells,
// scrolled so the cursor stays in the first third.
func promptLine(target, input []rune, width int) string {
	if len(target) == 0 {
		return ""
	}
	cursor := min(len(input), len(target))
	start := 0
	if width > 0 {
		lead := width / 3
		for start < cursor && runewidth.StringWidth(string(target[start:cursor])) > lead {
			start++
		}
	}
	var b strings.Builder
	used := 0
	for i := start; i < len(target); i++ {
		r := target[i]
		w := runewidth.RuneWidth(r)
		if width > 0 && used+w > width {
			break
		}
		used += w
		b.WriteString(promptStyle(target, input, i).Render(string(r)))
	}
	return b.String()
}

func promptStyle(target, input []rune, i int) lipgloss.Style {
	switch {
	case i < len(input) && input[i] == target[i]:
		return correctStyle
	case i < len(input):
		return incorrectStyle
	case i == len(input):
		return cursorStyle
	default:
		return pendingStyle
	}
}
