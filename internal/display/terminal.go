package display

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Style selects how pixels map to terminal cells.
type Style int

const (
	// StyleBraille packs 2x4 pixels into one braille cell.
	StyleBraille Style = iota
	// StyleBlocks packs 1x2 pixels into one half-block cell.
	StyleBlocks
)

// ParseStyle maps a flag value to a Style.
func ParseStyle(s string) (Style, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "braille":
		return StyleBraille, true
	case "blocks", "block":
		return StyleBlocks, true
	default:
		return StyleBraille, false
	}
}

var (
	pixelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7FE3FF"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
)

// Lines renders img as plain text lines.
func Lines(img *image1bit.VerticalLSB, style Style) []string {
	if style == StyleBlocks {
		return blockLines(img)
	}
	return brailleLines(img)
}

// Panel renders img inside a bordered box with a title line underneath.
func Panel(img *image1bit.VerticalLSB, style Style, title string) string {
	lines := Lines(img, style)
	body := pixelStyle.Render(strings.Join(lines, "\n"))
	box := panelStyle.Render(body)
	width := lipgloss.Width(box)
	title = runewidth.Truncate(title, width, "…")
	caption := lipgloss.PlaceHorizontal(width, lipgloss.Center, titleStyle.Render(title))
	return lipgloss.JoinVertical(lipgloss.Left, box, caption)
}

func brailleLines(img *image1bit.VerticalLSB) []string {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	rows := (h + 3) / 4
	cols := (w + 1) / 2
	out := make([]string, 0, rows)
	for cy := 0; cy < rows; cy++ {
		var b strings.Builder
		for cx := 0; cx < cols; cx++ {
			var mask uint8
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					x, y := cx*2+dx, cy*4+dy
					if x < w && y < h && bitAt(img, x, y) {
						mask |= brailleDotMask(dx, dy)
					}
				}
			}
			b.WriteRune(rune(0x2800 + int(mask)))
		}
		out = append(out, b.String())
	}
	return out
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func blockLines(img *image1bit.VerticalLSB) []string {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]string, 0, (h+1)/2)
	for y := 0; y < h; y += 2 {
		var b strings.Builder
		for x := 0; x < w; x++ {
			top := bitAt(img, x, y)
			bottom := y+1 < h && bitAt(img, x, y+1)
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		out = append(out, b.String())
	}
	return out
}
