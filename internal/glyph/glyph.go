// Package glyph holds the digit and border bitmaps drawn on the OLED and
// decides where each digit of the counter goes.
//
// Bitmaps use the SSD1306 page layout: each byte is a column of eight pixels,
// least significant bit on top, and a tile is a run of pages of TileWidth
// bytes each.
package glyph

import "fmt"

const (
	// TileWidth is the width of a digit tile in pixels.
	TileWidth = 32
	// TilePages is the height of a digit tile in 8-pixel pages.
	TilePages = 4
	// TileBytes is the size of one digit tile.
	TileBytes = TileWidth * TilePages
	// EdgeWidth is the width of the stored border edges.
	EdgeWidth = 32
	// MaxDigits is the number of digit slots on the display.
	MaxDigits = 3
	// MaxCount is the largest value that fits in MaxDigits.
	MaxCount = 999
	// DigitGap is the number of blank pages between two digits.
	DigitGap = 1
)

// EdgeKind selects a border edge bitmap.
type EdgeKind int

const (
	// TopEdge is the horizontal edge drawn along the first page.
	TopEdge EdgeKind = iota
	// BottomEdge is the horizontal edge drawn along the last page.
	BottomEdge
)

// Digit returns the tile for d. It panics when d is not a decimal digit.
func Digit(d int) []byte {
	if d < 0 || d > 9 {
		panic(fmt.Sprintf("glyph: digit %d out of range", d))
	}
	return digits[d][:]
}

// Edge returns the border edge bitmap for kind, stretched to width columns.
// The tapered ends are kept and the middle column is repeated.
func Edge(kind EdgeKind, width int) []byte {
	src := topEdge[:]
	if kind == BottomEdge {
		src = bottomEdge[:]
	}
	out := make([]byte, width)
	if width == EdgeWidth {
		copy(out, src)
		return out
	}
	const taper = 2
	mid := src[EdgeWidth/2]
	for x := 0; x < width; x++ {
		switch {
		case x < taper && x < width/2:
			out[x] = src[x]
		case width-1-x < taper && x >= width/2:
			out[x] = src[EdgeWidth-(width-x)]
		default:
			out[x] = mid
		}
	}
	return out
}

// Placement is one digit drawn at a slot.
type Placement struct {
	// Slot is the digit position, 0 for hundreds through 2 for units.
	Slot int
	// Digit is the decimal digit drawn.
	Digit int
	// Page is the first 8-pixel page of the tile.
	Page int
}

// ClampCount limits count to the range the display can show.
func ClampCount(count int) int {
	if count < 0 {
		return 0
	}
	if count > MaxCount {
		return MaxCount
	}
	return count
}

// Layout returns the digits of count, most significant first, without
// leading zeros, placed on a display that is pages tall. Zero yields a
// single "0" digit; the compositor never asks for it.
func Layout(count, pages int) []Placement {
	count = ClampCount(count)
	n := numDigits(count)
	step := TilePages + DigitGap
	full := MaxDigits*step - DigitGap
	first := (pages-full)/2 + (MaxDigits-n)*(step/2)

	out := make([]Placement, 0, n)
	div := 1
	for i := 1; i < MaxDigits; i++ {
		div *= 10
	}
	for slot := 0; slot < MaxDigits; slot++ {
		digit := (count / div) % 10
		div /= 10
		if slot < MaxDigits-n {
			continue
		}
		out = append(out, Placement{
			Slot:  slot,
			Digit: digit,
			Page:  first + (len(out))*step,
		})
	}
	return out
}

func numDigits(count int) int {
	n := 1
	for count >= 10 {
		count /= 10
		n++
	}
	return n
}
