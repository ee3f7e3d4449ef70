package compositor

import (
	"fmt"

	"github.com/verte-zerg/kpmoled/internal/glyph"
)

const (
	// PageHeight is the number of pixel rows packed into one byte.
	PageHeight = 8
	// BorderThickness is the width of the border lines in pixels.
	BorderThickness = 3
)

// Geometry describes the bitmap the compositor draws into. Width and Height
// are in the orientation the digits are drawn in, which for the reference
// 128x32 panel is the portrait 32x128 view.
type Geometry struct {
	Width  int
	Height int
}

// DefaultGeometry returns the 32x128 portrait view of a 128x32 SSD1306.
func DefaultGeometry() Geometry {
	return Geometry{Width: 32, Height: 128}
}

// Validate checks that digits and border fit.
func (g Geometry) Validate() error {
	if g.Width < glyph.TileWidth {
		return fmt.Errorf("display width must be >= %d, got %d", glyph.TileWidth, g.Width)
	}
	if g.Height%PageHeight != 0 {
		return fmt.Errorf("display height must be a multiple of %d, got %d", PageHeight, g.Height)
	}
	minPages := glyph.MaxDigits*(glyph.TilePages+glyph.DigitGap) - glyph.DigitGap
	if g.Pages() < minPages {
		return fmt.Errorf("display height must be >= %d, got %d", minPages*PageHeight, g.Height)
	}
	return nil
}

// Pages returns the number of 8-pixel pages.
func (g Geometry) Pages() int {
	return g.Height / PageHeight
}

// BufferSize returns the size of the packed bitmap in bytes.
func (g Geometry) BufferSize() int {
	return g.Width * g.Pages()
}

// Border holds the border length at which each segment starts filling.
// Segments run clockwise from the top-left: top edge, top-right corner,
// right edge, bottom-right corner, bottom edge, bottom-left corner, left
// edge, top-left corner.
type Border struct {
	TopRight    int
	RightStart  int
	RightEnd    int
	BottomRight int
	BottomStart int
	BottomEnd   int
	BottomLeft  int
	LeftStart   int
	LeftEnd     int
	Perimeter   int
}

// Border derives the segment thresholds from the geometry.
func (g Geometry) Border() Border {
	var b Border
	side := PageHeight * (g.Pages() - 2)
	b.TopRight = g.Width
	b.RightStart = b.TopRight + BorderThickness
	b.RightEnd = b.RightStart + side
	b.BottomRight = b.RightEnd + 1
	b.BottomStart = b.BottomRight + BorderThickness
	b.BottomEnd = b.BottomStart + g.Width - 1
	b.BottomLeft = b.BottomEnd + 1
	b.LeftStart = b.BottomLeft + BorderThickness
	b.LeftEnd = b.LeftStart + side
	b.Perimeter = b.LeftEnd + BorderThickness
	return b
}
