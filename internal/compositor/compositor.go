// Package compositor draws the KPM counter and its animated border into a
// page-packed monochrome bitmap.
package compositor

import (
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/verte-zerg/kpmoled/internal/glyph"
)

// Compositor renders frames for one geometry. The returned buffer is reused
// by the next Render call.
type Compositor struct {
	geom   Geometry
	border Border
	top    []byte
	bottom []byte
	img    *image1bit.VerticalLSB
}

// New returns a Compositor for g.
func New(g Geometry) (*Compositor, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &Compositor{
		geom:   g,
		border: g.Border(),
		top:    glyph.Edge(glyph.TopEdge, g.Width),
		bottom: glyph.Edge(glyph.BottomEdge, g.Width),
		img:    image1bit.NewVerticalLSB(image.Rect(0, 0, g.Width, g.Height)),
	}, nil
}

// Geometry returns the compositor geometry.
func (c *Compositor) Geometry() Geometry {
	return c.geom
}

// Perimeter returns the border length at which the border is complete.
func (c *Compositor) Perimeter() int {
	return c.border.Perimeter
}

// Image exposes the last rendered frame as an image.
func (c *Compositor) Image() *image1bit.VerticalLSB {
	return c.img
}

// Render draws count with a border filled up to frame pixels. A zero count
// yields a blank bitmap.
func (c *Compositor) Render(count, frame int) []byte {
	buf := c.img.Pix
	clear(buf)

	count = glyph.ClampCount(count)
	if count == 0 {
		return buf
	}
	if frame < 0 {
		frame = 0
	}
	if frame > c.border.Perimeter {
		frame = c.border.Perimeter
	}

	c.drawDigits(buf, count)
	c.drawBorder(buf, frame)
	return buf
}

func (c *Compositor) drawDigits(buf []byte, count int) {
	w := c.geom.Width
	x0 := (w - glyph.TileWidth) / 2
	for _, p := range glyph.Layout(count, c.geom.Pages()) {
		tile := glyph.Digit(p.Digit)
		for k := 0; k < glyph.TilePages; k++ {
			dst := (p.Page+k)*w + x0
			copy(buf[dst:dst+glyph.TileWidth], tile[k*glyph.TileWidth:(k+1)*glyph.TileWidth])
		}
	}
}

func (c *Compositor) drawBorder(buf []byte, frame int) {
	w := c.geom.Width
	last := (c.geom.Pages() - 1) * w
	b := c.border
	full := byte(1<<BorderThickness - 1)

	// top edge, left to right
	for x := 0; x < frame && x < w; x++ {
		buf[x] |= c.top[x]
	}
	if frame >= b.TopRight {
		off := min(frame-b.TopRight, BorderThickness-1)
		c.orColumns(buf, 0, w-BorderThickness, byte(1<<(off+1)-1)<<(PageHeight-BorderThickness))
	}
	// right edge, top to bottom; the last page belongs to the corner
	for i := b.RightStart; i <= frame && i < b.RightEnd; i += PageHeight {
		page := (i-b.RightStart)/PageHeight + 1
		c.orColumns(buf, page*w, w-BorderThickness, fillDown(frame-i))
	}
	if frame >= b.BottomRight {
		off := min(frame-b.BottomRight, BorderThickness-1)
		c.orColumns(buf, last, w-BorderThickness, byte(1<<(off+1)-1))
	}
	// bottom edge, right to left
	for i := b.BottomStart; i <= frame && i <= b.BottomEnd; i++ {
		x := b.BottomEnd - i
		buf[last+x] |= c.bottom[x]
	}
	if frame >= b.BottomLeft {
		off := min(frame-b.BottomLeft, BorderThickness-1)
		c.orColumns(buf, last, 0, full&^byte(1<<(BorderThickness-1-off)-1))
	}
	// left edge, bottom to top
	for i := b.LeftStart; i <= frame && i <= b.LeftEnd; i += PageHeight {
		page := (b.LeftEnd - i) / PageHeight
		c.orColumns(buf, page*w, 0, fillUp(frame-i))
	}
	if frame >= b.LeftEnd {
		c.orColumns(buf, 0, 0, full<<(PageHeight-BorderThickness))
	}
}

// orColumns ORs mask into BorderThickness columns starting at x of the page
// that begins at offset.
func (c *Compositor) orColumns(buf []byte, offset, x int, mask byte) {
	for i := 0; i < BorderThickness; i++ {
		buf[offset+x+i] |= mask
	}
}

// fillDown returns a page byte with the top n rows set.
func fillDown(n int) byte {
	n = min(n, PageHeight)
	return byte(uint16(1)<<n - 1)
}

// fillUp returns a page byte with the bottom n rows set.
func fillUp(n int) byte {
	n = min(n, PageHeight)
	return byte(uint16(0xff00) >> n)
}
