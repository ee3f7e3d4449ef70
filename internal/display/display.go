// Package display delivers rendered bitmaps to a panel, the terminal or an
// image file.
//
// Every output is an io.Writer fed the page-packed buffer produced by the
// compositor; the bitmap is interpreted with the geometry it was rendered
// with.
package display

import (
	"bytes"
	"fmt"
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Memory keeps the most recent frame written to it.
type Memory struct {
	width  int
	height int
	last   []byte
	frames int
}

// NewMemory returns a Memory sink for width x height bitmaps.
func NewMemory(width, height int) *Memory {
	return &Memory{
		width:  width,
		height: height,
		last:   make([]byte, width*height/8),
	}
}

// Write stores a copy of p.
func (m *Memory) Write(p []byte) (int, error) {
	if len(p) != len(m.last) {
		return 0, fmt.Errorf("unexpected frame size %d, want %d", len(p), len(m.last))
	}
	copy(m.last, p)
	m.frames++
	return len(p), nil
}

// Frames returns how many frames were written.
func (m *Memory) Frames() int {
	return m.frames
}

// Bytes returns a copy of the last frame.
func (m *Memory) Bytes() []byte {
	return bytes.Clone(m.last)
}

// Image returns the last frame as an image.
func (m *Memory) Image() *image1bit.VerticalLSB {
	return Wrap(bytes.Clone(m.last), m.width, m.height)
}

// Wrap views a page-packed buffer as an image without copying.
func Wrap(buf []byte, width, height int) *image1bit.VerticalLSB {
	return &image1bit.VerticalLSB{
		Pix:    buf,
		Stride: width,
		Rect:   image.Rect(0, 0, width, height),
	}
}

func bitAt(img *image1bit.VerticalLSB, x, y int) bool {
	return img.Pix[(y/8)*img.Stride+x]&(1<<uint(y&7)) != 0
}

func setBit(img *image1bit.VerticalLSB, x, y int, on bool) {
	i := (y/8)*img.Stride + x
	mask := byte(1 << uint(y&7))
	if on {
		img.Pix[i] |= mask
		return
	}
	img.Pix[i] &^= mask
}
