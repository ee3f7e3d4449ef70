package compositor

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/kpmoled/internal/glyph"
)

func newTestCompositor(t *testing.T) *Compositor {
	t.Helper()
	c, err := New(DefaultGeometry())
	require.NoError(t, err)
	return c
}

func render(c *Compositor, count, frame int) []byte {
	return bytes.Clone(c.Render(count, frame))
}

func TestDefaultBorderMatchesReferenceThresholds(t *testing.T) {
	b := DefaultGeometry().Border()
	require.Equal(t, Border{
		TopRight:    32,
		RightStart:  35,
		RightEnd:    147,
		BottomRight: 148,
		BottomStart: 151,
		BottomEnd:   182,
		BottomLeft:  183,
		LeftStart:   186,
		LeftEnd:     298,
		Perimeter:   301,
	}, b)
	require.Equal(t, 512, DefaultGeometry().BufferSize())
}

func TestGeometryValidate(t *testing.T) {
	require.NoError(t, DefaultGeometry().Validate())
	require.Error(t, Geometry{Width: 16, Height: 128}.Validate())
	require.Error(t, Geometry{Width: 32, Height: 100}.Validate())
	require.Error(t, Geometry{Width: 32, Height: 64}.Validate())
	_, err := New(Geometry{Width: 8, Height: 8})
	require.Error(t, err)
}

func TestZeroCountIsBlank(t *testing.T) {
	c := newTestCompositor(t)
	c.Render(123, 301)
	buf := c.Render(0, 301)
	require.Len(t, buf, 512)
	require.Equal(t, make([]byte, 512), buf)
}

func TestDigitsPlacedOnPages(t *testing.T) {
	c := newTestCompositor(t)
	buf := render(c, 42, 0)
	require.Equal(t, glyph.Digit(4), buf[3*32:3*32+glyph.TileBytes])
	require.Equal(t, glyph.Digit(2), buf[8*32:8*32+glyph.TileBytes])
	for _, page := range []int{0, 1, 2, 7, 12, 13, 14, 15} {
		require.Equal(t, make([]byte, 32), buf[page*32:(page+1)*32], "page %d", page)
	}

	single := render(c, 7, 0)
	require.Equal(t, glyph.Digit(7), single[5*32:5*32+glyph.TileBytes])

	triple := render(c, 100, 0)
	require.Equal(t, glyph.Digit(1), triple[1*32:1*32+glyph.TileBytes])
	require.Equal(t, glyph.Digit(0), triple[6*32:6*32+glyph.TileBytes])
	require.Equal(t, glyph.Digit(0), triple[11*32:11*32+glyph.TileBytes])
}

func TestTopRightCornerPartialFill(t *testing.T) {
	c := newTestCompositor(t)
	buf := render(c, 1, 31)
	for x := 29; x < 32; x++ {
		require.Zero(t, buf[x]&0xe0)
	}
	buf = render(c, 1, 32)
	for x := 29; x < 32; x++ {
		require.Equal(t, byte(0x20), buf[x]&0xe0)
	}
	buf = render(c, 1, 33)
	for x := 29; x < 32; x++ {
		require.Equal(t, byte(0x60), buf[x]&0xe0)
	}
	buf = render(c, 1, 34)
	for x := 29; x < 32; x++ {
		require.Equal(t, byte(0xe0), buf[x]&0xe0)
	}
}

func TestTopEdgeGrowsLeftToRight(t *testing.T) {
	c := newTestCompositor(t)
	buf := render(c, 1, 10)
	for x := 0; x < 32; x++ {
		if x < 10 {
			require.NotZero(t, buf[x], "column %d", x)
		} else {
			require.Zero(t, buf[x], "column %d", x)
		}
	}
}

func TestRightEdgePartialPage(t *testing.T) {
	c := newTestCompositor(t)
	// 40 is five pixels into the first right-edge page.
	buf := render(c, 1, 40)
	for x := 29; x < 32; x++ {
		require.Equal(t, byte(0x1f), buf[32+x])
		require.Zero(t, buf[64+x])
	}
}

func TestBottomAndLeftSegments(t *testing.T) {
	c := newTestCompositor(t)
	buf := render(c, 1, 151)
	require.Equal(t, byte(0x07|0x08), buf[511], "bottom-right corner plus first bottom edge column")
	require.Zero(t, buf[480+28])

	buf = render(c, 1, 184)
	for x := 0; x < 3; x++ {
		require.Equal(t, byte(0x06), buf[480+x]&0x07)
	}

	buf = render(c, 1, 188)
	for x := 0; x < 3; x++ {
		require.Equal(t, byte(0xc0), buf[14*32+x])
	}

	buf = render(c, 1, 298)
	for x := 0; x < 3; x++ {
		require.Equal(t, byte(0xe0), buf[x]&0xe0)
	}
}

func TestBorderGrowsMonotonically(t *testing.T) {
	c := newTestCompositor(t)
	prev := render(c, 1, 0)
	prevBits := popcount(prev)
	for f := 1; f <= 301; f++ {
		cur := render(c, 1, f)
		for i := range cur {
			require.Zero(t, prev[i]&^cur[i], "frame %d cleared bits at byte %d", f, i)
		}
		bits := popcount(cur)
		require.GreaterOrEqual(t, bits, prevBits)
		prev, prevBits = cur, bits
	}
	require.Equal(t, render(c, 1, 301), render(c, 1, 5000), "frame is clamped to the perimeter")
}

func TestBorderNeverErasesDigits(t *testing.T) {
	c := newTestCompositor(t)
	for _, count := range []int{8, 88, 888} {
		digits := render(c, count, 0)
		full := render(c, count, 301)
		for i := range digits {
			require.Zero(t, digits[i]&^full[i], "count %d byte %d", count, i)
		}
	}
}

func TestWideGeometryCentresDigits(t *testing.T) {
	c, err := New(Geometry{Width: 40, Height: 128})
	require.NoError(t, err)
	require.Equal(t, 317, c.Perimeter())
	buf := c.Render(5, 0)
	require.Len(t, buf, 40*16)
	tile := glyph.Digit(5)
	for k := 0; k < glyph.TilePages; k++ {
		row := buf[(5+k)*40+4 : (5+k)*40+4+glyph.TileWidth]
		require.Equal(t, tile[k*32:(k+1)*32], row)
	}
}

func TestImageSharesBuffer(t *testing.T) {
	c := newTestCompositor(t)
	c.Render(1, 301)
	img := c.Image()
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 128, img.Bounds().Dy())
	// top-left corner pixel row 5 is set once the border closes
	require.True(t, bool(img.BitAt(0, 5)))
}

func popcount(buf []byte) int {
	n := 0
	for _, b := range buf {
		for b != 0 {
			n += int(b & 1)
			b >>= 1
		}
	}
	return n
}
