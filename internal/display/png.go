package display

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// WritePNG encodes img as a black and white PNG, each pixel scaled to a
// scale x scale square.
func WritePNG(w io.Writer, img *image1bit.VerticalLSB, scale int) error {
	if scale <= 0 {
		scale = 1
	}
	sw, sh := img.Rect.Dx(), img.Rect.Dy()
	out := image.NewGray(image.Rect(0, 0, sw*scale, sh*scale))
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			if !bitAt(img, x, y) {
				continue
			}
			for dy := 0; dy < scale; dy++ {
				for dx := 0; dx < scale; dx++ {
					out.SetGray(x*scale+dx, y*scale+dy, color.Gray{Y: 0xff})
				}
			}
		}
	}
	if err := png.Encode(w, out); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}
