package display

import (
	"fmt"
	"image"

	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Rotate returns src turned clockwise by degrees, one of 0, 90, 180, 270.
func Rotate(src *image1bit.VerticalLSB, degrees int) (*image1bit.VerticalLSB, error) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if degrees == 90 || degrees == 270 {
		w, h = h, w
	}
	if h%8 != 0 {
		return nil, fmt.Errorf("rotated height %d is not a multiple of 8", h)
	}
	dst := image1bit.NewVerticalLSB(image.Rect(0, 0, w, h))
	if err := RotateInto(dst, src, degrees); err != nil {
		return nil, err
	}
	return dst, nil
}

// RotateInto writes src turned clockwise by degrees into dst.
func RotateInto(dst, src *image1bit.VerticalLSB, degrees int) error {
	sw, sh := src.Rect.Dx(), src.Rect.Dy()
	dw, dh := dst.Rect.Dx(), dst.Rect.Dy()
	switch degrees {
	case 0, 180:
		if dw != sw || dh != sh {
			return fmt.Errorf("rotation %d needs a %dx%d target, got %dx%d", degrees, sw, sh, dw, dh)
		}
	case 90, 270:
		if dw != sh || dh != sw {
			return fmt.Errorf("rotation %d needs a %dx%d target, got %dx%d", degrees, sh, sw, dw, dh)
		}
	default:
		return fmt.Errorf("unsupported rotation %d", degrees)
	}
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			on := bitAt(src, x, y)
			switch degrees {
			case 0:
				setBit(dst, x, y, on)
			case 90:
				setBit(dst, sh-1-y, x, on)
			case 180:
				setBit(dst, sw-1-x, sh-1-y, on)
			case 270:
				setBit(dst, y, sw-1-x, on)
			}
		}
	}
	return nil
}
