package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/verte-zerg/kpmoled/internal/clock"
	"github.com/verte-zerg/kpmoled/internal/compositor"
	"github.com/verte-zerg/kpmoled/internal/display"
	"github.com/verte-zerg/kpmoled/internal/frame"
	"github.com/verte-zerg/kpmoled/internal/glyph"
)

var (
	renderCount    int
	renderFrame    int
	renderTotalMs  int
	renderPNG      string
	renderScale    int
	renderStyle    string
	renderRotation int
	renderHardware bool
)

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one display frame",
		Args:  cobra.NoArgs,
		RunE:  runRenderCmd,
	}
	cmd.Flags().IntVar(&renderCount, "count", 0, "counter value (0-999)")
	cmd.Flags().IntVar(&renderFrame, "frame", -1, "border length in pixels (default: derived from --total-ms)")
	cmd.Flags().IntVar(&renderTotalMs, "total-ms", 0, "window span used to derive the border length")
	cmd.Flags().StringVar(&renderPNG, "png", "", "write the frame to a PNG file")
	cmd.Flags().IntVar(&renderScale, "scale", 4, "PNG pixel scale")
	cmd.Flags().StringVar(&renderStyle, "style", "braille", "terminal pixel style: braille or blocks")
	cmd.Flags().IntVar(&renderRotation, "rotate", 0, "rotate the output clockwise by 0, 90, 180 or 270 degrees")
	cmd.Flags().BoolVar(&renderHardware, "hardware", false, "send the frame to the SSD1306 panel")
	return cmd
}

func runRenderCmd(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if renderCount < 0 {
		return fmt.Errorf("--count must be >= 0")
	}
	if renderCount > glyph.MaxCount {
		logErrf("count %d clamped to %d\n", renderCount, glyph.MaxCount)
	}
	comp, err := compositor.New(settings.Device.Geometry)
	if err != nil {
		return fmt.Errorf("invalid geometry: %w", err)
	}
	a, err := frame.NewAnimator(clock.NewManual(0), comp.Perimeter(), settings.Device.FrameInterval, settings.Device.FrameScale)
	if err != nil {
		return err
	}
	if renderFrame >= 0 {
		a.Set(renderFrame)
	} else {
		a.Set(a.Target(time.Duration(renderTotalMs) * time.Millisecond))
	}
	border := a.Value()
	buf := comp.Render(renderCount, border)

	if renderHardware {
		panel, err := openPanel(settings)
		if err != nil {
			return err
		}
		defer closePanel(panel)
		if _, err := panel.Write(buf); err != nil {
			return fmt.Errorf("failed to write panel: %w", err)
		}
	}

	img, err := display.Rotate(comp.Image(), renderRotation)
	if err != nil {
		return err
	}
	if renderPNG != "" {
		return writePNGFile(renderPNG, img, renderScale)
	}
	style, ok := display.ParseStyle(renderStyle)
	if !ok {
		return fmt.Errorf("--style must be braille or blocks")
	}
	title := fmt.Sprintf("%d · border %d/%d", glyph.ClampCount(renderCount), border, comp.Perimeter())
	return writeOut(cmd.OutOrStdout(), display.Panel(img, style, title))
}

func writePNGFile(path string, img *image1bit.VerticalLSB, scale int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := display.WritePNG(f, img, scale); err != nil {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close after encode failure.
			_ = cerr
		}
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
