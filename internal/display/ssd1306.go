package display

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"
)

// PanelOptions configures an SSD1306 attached over I2C.
type PanelOptions struct {
	// Bus is the I2C bus name; empty selects the first bus.
	Bus string
	// Address is the 7-bit panel address; 0 keeps the driver default 0x3C.
	Address uint16
	// Width and Height are the native panel dimensions.
	Width  int
	Height int
	// Rotation turns the rendered bitmap clockwise before it is sent.
	Rotation int
	// Sequential selects sequential COM pin wiring, used by most 128x32 modules.
	Sequential bool
	// LockPath guards the panel against a second writer.
	LockPath string
}

// DefaultPanelOptions returns options for a 128x32 module showing the
// portrait counter.
func DefaultPanelOptions() PanelOptions {
	return PanelOptions{
		Width:      128,
		Height:     32,
		Rotation:   270,
		Sequential: true,
		LockPath:   filepath.Join(os.TempDir(), "kpmoled-ssd1306.lock"),
	}
}

// SSD1306 writes frames to a physical panel.
type SSD1306 struct {
	dev      *ssd1306.Dev
	bus      i2c.BusCloser
	lock     *flock.Flock
	srcW     int
	srcH     int
	rotation int
	native   *image1bit.VerticalLSB
}

// PanelSize returns the native panel size that shows a srcW x srcH bitmap
// turned clockwise by rotation degrees.
func PanelSize(srcW, srcH, rotation int) (width, height int) {
	if rotation == 90 || rotation == 270 {
		return srcH, srcW
	}
	return srcW, srcH
}

// OpenSSD1306 initialises the host, takes the panel lock and opens the
// display for srcW x srcH bitmaps.
func OpenSSD1306(opts PanelOptions, srcW, srcH int) (*SSD1306, error) {
	rw, rh := PanelSize(srcW, srcH, opts.Rotation)
	if rw != opts.Width || rh != opts.Height {
		return nil, fmt.Errorf("%dx%d bitmap rotated by %d does not fit a %dx%d panel", srcW, srcH, opts.Rotation, opts.Width, opts.Height)
	}

	lock := flock.New(opts.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock panel: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("panel is in use (lock %s)", opts.LockPath)
	}

	p, err := openPanel(opts)
	if err != nil {
		return nil, withCleanup(err, "unlock panel", lock.Unlock)
	}
	p.lock = lock
	p.srcW = srcW
	p.srcH = srcH
	p.rotation = opts.Rotation
	p.native = image1bit.NewVerticalLSB(image.Rect(0, 0, opts.Width, opts.Height))
	return p, nil
}

func openPanel(opts PanelOptions) (*SSD1306, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise host: %w", err)
	}
	bus, err := i2creg.Open(opts.Bus)
	if err != nil {
		return nil, fmt.Errorf("failed to open i2c bus %q: %w", opts.Bus, err)
	}
	var target i2c.Bus = bus
	if opts.Address != 0 && opts.Address != defaultAddress {
		target = &addressBus{Bus: bus, addr: opts.Address}
	}
	dev, err := ssd1306.NewI2C(target, &ssd1306.Opts{
		W:          opts.Width,
		H:          opts.Height,
		Sequential: opts.Sequential,
	})
	if err != nil {
		return nil, withCleanup(fmt.Errorf("failed to initialise ssd1306: %w", err), "close i2c bus", bus.Close)
	}
	return &SSD1306{dev: dev, bus: bus}, nil
}

// withCleanup runs cleanup after a failed open and joins its error to err.
func withCleanup(err error, what string, cleanup func() error) error {
	if cerr := cleanup(); cerr != nil {
		return errors.Join(err, fmt.Errorf("failed to %s: %w", what, cerr))
	}
	return err
}

const defaultAddress = 0x3C

// addressBus redirects the driver's fixed address to a strapped one.
type addressBus struct {
	i2c.Bus
	addr uint16
}

func (b *addressBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

// Write rotates the bitmap to the panel orientation and sends it.
func (p *SSD1306) Write(buf []byte) (int, error) {
	if len(buf) != p.srcW*p.srcH/8 {
		return 0, fmt.Errorf("unexpected frame size %d, want %d", len(buf), p.srcW*p.srcH/8)
	}
	if err := RotateInto(p.native, Wrap(buf, p.srcW, p.srcH), p.rotation); err != nil {
		return 0, err
	}
	if _, err := p.dev.Write(p.native.Pix); err != nil {
		return 0, err
	}
	return len(buf), nil
}

// Close blanks the panel and releases the bus and lock.
func (p *SSD1306) Close() error {
	var firstErr error
	if err := p.dev.Halt(); err != nil {
		firstErr = fmt.Errorf("failed to halt panel: %w", err)
	}
	if err := p.bus.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to close i2c bus: %w", err)
	}
	if err := p.lock.Unlock(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("failed to unlock panel: %w", err)
	}
	return firstErr
}
