// Package device wires the keystroke window, border animator and compositor
// of one keyboard half to the host firmware loop.
//
// A Device is driven from a single loop: Process is called for every key
// transition reported by the matrix scanner and Refresh once per display
// pass. Neither call blocks and neither is safe for concurrent use.
package device

import (
	"fmt"
	"io"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/verte-zerg/kpmoled/internal/clock"
	"github.com/verte-zerg/kpmoled/internal/compositor"
	"github.com/verte-zerg/kpmoled/internal/frame"
	"github.com/verte-zerg/kpmoled/internal/window"
)

// DefaultRowsPerHalf is the number of matrix rows scanned by each half.
const DefaultRowsPerHalf = 4

// Config holds the compile-time knobs of the counter and display.
type Config struct {
	Window        time.Duration
	Capacity      int
	FrameInterval time.Duration
	FrameScale    time.Duration
	Geometry      compositor.Geometry
	RowsPerHalf   int
}

// DefaultConfig returns the reference firmware values.
func DefaultConfig() Config {
	return Config{
		Window:        window.DefaultDuration,
		Capacity:      window.DefaultCapacity,
		FrameInterval: frame.DefaultInterval,
		FrameScale:    frame.DefaultScale,
		Geometry:      compositor.DefaultGeometry(),
		RowsPerHalf:   DefaultRowsPerHalf,
	}
}

// Key is a key transition reported by the matrix scanner.
type Key struct {
	Row     int
	Col     int
	Pressed bool
}

// RoleFunc reports whether the running half is the primary one.
type RoleFunc func() bool

// Fixed returns a RoleFunc that always answers primary.
func Fixed(primary bool) RoleFunc {
	return func() bool { return primary }
}

// Side is the counter state owned by one half.
type Side struct {
	Window   *window.Window
	Animator *frame.Animator
}

// Snapshot is a read-only view of the active side.
type Snapshot struct {
	Primary bool
	Count   int
	Total   time.Duration
	Frame   int
	Target  int
}

// Device is the counter and display of one running half.
type Device struct {
	cfg       Config
	isPrimary RoleFunc
	primary   *Side
	secondary *Side
	comp      *compositor.Compositor
	out       io.Writer
}

// New builds a Device. out receives every rendered frame and may be nil.
func New(cfg Config, c clock.Clock, isPrimary RoleFunc, out io.Writer) (*Device, error) {
	if isPrimary == nil {
		return nil, fmt.Errorf("role func must not be nil")
	}
	if cfg.RowsPerHalf <= 0 {
		return nil, fmt.Errorf("rows per half must be > 0")
	}
	comp, err := compositor.New(cfg.Geometry)
	if err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	primary, err := newSide(cfg, c, comp.Perimeter())
	if err != nil {
		return nil, err
	}
	secondary, err := newSide(cfg, c, comp.Perimeter())
	if err != nil {
		return nil, err
	}
	return &Device{
		cfg:       cfg,
		isPrimary: isPrimary,
		primary:   primary,
		secondary: secondary,
		comp:      comp,
		out:       out,
	}, nil
}

func newSide(cfg Config, c clock.Clock, perimeter int) (*Side, error) {
	w, err := window.New(c, cfg.Window, cfg.Capacity)
	if err != nil {
		return nil, err
	}
	a, err := frame.NewAnimator(c, perimeter, cfg.FrameInterval, cfg.FrameScale)
	if err != nil {
		return nil, err
	}
	return &Side{Window: w, Animator: a}, nil
}

// Process records k if it is a press on this half's rows.
func (d *Device) Process(k Key) bool {
	if !k.Pressed {
		return false
	}
	return d.RecordKeystroke(d.isPrimary(), k.Row)
}

// RecordKeystroke records a press on matrix row when the row belongs to the
// half described by isPrimary. It reports whether the press was counted.
func (d *Device) RecordKeystroke(isPrimary bool, row int) bool {
	if row < 0 {
		return false
	}
	local := row < d.cfg.RowsPerHalf
	if isPrimary && local {
		d.primary.Window.Record()
		return true
	}
	if !isPrimary && !local {
		d.secondary.Window.Record()
		return true
	}
	return false
}

// Active returns the side of the running half.
func (d *Device) Active() *Side {
	if d.isPrimary() {
		return d.primary
	}
	return d.secondary
}

// Refresh advances the border animation, renders the active side and hands
// the bitmap to the output.
func (d *Device) Refresh() error {
	side := d.Active()
	count := side.Window.Count()
	side.Animator.Tick(side.Window.Total())
	buf := d.comp.Render(count, side.Animator.Value())
	if d.out == nil {
		return nil
	}
	if _, err := d.out.Write(buf); err != nil {
		return fmt.Errorf("failed to write display buffer: %w", err)
	}
	return nil
}

// Snapshot reports the state of the active side.
func (d *Device) Snapshot() Snapshot {
	side := d.Active()
	total := side.Window.Total()
	return Snapshot{
		Primary: d.isPrimary(),
		Count:   side.Window.Count(),
		Total:   total,
		Frame:   side.Animator.Value(),
		Target:  side.Animator.Target(total),
	}
}

// Image returns the last rendered bitmap.
func (d *Device) Image() *image1bit.VerticalLSB {
	return d.comp.Image()
}

// Geometry returns the display geometry.
func (d *Device) Geometry() compositor.Geometry {
	return d.comp.Geometry()
}

// Perimeter returns the full border length.
func (d *Device) Perimeter() int {
	return d.comp.Perimeter()
}
