// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/kpmoled/internal/device"
	"github.com/verte-zerg/kpmoled/internal/display"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Window   WindowConfig   `toml:"window"`
	Frame    FrameConfig    `toml:"frame"`
	Display  DisplayConfig  `toml:"display"`
	Split    SplitConfig    `toml:"split"`
	Hardware HardwareConfig `toml:"hardware"`
}

// WindowConfig maps keystroke window settings.
type WindowConfig struct {
	DurationMs *int `toml:"duration-ms"`
	Capacity   *int `toml:"capacity"`
}

// FrameConfig maps border animation settings.
type FrameConfig struct {
	IntervalMs *int `toml:"interval-ms"`
	ScaleMs    *int `toml:"scale-ms"`
}

// DisplayConfig maps bitmap geometry and refresh settings.
type DisplayConfig struct {
	Width     *int `toml:"width"`
	Height    *int `toml:"height"`
	Rotation  *int `toml:"rotation"`
	RefreshMs *int `toml:"refresh-ms"`
}

// SplitConfig maps split keyboard settings.
type SplitConfig struct {
	RowsPerHalf *int `toml:"rows-per-half"`
}

// HardwareConfig maps the SSD1306 connection.
type HardwareConfig struct {
	Bus        *string `toml:"bus"`
	Address    *int    `toml:"address"`
	Sequential *bool   `toml:"sequential"`
}

// Settings is the resolved configuration.
type Settings struct {
	Device  device.Config
	Panel   display.PanelOptions
	Refresh time.Duration
}

// DefaultRefresh is the display refresh interval of the simulator.
const DefaultRefresh = 33 * time.Millisecond

// Defaults returns the built-in settings.
func Defaults() Settings {
	panel := display.DefaultPanelOptions()
	panel.LockPath = DefaultLockPath()
	return Settings{
		Device:  device.DefaultConfig(),
		Panel:   panel,
		Refresh: DefaultRefresh,
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// Apply overlays the values set in fc on s and validates the result.
func (fc FileConfig) Apply(s Settings) (Settings, error) {
	if v := fc.Window.DurationMs; v != nil {
		if *v <= 0 {
			return s, fmt.Errorf("window.duration-ms must be > 0")
		}
		s.Device.Window = millis(*v)
	}
	if v := fc.Window.Capacity; v != nil {
		if *v <= 0 {
			return s, fmt.Errorf("window.capacity must be > 0")
		}
		s.Device.Capacity = *v
	}
	if v := fc.Frame.IntervalMs; v != nil {
		if *v < 0 {
			return s, fmt.Errorf("frame.interval-ms must be >= 0")
		}
		s.Device.FrameInterval = millis(*v)
	}
	if v := fc.Frame.ScaleMs; v != nil {
		if *v <= 0 {
			return s, fmt.Errorf("frame.scale-ms must be > 0")
		}
		s.Device.FrameScale = millis(*v)
	}
	if v := fc.Display.Width; v != nil {
		s.Device.Geometry.Width = *v
	}
	if v := fc.Display.Height; v != nil {
		s.Device.Geometry.Height = *v
	}
	if err := s.Device.Geometry.Validate(); err != nil {
		return s, fmt.Errorf("display: %w", err)
	}
	if v := fc.Display.Rotation; v != nil {
		switch *v {
		case 0, 90, 180, 270:
			s.Panel.Rotation = *v
		default:
			return s, fmt.Errorf("display.rotation must be one of 0, 90, 180, 270")
		}
	}
	g := s.Device.Geometry
	s.Panel.Width, s.Panel.Height = display.PanelSize(g.Width, g.Height, s.Panel.Rotation)
	if v := fc.Display.RefreshMs; v != nil {
		if *v <= 0 {
			return s, fmt.Errorf("display.refresh-ms must be > 0")
		}
		s.Refresh = millis(*v)
	}
	if v := fc.Split.RowsPerHalf; v != nil {
		if *v <= 0 {
			return s, fmt.Errorf("split.rows-per-half must be > 0")
		}
		s.Device.RowsPerHalf = *v
	}
	if v := fc.Hardware.Bus; v != nil {
		s.Panel.Bus = *v
	}
	if v := fc.Hardware.Address; v != nil {
		if *v <= 0 || *v > 0x7f {
			return s, fmt.Errorf("hardware.address must be a 7-bit address")
		}
		s.Panel.Address = uint16(*v)
	}
	if v := fc.Hardware.Sequential; v != nil {
		s.Panel.Sequential = *v
	}
	return s, nil
}

func millis(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

// Template is written by "kpmoled config" when no file exists.
const Template = `# kpmoled configuration

[window]
# duration-ms = 60000
# capacity = 2048

[frame]
# interval-ms = 100
# scale-ms = 200

[display]
# width = 32
# height = 128
# rotation = 270
# refresh-ms = 33

[split]
# rows-per-half = 4

[hardware]
# bus = ""
# address = 0x3C
# sequential = true
`
