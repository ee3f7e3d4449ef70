package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := cfg.Apply(Defaults())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s != Defaults() {
		t.Fatalf("expected defaults, got %+v", s)
	}
}

func TestApplyOverridesSetKeys(t *testing.T) {
	path := writeConfig(t, `
[window]
duration-ms = 30000

[frame]
scale-ms = 100

[display]
width = 40
refresh-ms = 50

[hardware]
bus = "1"
address = 0x3D
sequential = false
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := cfg.Apply(Defaults())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Device.Window != 30*time.Second || s.Device.FrameScale != 100*time.Millisecond {
		t.Fatalf("unexpected device config: %+v", s.Device)
	}
	if s.Device.Capacity != 2048 || s.Device.FrameInterval != 100*time.Millisecond {
		t.Fatalf("unset keys should keep defaults: %+v", s.Device)
	}
	if s.Device.Geometry.Width != 40 || s.Device.Geometry.Height != 128 {
		t.Fatalf("unexpected geometry: %+v", s.Device.Geometry)
	}
	if s.Refresh != 50*time.Millisecond {
		t.Fatalf("unexpected refresh %v", s.Refresh)
	}
	if s.Panel.Bus != "1" || s.Panel.Address != 0x3D || s.Panel.Sequential {
		t.Fatalf("unexpected panel options: %+v", s.Panel)
	}
}

func TestApplyRejectsInvalidValues(t *testing.T) {
	cases := []string{
		"[window]\nduration-ms = 0\n",
		"[display]\nheight = 100\n",
		"[display]\nrotation = 45\n",
		"[split]\nrows-per-half = 0\n",
		"[hardware]\naddress = 300\n",
	}
	for _, body := range cases {
		cfg, err := LoadConfig(writeConfig(t, body))
		if err != nil {
			t.Fatalf("load %q: %v", body, err)
		}
		if _, err := cfg.Apply(Defaults()); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	if _, err := LoadConfig(writeConfig(t, "[window]\nlength = 3\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestTemplateDecodes(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, Template))
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Window.DurationMs != nil {
		t.Fatalf("template keys should be commented out")
	}
}

func TestPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/cfg")
	t.Setenv("XDG_DATA_HOME", "/tmp/data")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/cfg", "kpmoled", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/tmp/data", "kpmoled", "traces.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}

func TestLockPathFollowsRuntimeDir(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := Defaults().Panel.LockPath; got != filepath.Join("/run/user/1000", "kpmoled-ssd1306.lock") {
		t.Fatalf("unexpected lock path %q", got)
	}
}

func TestApplyDerivesPanelFromGeometry(t *testing.T) {
	path := writeConfig(t, `
[display]
width = 64
height = 128
rotation = 90
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s, err := cfg.Apply(Defaults())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Panel.Width != 128 || s.Panel.Height != 64 || s.Panel.Rotation != 90 {
		t.Fatalf("unexpected panel %+v", s.Panel)
	}

	unrotated := 0
	s, err = FileConfig{Display: DisplayConfig{Rotation: &unrotated}}.Apply(Defaults())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if s.Panel.Width != 32 || s.Panel.Height != 128 {
		t.Fatalf("unexpected unrotated panel %+v", s.Panel)
	}
}
