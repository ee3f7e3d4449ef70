// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

const appName = "kpmoled"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// XDGRuntimeDir returns the XDG runtime dir, falling back to the system temp
// dir when the session has none.
func XDGRuntimeDir() string {
	if v := os.Getenv("XDG_RUNTIME_DIR"); v != "" {
		return v
	}
	return os.TempDir()
}

// DefaultDBPath returns the default path for the trace database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), appName, "traces.db")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), appName, "config.toml")
}

// DefaultLockPath returns the lock file guarding the SSD1306 panel.
func DefaultLockPath() string {
	return filepath.Join(XDGRuntimeDir(), appName+"-ssd1306.lock")
}
