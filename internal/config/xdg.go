// Package config provides XDG path helpers and the TOML configuration file.
package config

import (
	"os"
	"path/filepath"
)

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

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "radmon", "config.toml")
}

// DefaultExportDir returns the directory exported logs are written to.
func DefaultExportDir() string {
	return filepath.Join(XDGDataHome(), "radmon", "exports")
}

// DefaultPanelLogPath is where the terminal panel sends log output.
func DefaultPanelLogPath() string {
	return filepath.Join(XDGDataHome(), "radmon", "panel.log")
}
