// Package paths provides a single source of truth for scrawl file paths.
// All path helpers honor environment variable overrides for isolated testing.
//
// Path resolution precedence:
//  1. Specific env vars (SCRAWL_SETTINGS_PATH) take highest priority
//  2. SCRAWL_DIR sets the base directory (derives config, settings, exports, log)
//  3. Default behavior (~/.scrawl, ~/.config/scrawl) when no env vars are set
package paths

import (
	"os"
	"path/filepath"
)

// Environment variable names for path overrides.
const (
	// EnvDir is the base directory override (e.g., /tmp/scrawl-e2e).
	EnvDir = "SCRAWL_DIR"

	// EnvSettingsPath overrides the overlay settings file directly.
	EnvSettingsPath = "SCRAWL_SETTINGS_PATH"
)

// File names under the config directory.
const (
	ConfigFileName   = "config.toml"
	SettingsFileName = "settings.toml"
)

// BaseDir returns the scrawl base directory (~/.scrawl by default).
// Honors SCRAWL_DIR.
func BaseDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".scrawl"), nil
}

// ConfigDir returns the config directory (~/.config/scrawl by default).
// When SCRAWL_DIR is set, returns SCRAWL_DIR/config instead.
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvDir); dir != "" {
		return filepath.Join(dir, "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "scrawl"), nil
}

// ConfigPath returns the host config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// SettingsPath returns the overlay settings file path.
// Precedence: SCRAWL_SETTINGS_PATH > <config dir>/settings.toml
func SettingsPath() (string, error) {
	if path := os.Getenv(EnvSettingsPath); path != "" {
		return path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SettingsFileName), nil
}

// ExportDir returns where canvases are exported (~/.scrawl/exports).
func ExportDir() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "exports"), nil
}

// LogPath returns the log file path (~/.scrawl/scrawl.log).
func LogPath() (string, error) {
	base, err := BaseDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "scrawl.log"), nil
}
