// Package config provides configuration loading and validation for scrawl.
package config

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tessro/scrawl/internal/paths"
)

// Config represents the scrawl host configuration.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Session  SessionConfig  `toml:"session"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Gestures GesturesConfig `toml:"gestures"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `toml:"level"`
	// Path overrides the default log file.
	Path string `toml:"path"`
}

// SessionConfig controls overlay session timing.
type SessionConfig struct {
	// Timeout ends a session after this long. Zero means no deadline.
	Timeout time.Duration `toml:"timeout"`
	// TickInterval is how often the host ticks the coordinator.
	TickInterval time.Duration `toml:"tick_interval"`
	// JoinTimeout bounds how long a restore waits for the worker.
	JoinTimeout time.Duration `toml:"join_timeout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables it.
	Addr string `toml:"addr"`
}

// GesturesConfig controls the mouse gesture feature that the overlay
// suspends while it runs.
type GesturesConfig struct {
	Enabled bool `toml:"enabled"`
}

// Defaults.
const (
	DefaultLogLevel     = "info"
	DefaultTickInterval = 50 * time.Millisecond
	DefaultJoinTimeout  = 2 * time.Second
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: DefaultLogLevel},
		Session: SessionConfig{
			TickInterval: DefaultTickInterval,
			JoinTimeout:  DefaultJoinTimeout,
		},
		Gestures: GesturesConfig{Enabled: true},
	}
}

// Load loads the configuration from the default path.
func Load() (*Config, error) {
	path, err := paths.ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads the configuration from a specific path. A missing
// file yields the defaults; keys absent from the file keep their defaults.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
