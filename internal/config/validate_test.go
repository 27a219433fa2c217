package config

import (
	"errors"
	"testing"
	"time"
)

func TestValidateLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"empty uses default", "", nil},
		{"debug", "debug", nil},
		{"upper case", "INFO", nil},
		{"warning alias", "warning", nil},
		{"padded", " error ", nil},
		{"unknown", "verbose", ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLogLevel(tt.input)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateLogLevel(%q) = %v, want nil", tt.input, err)
				}
			} else if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateLogLevel(%q) = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
		field   string
	}{
		{"defaults", func(*Config) {}, nil, ""},
		{"session timeout set", func(c *Config) { c.Session.Timeout = 10 * time.Minute }, nil, ""},
		{"negative timeout", func(c *Config) { c.Session.Timeout = -time.Second }, ErrNegativeTimeout, "session.timeout"},
		{"tick too fast", func(c *Config) { c.Session.TickInterval = time.Millisecond }, ErrInvalidTickInterval, "session.tick_interval"},
		{"tick too slow", func(c *Config) { c.Session.TickInterval = 2 * time.Second }, ErrInvalidTickInterval, "session.tick_interval"},
		{"zero join timeout", func(c *Config) { c.Session.JoinTimeout = 0 }, ErrInvalidJoinTimeout, "session.join_timeout"},
		{"huge join timeout", func(c *Config) { c.Session.JoinTimeout = time.Hour }, ErrInvalidJoinTimeout, "session.join_timeout"},
		{"metrics addr ok", func(c *Config) { c.Metrics.Addr = "127.0.0.1:9464" }, nil, ""},
		{"metrics addr no port", func(c *Config) { c.Metrics.Addr = "localhost" }, ErrInvalidMetricsAddr, "metrics.addr"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, ErrInvalidLogLevel, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() = %v, want %v", err, tt.wantErr)
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error is %T, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "session.tick_interval",
		Value:   "1ms",
		Message: "out of range",
		Err:     ErrInvalidTickInterval,
	}

	want := `session.tick_interval: out of range (got "1ms")`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !errors.Is(err, ErrInvalidTickInterval) {
		t.Error("errors.Is should match the wrapped sentinel")
	}

	noValue := &ValidationError{Field: "log.level", Message: "bad"}
	if noValue.Error() != "log.level: bad" {
		t.Errorf("Error() = %q, want %q", noValue.Error(), "log.level: bad")
	}
}
