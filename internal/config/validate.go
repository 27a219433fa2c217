package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidLogLevel     = errors.New("log level must be 'debug', 'info', 'warn', or 'error'")
	ErrNegativeTimeout     = errors.New("session timeout cannot be negative")
	ErrInvalidTickInterval = errors.New("tick interval out of range")
	ErrInvalidJoinTimeout  = errors.New("join timeout out of range")
	ErrInvalidMetricsAddr  = errors.New("metrics address must be host:port")
)

// Tick interval bounds.
const (
	MinTickInterval = 5 * time.Millisecond
	MaxTickInterval = time.Second
)

// MaxJoinTimeout is the largest accepted join bound.
const MaxJoinTimeout = time.Minute

// ValidationError wraps a validation error with context.
type ValidationError struct {
	Field   string
	Value   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got %q)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if err := ValidateLogLevel(c.Log.Level); err != nil {
		return err
	}

	if c.Session.Timeout < 0 {
		return &ValidationError{
			Field:   "session.timeout",
			Value:   c.Session.Timeout.String(),
			Message: "cannot be negative",
			Err:     ErrNegativeTimeout,
		}
	}

	if c.Session.TickInterval < MinTickInterval || c.Session.TickInterval > MaxTickInterval {
		return &ValidationError{
			Field:   "session.tick_interval",
			Value:   c.Session.TickInterval.String(),
			Message: fmt.Sprintf("must be between %s and %s", MinTickInterval, MaxTickInterval),
			Err:     ErrInvalidTickInterval,
		}
	}

	if c.Session.JoinTimeout <= 0 || c.Session.JoinTimeout > MaxJoinTimeout {
		return &ValidationError{
			Field:   "session.join_timeout",
			Value:   c.Session.JoinTimeout.String(),
			Message: fmt.Sprintf("must be positive and at most %s", MaxJoinTimeout),
			Err:     ErrInvalidJoinTimeout,
		}
	}

	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return &ValidationError{
				Field:   "metrics.addr",
				Value:   c.Metrics.Addr,
				Message: "must be host:port",
				Err:     ErrInvalidMetricsAddr,
			}
		}
	}

	return nil
}

// ValidateLogLevel validates a log level string. Empty means the default.
func ValidateLogLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "debug", "info", "warn", "warning", "error":
		return nil
	}
	return &ValidationError{
		Field:   "log.level",
		Value:   level,
		Message: "must be 'debug', 'info', 'warn', or 'error'",
		Err:     ErrInvalidLogLevel,
	}
}
