// Package host drives an overlay coordinator from the host side: it
// ticks it on a fixed interval until the session ends.
package host

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tessro/scrawl/internal/logging"
	"github.com/tessro/scrawl/internal/overlay"
)

// Default loop configuration values.
const (
	// DefaultTickInterval is how often the coordinator is ticked.
	DefaultTickInterval = 50 * time.Millisecond

	// DefaultShutdownGrace is how long a cancelled loop waits for the
	// worker to wind down before forcing a restore.
	DefaultShutdownGrace = 3 * time.Second
)

// Coordinator is the part of *overlay.Coordinator the loop drives.
type Coordinator interface {
	Tick(now time.Time)
	Lifecycle() overlay.Lifecycle
	RequestExit(reason overlay.ExitReason)
	NotifyOverlayExit(reason overlay.ExitReason)
}

// Config configures a Loop.
type Config struct {
	// TickInterval defaults to DefaultTickInterval.
	TickInterval time.Duration

	// ShutdownGrace defaults to DefaultShutdownGrace.
	ShutdownGrace time.Duration

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Loop ticks a coordinator until its session ends.
type Loop struct {
	coord    Coordinator
	interval time.Duration
	grace    time.Duration
	clock    clockwork.Clock
	log      *slog.Logger
}

// New creates a loop for coord.
func New(coord Coordinator, cfg Config) *Loop {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = DefaultShutdownGrace
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Loop{
		coord:    coord,
		interval: cfg.TickInterval,
		grace:    cfg.ShutdownGrace,
		clock:    cfg.Clock,
		log:      cfg.Logger.With("component", "host-loop"),
	}
}

// Run ticks the coordinator until it is Idle. When ctx is cancelled it
// asks the worker to exit, keeps ticking, and forces a restore if the
// session is still running after the shutdown grace period. It returns
// ctx.Err() if ctx was cancelled, nil otherwise.
func (l *Loop) Run(ctx context.Context) (err error) {
	defer logging.LogPanic("host-loop", func(any) {
		l.coord.NotifyOverlayExit(overlay.ReasonOverlayFailure)
	})

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	done := ctx.Done()
	var forced <-chan time.Time

	for {
		if l.coord.Lifecycle() == overlay.Idle {
			return err
		}

		select {
		case <-done:
			done = nil
			err = ctx.Err()
			l.log.Info("host loop cancelled, requesting overlay exit", "grace", l.grace)
			l.coord.RequestExit(overlay.ReasonUserRequest)
			forced = l.clock.After(l.grace)

		case <-forced:
			forced = nil
			l.log.Warn("overlay did not exit within grace period, forcing restore")
			l.coord.NotifyOverlayExit(overlay.ReasonOverlayFailure)

		case now := <-ticker.Chan():
			l.coord.Tick(now)
		}
	}
}
