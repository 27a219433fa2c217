package overlay

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tessro/scrawl/internal/logging"
)

// DefaultJoinTimeout bounds how long a restore waits for the worker.
const DefaultJoinTimeout = 2 * time.Second

// JoinOutcome is the result of waiting for a worker.
type JoinOutcome string

const (
	// JoinSkipped means there was no worker to join.
	JoinSkipped JoinOutcome = "skipped"
	// JoinClean means the worker returned normally.
	JoinClean JoinOutcome = "clean"
	// JoinPanicked means the worker body panicked.
	JoinPanicked JoinOutcome = "panicked"
	// JoinTimedOut means the worker was still running at the bound.
	JoinTimedOut JoinOutcome = "timed_out"
)

func (o JoinOutcome) String() string {
	return string(o)
}

// Watchdog waits for worker goroutines with a fixed bound. It never
// returns an error: every outcome is logged and reported.
type Watchdog struct {
	clock   clockwork.Clock
	timeout time.Duration
	log     *slog.Logger
}

// NewWatchdog creates a watchdog. Zero timeout uses DefaultJoinTimeout.
func NewWatchdog(clock clockwork.Clock, timeout time.Duration, log *slog.Logger) Watchdog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if timeout <= 0 {
		timeout = DefaultJoinTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return Watchdog{clock: clock, timeout: timeout, log: log}
}

// Timeout returns the join bound.
func (d Watchdog) Timeout() time.Duration {
	return d.timeout
}

// Join waits at most the bound for w to finish.
func (d Watchdog) Join(w *Worker, source string) JoinOutcome {
	if w == nil {
		return JoinSkipped
	}

	select {
	case <-w.Done():
	case <-d.clock.After(d.timeout):
		d.log.Error("overlay worker join timed out", "source", source, "timeout", d.timeout)
		return JoinTimedOut
	}

	if value, panicked := w.Panicked(); panicked {
		d.log.Error("overlay worker panicked while joining",
			"source", source,
			"panic", logging.PanicMessage(value),
		)
		return JoinPanicked
	}
	d.log.Debug("overlay worker joined", "source", source)
	return JoinClean
}
