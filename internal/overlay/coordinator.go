// Package overlay coordinates the lifecycle of a modal overlay session.
//
// A session runs on its own worker goroutine and talks to the host only
// through two channels. Every way a session can end (an exit request,
// the worker reporting it exited, a worker panic or error, a timeout, a
// failed spawn) converges on one idempotent restore that puts the
// competing feature back the way it was and returns the coordinator to
// Idle. Public methods never block on the worker; the only wait is the
// bounded join in the Watchdog.
package overlay

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/tessro/scrawl/internal/event"
	"github.com/tessro/scrawl/internal/logging"
	"github.com/tessro/scrawl/internal/metrics"
	"github.com/tessro/scrawl/internal/settings"
)

// StartOutcome reports what a start call did.
type StartOutcome string

const (
	// Started means a new session was spawned.
	Started StartOutcome = "started"
	// AlreadyActive means a session already existed and nothing changed.
	AlreadyActive StartOutcome = "already_active"
)

// Feature is the competing capability suspended while a session runs.
// Implementations must not call back into the Coordinator synchronously.
type Feature interface {
	Enabled() bool
	SetEnabled(enabled bool)
}

// Options configures a Coordinator.
type Options struct {
	// Spawner creates sessions. Required for Start to succeed.
	Spawner Spawner

	// RestoreHook runs once per restore. Failures are logged only.
	RestoreHook func() error

	// Feature is suspended during sessions. Optional.
	Feature Feature

	// Settings is the initial settings value.
	Settings settings.Settings

	// Clock drives the join bound. Defaults to the real clock.
	Clock clockwork.Clock

	// JoinTimeout bounds the worker join. Defaults to DefaultJoinTimeout.
	JoinTimeout time.Duration

	// Metrics is optional.
	Metrics *metrics.Overlay

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Coordinator owns the overlay lifecycle. It is safe for concurrent use.
type Coordinator struct {
	spawner     Spawner
	restoreHook func() error
	feature     Feature
	watchdog    Watchdog
	metrics     *metrics.Overlay
	log         *slog.Logger

	transitions event.Emitter[Transition]
	progress    event.Emitter[Snapshot]

	// emitMu serializes handler delivery so events arrive one at a time
	// and in order no matter which goroutine flushes them.
	emitMu sync.Mutex

	mu sync.Mutex
	// +checklocks:mu
	lifecycle Lifecycle
	// +checklocks:mu
	settings settings.Settings
	// +checklocks:mu
	sessionID string
	// +checklocks:mu
	worker *Worker
	// +checklocks:mu
	commands chan<- Command
	// +checklocks:mu
	notifications <-chan Notification
	// +checklocks:mu
	entry *EntryContext
	// +checklocks:mu
	prompt *ExitPrompt
	// +checklocks:mu
	pendingExit *ExitReason
	// +checklocks:mu
	dispatched []Command
	// +checklocks:mu
	pending []Transition
}

// New creates an idle Coordinator.
func New(opts Options) *Coordinator {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "overlay")

	return &Coordinator{
		spawner:     opts.Spawner,
		restoreHook: opts.RestoreHook,
		feature:     opts.Feature,
		watchdog:    NewWatchdog(opts.Clock, opts.JoinTimeout, log),
		metrics:     opts.Metrics,
		log:         log,
		lifecycle:   Idle,
		settings:    opts.Settings,
	}
}

// Start begins a session with an empty entry context.
func (c *Coordinator) Start() (StartOutcome, error) {
	return c.StartWithContext(EntryContext{})
}

// StartWithContext begins a session. If one already exists it returns
// AlreadyActive and leaves the existing session untouched. A spawn
// failure is rolled back through the restore pipeline and returned.
func (c *Coordinator) StartWithContext(entry EntryContext) (StartOutcome, error) {
	defer c.flushTransitions()

	c.mu.Lock()
	if c.lifecycle != Idle {
		state := c.lifecycle
		c.mu.Unlock()
		c.log.Debug("start ignored, session already active", "state", state.String())
		return AlreadyActive, nil
	}

	if c.feature != nil {
		entry.FeaturePriorEnabled = c.feature.Enabled()
		c.feature.SetEnabled(false)
	}

	sessionID := uuid.NewString()
	c.sessionID = sessionID
	if err := c.transitionLocked(Starting); err != nil {
		c.mu.Unlock()
		return AlreadyActive, err
	}
	stored := entry
	c.entry = &stored
	c.prompt = nil
	c.pendingExit = nil
	c.mu.Unlock()

	log := c.log.With("session_id", sessionID)
	log.Info("overlay session starting",
		"area", fmt.Sprintf("%dx%d+%d+%d", entry.Area.Width, entry.Area.Height, entry.Area.X, entry.Area.Y),
		"feature_prior_enabled", entry.FeaturePriorEnabled,
		"deadline", entry.TimeoutDeadline,
	)

	session, err := c.spawn(SpawnRequest{
		SessionID: sessionID,
		Entry:     entry,
		Settings:  c.Settings,
		Launch: func(body func() error) *Worker {
			return c.launch(sessionID, body)
		},
	})
	if err != nil {
		log.Error("overlay spawn failed", "error", err)
		c.metrics.SpawnFailed()
		c.restore(ReasonStartFailure, "start failure rollback")
		return Started, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	c.mu.Lock()
	if c.lifecycle != Starting || c.sessionID != sessionID {
		state := c.lifecycle
		c.mu.Unlock()
		log.Warn("overlay start interrupted, abandoning new session", "state", state.String())
		c.abandon(session, "start interrupted")
		return Started, ErrStartInterrupted
	}
	c.worker = session.Worker
	c.commands = session.Commands
	c.notifications = session.Notifications
	if err := c.transitionLocked(Active); err != nil {
		c.mu.Unlock()
		return Started, err
	}
	c.sendLocked(StartCommand())
	if c.pendingExit != nil {
		reason := *c.pendingExit
		c.pendingExit = nil
		if err := c.transitionLocked(Exiting); err == nil {
			c.sendLocked(RequestExitCommand(reason))
		}
	}
	c.mu.Unlock()

	c.metrics.SessionStarted()
	log.Info("overlay session active")
	return Started, nil
}

func (c *Coordinator) spawn(req SpawnRequest) (*Session, error) {
	if c.spawner == nil {
		return nil, ErrNoSpawner
	}
	session, err := c.spawner.Spawn(req)
	if err != nil {
		if session != nil {
			c.abandon(session, "spawn error")
		}
		return nil, err
	}
	if !session.complete() {
		c.abandon(session, "incomplete session")
		return nil, ErrIncompleteSession
	}
	return session, nil
}

// abandon tears down a session the coordinator never adopted.
func (c *Coordinator) abandon(session *Session, source string) {
	if session == nil {
		return
	}
	if session.Commands != nil {
		close(session.Commands)
	}
	c.watchdog.Join(session.Worker, source)
}

// RequestExit asks the worker to wind down. It does nothing when Idle
// or when an exit is already underway.
func (c *Coordinator) RequestExit(reason ExitReason) {
	defer c.flushTransitions()

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.lifecycle {
	case Starting:
		// Starting -> Exiting is not an edge; apply once Active.
		if c.pendingExit == nil {
			c.pendingExit = &reason
			c.prompt = newExitPrompt(reason)
		}
	case Active:
		if err := c.transitionLocked(Exiting); err != nil {
			c.log.Error("request exit refused", "error", err)
			return
		}
		c.prompt = newExitPrompt(reason)
		c.sendLocked(RequestExitCommand(reason))
	}
}

// NotifyOverlayExit is the entry point for an external signal that the
// worker has stopped.
func (c *Coordinator) NotifyOverlayExit(reason ExitReason) {
	defer c.flushTransitions()
	c.restore(reason, "overlay exit notification")
}

// RunWorkerEntrypoint runs body with panic isolation. A returned error
// or a panic routes into the restore pipeline as an overlay failure and
// never reaches the caller.
func (c *Coordinator) RunWorkerEntrypoint(body func() error) {
	c.runWorker("", body)
}

// runWorker is RunWorkerEntrypoint bound to a session. A failure only
// restores if sessionID is still the current session; a worker left
// over from an earlier session is logged and otherwise ignored. An empty
// sessionID matches whatever session is current.
func (c *Coordinator) runWorker(sessionID string, body func() error) {
	defer c.flushTransitions()

	var (
		panicked bool
		payload  any
		stack    []byte
	)
	err := func() error {
		defer func() {
			if r := recover(); r != nil {
				panicked = true
				payload = r
				stack = debug.Stack()
			}
		}()
		return body()
	}()

	switch {
	case panicked:
		c.log.Error("overlay worker panicked",
			"panic", logging.PanicMessage(payload),
			"stack", string(stack),
		)
		c.restoreSession(sessionID, ReasonOverlayFailure, "overlay worker panic")
	case err != nil:
		c.log.Error("overlay worker failed", "error", err)
		c.restoreSession(sessionID, ReasonOverlayFailure, "overlay worker failure")
	}
}

// launch starts body for sessionID on a new goroutine. The worker's
// done channel closes before any restore runs so the watchdog can join
// it from inside the same goroutine.
func (c *Coordinator) launch(sessionID string, body func() error) *Worker {
	w := newWorker()
	go c.runWorker(sessionID, func() error {
		defer func() {
			if r := recover(); r != nil {
				w.finish(r, true)
				panic(r)
			}
			w.finish(nil, false)
		}()
		return body()
	})
	return w
}

// ApplySettings replaces the stored settings and tells a live worker.
func (c *Coordinator) ApplySettings(s settings.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings = s
	if c.lifecycle.IsActive() {
		c.sendLocked(UpdateSettingsCommand())
	}
}

// Settings returns a copy of the stored settings.
func (c *Coordinator) Settings() settings.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings.Clone()
}

// Tick is called periodically by the host. It enforces the session
// deadline and drains worker notifications without blocking.
func (c *Coordinator) Tick(now time.Time) {
	defer c.flushTransitions()

	c.mu.Lock()
	timedOut := c.lifecycle == Active && c.entry != nil && c.entry.Expired(now)
	c.mu.Unlock()

	if timedOut {
		c.restore(ReasonTimeout, "session timeout")
	}

	c.drainNotifications()
}

func (c *Coordinator) drainNotifications() {
	var (
		terminal *ExitReason
		progress []Snapshot
	)

	c.mu.Lock()
	if c.lifecycle != Active && c.lifecycle != Exiting {
		c.mu.Unlock()
		return
	}
	rx := c.notifications
	log := c.log.With("session_id", c.sessionID)

drain:
	for rx != nil {
		select {
		case n, ok := <-rx:
			if !ok {
				if terminal == nil {
					log.Warn("overlay worker disconnected")
					reason := ReasonOverlayFailure
					terminal = &reason
				}
				break drain
			}
			switch n.Kind {
			case NotifyExited:
				if terminal != nil {
					log.Debug("ignoring duplicate exit notification", "reason", n.Reason.String())
					continue
				}
				log.Info("overlay worker exited", "reason", n.Reason.String(), "save", n.SaveResult.String())
				reason := n.Reason
				terminal = &reason
			case NotifySaveProgress:
				log.Debug("overlay save progress", "revision", n.Snapshot.Revision, "objects", n.Snapshot.Objects)
				progress = append(progress, n.Snapshot)
			case NotifySaveError:
				log.Error("overlay save error", "error", n.Message)
				if c.prompt != nil {
					c.prompt.LastError = n.Message
					c.prompt.OverlayHiddenForCapture = false
				}
			}
		default:
			break drain
		}
	}
	c.mu.Unlock()

	if len(progress) > 0 {
		c.emitMu.Lock()
		for _, snapshot := range progress {
			c.progress.Emit(snapshot)
		}
		c.emitMu.Unlock()
	}
	if terminal != nil {
		c.restore(*terminal, "overlay exited notification")
	}
}

// Lifecycle returns the current lifecycle state.
func (c *Coordinator) Lifecycle() Lifecycle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lifecycle
}

// IsActive reports whether a session exists.
func (c *Coordinator) IsActive() bool {
	return c.Lifecycle().IsActive()
}

// SessionID returns the current session ID, or "" when Idle.
func (c *Coordinator) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// EntryContext returns a copy of the current entry context.
func (c *Coordinator) EntryContext() (EntryContext, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return EntryContext{}, false
	}
	return *c.entry, true
}

// ExitPrompt returns a copy of the exit prompt state.
func (c *Coordinator) ExitPrompt() (ExitPrompt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prompt == nil {
		return ExitPrompt{}, false
	}
	return *c.prompt, true
}

// SetExitPromptError records a save error on the exit prompt.
func (c *Coordinator) SetExitPromptError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prompt != nil {
		c.prompt.LastError = msg
		c.prompt.OverlayHiddenForCapture = false
	}
}

// MarkOverlayHiddenForCapture notes that the overlay is hidden.
func (c *Coordinator) MarkOverlayHiddenForCapture() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.prompt != nil {
		c.prompt.OverlayHiddenForCapture = true
	}
}

// DispatchedMessages returns every command handed to a live session so
// far, in order, including ones dropped on a full buffer.
func (c *Coordinator) DispatchedMessages() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Command, len(c.dispatched))
	copy(out, c.dispatched)
	return out
}

// TakeDispatchedMessages returns and clears the dispatched command log.
func (c *Coordinator) TakeDispatchedMessages() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.dispatched
	c.dispatched = nil
	return out
}

// OnTransition registers a handler for lifecycle transitions. The
// returned func unregisters it.
//
// Handlers run after the coordinator lock is released, one at a time and
// in transition order. They run on the goroutine that flushes the
// transition: usually the caller that caused it, or the worker goroutine
// when a worker failure ends the session. A caller's own transitions
// have all been delivered by the time its method returns. Handlers must
// not call methods that change the lifecycle.
func (c *Coordinator) OnTransition(fn func(Transition)) func() {
	return c.transitions.OnEvent(fn)
}

// OnSaveProgress registers a handler for worker save progress. Handlers
// run on the goroutine calling Tick, serialized with OnTransition
// handlers.
func (c *Coordinator) OnSaveProgress(fn func(Snapshot)) func() {
	return c.progress.OnEvent(fn)
}

// +checklocks:c.mu
func (c *Coordinator) transitionLocked(next Lifecycle) error {
	if !CanTransition(c.lifecycle, next) {
		return &TransitionError{From: c.lifecycle, To: next}
	}
	t := Transition{From: c.lifecycle, To: next, SessionID: c.sessionID}
	c.lifecycle = next
	c.pending = append(c.pending, t)
	c.metrics.Transitioned(t.From.String(), t.To.String())
	c.log.Debug("lifecycle transition", "from", t.From.String(), "to", t.To.String(), "session_id", t.SessionID)
	return nil
}

// sendLocked records cmd and hands it to the worker without blocking.
//
// +checklocks:c.mu
func (c *Coordinator) sendLocked(cmd Command) {
	if c.commands == nil {
		// Starting or Restoring: no worker to hand it to.
		c.log.Debug("overlay command skipped, no live session", "command", cmd.Kind.String())
		return
	}
	c.dispatched = append(c.dispatched, cmd)
	c.metrics.CommandDispatched(cmd.Kind.String())
	select {
	case c.commands <- cmd:
	default:
		c.log.Warn("overlay command dropped, worker not draining", "command", cmd.Kind.String())
		c.metrics.CommandDropped(cmd.Kind.String())
	}
}

// flushTransitions emits queued transitions. Must not be called with
// the lock held.
func (c *Coordinator) flushTransitions() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, t := range pending {
		c.transitions.Emit(t)
	}
}
