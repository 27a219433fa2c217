package sketch

import (
	"github.com/tessro/scrawl/internal/overlay"
	"github.com/tessro/scrawl/internal/settings"
)

// State is the worker-side view of the session.
type State string

const (
	// StateStarting means the host has not sent Start yet.
	StateStarting State = "starting"
	// StateActive means the host sent Start.
	StateActive State = "active"
	// StateExitRequested means the host went away and the worker must stop.
	StateExitRequested State = "exit_requested"
	// StateExited means the worker reported its exit.
	StateExited State = "exited"
)

// Controller tracks the worker's half of the overlay protocol. It has no
// terminal dependency; the Model feeds it commands and user decisions.
type Controller struct {
	notify   chan<- overlay.Notification
	settings func() settings.Settings

	state      State
	reason     overlay.ExitReason
	hasReason  bool
	promptOpen bool
	current    settings.Settings
	dropped    int
}

// NewController creates a controller that reports on notify and reads
// settings through get.
func NewController(notify chan<- overlay.Notification, get func() settings.Settings) *Controller {
	c := &Controller{state: StateStarting, notify: notify, settings: get}
	c.reloadSettings()
	return c
}

// State returns the worker-side state.
func (c *Controller) State() State { return c.state }

// Settings returns the settings the worker is drawing with.
func (c *Controller) Settings() settings.Settings { return c.current }

// PromptOpen reports whether the exit prompt is showing.
func (c *Controller) PromptOpen() bool { return c.promptOpen }

// ExitReason returns why the session is ending, if known.
func (c *Controller) ExitReason() (overlay.ExitReason, bool) {
	return c.reason, c.hasReason
}

// Dropped returns how many notifications were dropped on a full channel.
func (c *Controller) Dropped() int { return c.dropped }

// Apply handles one host command.
func (c *Controller) Apply(cmd overlay.Command) {
	if c.state == StateExited {
		return
	}
	switch cmd.Kind {
	case overlay.CommandStart:
		if c.state == StateStarting {
			c.state = StateActive
		}
	case overlay.CommandUpdateSettings:
		c.reloadSettings()
	case overlay.CommandRequestExit:
		c.RequestExit(cmd.Reason)
	}
}

// RequestExit records reason and opens the exit prompt. It does not end
// the session; the user still chooses to save or discard.
func (c *Controller) RequestExit(reason overlay.ExitReason) {
	if c.state == StateExited {
		return
	}
	if !c.hasReason {
		c.reason = reason
		c.hasReason = true
	}
	c.promptOpen = true
}

// CancelExit closes the prompt and forgets the pending reason.
func (c *Controller) CancelExit() {
	c.promptOpen = false
	c.hasReason = false
}

// Disconnected is called when the host closed the command channel.
func (c *Controller) Disconnected() {
	if c.state == StateExited {
		return
	}
	c.state = StateExitRequested
	c.reason = overlay.ReasonOverlayFailure
	c.hasReason = true
}

// Progress reports a committed canvas change.
func (c *Controller) Progress(snapshot overlay.Snapshot) {
	c.send(overlay.SaveProgress(snapshot))
}

// SaveFailed reports a failed export. The prompt stays open.
func (c *Controller) SaveFailed(msg string) {
	c.send(overlay.SaveError(msg))
}

// Finish reports the exit and moves to StateExited. Only the first call
// sends anything.
func (c *Controller) Finish(result overlay.SaveResult) {
	if c.state == StateExited {
		return
	}
	reason := overlay.ReasonUserRequest
	if c.hasReason {
		reason = c.reason
	}
	c.state = StateExited
	c.promptOpen = false
	c.send(overlay.Exited(reason, result))
}

func (c *Controller) reloadSettings() {
	if c.settings == nil {
		c.current = settings.Default()
		return
	}
	c.current = c.settings().Sanitized()
}

func (c *Controller) send(n overlay.Notification) {
	if c.notify == nil {
		return
	}
	select {
	case c.notify <- n:
	default:
		c.dropped++
	}
}
