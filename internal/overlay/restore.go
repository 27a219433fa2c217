package overlay

import (
	"fmt"
	"log/slog"

	"github.com/tessro/scrawl/internal/logging"
)

// restore returns the coordinator to Idle. Only the caller that moves
// the lifecycle into Restoring runs the teardown; everyone else returns
// immediately. No step can keep the coordinator out of Idle.
func (c *Coordinator) restore(reason ExitReason, source string) {
	c.restoreSession("", reason, source)
}

// restoreSession is restore limited to sessionID. It does nothing if a
// different session (or none) is current. Empty sessionID matches any.
func (c *Coordinator) restoreSession(sessionID string, reason ExitReason, source string) {
	c.mu.Lock()
	if sessionID != "" && c.sessionID != sessionID {
		current := c.sessionID
		c.mu.Unlock()
		c.log.Warn("ignoring failure from stale overlay worker",
			"worker_session_id", sessionID,
			"session_id", current,
			"source", source,
		)
		return
	}
	if c.lifecycle == Idle || c.lifecycle == Restoring {
		c.mu.Unlock()
		return
	}
	if err := c.transitionLocked(Restoring); err != nil {
		c.mu.Unlock()
		c.log.Error("restore refused", "source", source, "error", err)
		return
	}
	sessionID = c.sessionID
	c.mu.Unlock()

	log := c.log.With("session_id", sessionID, "reason", reason.String(), "source", source)
	log.Warn("overlay restore executing")
	c.metrics.Restored(reason.String())

	if err := c.callRestoreHook(); err != nil {
		log.Error("overlay restore hook failed", "error", err)
	}

	c.restoreFeature(log)

	c.mu.Lock()
	worker := c.worker
	if c.commands != nil {
		close(c.commands)
	}
	c.worker = nil
	c.commands = nil
	c.notifications = nil
	c.entry = nil
	c.prompt = nil
	c.pendingExit = nil
	if err := c.transitionLocked(Idle); err != nil {
		// Only reachable if something forced the lifecycle mid-restore.
		log.Error("forcing idle after restore", "error", err)
		c.lifecycle = Idle
	}
	c.sessionID = ""
	c.mu.Unlock()

	outcome := c.watchdog.Join(worker, source)
	c.metrics.Joined(outcome.String())
	log.Info("overlay restore complete", "join", outcome.String())
}

// restoreFeature puts the competing feature back to its pre-start value,
// or reapplies its live value when no entry context was captured.
func (c *Coordinator) restoreFeature(log *slog.Logger) {
	if c.feature == nil {
		return
	}

	c.mu.Lock()
	entry := c.entry
	c.mu.Unlock()

	var prior bool
	if entry != nil {
		prior = entry.FeaturePriorEnabled
	} else {
		prior = c.feature.Enabled()
	}
	c.feature.SetEnabled(prior)
	log.Debug("competing feature restored", "enabled", prior)
}

func (c *Coordinator) callRestoreHook() (err error) {
	if c.restoreHook == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("restore hook panicked: %s", logging.PanicMessage(r))
		}
	}()
	return c.restoreHook()
}
