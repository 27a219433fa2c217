package overlay

import "time"

// Rect is the screen area the overlay occupies.
type Rect struct {
	X      int
	Y      int
	Width  int
	Height int
}

// EntryContext is captured when a session starts and is used to put
// things back afterward. It is never modified while the session runs.
type EntryContext struct {
	// Area is where the overlay draws.
	Area Rect

	// HostToken is opaque to the coordinator and handed back untouched.
	HostToken string

	// FeaturePriorEnabled is the competing feature's state at start.
	// The coordinator overwrites whatever the caller supplies.
	FeaturePriorEnabled bool

	// TimeoutDeadline forces a Timeout restore once passed. Zero means none.
	TimeoutDeadline time.Time
}

// HasDeadline reports whether a timeout deadline is set.
func (c EntryContext) HasDeadline() bool {
	return !c.TimeoutDeadline.IsZero()
}

// Expired reports whether now is at or past the deadline.
func (c EntryContext) Expired(now time.Time) bool {
	return c.HasDeadline() && !now.Before(c.TimeoutDeadline)
}

// ExitPrompt is the user-facing exit negotiation state. It exists from
// the exit request until the session returns to Idle.
type ExitPrompt struct {
	Reason ExitReason

	// FrozenInput is set while exit is pending so drawing stops.
	FrozenInput bool

	// OverlayHiddenForCapture is set while the overlay is hidden for a
	// clean screen capture.
	OverlayHiddenForCapture bool

	// LastError is the most recent save or export failure, if any.
	LastError string
}

func newExitPrompt(reason ExitReason) *ExitPrompt {
	return &ExitPrompt{
		Reason:      reason,
		FrozenInput: true,
	}
}
