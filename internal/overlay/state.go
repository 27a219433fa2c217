package overlay

import (
	"errors"
	"fmt"
)

// Lifecycle is the coordinator's session state.
type Lifecycle string

const (
	// Idle means no overlay session exists.
	Idle Lifecycle = "idle"
	// Starting means the worker is being spawned.
	Starting Lifecycle = "starting"
	// Active means the worker is running and owns input.
	Active Lifecycle = "active"
	// Exiting means an exit was requested and the worker is winding down.
	Exiting Lifecycle = "exiting"
	// Restoring means teardown is in progress.
	Restoring Lifecycle = "restoring"
)

func (l Lifecycle) String() string {
	return string(l)
}

// IsActive reports whether a session exists in any form.
func (l Lifecycle) IsActive() bool {
	return l != Idle
}

// legalTransitions is the complete edge set. Anything missing is refused.
var legalTransitions = map[Lifecycle][]Lifecycle{
	Idle:      {Starting},
	Starting:  {Active, Restoring},
	Active:    {Exiting, Restoring},
	Exiting:   {Restoring},
	Restoring: {Idle},
}

// CanTransition reports whether from -> to is a legal lifecycle edge.
func CanTransition(from, to Lifecycle) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ErrInvalidTransition is matched by every *TransitionError.
var ErrInvalidTransition = errors.New("invalid lifecycle transition")

// TransitionError reports a refused lifecycle transition.
type TransitionError struct {
	From Lifecycle
	To   Lifecycle
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid lifecycle transition: %s -> %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// Transition records one applied lifecycle change.
type Transition struct {
	From      Lifecycle
	To        Lifecycle
	SessionID string
}
