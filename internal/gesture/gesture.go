// Package gesture holds the on/off switch for mouse gesture capture,
// the input feature the overlay suspends while a session runs.
package gesture

import (
	"sync"

	"github.com/tessro/scrawl/internal/event"
)

// Switch is a concurrency-safe enabled flag with change notifications.
type Switch struct {
	mu sync.Mutex
	// +checklocks:mu
	enabled bool

	changes event.Emitter[bool]
}

// NewSwitch creates a switch with the given initial value.
func NewSwitch(enabled bool) *Switch {
	return &Switch{enabled: enabled}
}

// Enabled reports whether gesture capture is on.
func (s *Switch) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// SetEnabled sets the flag. Handlers run only when the value changes.
func (s *Switch) SetEnabled(enabled bool) {
	s.mu.Lock()
	changed := s.enabled != enabled
	s.enabled = enabled
	s.mu.Unlock()

	if changed {
		s.changes.Emit(enabled)
	}
}

// OnChange registers a handler for value changes and returns a func
// that removes it.
func (s *Switch) OnChange(fn func(enabled bool)) func() {
	return s.changes.OnEvent(fn)
}
