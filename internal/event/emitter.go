// Package event provides generic event emission utilities.
package event

import "sync"

type registration[E any] struct {
	id      uint64
	handler func(E)
}

// Emitter provides thread-safe event emission with handler registration.
// The zero value is ready to use.
type Emitter[E any] struct {
	mu sync.RWMutex
	// +checklocks:mu
	handlers []registration[E]
	// +checklocks:mu
	nextID uint64
}

// OnEvent registers an event handler and returns a func that removes it.
// Handlers are called synchronously when events are emitted. Calling the
// returned func more than once is a no-op.
func (e *Emitter[E]) OnEvent(handler func(E)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	id := e.nextID
	e.handlers = append(e.handlers, registration[E]{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

func (e *Emitter[E]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, r := range e.handlers {
		if r.id == id {
			e.handlers = append(e.handlers[:i:i], e.handlers[i+1:]...)
			return
		}
	}
}

// Len returns the number of registered handlers.
func (e *Emitter[E]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

// Emit sends an event to all registered handlers.
// Handlers are called with a copy of the handler slice, so a handler may
// register or unregister handlers during emission.
// Must not be called with lock held.
func (e *Emitter[E]) Emit(event E) {
	e.mu.RLock()
	handlers := make([]func(E), len(e.handlers))
	for i, r := range e.handlers {
		handlers[i] = r.handler
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}
