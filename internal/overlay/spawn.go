package overlay

import (
	"errors"
	"sync"

	"github.com/tessro/scrawl/internal/settings"
)

// DefaultChannelBuffer is the capacity of both session channels.
const DefaultChannelBuffer = 32

// Errors returned by the spawn path.
var (
	ErrSpawnFailed       = errors.New("overlay spawn failed")
	ErrNoSpawner         = errors.New("no overlay spawner configured")
	ErrIncompleteSession = errors.New("spawner returned an incomplete session")
	ErrStartInterrupted  = errors.New("overlay start interrupted by concurrent restore")
)

// SpawnRequest is everything a Spawner gets to build a session.
type SpawnRequest struct {
	// SessionID identifies the session in logs.
	SessionID string

	// Entry is the context captured at start.
	Entry EntryContext

	// Settings returns the coordinator's current settings. Workers call
	// it again after receiving CommandUpdateSettings.
	Settings func() settings.Settings

	// Launch runs body on a new goroutine with panic isolation and
	// returns its handle. Spawners must start the worker through it.
	Launch func(body func() error) *Worker
}

// Session is a fully formed overlay session handed back by a Spawner.
type Session struct {
	Worker        *Worker
	Commands      chan<- Command
	Notifications <-chan Notification
}

func (s *Session) complete() bool {
	return s != nil && s.Worker != nil && s.Commands != nil && s.Notifications != nil
}

// Spawner creates overlay sessions.
type Spawner interface {
	Spawn(req SpawnRequest) (*Session, error)
}

// SpawnFunc adapts a function to the Spawner interface.
type SpawnFunc func(req SpawnRequest) (*Session, error)

// Spawn calls f(req).
func (f SpawnFunc) Spawn(req SpawnRequest) (*Session, error) {
	return f(req)
}

// NewChannels allocates the command and notification channels for a
// session with the default buffer.
func NewChannels() (chan Command, chan Notification) {
	return make(chan Command, DefaultChannelBuffer), make(chan Notification, DefaultChannelBuffer)
}

// Worker is the handle for a worker goroutine.
type Worker struct {
	done chan struct{}

	mu sync.Mutex
	// +checklocks:mu
	panicValue any
	// +checklocks:mu
	panicked bool
}

func newWorker() *Worker {
	return &Worker{done: make(chan struct{})}
}

// Done is closed once the worker body has returned or panicked.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

// Panicked returns the panic value if the worker body panicked.
func (w *Worker) Panicked() (any, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.panicValue, w.panicked
}

func (w *Worker) finish(panicValue any, panicked bool) {
	w.mu.Lock()
	w.panicValue = panicValue
	w.panicked = panicked
	w.mu.Unlock()
	close(w.done)
}
