// Package termguard snapshots terminal state before the overlay takes
// over the screen and puts it back afterwards, even if the overlay
// worker died without cleaning up.
package termguard

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

// resetSequence shows the cursor, disables mouse reporting and leaves
// the alternate screen.
const resetSequence = "\x1b[?25h\x1b[?1000l\x1b[?1002l\x1b[?1006l\x1b[?1049l"

// Guard restores a terminal to a captured state.
type Guard struct {
	fd  int
	out io.Writer

	mu sync.Mutex
	// +checklocks:mu
	state *term.State
}

// New creates a guard for the terminal on fd. Reset sequences are
// written to out when restoring; out may be nil.
func New(fd int, out io.Writer) *Guard {
	return &Guard{fd: fd, out: out}
}

// Stdio creates a guard for stdin that writes resets to stdout.
func Stdio() *Guard {
	return New(int(os.Stdin.Fd()), os.Stdout)
}

// Capture snapshots the terminal state. It is a no-op when fd is not a
// terminal.
func (g *Guard) Capture() error {
	if !term.IsTerminal(g.fd) {
		return nil
	}
	state, err := term.GetState(g.fd)
	if err != nil {
		return fmt.Errorf("get terminal state: %w", err)
	}
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
	return nil
}

// Captured reports whether a snapshot is held.
func (g *Guard) Captured() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state != nil
}

// Restore reapplies the captured state and clears it. Without a
// snapshot it does nothing.
func (g *Guard) Restore() error {
	g.mu.Lock()
	state := g.state
	g.state = nil
	g.mu.Unlock()

	if state == nil {
		return nil
	}
	if g.out != nil {
		if _, err := io.WriteString(g.out, resetSequence); err != nil {
			return fmt.Errorf("write terminal reset: %w", err)
		}
	}
	if err := term.Restore(g.fd, state); err != nil {
		return fmt.Errorf("restore terminal state: %w", err)
	}
	return nil
}
