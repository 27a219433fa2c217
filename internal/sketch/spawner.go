// Package sketch is the overlay worker: a full-screen terminal canvas
// run as a bubbletea program on the worker goroutine.
package sketch

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/tessro/scrawl/internal/overlay"
)

// Spawner starts sketch sessions. It implements overlay.Spawner.
type Spawner struct {
	// Input and Output default to the process's stdin and stdout.
	Input  io.Reader
	Output io.Writer

	// ExportDir overrides the settings export directory.
	ExportDir string

	// BeforeStart runs before the program is created, e.g. to capture
	// terminal state. An error fails the spawn.
	BeforeStart func() error

	// NoAltScreen draws inline instead of on the alternate screen.
	NoAltScreen bool

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Spawn creates the session channels and launches the bubbletea
// program through req.Launch. The notification channel is closed when
// the program returns.
func (s *Spawner) Spawn(req overlay.SpawnRequest) (*overlay.Session, error) {
	if req.Launch == nil {
		return nil, errors.New("spawn request has no launcher")
	}
	if s.BeforeStart != nil {
		if err := s.BeforeStart(); err != nil {
			return nil, fmt.Errorf("prepare terminal: %w", err)
		}
	}

	log := s.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("session_id", req.SessionID)

	commands, notifications := overlay.NewChannels()
	model := NewModel(ModelOptions{
		Commands:      commands,
		Notifications: notifications,
		Settings:      req.Settings,
		Entry:         req.Entry,
		ExportDir:     s.ExportDir,
		Clock:         s.Clock,
		Logger:        log,
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if !s.NoAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if s.Input != nil {
		opts = append(opts, tea.WithInput(s.Input))
	}
	if s.Output != nil {
		opts = append(opts, tea.WithOutput(s.Output))
	}
	program := tea.NewProgram(model, opts...)

	worker := req.Launch(func() error {
		defer close(notifications)
		log.Debug("sketch program starting")
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("sketch program: %w", err)
		}
		if m, ok := final.(Model); ok && m.Controller().State() != StateExited {
			// The program stopped without the model reporting an exit.
			m.Controller().Finish(overlay.SaveSkipped)
		}
		log.Debug("sketch program exited")
		return nil
	})

	return &overlay.Session{
		Worker:        worker,
		Commands:      commands,
		Notifications: notifications,
	}, nil
}
