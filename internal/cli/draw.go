package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
	"github.com/tessro/scrawl/internal/config"
	"github.com/tessro/scrawl/internal/gesture"
	"github.com/tessro/scrawl/internal/host"
	"github.com/tessro/scrawl/internal/logging"
	"github.com/tessro/scrawl/internal/metrics"
	"github.com/tessro/scrawl/internal/overlay"
	"github.com/tessro/scrawl/internal/paths"
	"github.com/tessro/scrawl/internal/settings"
	"github.com/tessro/scrawl/internal/sketch"
	"github.com/tessro/scrawl/internal/termguard"
	"github.com/tessro/scrawl/internal/version"
	"golang.org/x/term"
)

// Fallback overlay area when stdout is not a terminal.
const (
	defaultAreaWidth  = 80
	defaultAreaHeight = 24
)

var (
	drawTimeout     time.Duration
	drawNoAltScreen bool
)

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Open the drawing overlay",
	Long: `Open a full-screen drawing overlay on top of the terminal.

The overlay owns the terminal until you exit it. On exit, scrawl offers to
save the canvas, then restores the terminal and any feature it suspended.
A --timeout ends the session automatically.`,
	Args: cobra.NoArgs,
	RunE: runDraw,
}

func runDraw(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Session.Timeout = drawTimeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cleanup, err := logging.Setup(cfg.Log.Path, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()
	slog.Info("scrawl starting", "version", version.String())

	settingsPath, err := paths.SettingsPath()
	if err != nil {
		return fmt.Errorf("resolve settings path: %w", err)
	}
	s, err := settings.Load(settingsPath)
	if err != nil {
		// A broken settings file should not keep the overlay from opening.
		slog.Warn("settings load failed, using defaults", "path", settingsPath, "error", err)
		s = settings.Default()
	}

	reg := metrics.NewRegistry()
	overlayMetrics := metrics.NewOverlay(reg)
	if cfg.Metrics.Addr != "" {
		stop := serveMetrics(cfg.Metrics.Addr, metrics.Handler(reg))
		defer stop()
	}

	gestures := gesture.NewSwitch(cfg.Gestures.Enabled)
	unsubscribe := gestures.OnChange(func(enabled bool) {
		slog.Debug("mouse gestures toggled", "enabled", enabled)
	})
	defer unsubscribe()

	clock := clockwork.NewRealClock()
	guard := termguard.Stdio()
	coord := overlay.New(overlay.Options{
		Spawner: &sketch.Spawner{
			BeforeStart: guard.Capture,
			NoAltScreen: drawNoAltScreen,
			Clock:       clock,
		},
		RestoreHook: guard.Restore,
		Feature:     gestures,
		Settings:    s,
		Clock:       clock,
		JoinTimeout: cfg.Session.JoinTimeout,
		Metrics:     overlayMetrics,
	})

	stopWatching := watchSession(coord, slog.Default())
	defer stopWatching()

	watcher := settings.NewWatcher(settingsPath, coord.ApplySettings, settings.WithClock(clock))
	if err := watcher.Start(); err != nil {
		slog.Warn("settings watcher unavailable", "path", settingsPath, "error", err)
	} else {
		defer watcher.Stop()
	}

	width, height := terminalArea()
	entry := newEntryContext(clock.Now(), cfg.Session.Timeout, width, height)
	if _, err := coord.StartWithContext(entry); err != nil {
		return fmt.Errorf("start overlay: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loop := host.New(coord, host.Config{
		TickInterval: cfg.Session.TickInterval,
		Clock:        clock,
	})
	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchSession logs canvas progress at debug and a one-line summary
// when a session ends. The returned func unsubscribes.
func watchSession(coord *overlay.Coordinator, log *slog.Logger) func() {
	// Handlers are delivered one at a time, so last needs no lock.
	var last overlay.Snapshot
	offProgress := coord.OnSaveProgress(func(s overlay.Snapshot) {
		last = s
		log.Debug("canvas changed", "revision", s.Revision, "objects", s.Objects)
	})
	offTransition := coord.OnTransition(func(t overlay.Transition) {
		switch t.To {
		case overlay.Active:
			last = overlay.Snapshot{}
		case overlay.Idle:
			log.Info("overlay session ended",
				"session_id", t.SessionID,
				"revision", last.Revision,
				"objects", last.Objects,
			)
		}
	})
	return func() {
		offProgress()
		offTransition()
	}
}

// newEntryContext builds the entry context for a session starting at
// now. A zero timeout leaves the deadline unset.
func newEntryContext(now time.Time, timeout time.Duration, width, height int) overlay.EntryContext {
	entry := overlay.EntryContext{
		Area:      overlay.Rect{Width: width, Height: height},
		HostToken: fmt.Sprintf("scrawl-%d", os.Getpid()),
	}
	if timeout > 0 {
		entry.TimeoutDeadline = now.Add(timeout)
	}
	return entry
}

func terminalArea() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultAreaWidth, defaultAreaHeight
	}
	return w, h
}

// serveMetrics serves handler on addr/metrics in the background and
// returns a func that shuts the server down.
func serveMetrics(addr string, handler http.Handler) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		defer logging.LogPanic("metrics-server", nil)
		slog.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Warn("metrics server shutdown", "error", err)
		}
	}
}

func init() {
	drawCmd.Flags().DurationVarP(&drawTimeout, "timeout", "t", 0, "end the session after this long (0 disables)")
	drawCmd.Flags().BoolVar(&drawNoAltScreen, "inline", false, "draw inline instead of on the alternate screen")
	rootCmd.AddCommand(drawCmd)
}
