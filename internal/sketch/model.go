package sketch

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/tessro/scrawl/internal/export"
	"github.com/tessro/scrawl/internal/overlay"
	"github.com/tessro/scrawl/internal/settings"
)

// commandMsg carries one host command, or ok=false once the host closed
// the command channel.
type commandMsg struct {
	cmd overlay.Command
	ok  bool
}

// promptTimeoutMsg fires when an exit prompt has been open too long.
// seq ties it to the prompt that scheduled it.
type promptTimeoutMsg struct {
	seq int
}

// ModelOptions configures a Model.
type ModelOptions struct {
	Commands      <-chan overlay.Command
	Notifications chan<- overlay.Notification
	Settings      func() settings.Settings
	Entry         overlay.EntryContext

	// ExportDir overrides Settings.ExportDir when set.
	ExportDir string

	Clock  clockwork.Clock
	Logger *slog.Logger
}

// Model is the bubbletea program that runs inside the overlay worker.
type Model struct {
	ctrl      *Controller
	canvas    *Canvas
	keys      KeyBindings
	commands  <-chan overlay.Command
	exportDir string
	clock     clockwork.Clock
	log       *slog.Logger

	width, height int
	cursor        export.Point
	penDown       bool
	eraser        bool
	pending       *export.Stroke
	colorIndex    int
	toolbarHidden bool

	promptSeq int
	hostExit  bool
	saveErr   string
	quitting  bool
}

// NewModel creates a sketch model.
func NewModel(opts ModelOptions) Model {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	ctrl := NewController(opts.Notifications, opts.Settings)
	s := ctrl.Settings()

	m := Model{
		ctrl:          ctrl,
		keys:          DefaultKeyBindings(),
		commands:      opts.Commands,
		exportDir:     opts.ExportDir,
		clock:         clock,
		log:           log.With("component", "sketch"),
		width:         opts.Entry.Area.Width,
		height:        opts.Entry.Area.Height,
		colorIndex:    s.ColorIndex,
		toolbarHidden: s.ToolbarCollapsed,
	}
	m.canvas = NewCanvas(m.width, m.canvasRows())
	return m
}

// Controller exposes the protocol state.
func (m Model) Controller() *Controller { return m.ctrl }

// Canvas exposes the committed drawing.
func (m Model) Canvas() *Canvas { return m.canvas }

// Cursor returns the cursor position in canvas coordinates.
func (m Model) Cursor() export.Point { return m.cursor }

// Init starts listening for host commands.
func (m Model) Init() tea.Cmd {
	return waitForCommand(m.commands)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case commandMsg:
		return m.handleCommand(msg)

	case promptTimeoutMsg:
		if m.ctrl.PromptOpen() && msg.seq == m.promptSeq {
			m.log.Info("exit prompt timed out, discarding sketch")
			cmd := m.finish(overlay.SaveSkipped)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.canvas.Resize(m.width, m.canvasRows())
		m.cursor = m.clamp(m.cursor)
		return m, nil

	case tea.KeyMsg:
		if m.quitting {
			return m, nil
		}
		if m.ctrl.PromptOpen() {
			return m.handlePromptKey(msg)
		}
		return m.handleDrawKey(msg)

	case tea.MouseMsg:
		if m.quitting || m.ctrl.PromptOpen() {
			return m, nil
		}
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleCommand(msg commandMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.log.Warn("host closed the command channel")
		m.ctrl.Disconnected()
		cmd := m.finish(overlay.SaveSkipped)
		return m, cmd
	}

	wasOpen := m.ctrl.PromptOpen()
	m.ctrl.Apply(msg.cmd)

	cmds := []tea.Cmd{waitForCommand(m.commands)}
	switch msg.cmd.Kind {
	case overlay.CommandUpdateSettings:
		s := m.ctrl.Settings()
		if m.colorIndex >= len(s.Palette) {
			m.colorIndex = s.ColorIndex
		}
		m.log.Debug("settings applied")
	case overlay.CommandRequestExit:
		if !wasOpen && m.ctrl.PromptOpen() {
			m.hostExit = true
			cmds = append(cmds, m.openPrompt())
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleDrawKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Exit):
		m.hostExit = false
		m.ctrl.RequestExit(overlay.ReasonUserRequest)
		cmd := m.openPrompt()
		return *m, cmd

	case key.Matches(msg, m.keys.Up):
		m.moveTo(export.Point{X: m.cursor.X, Y: m.cursor.Y - 1})
	case key.Matches(msg, m.keys.Down):
		m.moveTo(export.Point{X: m.cursor.X, Y: m.cursor.Y + 1})
	case key.Matches(msg, m.keys.Left):
		m.moveTo(export.Point{X: m.cursor.X - 1, Y: m.cursor.Y})
	case key.Matches(msg, m.keys.Right):
		m.moveTo(export.Point{X: m.cursor.X + 1, Y: m.cursor.Y})

	case key.Matches(msg, m.keys.Pen):
		if m.penDown {
			m.commitPending()
		} else {
			m.startStroke()
		}
	case key.Matches(msg, m.keys.Eraser):
		m.eraser = !m.eraser
		if m.penDown {
			m.commitPending()
			m.startStroke()
		}
	case key.Matches(msg, m.keys.NextColor):
		palette := m.ctrl.Settings().Palette
		if len(palette) > 0 {
			m.colorIndex = (m.colorIndex + 1) % len(palette)
		}
		if m.penDown {
			m.commitPending()
			m.startStroke()
		}
	case key.Matches(msg, m.keys.Undo):
		m.commitPending()
		m.afterEdit(m.canvas.Undo())
	case key.Matches(msg, m.keys.Redo):
		m.commitPending()
		m.afterEdit(m.canvas.Redo())
	case key.Matches(msg, m.keys.Clear):
		m.pending = nil
		m.penDown = false
		m.afterEdit(m.canvas.Clear())
	case key.Matches(msg, m.keys.Toolbar):
		m.toolbarHidden = !m.toolbarHidden
		m.canvas.Resize(m.width, m.canvasRows())
		m.cursor = m.clamp(m.cursor)
	}
	return *m, nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		cmd := m.save()
		return *m, cmd
	case key.Matches(msg, m.keys.Discard):
		cmd := m.finish(overlay.SaveSkipped)
		return *m, cmd
	case key.Matches(msg, m.keys.Cancel):
		if m.hostExit {
			return *m, nil
		}
		m.ctrl.CancelExit()
		m.saveErr = ""
	}
	return *m, nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := export.Point{X: msg.X, Y: msg.Y - m.canvasTop()}
	if !m.canvas.Contains(p) {
		return *m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return *m, nil
		}
		m.commitPending()
		m.cursor = p
		m.startStroke()
	case tea.MouseActionMotion:
		m.moveTo(p)
	case tea.MouseActionRelease:
		m.moveTo(p)
		m.commitPending()
	}
	return *m, nil
}

// openPrompt lifts the pen and shows the exit prompt, or ends the
// session at once when there is nothing to offer saving.
func (m *Model) openPrompt() tea.Cmd {
	m.commitPending()
	if m.canvas.Empty() || !m.ctrl.Settings().OfferSave {
		return m.finish(overlay.SaveSkipped)
	}
	m.promptSeq++
	m.saveErr = ""
	seq := m.promptSeq
	return tea.Tick(m.ctrl.Settings().ExitTimeout(), func(time.Time) tea.Msg {
		return promptTimeoutMsg{seq: seq}
	})
}

func (m *Model) save() tea.Cmd {
	dir := m.exportDir
	if dir == "" {
		dir = m.ctrl.Settings().ExportDir
	}
	path, err := export.Write(dir, m.clock.Now(), m.canvas.Export())
	if err != nil {
		m.log.Error("sketch export failed", "error", err)
		m.saveErr = err.Error()
		m.ctrl.SaveFailed(err.Error())
		return nil
	}
	m.log.Info("sketch exported", "path", path)
	return m.finish(overlay.SaveSaved)
}

func (m *Model) finish(result overlay.SaveResult) tea.Cmd {
	m.ctrl.Finish(result)
	m.quitting = true
	return tea.Quit
}

func (m *Model) startStroke() {
	s := m.ctrl.Settings()
	m.pending = &export.Stroke{
		Color:  m.color(),
		Glyph:  s.PenGlyph,
		Erase:  m.eraser,
		Points: []export.Point{m.cursor},
	}
	m.penDown = true
}

func (m *Model) moveTo(p export.Point) {
	m.cursor = m.clamp(p)
	if !m.penDown || m.pending == nil {
		return
	}
	if last := m.pending.Points[len(m.pending.Points)-1]; last != m.cursor {
		m.pending.Points = append(m.pending.Points, m.cursor)
	}
}

func (m *Model) commitPending() {
	if m.pending != nil {
		m.afterEdit(m.canvas.Commit(*m.pending))
	}
	m.pending = nil
	m.penDown = false
}

func (m *Model) afterEdit(changed bool) {
	if changed {
		m.ctrl.Progress(m.canvas.Snapshot())
	}
}

func (m Model) color() string {
	palette := m.ctrl.Settings().Palette
	if m.colorIndex < 0 || m.colorIndex >= len(palette) {
		return settings.DefaultPalette[0]
	}
	return palette[m.colorIndex]
}

func (m Model) clamp(p export.Point) export.Point {
	w, h := m.canvas.Size()
	p.X = min(max(p.X, 0), max(w-1, 0))
	p.Y = min(max(p.Y, 0), max(h-1, 0))
	return p
}

func (m Model) canvasRows() int {
	if m.toolbarHidden {
		return max(m.height, 0)
	}
	return max(m.height-1, 0)
}

func (m Model) canvasTop() int {
	if m.toolbarHidden || m.ctrl.Settings().ToolbarPosition != settings.ToolbarTop {
		return 0
	}
	return 1
}

// View renders the overlay.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.ctrl.PromptOpen() {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.promptView())
	}

	grid := m.gridView()
	if m.toolbarHidden {
		return grid
	}
	if m.ctrl.Settings().ToolbarPosition == settings.ToolbarBottom {
		return lipgloss.JoinVertical(lipgloss.Left, grid, m.toolbarView())
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.toolbarView(), grid)
}

func (m Model) gridView() string {
	w, h := m.canvas.Size()
	cells := m.canvas.Cells(m.pending)

	rows := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			p := export.Point{X: x, Y: y}
			c, inked := cells[p]
			switch {
			case p == m.cursor && inked:
				b.WriteString(cursorStyle.Inherit(inkStyle(c.color)).Render(c.glyph))
			case p == m.cursor:
				b.WriteString(cursorStyle.Render(" "))
			case inked:
				b.WriteString(inkStyle(c.color).Render(c.glyph))
			default:
				b.WriteByte(' ')
			}
		}
		rows[y] = b.String()
	}
	return strings.Join(rows, "\n")
}

func (m Model) toolbarView() string {
	s := m.ctrl.Settings()

	mode := "pen up"
	switch {
	case m.penDown && m.eraser:
		mode = "erasing"
	case m.penDown:
		mode = "drawing"
	case m.eraser:
		mode = "eraser"
	}

	parts := []string{
		toolbarBrandStyle.Render("scrawl"),
		inkStyle(m.color()).Render(s.PenGlyph),
		mode,
		fmt.Sprintf("%d strokes", m.canvas.Snapshot().Objects),
		toolbarHintStyle.Render(m.keys.Exit.Help().Key + " exit • " +
			m.keys.NextColor.Help().Key + " color • " +
			m.keys.Undo.Help().Key + " undo"),
	}
	return toolbarStyle.Width(m.width).MaxHeight(1).Render(strings.Join(parts, "  "))
}

func (m Model) promptView() string {
	lines := []string{promptTitleStyle.Render("Save sketch before closing?")}
	if reason, ok := m.ctrl.ExitReason(); ok && reason != overlay.ReasonUserRequest {
		lines = append(lines, toolbarHintStyle.Render("closing: "+reason.String()))
	}

	hint := fmt.Sprintf("%s save • %s discard", m.keys.Save.Help().Key, m.keys.Discard.Help().Key)
	if !m.hostExit {
		hint += fmt.Sprintf(" • %s %s", m.keys.Cancel.Help().Key, m.keys.Cancel.Help().Desc)
	}
	lines = append(lines, "", hint)

	if m.saveErr != "" {
		lines = append(lines, "", promptErrorStyle.Render("save failed: "+m.saveErr))
	}
	return promptBoxStyle.Render(strings.Join(lines, "\n"))
}

// waitForCommand returns a command that waits for the next host command.
func waitForCommand(ch <-chan overlay.Command) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		cmd, ok := <-ch
		return commandMsg{cmd: cmd, ok: ok}
	}
}
