package sketch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tessro/scrawl/internal/export"
	"github.com/tessro/scrawl/internal/overlay"
	"github.com/tessro/scrawl/internal/settings"
)

type modelHarness struct {
	model    Model
	commands chan overlay.Command
	notify   chan overlay.Notification
	settings settings.Settings
}

func newHarness(t *testing.T, exportDir string) *modelHarness {
	t.Helper()
	h := &modelHarness{
		commands: make(chan overlay.Command, 8),
		notify:   make(chan overlay.Notification, 32),
		settings: settings.Default(),
	}
	h.model = NewModel(ModelOptions{
		Commands:      h.commands,
		Notifications: h.notify,
		Settings:      func() settings.Settings { return h.settings },
		Entry:         overlay.EntryContext{Area: overlay.Rect{Width: 20, Height: 6}},
		ExportDir:     exportDir,
		Clock:         clockwork.NewFakeClockAt(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)),
	})
	return h
}

func (h *modelHarness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func (h *modelHarness) keys(keys ...tea.KeyMsg) {
	for _, k := range keys {
		h.send(k)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func lastExited(t *testing.T, ns []overlay.Notification) overlay.Notification {
	t.Helper()
	require.NotEmpty(t, ns)
	last := ns[len(ns)-1]
	require.Equal(t, overlay.NotifyExited, last.Kind)
	return last
}

func TestModel_DrawStrokeReportsProgress(t *testing.T) {
	h := newHarness(t, t.TempDir())

	h.keys(space, runes("l"), runes("l"), runes("j"), space)

	require.Equal(t, 1, h.model.Canvas().Snapshot().Objects)
	pts := h.model.Canvas().Export().Strokes[0].Points
	assert.Equal(t, []export.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}}, pts)

	ns := drain(h.notify)
	require.Len(t, ns, 1)
	assert.Equal(t, overlay.NotifySaveProgress, ns[0].Kind)
	assert.Equal(t, overlay.Snapshot{Revision: 1, Objects: 1}, ns[0].Snapshot)
}

func TestModel_CursorStaysOnCanvas(t *testing.T) {
	h := newHarness(t, "")

	h.keys(runes("h"), runes("k"))
	assert.Equal(t, export.Point{}, h.model.Cursor())

	for i := 0; i < 50; i++ {
		h.keys(runes("l"), runes("j"))
	}
	// 20 wide, 6 tall minus the toolbar row.
	assert.Equal(t, export.Point{X: 19, Y: 4}, h.model.Cursor())
}

func TestModel_ExitWithEmptyCanvasQuitsImmediately(t *testing.T) {
	h := newHarness(t, t.TempDir())

	cmd := h.send(esc)

	assert.True(t, isQuit(cmd))
	assert.Equal(t, overlay.Exited(overlay.ReasonUserRequest, overlay.SaveSkipped), lastExited(t, drain(h.notify)))
	assert.Equal(t, "", h.model.View())
}

func TestModel_SaveFromPrompt(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, dir)
	h.keys(space, runes("l"), space)
	drain(h.notify)

	h.send(esc)
	require.True(t, h.model.Controller().PromptOpen())
	assert.Contains(t, h.model.View(), "Save sketch")

	cmd := h.send(runes("s"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, overlay.Exited(overlay.ReasonUserRequest, overlay.SaveSaved), lastExited(t, drain(h.notify)))

	_, err := os.Stat(filepath.Join(dir, "20250102_030405_canvas.yaml"))
	assert.NoError(t, err)
}

func TestModel_SaveFailureKeepsPromptOpen(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	h := newHarness(t, filepath.Join(blocker, "sub"))
	h.keys(space, runes("l"), space, esc)
	drain(h.notify)

	cmd := h.send(runes("s"))
	assert.Nil(t, cmd)
	assert.True(t, h.model.Controller().PromptOpen())
	assert.Contains(t, h.model.View(), "save failed")

	ns := drain(h.notify)
	require.Len(t, ns, 1)
	assert.Equal(t, overlay.NotifySaveError, ns[0].Kind)
	assert.NotEmpty(t, ns[0].Message)

	cmd = h.send(runes("d"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, overlay.SaveSkipped, lastExited(t, drain(h.notify)).SaveResult)
}

func TestModel_UserCanCancelOwnExit(t *testing.T) {
	h := newHarness(t, "")
	h.keys(space, runes("l"), space, esc)
	require.True(t, h.model.Controller().PromptOpen())

	h.send(esc)
	assert.False(t, h.model.Controller().PromptOpen())

	// Drawing works again.
	h.keys(space, runes("j"), space)
	assert.Equal(t, 2, h.model.Canvas().Snapshot().Objects)
}

func TestModel_HostRequestedExitCannotBeCancelled(t *testing.T) {
	h := newHarness(t, "")
	h.send(commandMsg{cmd: overlay.StartCommand(), ok: true})
	h.keys(space, runes("l"), space)
	drain(h.notify)

	h.send(commandMsg{cmd: overlay.RequestExitCommand(overlay.ReasonTimeout), ok: true})
	require.True(t, h.model.Controller().PromptOpen())
	assert.Contains(t, h.model.View(), "timeout")

	h.send(esc)
	assert.True(t, h.model.Controller().PromptOpen())

	cmd := h.send(runes("d"))
	assert.True(t, isQuit(cmd))
	assert.Equal(t, overlay.Exited(overlay.ReasonTimeout, overlay.SaveSkipped), lastExited(t, drain(h.notify)))
}

func TestModel_PromptTimeoutDiscards(t *testing.T) {
	h := newHarness(t, "")
	h.keys(space, runes("l"), space, esc)

	// A timer from an earlier prompt is ignored.
	assert.Nil(t, h.send(promptTimeoutMsg{seq: h.model.promptSeq - 1}))
	assert.True(t, h.model.Controller().PromptOpen())

	cmd := h.send(promptTimeoutMsg{seq: h.model.promptSeq})
	assert.True(t, isQuit(cmd))
	assert.Equal(t, overlay.SaveSkipped, lastExited(t, drain(h.notify)).SaveResult)
}

func TestModel_ClosedCommandChannel(t *testing.T) {
	h := newHarness(t, "")

	cmd := h.send(commandMsg{ok: false})

	assert.True(t, isQuit(cmd))
	assert.Equal(t, StateExited, h.model.Controller().State())
	assert.Equal(t, overlay.Exited(overlay.ReasonOverlayFailure, overlay.SaveSkipped), lastExited(t, drain(h.notify)))
}

func TestModel_UpdateSettingsChangesPen(t *testing.T) {
	h := newHarness(t, "")
	h.settings.PenGlyph = "*"
	h.send(commandMsg{cmd: overlay.UpdateSettingsCommand(), ok: true})

	h.keys(space, space)
	assert.Equal(t, "*", h.model.Canvas().Export().Strokes[0].Glyph)
}

func TestModel_UndoRedoClear(t *testing.T) {
	h := newHarness(t, "")
	h.keys(space, runes("l"), space, space, runes("j"), space)
	require.Equal(t, 2, h.model.Canvas().Snapshot().Objects)

	h.keys(runes("u"))
	assert.Equal(t, 1, h.model.Canvas().Snapshot().Objects)
	h.keys(runes("r"))
	assert.Equal(t, 2, h.model.Canvas().Snapshot().Objects)
	h.keys(runes("C"))
	assert.True(t, h.model.Canvas().Empty())

	// 2 commits, undo, redo, clear.
	assert.Len(t, drain(h.notify), 5)
}

func TestModel_NextColorAndEraser(t *testing.T) {
	h := newHarness(t, "")
	h.keys(tea.KeyMsg{Type: tea.KeyTab}, space, space, runes("e"), space, space)

	strokes := h.model.Canvas().Export().Strokes
	require.Len(t, strokes, 2)
	assert.Equal(t, settings.DefaultPalette[1], strokes[0].Color)
	assert.False(t, strokes[0].Erase)
	assert.True(t, strokes[1].Erase)
}

func TestModel_MouseDrawing(t *testing.T) {
	h := newHarness(t, "")

	// Row 0 is the toolbar, so screen y=2 is canvas y=1.
	h.send(tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	h.send(tea.MouseMsg{X: 4, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	h.send(tea.MouseMsg{X: 5, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})

	strokes := h.model.Canvas().Export().Strokes
	require.Len(t, strokes, 1)
	assert.Equal(t, []export.Point{{X: 3, Y: 1}, {X: 4, Y: 1}, {X: 5, Y: 1}}, strokes[0].Points)
}

func TestModel_ViewAndResize(t *testing.T) {
	h := newHarness(t, "")
	h.send(tea.WindowSizeMsg{Width: 80, Height: 6})
	h.keys(space, runes("l"), space)

	view := h.model.View()
	assert.Contains(t, view, "scrawl")
	assert.Contains(t, view, "1 strokes")

	h.send(tea.WindowSizeMsg{Width: 8, Height: 3})
	w, hgt := h.model.Canvas().Size()
	assert.Equal(t, 8, w)
	assert.Equal(t, 2, hgt)

	h.keys(runes("t"))
	_, hgt = h.model.Canvas().Size()
	assert.Equal(t, 3, hgt)
	assert.False(t, strings.Contains(h.model.View(), "scrawl"))
}
