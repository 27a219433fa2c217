package sketch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tessro/scrawl/internal/overlay"
	"github.com/tessro/scrawl/internal/settings"
)

func drain(ch <-chan overlay.Notification) []overlay.Notification {
	var out []overlay.Notification
	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestController_StartActivates(t *testing.T) {
	c := NewController(nil, nil)
	assert.Equal(t, StateStarting, c.State())

	c.Apply(overlay.StartCommand())
	assert.Equal(t, StateActive, c.State())
}

func TestController_RequestExitOpensPromptWithoutExiting(t *testing.T) {
	notify := make(chan overlay.Notification, 4)
	c := NewController(notify, nil)

	c.Apply(overlay.RequestExitCommand(overlay.ReasonUserRequest))

	assert.Equal(t, StateStarting, c.State())
	assert.True(t, c.PromptOpen())
	reason, ok := c.ExitReason()
	require.True(t, ok)
	assert.Equal(t, overlay.ReasonUserRequest, reason)
	assert.Empty(t, drain(notify))
}

func TestController_FirstExitReasonSticks(t *testing.T) {
	c := NewController(nil, nil)
	c.RequestExit(overlay.ReasonTimeout)
	c.RequestExit(overlay.ReasonUserRequest)

	reason, _ := c.ExitReason()
	assert.Equal(t, overlay.ReasonTimeout, reason)

	c.CancelExit()
	_, ok := c.ExitReason()
	assert.False(t, ok)
	assert.False(t, c.PromptOpen())
}

func TestController_UpdateSettingsRereads(t *testing.T) {
	current := settings.Default()
	c := NewController(nil, func() settings.Settings { return current })
	assert.Equal(t, settings.DefaultPenGlyph, c.Settings().PenGlyph)

	current.PenGlyph = "*"
	assert.Equal(t, settings.DefaultPenGlyph, c.Settings().PenGlyph, "settings change only on UpdateSettings")

	c.Apply(overlay.UpdateSettingsCommand())
	assert.Equal(t, "*", c.Settings().PenGlyph)
}

func TestController_DisconnectedIsOverlayFailure(t *testing.T) {
	notify := make(chan overlay.Notification, 4)
	c := NewController(notify, nil)
	c.Apply(overlay.StartCommand())

	c.Disconnected()
	assert.Equal(t, StateExitRequested, c.State())

	c.Finish(overlay.SaveSkipped)
	got := drain(notify)
	require.Len(t, got, 1)
	assert.Equal(t, overlay.Exited(overlay.ReasonOverlayFailure, overlay.SaveSkipped), got[0])
}

func TestController_FinishOnlyOnce(t *testing.T) {
	notify := make(chan overlay.Notification, 4)
	c := NewController(notify, nil)

	c.Finish(overlay.SaveSaved)
	c.Finish(overlay.SaveSkipped)
	c.Apply(overlay.StartCommand())

	got := drain(notify)
	require.Len(t, got, 1)
	assert.Equal(t, overlay.Exited(overlay.ReasonUserRequest, overlay.SaveSaved), got[0])
	assert.Equal(t, StateExited, c.State())
}

func TestController_FullChannelDrops(t *testing.T) {
	notify := make(chan overlay.Notification, 1)
	c := NewController(notify, nil)

	c.Progress(overlay.Snapshot{Revision: 1})
	c.Progress(overlay.Snapshot{Revision: 2})

	assert.Equal(t, 1, c.Dropped())
	got := drain(notify)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(1), got[0].Snapshot.Revision)
}
