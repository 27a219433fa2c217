package host

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tessro/scrawl/internal/overlay"
)

type fakeCoordinator struct {
	mu            sync.Mutex
	lifecycle     overlay.Lifecycle
	ticks         int
	idleAfter     int
	exitRequests  []overlay.ExitReason
	notifications []overlay.ExitReason
	idleOnExit    bool
}

func (f *fakeCoordinator) Tick(time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ticks++
	if f.idleAfter > 0 && f.ticks >= f.idleAfter {
		f.lifecycle = overlay.Idle
	}
}

func (f *fakeCoordinator) Lifecycle() overlay.Lifecycle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lifecycle
}

func (f *fakeCoordinator) RequestExit(reason overlay.ExitReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exitRequests = append(f.exitRequests, reason)
	if f.lifecycle == overlay.Active {
		f.lifecycle = overlay.Exiting
	}
	if f.idleOnExit {
		f.idleAfter = f.ticks + 1
	}
}

func (f *fakeCoordinator) NotifyOverlayExit(reason overlay.ExitReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notifications = append(f.notifications, reason)
	f.lifecycle = overlay.Idle
}

func (f *fakeCoordinator) snapshot() (ticks int, exits, notes []overlay.ExitReason) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks, append([]overlay.ExitReason(nil), f.exitRequests...), append([]overlay.ExitReason(nil), f.notifications...)
}

func startLoop(t *testing.T, ctx context.Context, l *Loop) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()
	return errCh
}

func waitErr(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not return")
		return nil
	}
}

func TestLoop_ReturnsImmediatelyWhenIdle(t *testing.T) {
	f := &fakeCoordinator{lifecycle: overlay.Idle}
	l := New(f, Config{Clock: clockwork.NewFakeClock()})

	assert.NoError(t, l.Run(context.Background()))
	ticks, _, _ := f.snapshot()
	assert.Zero(t, ticks)
}

func TestLoop_TicksUntilIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &fakeCoordinator{lifecycle: overlay.Active, idleAfter: 3}
	l := New(f, Config{Clock: clock, TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	errCh := startLoop(t, ctx, l)

	for i := 1; i <= 3; i++ {
		require.NoError(t, clock.BlockUntilContext(ctx, 1))
		clock.Advance(10 * time.Millisecond)
		want := i
		require.Eventually(t, func() bool {
			ticks, _, _ := f.snapshot()
			return ticks >= want
		}, time.Second, time.Millisecond)
	}

	assert.NoError(t, waitErr(t, errCh))
	_, exits, notes := f.snapshot()
	assert.Empty(t, exits)
	assert.Empty(t, notes)
}

func TestLoop_CancelRequestsExitThenWaits(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &fakeCoordinator{lifecycle: overlay.Active, idleOnExit: true}
	l := New(f, Config{Clock: clock, TickInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := startLoop(t, ctx, l)

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	cancel()

	require.Eventually(t, func() bool {
		_, exits, _ := f.snapshot()
		return len(exits) == 1
	}, time.Second, time.Millisecond)

	// Ticker plus the grace timer.
	require.NoError(t, clock.BlockUntilContext(context.Background(), 2))
	clock.Advance(10 * time.Millisecond)

	err := waitErr(t, errCh)
	assert.True(t, errors.Is(err, context.Canceled))

	_, exits, notes := f.snapshot()
	assert.Equal(t, []overlay.ExitReason{overlay.ReasonUserRequest}, exits)
	assert.Empty(t, notes, "worker exited in time, no forced restore")
}

func TestLoop_CancelForcesRestoreAfterGrace(t *testing.T) {
	clock := clockwork.NewFakeClock()
	f := &fakeCoordinator{lifecycle: overlay.Active}
	l := New(f, Config{Clock: clock, TickInterval: time.Second, ShutdownGrace: 3 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := startLoop(t, ctx, l)

	require.NoError(t, clock.BlockUntilContext(context.Background(), 1))
	cancel()
	require.NoError(t, clock.BlockUntilContext(context.Background(), 2))

	clock.Advance(3 * time.Second)

	err := waitErr(t, errCh)
	assert.ErrorIs(t, err, context.Canceled)

	_, exits, notes := f.snapshot()
	assert.Equal(t, []overlay.ExitReason{overlay.ReasonUserRequest}, exits)
	assert.Equal(t, []overlay.ExitReason{overlay.ReasonOverlayFailure}, notes)
}
