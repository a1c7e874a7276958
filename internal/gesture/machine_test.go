package gesture

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cerebro/internal/testutils"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	intents []domain.Intent
}

func (r *recorder) listen(_ context.Context, e *domain.GestureEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, e.Intent)
}

func (r *recorder) got() []domain.Intent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Intent(nil), r.intents...)
}

func newTestMachine(opts ...Option) (*Machine, *testutils.FakeScheduler, *recorder) {
	sched := testutils.NewFakeScheduler()
	rec := &recorder{}
	base := []Option{WithScheduler(sched), WithListener("sess", rec.listen)}
	return New(append(base, opts...)...), sched, rec
}

func TestMachine_HoldWithoutMovementDoesNotNavigate(t *testing.T) {
	m, sched, rec := newTestMachine()

	m.PointerDown(domain.Point{X: 100, Y: 100})
	sched.Advance(1100 * time.Millisecond)
	require.Equal(t, domain.ModeNavigating, m.Snapshot().Mode)

	intent, ok := m.PointerUp(domain.Point{X: 100, Y: 100})

	assert.False(t, ok)
	assert.Empty(t, intent)
	assert.Equal(t, []domain.Intent{domain.IntentHoldComplete}, rec.got())
	assert.Equal(t, domain.ModeIdle, m.Snapshot().Mode)
}

func TestMachine_HoldThenSwipeRightNavigatesForwardOnce(t *testing.T) {
	m, sched, rec := newTestMachine()

	m.PointerDown(domain.Point{X: 100, Y: 100})
	sched.Advance(time.Second + 20*time.Millisecond)
	m.PointerMove(domain.Point{X: 120, Y: 100})
	m.PointerMove(domain.Point{X: 140, Y: 100})

	snap := m.Snapshot()
	assert.Equal(t, 40.0, snap.SwipeOffset)
	assert.True(t, snap.ForwardAffordance)
	assert.False(t, snap.BackAffordance)

	intent, ok := m.PointerUp(domain.Point{X: 140, Y: 100})

	assert.True(t, ok)
	assert.Equal(t, domain.IntentNavigateForward, intent)
	assert.Equal(t, []domain.Intent{domain.IntentHoldComplete, domain.IntentNavigateForward}, rec.got())
}

func TestMachine_HoldCompletesExactlyAtDeadline(t *testing.T) {
	m, sched, rec := newTestMachine()

	m.PointerDown(domain.Point{X: 100, Y: 100})
	sched.Advance(time.Second - time.Millisecond)
	require.Equal(t, domain.ModeHolding, m.Snapshot().Mode)

	sched.Advance(time.Millisecond)
	require.Equal(t, domain.ModeNavigating, m.Snapshot().Mode)

	m.PointerMove(domain.Point{X: 140, Y: 100})
	intent, ok := m.PointerUp(domain.Point{X: 140, Y: 100})

	assert.True(t, ok)
	assert.Equal(t, domain.IntentNavigateForward, intent)
	assert.Equal(t, []domain.Intent{domain.IntentHoldComplete, domain.IntentNavigateForward}, rec.got())
	assert.Equal(t, 0, sched.Pending())
}

func TestMachine_ReanchorsOnHoldComplete(t *testing.T) {
	m, sched, _ := newTestMachine()

	m.PointerDown(domain.Point{X: 100, Y: 100})
	// Drift within tolerance during the hold.
	m.PointerMove(domain.Point{X: 115, Y: 100})
	sched.Advance(1100 * time.Millisecond)

	snap := m.Snapshot()
	require.Equal(t, domain.ModeNavigating, snap.Mode)
	assert.Equal(t, domain.Point{X: 115, Y: 100}, snap.Anchor)
	assert.Zero(t, snap.SwipeOffset)
	assert.Zero(t, snap.HoldProgress)

	// 25px from the new anchor is below the threshold, though 40px from the press.
	_, ok := m.PointerUp(domain.Point{X: 140, Y: 100})
	assert.False(t, ok)
}

func TestMachine_EarlyMoveBecomesDrag(t *testing.T) {
	m, sched, rec := newTestMachine(WithConfig(Config{Viewport: domain.Size{Width: 400, Height: 800}}))

	m.PointerDown(domain.Point{X: 100, Y: 100})
	sched.Advance(200 * time.Millisecond)
	m.PointerMove(domain.Point{X: 130, Y: 100})

	snap := m.Snapshot()
	require.Equal(t, domain.ModeDragging, snap.Mode)
	assert.Zero(t, snap.HoldProgress)
	assert.Equal(t, domain.Point{X: 82, Y: 52}, snap.Position)

	// Frames from the abandoned hold must not flip the mode.
	sched.Advance(2 * time.Second)
	assert.Equal(t, domain.ModeDragging, m.Snapshot().Mode)

	_, ok := m.PointerUp(domain.Point{X: 300, Y: 100})
	assert.False(t, ok)
	assert.Empty(t, rec.got())
}

func TestMachine_DragClampsToViewport(t *testing.T) {
	m, _, _ := newTestMachine(WithConfig(Config{Viewport: domain.Size{Width: 400, Height: 800}}))

	m.PointerDown(domain.Point{X: 100, Y: 100})
	m.PointerMove(domain.Point{X: 500, Y: -50})

	assert.Equal(t, domain.Point{X: 304, Y: 0}, m.Snapshot().Position)

	m.PointerUp(domain.Point{X: 500, Y: -50})
	assert.Equal(t, domain.Point{X: 304, Y: 0}, m.Snapshot().Position, "position persists after release")
}

func TestMachine_HoldProgressIsMonotonic(t *testing.T) {
	m, sched, _ := newTestMachine()

	m.PointerDown(domain.Point{})
	last := 0.0
	for i := 0; i < 60; i++ {
		sched.Advance(16 * time.Millisecond)
		snap := m.Snapshot()
		if snap.Mode != domain.ModeHolding {
			break
		}
		assert.GreaterOrEqual(t, snap.HoldProgress, last)
		assert.LessOrEqual(t, snap.HoldProgress, 100.0)
		last = snap.HoldProgress
	}
	assert.Greater(t, last, 90.0)
}

func TestMachine_SwipeBackward(t *testing.T) {
	t.Run("Allowed", func(t *testing.T) {
		m, sched, _ := newTestMachine()
		m.PointerDown(domain.Point{X: 200})
		sched.Advance(1100 * time.Millisecond)
		m.PointerMove(domain.Point{X: 160})
		assert.True(t, m.Snapshot().BackAffordance)

		intent, ok := m.PointerUp(domain.Point{X: 160})
		assert.True(t, ok)
		assert.Equal(t, domain.IntentNavigateBackward, intent)
	})

	t.Run("At First Step", func(t *testing.T) {
		m, sched, rec := newTestMachine(WithRetreatGuard(func() bool { return false }))
		m.PointerDown(domain.Point{X: 200})
		sched.Advance(1100 * time.Millisecond)

		_, ok := m.PointerUp(domain.Point{X: 100})
		assert.False(t, ok)
		assert.Equal(t, []domain.Intent{domain.IntentHoldComplete}, rec.got())
	})
}

func TestMachine_PointerCancelResets(t *testing.T) {
	m, sched, rec := newTestMachine()

	m.PointerDown(domain.Point{X: 100})
	sched.Advance(1100 * time.Millisecond)
	m.PointerMove(domain.Point{X: 200})
	m.PointerCancel()

	snap := m.Snapshot()
	assert.Equal(t, domain.ModeIdle, snap.Mode)
	assert.Zero(t, snap.SwipeOffset)
	assert.Equal(t, domain.Point{}, snap.Anchor)
	assert.Equal(t, []domain.Intent{domain.IntentHoldComplete}, rec.got())
}

func TestMachine_ReleaseBeforeHoldCompletes(t *testing.T) {
	m, sched, rec := newTestMachine()

	m.PointerDown(domain.Point{X: 100})
	sched.Advance(500 * time.Millisecond)
	_, ok := m.PointerUp(domain.Point{X: 110})
	sched.Advance(time.Second)

	assert.False(t, ok)
	assert.Equal(t, domain.ModeIdle, m.Snapshot().Mode)
	assert.Empty(t, rec.got())
	assert.Equal(t, 0, sched.Pending())
}

func TestMachine_DoubleTap(t *testing.T) {
	t.Run("Toggles When Idle", func(t *testing.T) {
		m, _, rec := newTestMachine()
		assert.True(t, m.DoubleTap())
		assert.True(t, m.Snapshot().AssistantOpen)
		assert.True(t, m.DoubleTap())
		assert.False(t, m.Snapshot().AssistantOpen)
		assert.Equal(t, []domain.Intent{domain.IntentAssistantToggled, domain.IntentAssistantToggled}, rec.got())
	})

	t.Run("Ignored Mid Gesture", func(t *testing.T) {
		m, _, _ := newTestMachine()
		m.PointerDown(domain.Point{})
		assert.False(t, m.DoubleTap())
		assert.False(t, m.Snapshot().AssistantOpen)
	})

	t.Run("Ignored After Navigation Release", func(t *testing.T) {
		m, sched, _ := newTestMachine()
		m.PointerDown(domain.Point{})
		sched.Advance(1100 * time.Millisecond)
		m.PointerUp(domain.Point{X: 50})

		assert.False(t, m.DoubleTap())

		// A plain tap clears the suppression.
		m.PointerDown(domain.Point{})
		m.PointerUp(domain.Point{})
		assert.True(t, m.DoubleTap())
	})

	t.Run("Allowed Once Guard Elapses", func(t *testing.T) {
		m, sched, _ := newTestMachine()
		m.PointerDown(domain.Point{})
		sched.Advance(1100 * time.Millisecond)
		m.PointerUp(domain.Point{X: 50})

		sched.Advance(DefaultConfig().DoubleTapGuard - time.Millisecond)
		assert.False(t, m.DoubleTap())

		sched.Advance(time.Millisecond)
		assert.True(t, m.DoubleTap())
		assert.True(t, m.Snapshot().AssistantOpen)
	})
}

func TestMachine_ListenerMayReenter(t *testing.T) {
	sched := testutils.NewFakeScheduler()
	var m *Machine
	m = New(WithScheduler(sched), WithListener("sess", func(_ context.Context, e *domain.GestureEvent) {
		_ = m.Snapshot()
	}))

	m.PointerDown(domain.Point{})
	sched.Advance(1100 * time.Millisecond)
	m.PointerUp(domain.Point{X: 100})
}
