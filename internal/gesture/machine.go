// Package gesture interprets a raw pointer stream on the floating control.
//
// A press starts a hold. Holding still for HoldDuration unlocks navigation:
// the anchor jumps to where the pointer is at that moment and a horizontal
// release past NavigateThreshold becomes a navigation intent. Moving beyond
// MoveTolerance before the hold completes turns the gesture into a drag of
// the control instead, and a drag never navigates.
package gesture

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/aretw0/cerebro/internal/clock"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// Option configures a Machine.
type Option func(*Machine)

func WithConfig(cfg Config) Option {
	return func(m *Machine) { m.cfg = cfg.withDefaults() }
}

func WithScheduler(s ports.Scheduler) Option {
	return func(m *Machine) { m.sched = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithListener receives every intent. It is invoked without the machine
// lock held and may call back into the machine.
func WithListener(sessionID string, fn func(context.Context, *domain.GestureEvent)) Option {
	return func(m *Machine) {
		m.sessionID = sessionID
		m.listener = fn
	}
}

// WithRetreatGuard reports whether a backward swipe may resolve. It is
// consulted outside the machine lock.
func WithRetreatGuard(fn func() bool) Option {
	return func(m *Machine) { m.canRetreat = fn }
}

// Machine is the pointer state machine for one session.
type Machine struct {
	cfg        Config
	sched      ports.Scheduler
	logger     *slog.Logger
	sessionID  string
	listener   func(context.Context, *domain.GestureEvent)
	canRetreat func() bool

	mu           sync.Mutex
	state        domain.GestureSnapshot
	gen          uint64
	frame        ports.Timer
	lastResolved domain.GestureMode
	resolvedAt   time.Time
}

// New creates an idle Machine.
func New(opts ...Option) *Machine {
	m := &Machine{
		cfg:        DefaultConfig(),
		sched:      clock.System{},
		logger:     logging.NewNop(),
		canRetreat: func() bool { return true },
	}
	for _, opt := range opts {
		opt(m)
	}
	m.state.Mode = domain.ModeIdle
	m.lastResolved = domain.ModeIdle
	return m
}

// Snapshot returns a copy of the gesture state.
func (m *Machine) Snapshot() domain.GestureSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// PointerDown starts a hold. Ignored unless idle.
func (m *Machine) PointerDown(p domain.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Mode != domain.ModeIdle {
		return
	}
	m.gen++
	m.lastResolved = domain.ModeIdle
	m.state.Mode = domain.ModeHolding
	m.state.Anchor = p
	m.state.Live = p
	m.state.HoldStart = m.sched.Now()
	m.state.HoldProgress = 0
	m.scheduleFrameLocked(m.gen)
}

// PointerMove updates the live point and advances the gesture.
func (m *Machine) PointerMove(p domain.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.Mode {
	case domain.ModeIdle:
		return
	case domain.ModeHolding:
		m.state.Live = p
		if p.Sub(m.state.Anchor).Len() <= m.cfg.MoveTolerance {
			return
		}
		m.stopFrameLocked()
		m.gen++
		m.state.Mode = domain.ModeDragging
		m.state.HoldProgress = 0
		m.dragLocked(p)
	case domain.ModeDragging:
		m.state.Live = p
		m.dragLocked(p)
	case domain.ModeNavigating:
		m.state.Live = p
		m.state.SwipeOffset = p.X - m.state.Anchor.X
		m.state.ForwardAffordance = m.state.SwipeOffset > m.cfg.AffordanceThreshold
		m.state.BackAffordance = m.state.SwipeOffset < -m.cfg.AffordanceThreshold
	}
}

// PointerUp ends the gesture and reports the navigation intent, if any.
func (m *Machine) PointerUp(p domain.Point) (domain.Intent, bool) {
	m.mu.Lock()
	mode := m.state.Mode
	if mode == domain.ModeIdle {
		m.mu.Unlock()
		return "", false
	}
	offset := p.X - m.state.Anchor.X
	m.lastResolved = mode
	m.resolvedAt = m.sched.Now()
	m.resetLocked()
	m.mu.Unlock()

	if mode != domain.ModeNavigating {
		return "", false
	}

	var intent domain.Intent
	switch {
	case offset > m.cfg.NavigateThreshold:
		intent = domain.IntentNavigateForward
	case offset < -m.cfg.NavigateThreshold && m.canRetreat():
		intent = domain.IntentNavigateBackward
	default:
		return "", false
	}
	m.emit(intent, mode)
	return intent, true
}

// PointerCancel abandons the gesture (e.g. pointer capture lost) without
// navigating.
func (m *Machine) PointerCancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Mode == domain.ModeIdle {
		return
	}
	m.lastResolved = m.state.Mode
	m.resolvedAt = m.sched.Now()
	m.resetLocked()
}

// DoubleTap toggles the assistant panel. It is ignored mid-gesture and for
// DoubleTapGuard after a gesture that resolved while navigating.
func (m *Machine) DoubleTap() bool {
	m.mu.Lock()
	if m.state.Mode != domain.ModeIdle || m.navigatedRecentlyLocked() {
		m.mu.Unlock()
		return false
	}
	m.state.AssistantOpen = !m.state.AssistantOpen
	m.mu.Unlock()

	m.emit(domain.IntentAssistantToggled, domain.ModeIdle)
	return true
}

func (m *Machine) navigatedRecentlyLocked() bool {
	if m.lastResolved != domain.ModeNavigating {
		return false
	}
	return m.sched.Now().Sub(m.resolvedAt) < m.cfg.DoubleTapGuard
}

// SetAssistantOpen forces the panel flag, e.g. from a close button.
func (m *Machine) SetAssistantOpen(open bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.AssistantOpen = open
}

// Reset drops any gesture in progress. Used when the session ends.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.lastResolved = domain.ModeIdle
}

func (m *Machine) resetLocked() {
	m.stopFrameLocked()
	m.gen++
	m.state.Mode = domain.ModeIdle
	m.state.HoldStart = time.Time{}
	m.state.HoldProgress = 0
	m.state.Anchor = domain.Point{}
	m.state.Live = domain.Point{}
	m.state.SwipeOffset = 0
	m.state.BackAffordance = false
	m.state.ForwardAffordance = false
}

// scheduleFrameLocked queues the next hold tick. The last tick is shortened
// so it lands on the hold deadline rather than the frame after it.
func (m *Machine) scheduleFrameLocked(gen uint64) {
	delay := m.cfg.FrameInterval
	if left := m.cfg.HoldDuration - m.sched.Now().Sub(m.state.HoldStart); left < delay {
		delay = max(left, 0)
	}
	m.frame = m.sched.AfterFunc(delay, func() { m.onFrame(gen) })
}

func (m *Machine) stopFrameLocked() {
	if m.frame != nil {
		m.frame.Stop()
		m.frame = nil
	}
}

func (m *Machine) onFrame(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.state.Mode != domain.ModeHolding {
		m.mu.Unlock()
		return
	}

	elapsed := m.sched.Now().Sub(m.state.HoldStart)
	progress := math.Min(float64(elapsed)/float64(m.cfg.HoldDuration)*100, 100)
	if progress > m.state.HoldProgress {
		m.state.HoldProgress = progress
	}
	if m.state.HoldProgress < 100 {
		m.scheduleFrameLocked(gen)
		m.mu.Unlock()
		return
	}

	m.frame = nil
	m.state.Anchor = m.state.Live
	m.state.Mode = domain.ModeNavigating
	m.state.HoldProgress = 0
	m.state.SwipeOffset = 0
	m.mu.Unlock()

	m.logger.Debug("hold complete", "session_id", m.sessionID)
	m.emit(domain.IntentHoldComplete, domain.ModeNavigating)
}

func (m *Machine) dragLocked(p domain.Point) {
	half := m.cfg.ControlSize / 2
	pos := domain.Point{X: p.X - half, Y: p.Y - half}
	if vp := m.cfg.Viewport; vp.Width > 0 && vp.Height > 0 {
		pos.X = clamp(pos.X, 0, vp.Width-m.cfg.ControlSize)
		pos.Y = clamp(pos.Y, 0, vp.Height-m.cfg.ControlSize)
	}
	m.state.Position = pos
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func (m *Machine) emit(intent domain.Intent, mode domain.GestureMode) {
	if m.listener == nil {
		return
	}
	m.listener(context.Background(), &domain.GestureEvent{
		EventBase: domain.EventBase{
			Timestamp: m.sched.Now(),
			Type:      domain.EventGesture,
			SessionID: m.sessionID,
		},
		Intent: intent,
		Mode:   mode,
	})
}
