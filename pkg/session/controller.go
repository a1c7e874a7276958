package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cerebro/internal/assets"
	"github.com/aretw0/cerebro/internal/clock"
	"github.com/aretw0/cerebro/internal/gesture"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/internal/narration"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// Controller drives one run of an exercise.
type Controller struct {
	id        string
	exercise  *domain.Exercise
	backends  Backends
	sched     ports.Scheduler
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	reporter  ports.ProgressReporter
	profileID string
	settle    time.Duration
	sanitize  func(string) (string, error)

	gestureCfg *gesture.Config
	voice      string
	debounce   time.Duration

	narration *narration.Pipeline
	assets    *assets.Cache
	gesture   *gesture.Machine

	// opMu serializes transitions so their pipeline side effects run in
	// the same order as the cursor updates. Lock order: opMu, then mu.
	opMu sync.Mutex

	mu          sync.Mutex
	status      domain.SessionStatus
	cursor      domain.Cursor
	canAdvance  bool
	settleGen   uint64
	settleTimer ports.Timer
	visited     map[int]struct{}
	askSeq      uint64
	done        chan struct{}

	wg sync.WaitGroup
}

// New creates a Controller positioned on the first step. The exercise is
// validated and must not be modified afterwards.
func New(id string, exercise *domain.Exercise, b Backends, opts ...Option) (*Controller, error) {
	if exercise == nil {
		return nil, fmt.Errorf("%w: nil exercise", domain.ErrEmptySession)
	}
	if err := exercise.Validate(); err != nil {
		return nil, err
	}

	c := &Controller{
		id:       id,
		exercise: exercise,
		backends: b,
		sched:    clock.System{},
		logger:   logging.NewNop(),
		settle:   DefaultSettleDelay,
		sanitize: func(s string) (string, error) { return s, nil },
		status:   domain.StatusNotStarted,
		visited:  make(map[int]struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session_id", id)

	c.narration = narration.New(b.Synthesizer, b.Audio,
		narration.WithLogger(c.logger),
		narration.WithScheduler(c.sched),
		narration.WithVoice(c.voice),
		narration.WithListener(id, c.onNarration),
	)
	c.assets = assets.New(b.Illustrator,
		assets.WithLogger(c.logger),
		assets.WithScheduler(c.sched),
		assets.WithDebounce(c.debounce),
		assets.WithListener(id, c.onAsset),
	)
	gestureOpts := []gesture.Option{
		gesture.WithLogger(c.logger),
		gesture.WithScheduler(c.sched),
		gesture.WithListener(id, c.onGesture),
		gesture.WithRetreatGuard(c.canRetreat),
	}
	if c.gestureCfg != nil {
		gestureOpts = append(gestureOpts, gesture.WithConfig(*c.gestureCfg))
	}
	c.gesture = gesture.New(gestureOpts...)

	return c, nil
}

// ID returns the session identifier.
func (c *Controller) ID() string { return c.id }

// Exercise returns the content being presented.
func (c *Controller) Exercise() *domain.Exercise { return c.exercise }

// Gesture exposes the pointer state machine for host input.
func (c *Controller) Gesture() *gesture.Machine { return c.gesture }

// Done is closed when the session reaches a terminal state.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Status returns the lifecycle state.
func (c *Controller) Status() domain.SessionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start positions the cursor before activation: 0 for a fresh run, the
// saved index when resuming. No pipeline runs.
func (c *Controller) Start(at int) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status != domain.StatusNotStarted {
		return domain.ErrAlreadyStarted
	}
	if _, err := c.exercise.Step(at); err != nil {
		return err
	}
	c.cursor = domain.Cursor{StepIndex: at}
	return nil
}

// Activate resumes the audio output and presents the current step. It must
// be triggered by a user action.
func (c *Controller) Activate(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	status := c.status
	c.mu.Unlock()
	if status != domain.StatusNotStarted {
		return domain.ErrAlreadyStarted
	}

	if err := c.backends.Audio.Resume(ctx); err != nil {
		return fmt.Errorf("resume audio: %w", err)
	}

	c.mu.Lock()
	c.cursor.HasStarted = true
	c.status = domain.StatusActive
	step := c.enterLocked()
	index := c.cursor.StepIndex
	c.mu.Unlock()

	c.logger.Info("session activated", "exercise_id", c.exercise.ID, "step_index", index)
	c.presentStep(ctx, step, index)
	return nil
}

// Advance moves to the next step, or completes the session from the last one.
func (c *Controller) Advance(ctx context.Context) error {
	return c.advance(ctx, false)
}

// Retreat moves to the previous step. It is a no-op on the first step.
func (c *Controller) Retreat(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.status != domain.StatusActive {
		c.mu.Unlock()
		return domain.ErrNotActive
	}
	if c.cursor.StepIndex == 0 {
		c.mu.Unlock()
		return nil
	}
	leaving, leftIndex := c.currentLocked()
	c.cursor.StepIndex--
	step := c.enterLocked()
	index := c.cursor.StepIndex
	c.mu.Unlock()

	c.leaveStep(ctx, leaving, leftIndex)
	c.presentStep(ctx, step, index)
	c.haptic(ctx, domain.HapticLight)
	return nil
}

// Exit ends the session early and reports the last visited step.
func (c *Controller) Exit(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.status.Terminal() {
		c.mu.Unlock()
		return domain.ErrNotActive
	}
	step, index := c.currentLocked()
	c.status = domain.StatusExited
	c.stopSettleLocked()
	c.mu.Unlock()

	c.finish(ctx, domain.StatusExited, index)
	if c.reporter != nil {
		err := c.reporter.Exited(ctx, domain.ExitReport{
			ProfileID:  c.profileID,
			ExerciseID: c.exercise.ID,
			StepIndex:  index,
			StepID:     step.ID,
			Timestamp:  c.sched.Now(),
		})
		if err != nil {
			c.logger.Warn("failed to report exit", "err", err)
		}
	}
	return nil
}

// Replay narrates the current step again.
func (c *Controller) Replay(ctx context.Context) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.status != domain.StatusActive {
		c.mu.Unlock()
		return domain.ErrNotActive
	}
	step, _ := c.currentLocked()
	c.askSeq++
	c.mu.Unlock()

	c.narration.Speak(ctx, step.NarrationText)
	return nil
}

// Wait blocks until every in-flight backend call has resolved.
func (c *Controller) Wait() {
	c.wg.Wait()
	c.narration.Wait()
	c.assets.Wait()
}

// Snapshot returns a read-only view for renderers.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	step, index := c.currentLocked()
	v := View{
		SessionID:  c.id,
		ExerciseID: c.exercise.ID,
		Title:      c.exercise.Title,
		Status:     c.status,
		Cursor:     c.cursor,
		Step:       step,
		StepCount:  len(c.exercise.Steps),
		Progress:   float64(index+1) / float64(len(c.exercise.Steps)),
		CanAdvance: c.canAdvance,
	}
	c.mu.Unlock()

	v.Narration = c.narration.State()
	v.Visual = c.assets.Get(step.ID)
	v.Gesture = c.gesture.Snapshot()
	return v
}

// Visited returns the step indexes presented so far, ascending.
func (c *Controller) Visited() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.visitedLocked()
}

func (c *Controller) advance(ctx context.Context, fromGesture bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if c.status != domain.StatusActive {
		c.mu.Unlock()
		return domain.ErrNotActive
	}
	if fromGesture && !c.canAdvance {
		c.mu.Unlock()
		c.logger.Debug("forward gesture dropped while step settles")
		return nil
	}

	leaving, leftIndex := c.currentLocked()
	if leftIndex == c.exercise.LastIndex() {
		c.status = domain.StatusCompleted
		c.stopSettleLocked()
		visited := c.visitedLocked()
		c.mu.Unlock()

		c.leaveStep(ctx, leaving, leftIndex)
		c.finish(ctx, domain.StatusCompleted, leftIndex)
		if c.reporter != nil {
			err := c.reporter.Completed(ctx, domain.CompletionReport{
				ProfileID:  c.profileID,
				ExerciseID: c.exercise.ID,
				Visited:    visited,
				Timestamp:  c.sched.Now(),
			})
			if err != nil {
				c.logger.Warn("failed to report completion", "err", err)
			}
		}
		return nil
	}

	c.cursor.StepIndex++
	step := c.enterLocked()
	index := c.cursor.StepIndex
	c.mu.Unlock()

	c.leaveStep(ctx, leaving, leftIndex)
	c.presentStep(ctx, step, index)
	c.haptic(ctx, domain.HapticLight)
	return nil
}

// enterLocked resets the settle gate for the current step and returns it.
func (c *Controller) enterLocked() domain.Step {
	c.stopSettleLocked()
	c.canAdvance = false
	c.settleGen++
	gen := c.settleGen
	c.settleTimer = c.sched.AfterFunc(c.settle, func() { c.onSettled(gen) })
	c.askSeq++ // a pending answer belongs to the step being left
	c.visited[c.cursor.StepIndex] = struct{}{}
	step, _ := c.currentLocked()
	return step
}

func (c *Controller) currentLocked() (domain.Step, int) {
	return c.exercise.Steps[c.cursor.StepIndex], c.cursor.StepIndex
}

func (c *Controller) visitedLocked() []int {
	out := make([]int, 0, len(c.visited))
	for i := range c.visited {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (c *Controller) stopSettleLocked() {
	if c.settleTimer != nil {
		c.settleTimer.Stop()
		c.settleTimer = nil
	}
}

func (c *Controller) onSettled(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.settleGen || c.status != domain.StatusActive {
		return
	}
	c.canAdvance = true
	c.settleTimer = nil
}

func (c *Controller) canRetreat() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor.StepIndex > 0
}

// presentStep runs the step pipelines. Called under opMu only.
func (c *Controller) presentStep(ctx context.Context, step domain.Step, index int) {
	c.narration.Speak(ctx, step.NarrationText)
	c.assets.CancelPending(ctx, step.ID)
	c.assets.Ensure(ctx, step.ID, step.VisualPrompt)

	c.logger.Debug("step entered", "step_id", step.ID, "step_index", index)
	if c.hooks.OnStepEnter != nil {
		c.hooks.OnStepEnter(ctx, c.stepEvent(domain.EventStepEnter, step, index))
	}
}

func (c *Controller) leaveStep(ctx context.Context, step domain.Step, index int) {
	if c.hooks.OnStepLeave != nil {
		c.hooks.OnStepLeave(ctx, c.stepEvent(domain.EventStepLeave, step, index))
	}
}

func (c *Controller) finish(ctx context.Context, status domain.SessionStatus, index int) {
	c.narration.Close()
	c.assets.Close()
	c.gesture.Reset()
	close(c.done)

	c.logger.Info("session ended", "exercise_id", c.exercise.ID, "status", status, "step_index", index)
	if c.hooks.OnSessionEnd != nil {
		c.hooks.OnSessionEnd(ctx, &domain.SessionEvent{
			EventBase:  c.base(domain.EventSessionEnd),
			ExerciseID: c.exercise.ID,
			Status:     status,
			StepIndex:  index,
		})
	}
}

func (c *Controller) stepEvent(t domain.EventType, step domain.Step, index int) *domain.StepEvent {
	return &domain.StepEvent{
		EventBase:  c.base(t),
		ExerciseID: c.exercise.ID,
		StepID:     step.ID,
		StepIndex:  index,
	}
}

func (c *Controller) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: c.sched.Now(), Type: t, SessionID: c.id}
}

func (c *Controller) haptic(ctx context.Context, p domain.HapticPattern) {
	if c.hooks.OnHaptic != nil {
		c.hooks.OnHaptic(ctx, p)
	}
}

func (c *Controller) onNarration(ctx context.Context, e *domain.NarrationEvent) {
	if c.hooks.OnNarration != nil {
		c.hooks.OnNarration(ctx, e)
	}
}

func (c *Controller) onAsset(ctx context.Context, e *domain.AssetEvent) {
	if c.hooks.OnAsset != nil {
		c.hooks.OnAsset(ctx, e)
	}
}

func (c *Controller) onGesture(ctx context.Context, e *domain.GestureEvent) {
	if c.hooks.OnGesture != nil {
		c.hooks.OnGesture(ctx, e)
	}

	var err error
	switch e.Intent {
	case domain.IntentHoldComplete:
		c.haptic(ctx, domain.HapticDoublePulse)
	case domain.IntentNavigateForward:
		err = c.advance(ctx, true)
	case domain.IntentNavigateBackward:
		err = c.Retreat(ctx)
	}
	if err != nil {
		c.logger.Debug("gesture ignored", "intent", e.Intent, "err", err)
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
