package cerebro

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/aretw0/cerebro/internal/clock"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/adapters/memory"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/observability"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/aretw0/cerebro/pkg/progress"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/google/uuid"
)

// Version is set at build time.
var Version = "dev"

// Engine opens and tracks guided sessions over a catalog of exercises.
// It is safe for concurrent use; each session is driven by its own
// session.Controller.
type Engine struct {
	catalog  ports.Catalog
	synth    ports.Synthesizer
	illus    ports.Illustrator
	answerer ports.Answerer
	audio    func() ports.AudioOutput

	store    ports.ProfileStore
	locker   ports.DistributedLocker
	profiles *progress.Manager
	recorder *progress.Recorder

	sched       ports.Scheduler
	hooks       domain.LifecycleHooks
	metrics     *observability.Metrics
	logger      *slog.Logger
	sessionOpts []session.Option
	newID       func() string

	mu       sync.RWMutex
	sessions map[string]*session.Controller
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithCatalog sets the exercise source. Required.
func WithCatalog(c ports.Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithBackends sets the generative backends shared by every session.
func WithBackends(s ports.Synthesizer, i ports.Illustrator, a ports.Answerer) Option {
	return func(e *Engine) {
		e.synth = s
		e.illus = i
		e.answerer = a
	}
}

// WithAudio sets the factory for each session's audio output.
// The default is a virtual speaker that only keeps time.
func WithAudio(factory func() ports.AudioOutput) Option {
	return func(e *Engine) { e.audio = factory }
}

// WithProfileStore sets where profiles and progress are persisted.
// The default is an in-memory store.
func WithProfileStore(s ports.ProfileStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithLocker serializes profile writes across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) { e.locker = l }
}

// WithLifecycleHooks registers observability hooks on every session.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithMetrics records every session into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithScheduler sets the clock used by every session.
func WithScheduler(s ports.Scheduler) Option {
	return func(e *Engine) { e.sched = s }
}

// WithSessionOptions appends options applied to every new session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(e *Engine) { e.sessionOpts = append(e.sessionOpts, opts...) }
}

// WithIDGenerator overrides how session IDs are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

// New initializes a new Engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		sched:    clock.System{},
		logger:   logging.NewNop(),
		newID:    uuid.NewString,
		sessions: make(map[string]*session.Controller),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.catalog == nil {
		return nil, fmt.Errorf("a catalog is required")
	}
	if e.synth == nil || e.illus == nil || e.answerer == nil {
		return nil, fmt.Errorf("synthesizer, illustrator and answerer backends are required")
	}
	if e.audio == nil {
		e.audio = func() ports.AudioOutput { return memory.NewSpeaker(e.sched) }
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	managerOpts := []progress.Option{progress.WithLogger(e.logger)}
	if e.locker != nil {
		managerOpts = append(managerOpts, progress.WithLocker(e.locker))
	}
	e.profiles = progress.NewManager(e.store, managerOpts...)
	e.recorder = progress.NewRecorder(e.profiles, progress.WithRecorderLogger(e.logger))

	if e.metrics != nil {
		e.hooks = e.hooks.Merge(e.metrics.Hooks())
	}
	return e, nil
}

// Catalog returns the exercise source.
func (e *Engine) Catalog() ports.Catalog { return e.catalog }

// Profiles returns the profile manager.
func (e *Engine) Profiles() *progress.Manager { return e.profiles }

// Open creates a session for exerciseID. When profileID is set, progress is
// reported to that profile; with resume, the session starts at the step the
// profile last exited on. The session is NotStarted until Activate.
func (e *Engine) Open(ctx context.Context, profileID, exerciseID string, resume bool) (*session.Controller, error) {
	ex, err := e.catalog.Get(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	start := 0
	if profileID != "" && resume {
		idx, ok, err := e.recorder.Resume(ctx, profileID, exerciseID)
		if err != nil {
			return nil, fmt.Errorf("failed to read progress: %w", err)
		}
		if ok && idx >= 0 && idx <= ex.LastIndex() {
			start = idx
		}
	}

	id := e.newID()
	opts := []session.Option{
		session.WithLogger(e.logger),
		session.WithScheduler(e.sched),
		session.WithHooks(e.hooks),
	}
	if profileID != "" {
		opts = append(opts, session.WithReporter(profileID, e.recorder))
	}
	opts = append(opts, e.sessionOpts...)

	ctrl, err := session.New(id, ex, session.Backends{
		Synthesizer: e.synth,
		Illustrator: e.illus,
		Answerer:    e.answerer,
		Audio:       e.audio(),
	}, opts...)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Start(start); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sessions[id] = ctrl
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.SessionOpened()
	}

	e.logger.Info("session opened", "session_id", id, "exercise_id", exerciseID, "profile_id", profileID, "step_index", start)
	return ctrl, nil
}

// Get returns an open session.
func (e *Engine) Get(sessionID string) (*session.Controller, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ctrl, ok := e.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	return ctrl, nil
}

// Sessions returns the IDs of every tracked session, sorted.
func (e *Engine) Sessions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close exits the session if it is still running, waits for its background
// work and forgets it.
func (e *Engine) Close(ctx context.Context, sessionID string) error {
	e.mu.Lock()
	ctrl, ok := e.sessions[sessionID]
	delete(e.sessions, sessionID)
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}

	var err error
	if !ctrl.Status().Terminal() {
		err = ctrl.Exit(ctx)
	}
	ctrl.Wait()
	return err
}

// Shutdown closes every session.
func (e *Engine) Shutdown(ctx context.Context) error {
	var errs []error
	for _, id := range e.Sessions() {
		if err := e.Close(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
