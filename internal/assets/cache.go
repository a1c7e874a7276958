// Package assets keeps the generated visual of each step.
//
// Entries move Absent -> Loading -> Ready|Failed and never go back from a
// settled state, so a visual is generated at most once per step per session.
// Requests are debounced: a Loading entry whose timer has not fired yet can
// be canceled by CancelPending when the user moves on, which returns it to
// Absent. Once the backend call is in flight it always lands.
package assets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cerebro/internal/clock"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

var errNoImage = errors.New("backend returned no image")

// DefaultDebounce is how long a request waits before reaching the backend.
const DefaultDebounce = 500 * time.Millisecond

// Option configures a Cache.
type Option func(*Cache)

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

func WithScheduler(s ports.Scheduler) Option {
	return func(c *Cache) { c.sched = s }
}

func WithDebounce(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.debounce = d
		}
	}
}

// WithListener registers a callback for cache activity. It is invoked
// without the cache lock held.
func WithListener(sessionID string, fn func(context.Context, *domain.AssetEvent)) Option {
	return func(c *Cache) {
		c.sessionID = sessionID
		c.listener = fn
	}
}

type entry struct {
	status   domain.AssetStatus
	uri      string
	prompt   string
	gen      uint64
	timer    ports.Timer
	inFlight bool
}

// Cache is the per-session visual store.
type Cache struct {
	illus     ports.Illustrator
	sched     ports.Scheduler
	logger    *slog.Logger
	debounce  time.Duration
	sessionID string
	listener  func(context.Context, *domain.AssetEvent)

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	wg sync.WaitGroup
}

// New creates an empty Cache.
func New(illus ports.Illustrator, opts ...Option) *Cache {
	c := &Cache{
		illus:    illus,
		sched:    clock.System{},
		logger:   logging.NewNop(),
		debounce: DefaultDebounce,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ensure schedules generation of the visual for stepID unless the entry is
// already loading or settled. Steps without a prompt are skipped.
func (c *Cache) Ensure(ctx context.Context, stepID, prompt string) {
	if strings.TrimSpace(prompt) == "" {
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e, ok := c.entries[stepID]
	if !ok {
		e = &entry{status: domain.AssetAbsent}
		c.entries[stepID] = e
	}
	if e.status != domain.AssetAbsent {
		c.mu.Unlock()
		return
	}
	e.status = domain.AssetLoading
	e.prompt = prompt
	e.gen++
	gen := e.gen
	base := context.WithoutCancel(ctx)
	e.timer = c.sched.AfterFunc(c.debounce, func() { c.fire(base, stepID, gen) })
	c.mu.Unlock()

	c.emit(ctx, stepID, domain.AssetRequested, nil)
}

// CancelPending returns every debounced, not yet dispatched entry other than
// except to Absent.
func (c *Cache) CancelPending(ctx context.Context, except string) {
	c.mu.Lock()
	var canceled []string
	for id, e := range c.entries {
		if id == except || e.status != domain.AssetLoading || e.inFlight {
			continue
		}
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
		e.status = domain.AssetAbsent
		e.gen++
		canceled = append(canceled, id)
	}
	c.mu.Unlock()

	sort.Strings(canceled)
	for _, id := range canceled {
		c.emit(ctx, id, domain.AssetDebounced, nil)
	}
}

// Get returns the entry for stepID; unknown steps are Absent.
func (c *Cache) Get(stepID string) domain.AssetEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[stepID]
	if !ok {
		return domain.AssetEntry{StepID: stepID, Status: domain.AssetAbsent}
	}
	return domain.AssetEntry{StepID: stepID, Status: e.status, URI: e.uri}
}

// Entries returns every known entry ordered by step id.
func (c *Cache) Entries() []domain.AssetEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.AssetEntry, 0, len(c.entries))
	for id, e := range c.entries {
		out = append(out, domain.AssetEntry{StepID: id, Status: e.status, URI: e.uri})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepID < out[j].StepID })
	return out
}

// Close stops pending timers. Results still in flight are dropped.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for _, e := range c.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
}

// Wait blocks until every dispatched backend call has resolved.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) fire(ctx context.Context, stepID string, gen uint64) {
	c.mu.Lock()
	e, ok := c.entries[stepID]
	if c.closed || !ok || e.gen != gen || e.status != domain.AssetLoading {
		c.mu.Unlock()
		return
	}
	e.timer = nil
	e.inFlight = true
	prompt := e.prompt
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Debug("visual requested", "session_id", c.sessionID, "step_id", stepID)

	go func() {
		defer c.wg.Done()
		res, err := c.illus.Illustrate(ctx, ports.IllustrationRequest{Prompt: prompt})
		c.resolve(ctx, stepID, res, err)
	}()
}

func (c *Cache) resolve(ctx context.Context, stepID string, res ports.IllustrationResult, err error) {
	if err == nil && res.URI == "" {
		err = errNoImage
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	e := c.entries[stepID]
	e.inFlight = false
	if err != nil {
		e.status = domain.AssetFailed
	} else {
		e.status = domain.AssetReady
		e.uri = res.URI
	}
	c.mu.Unlock()

	if err != nil {
		err = fmt.Errorf("%w: step %s: %w", domain.ErrGenerationFailure, stepID, err)
		c.logger.Warn("visual generation failed", "session_id", c.sessionID, "step_id", stepID, "err", err)
		c.emit(ctx, stepID, domain.AssetErrored, err)
		return
	}
	c.emit(ctx, stepID, domain.AssetGenerated, nil)
}

func (c *Cache) emit(ctx context.Context, stepID string, outcome domain.AssetOutcome, err error) {
	if c.listener == nil {
		return
	}
	c.listener(ctx, &domain.AssetEvent{
		EventBase: domain.EventBase{
			Timestamp: c.sched.Now(),
			Type:      domain.EventAsset,
			SessionID: c.sessionID,
		},
		StepID:  stepID,
		Outcome: outcome,
		Err:     err,
	})
}
