package session

import (
	"log/slog"
	"time"

	"github.com/aretw0/cerebro/internal/gesture"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// DefaultSettleDelay is how long a freshly entered step ignores forward
// gestures.
const DefaultSettleDelay = 500 * time.Millisecond

// Backends are the external collaborators a Controller talks to.
type Backends struct {
	Synthesizer ports.Synthesizer
	Illustrator ports.Illustrator
	Answerer    ports.Answerer
	Audio       ports.AudioOutput
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger shared by the controller and its components.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithScheduler sets the clock for settle delays, debounces and gesture frames.
func WithScheduler(s ports.Scheduler) Option {
	return func(c *Controller) { c.sched = s }
}

// WithHooks registers lifecycle hooks. Hooks run synchronously and must not
// call Controller transitions.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(c *Controller) { c.hooks = c.hooks.Merge(h) }
}

// WithReporter sets the progress collaborator for the given profile.
func WithReporter(profileID string, r ports.ProgressReporter) Option {
	return func(c *Controller) {
		c.profileID = profileID
		c.reporter = r
	}
}

// WithSettleDelay overrides DefaultSettleDelay.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.settle = d
		}
	}
}

// WithGestureConfig tunes the gesture machine.
func WithGestureConfig(cfg gesture.Config) Option {
	return func(c *Controller) { c.gestureCfg = &cfg }
}

// WithVoice sets the narration voice.
func WithVoice(voice string) Option {
	return func(c *Controller) { c.voice = voice }
}

// WithAssetDebounce overrides the visual request debounce.
func WithAssetDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithSanitizer cleans questions before they reach the Answerer.
func WithSanitizer(fn func(string) (string, error)) Option {
	return func(c *Controller) { c.sanitize = fn }
}
