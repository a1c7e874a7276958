package runner

import (
	"io"
	"log/slog"
)

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.Logger = logger }
}

// WithHandler replaces the handler built from the streams.
func WithHandler(handler IOHandler) Option {
	return func(r *Runner) { r.Handler = handler }
}

// WithJSON switches to NDJSON framing and suppresses the banner. Use it for
// pipes and agents.
func WithJSON(enabled bool) Option {
	return func(r *Runner) { r.JSON = enabled }
}

// WithStreams sets the streams used when no handler is configured.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(r *Runner) {
		r.Input = in
		r.Output = out
	}
}

// WithRenderer formats narration in text mode (markdown, color).
func WithRenderer(renderer ContentRenderer) Option {
	return func(r *Runner) { r.Renderer = renderer }
}

// WithSanitizer replaces SanitizeInput, e.g. with a NewSanitizer limit.
func WithSanitizer(fn func(string) (string, error)) Option {
	return func(r *Runner) { r.Sanitize = fn }
}
