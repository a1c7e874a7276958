package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/session"
)

// Runner drives one session from line commands. It uses an IOHandler
// strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, one is built from Input/Output.
	Handler IOHandler

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Sanitize cleans every input line. Defaults to SanitizeInput.
	Sanitize func(string) (string, error)

	Input    io.Reader
	Output   io.Writer
	JSON     bool
	Renderer ContentRenderer

	once      sync.Once
	mu        sync.Mutex
	sessionID string
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Logger:   logging.NewNop(),
		Sanitize: SanitizeInput,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run presents ctrl and executes commands until the session ends, input is
// exhausted or an interrupt arrives. Leaving early exits the session so its
// progress is reported.
func (r *Runner) Run(ctx context.Context, ctrl *session.Controller) error {
	handler := r.resolveHandler()
	r.mu.Lock()
	r.sessionID = ctrl.ID()
	r.mu.Unlock()

	signals := watchInterrupts(ctx)
	defer signals.Stop()

	render := true
	for {
		view := ctrl.Snapshot()
		if render || view.Status.Terminal() {
			if err := handler.Output(ctx, view); err != nil {
				return fmt.Errorf("output error: %w", err)
			}
		}
		if view.Status.Terminal() {
			ctrl.Wait()
			return nil
		}
		render = true

		line, err := handler.Input(signals.Context())
		if err != nil {
			signals.Settle()
			if signals.Context().Err() != nil || errors.Is(err, io.EOF) {
				return r.leave(ctx, ctrl, handler, signals.Fired())
			}
			return fmt.Errorf("input error: %w", err)
		}

		clean, err := r.Sanitize(line)
		if err != nil {
			r.Logger.Warn("input rejected", "err", err, "size", len(line))
			_ = handler.SystemOutput(ctx, fmt.Sprintf("Error: %v. Please try again.", err))
			render = false
			continue
		}

		cmd, err := ParseCommand(clean)
		if err != nil {
			_ = handler.SystemOutput(ctx, fmt.Sprintf("%v (type 'help')", err))
			render = false
			continue
		}
		r.Logger.Debug("runner command", "session_id", ctrl.ID(), "command", cmd.Kind)

		switch cmd.Kind {
		case CmdHelp:
			_ = handler.SystemOutput(ctx, HelpText)
			render = false
			continue
		case CmdStatus:
			continue
		}

		// The session outlives a cancelled read; pipelines keep their context.
		if err := Apply(context.WithoutCancel(ctx), ctrl, cmd); err != nil {
			_ = handler.SystemOutput(ctx, err.Error())
			render = false
		}
	}
}

func (r *Runner) leave(ctx context.Context, ctrl *session.Controller, handler IOHandler, interrupted bool) error {
	if interrupted {
		_ = handler.SystemOutput(ctx, "interrupted")
	}
	if !ctrl.Status().Terminal() {
		if err := ctrl.Exit(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, domain.ErrNotActive) {
			return err
		}
		_ = handler.Output(ctx, ctrl.Snapshot())
	}
	ctrl.Wait()
	return ctx.Err()
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	r.once.Do(func() {
		if r.Handler != nil {
			return
		}
		if r.JSON {
			r.Handler = NewJSONHandler(r.Input, r.Output)
			return
		}
		r.Handler = NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
		if r.Output != nil {
			fmt.Fprintln(r.Output, "--- Cerebro ---")
		}
	})
	return r.Handler
}

func (r *Runner) ours(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionID == "" || r.sessionID == sessionID
}

// Hooks forwards session events of the running session to the handler as
// signals. Register them on the engine before opening the session.
func (r *Runner) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNarration: func(ctx context.Context, e *domain.NarrationEvent) {
			if !r.ours(e.SessionID) || e.Outcome == domain.NarrationStale {
				return
			}
			args := map[string]any{"outcome": string(e.Outcome)}
			if e.Err != nil {
				args["err"] = e.Err.Error()
			}
			_ = r.resolveHandler().Signal(ctx, "narration", args)
		},
		OnAsset: func(ctx context.Context, e *domain.AssetEvent) {
			if !r.ours(e.SessionID) {
				return
			}
			if e.Outcome != domain.AssetGenerated && e.Outcome != domain.AssetErrored {
				return
			}
			_ = r.resolveHandler().Signal(ctx, "visual", map[string]any{
				"step_id": e.StepID,
				"outcome": string(e.Outcome),
			})
		},
		OnHaptic: func(ctx context.Context, p domain.HapticPattern) {
			_ = r.resolveHandler().Signal(ctx, "haptic", map[string]any{"pattern": p.Name()})
		},
	}
}
