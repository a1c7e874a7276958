package runner

import (
	"context"

	"github.com/aretw0/cerebro/pkg/session"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
// Signal and SystemOutput may be called from lifecycle hooks while Input is
// blocked, so implementations must serialize their writes.
type IOHandler interface {
	// Output presents the current session view.
	Output(ctx context.Context, view session.View) error

	// Input reads one command line from the user.
	Input(ctx context.Context) (string, error)

	// Signal notifies the handler of a session event (narration, visual,
	// haptic). It is informational and must not block.
	Signal(ctx context.Context, name string, args map[string]any) error

	// SystemOutput presents a meta-message to the user (errors, help).
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms step text before it is printed, e.g. markdown
// to ANSI.
type ContentRenderer func(string) (string, error)
