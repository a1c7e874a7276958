package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/cerebro"
	"github.com/aretw0/cerebro/internal/config"
	"github.com/aretw0/cerebro/internal/presentation/tui"
	"github.com/aretw0/cerebro/pkg/runner"
)

// RunSession opens one session and drives it from stdin until it ends.
func RunSession(cfg *config.Config, opts RunOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	logger := createLogger(cfg.LogLevel, opts.Debug)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	r := runner.NewRunner(append(createRunnerOptions(opts, cfg), runner.WithLogger(logger))...)

	components, err := NewEngine(sigCtx, cfg, EngineDeps{
		Logger: logger,
		Hooks:  r.Hooks(),
		Debug:  opts.Debug,
	})
	if err != nil {
		return err
	}
	defer components.Close()

	if !opts.quiet() {
		tui.PrintBanner(os.Stdout, cerebro.Version)
	}

	ctrl, err := components.Engine.Open(sigCtx, opts.ProfileID, opts.ExerciseID, opts.resume())
	if err != nil {
		return fmt.Errorf("failed to open session: %w", err)
	}
	logSessionStatus(os.Stdout, opts, ctrl.Snapshot().Cursor.StepIndex)

	runErr := r.Run(sigCtx, ctrl)
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}
	_ = components.Engine.Close(context.Background(), ctrl.ID())

	logCompletion(os.Stdout, opts, ctrl.Snapshot(), sigCtx.Signal())
	return handleExecutionError(runErr)
}

// createRunnerOptions prepares the functional options for the Runner.
func createRunnerOptions(opts RunOptions, cfg *config.Config) []runner.Option {
	ro := []runner.Option{
		runner.WithJSON(opts.JSON || opts.Headless),
		runner.WithSanitizer(runner.NewSanitizer(cfg.MaxInputSize)),
	}
	if !opts.quiet() && IsInteractive() {
		ro = append(ro, runner.WithRenderer(tui.NewRenderer()))
	}
	return ro
}

func logSessionStatus(w io.Writer, opts RunOptions, index int) {
	if opts.quiet() {
		return
	}
	if opts.resume() && index > 0 {
		printSystemMessage(w, "Resuming '%s' at step %d.", opts.ExerciseID, index+1)
		return
	}
	printSystemMessage(w, "Starting '%s'.", opts.ExerciseID)
}
