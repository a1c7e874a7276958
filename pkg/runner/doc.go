/*
Package runner drives a guided session from a terminal or a pipe.

A Runner reads one command per line (next, back, ask <question>, replay,
explain, status, exit), applies it to a session.Controller and renders the
resulting view through an IOHandler. TextHandler targets interactive
terminals; JSONHandler speaks JSON lines for scripted hosts.

# Usage

	r := runner.NewRunner(runner.WithRenderer(tui.NewRenderer()))
	engine, _ := cerebro.New(..., cerebro.WithLifecycleHooks(r.Hooks()))
	ctrl, _ := engine.Open(ctx, "user-1", "memory-palace", true)

	if err := r.Run(ctx, ctrl); err != nil {
		log.Fatal(err)
	}

Input lines pass through SanitizeInput (or WithSanitizer), which enforces a
size limit (CEREBRO_MAX_INPUT_SIZE), rejects invalid UTF-8 and flattens the
line, dropping control characters.
*/
package runner
