/*
Package cerebro is an engine for guided, narrated exercise sessions.

An exercise is an ordered list of steps. Each step is spoken aloud by a speech
backend, optionally illustrated by an image backend, and can be questioned
through an assistant backend. The user moves through the steps with explicit
commands or with a hold-then-swipe gesture on a floating control.

# Concept

The Engine owns no I/O. Hosts (the CLI runner, the HTTP server, the MCP
server) feed it user intents and render its snapshots, while the backends and
the audio device are injected through the interfaces in pkg/ports. This keeps
the session logic testable with a fake clock and fake backends.

Every session is driven by a session.Controller that coordinates three
independent components:

  - narration: only the most recently requested line of speech may play.
  - assets: each step's visual is requested once, after a short debounce.
  - gesture: a pointer state machine that unlocks navigation after a hold.

# Usage

	catalog, _ := loam.Open("./exercises")
	backends, _ := gemini.New(ctx, os.Getenv("GEMINI_API_KEY"))

	eng, err := cerebro.New(
		cerebro.WithCatalog(catalog),
		cerebro.WithBackends(backends, backends, backends),
	)
	if err != nil {
		log.Fatal(err)
	}

	sess, err := eng.Open(ctx, "profile-1", "box-breathing", true)
	if err != nil {
		log.Fatal(err)
	}

	// Playback must be unlocked by a user action.
	if err := sess.Activate(ctx); err != nil {
		log.Fatal(err)
	}
	_ = sess.Advance(ctx)
	_ = sess.Ask(ctx, "Why four seconds?")
	_ = sess.Exit(ctx)

Progress (points, badges, resume markers) is written through pkg/progress to
any ports.ProfileStore: memory, file or Redis.
*/
package cerebro
