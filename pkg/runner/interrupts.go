package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// settleGrace is how long a failed read waits for a pending interrupt.
// Some terminals close stdin on Ctrl+C slightly before the signal lands.
const settleGrace = 100 * time.Millisecond

// interrupts scopes line reads to SIGINT and SIGTERM, so Ctrl+C at the prompt
// exits the session instead of killing the process mid-write.
type interrupts struct {
	parent context.Context
	ctx    context.Context
	stop   context.CancelFunc
}

func watchInterrupts(parent context.Context) *interrupts {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &interrupts{parent: parent, ctx: ctx, stop: stop}
}

// Context is cancelled by a signal or by the parent.
func (i *interrupts) Context() context.Context { return i.ctx }

// Fired reports whether a signal, rather than the parent, ended Context.
func (i *interrupts) Fired() bool {
	return i.ctx.Err() != nil && i.parent.Err() == nil
}

// Settle gives a signal racing a closed stdin time to arrive.
func (i *interrupts) Settle() {
	if i.ctx.Err() != nil {
		return
	}
	t := time.NewTimer(settleGrace)
	defer t.Stop()
	select {
	case <-i.ctx.Done():
	case <-t.C:
	}
}

func (i *interrupts) Stop() { i.stop() }
