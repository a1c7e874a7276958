package session_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/aretw0/cerebro/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestController_AskSpeaksAnswer(t *testing.T) {
	h := newHarness(t)
	var got ports.QueryRequest
	h.answerer.Fn = func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
		got = req
		return ports.QueryResult{AnswerText: "Eureka!"}, nil
	}
	ctx := context.Background()
	require.NoError(t, h.ctrl.Activate(ctx))
	h.ctrl.Wait()

	require.NoError(t, h.ctrl.Ask(ctx, "What is a palace?"))
	h.ctrl.Wait()

	assert.Equal(t, "What is a palace?", got.Question)
	assert.Equal(t, "Close your eyes.", got.ContextText)
	assert.Contains(t, got.SystemPrompt, `"Memory Palace"`)
	assert.Empty(t, got.ImageURI)
	assert.Equal(t, []string{"Close your eyes.", "Eureka!"}, h.spokenTexts())
}

// snapshotOnLog reads the controller state from inside a log call, the way an
// observer sharing the logger might.
type snapshotOnLog struct {
	ctrl  *atomic.Pointer[session.Controller]
	seen  *atomic.Int32
	match string
}

func (h snapshotOnLog) Enabled(context.Context, slog.Level) bool { return true }

func (h snapshotOnLog) Handle(_ context.Context, r slog.Record) error {
	if c := h.ctrl.Load(); c != nil && r.Message == h.match {
		_ = c.Snapshot()
		h.seen.Add(1)
	}
	return nil
}

func (h snapshotOnLog) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h snapshotOnLog) WithGroup(string) slog.Handler      { return h }

func TestController_AnswerSpokenWithoutStateLock(t *testing.T) {
	var ctrl atomic.Pointer[session.Controller]
	var seen atomic.Int32
	logger := slog.New(snapshotOnLog{ctrl: &ctrl, seen: &seen, match: "narration requested"})

	h := newHarness(t, session.WithLogger(logger))
	ctx := context.Background()
	require.NoError(t, h.ctrl.Activate(ctx))
	h.ctrl.Wait()
	ctrl.Store(h.ctrl)

	require.NoError(t, h.ctrl.Ask(ctx, "Why a palace?"))

	done := make(chan struct{})
	go func() {
		h.ctrl.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("answer narration blocked on the controller state lock")
	}

	assert.Equal(t, int32(1), seen.Load())
	assert.Equal(t, []string{"Close your eyes.", "Splendid question, Voyager!"}, h.spokenTexts())
}

func TestController_AskValidation(t *testing.T) {
	h := newHarness(t, session.WithSanitizer(func(s string) (string, error) {
		if len(s) > 10 {
			return "", errors.New("too large")
		}
		return s, nil
	}))
	ctx := context.Background()
	require.NoError(t, h.ctrl.Activate(ctx))

	assert.ErrorIs(t, h.ctrl.Ask(ctx, "   "), domain.ErrEmptyQuestion)
	assert.Error(t, h.ctrl.Ask(ctx, strings.Repeat("x", 11)))
	h.ctrl.Wait()
	assert.Equal(t, 0, h.answerer.Calls())
}

func TestController_AnswerDroppedAfterStepChange(t *testing.T) {
	h := newHarness(t)
	release := make(chan struct{})
	h.answerer.Fn = func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
		<-release
		return ports.QueryResult{AnswerText: "late answer"}, nil
	}
	ctx := context.Background()
	require.NoError(t, h.ctrl.Activate(ctx))

	require.NoError(t, h.ctrl.Ask(ctx, "why?"))
	require.NoError(t, h.ctrl.Advance(ctx))
	close(release)
	h.ctrl.Wait()

	assert.NotContains(t, h.spokenTexts(), "late answer")
	assert.Contains(t, h.spokenTexts(), "Walk into the hall.")
}

func TestController_QueryFailureSpeaksFallback(t *testing.T) {
	h := newHarness(t)
	h.answerer.Fn = func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
		return ports.QueryResult{}, errors.New("503")
	}
	ctx := context.Background()
	require.NoError(t, h.ctrl.Activate(ctx))

	require.NoError(t, h.ctrl.Ask(ctx, "hello?"))
	h.ctrl.Wait()

	spoken := h.spokenTexts()
	assert.Equal(t, session.FallbackAnswer, spoken[len(spoken)-1])
	assert.Equal(t, domain.StatusActive, h.ctrl.Status())
}

func TestController_ExplainVisual(t *testing.T) {
	h := newHarness(t)
	var got ports.QueryRequest
	h.answerer.Fn = func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
		got = req
		return ports.QueryResult{AnswerText: "A door to your memory."}, nil
	}
	ctx := context.Background()
	require.NoError(t, h.ctrl.Activate(ctx))

	assert.ErrorIs(t, h.ctrl.ExplainVisual(ctx), domain.ErrNoVisual)

	h.sched.Advance(time.Second)
	h.ctrl.Wait()
	require.NoError(t, h.ctrl.ExplainVisual(ctx))
	h.ctrl.Wait()

	assert.Equal(t, "data:image/png;base64,AAAA", got.ImageURI)
	assert.Equal(t, session.Persona, got.SystemPrompt)
	assert.Contains(t, h.spokenTexts(), "A door to your memory.")
}
