package narration

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/cerebro/internal/testutils"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedSynth blocks each text until its gate is released.
type gatedSynth struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedSynth(texts ...string) *gatedSynth {
	g := &gatedSynth{gates: map[string]chan struct{}{}}
	for _, t := range texts {
		g.gates[t] = make(chan struct{})
	}
	return g
}

func (g *gatedSynth) release(text string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	close(g.gates[text])
}

func (g *gatedSynth) Synthesize(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
	g.mu.Lock()
	gate := g.gates[req.Text]
	g.mu.Unlock()
	<-gate
	// Length encodes the text so the test can tell buffers apart.
	return ports.SynthesisResult{Audio: testutils.PCM16(len(req.Text))}, nil
}

func TestPipeline_LatestRequestWins(t *testing.T) {
	synth := newGatedSynth("first step", "second")
	out := &testutils.FakeAudioOutput{}
	p := New(synth, out)

	p.Speak(context.Background(), "first step")
	p.Speak(context.Background(), "second")

	synth.release("second")
	require.Eventually(t, func() bool { return len(out.Played()) == 1 }, time.Second, time.Millisecond)

	synth.release("first step")
	p.Wait()

	played := out.Played()
	require.Len(t, played, 1)
	assert.Equal(t, len("second"), played[0].Buffer.Frames())
	assert.Equal(t, uint64(2), p.State().ActiveRequest)
	assert.True(t, p.State().Playing)
	assert.False(t, p.State().Loading)
}

func TestPipeline_StaleArrivingFirstIsDiscarded(t *testing.T) {
	synth := newGatedSynth("a", "b")
	out := &testutils.FakeAudioOutput{}

	var mu sync.Mutex
	var outcomes []domain.NarrationOutcome
	p := New(synth, out, WithListener("s1", func(_ context.Context, e *domain.NarrationEvent) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, e.Outcome)
	}))

	p.Speak(context.Background(), "a")
	p.Speak(context.Background(), "b")
	synth.release("a")
	synth.release("b")
	p.Wait()

	played := out.Played()
	require.Len(t, played, 1)
	assert.Equal(t, 1, played[0].Buffer.Frames())

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []domain.NarrationOutcome{domain.NarrationStale, domain.NarrationPlayed}, outcomes)
}

func TestPipeline_NewSpeakStopsCurrentAudio(t *testing.T) {
	synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
		return ports.SynthesisResult{Audio: testutils.PCM16(10)}, nil
	}}
	out := &testutils.FakeAudioOutput{}
	p := New(synth, out)

	p.Speak(context.Background(), "one")
	p.Wait()
	require.Len(t, out.Played(), 1)

	p.Speak(context.Background(), "two")
	p.Wait()

	played := out.Played()
	require.Len(t, played, 2)
	assert.True(t, played[0].Stopped())
	assert.False(t, played[1].Stopped())
}

func TestPipeline_EndClearsPlayingOnlyForActive(t *testing.T) {
	synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
		return ports.SynthesisResult{Audio: testutils.PCM16(4)}, nil
	}}
	out := &testutils.FakeAudioOutput{}
	p := New(synth, out)

	p.Speak(context.Background(), "one")
	p.Wait()
	assert.True(t, p.State().Playing)

	out.Finish(0)
	assert.False(t, p.State().Playing)
}

func TestPipeline_EndDuringPlayDoesNotDeadlock(t *testing.T) {
	synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
		return ports.SynthesisResult{Audio: testutils.PCM16(1)}, nil
	}}
	out := &testutils.FakeAudioOutput{EndImmediately: true}

	var mu sync.Mutex
	var outcomes []domain.NarrationOutcome
	p := New(synth, out, WithListener("s1", func(_ context.Context, e *domain.NarrationEvent) {
		mu.Lock()
		defer mu.Unlock()
		outcomes = append(outcomes, e.Outcome)
	}))

	p.Speak(context.Background(), "short")

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pipeline blocked on a playback that ended inside Play")
	}

	state := p.State()
	assert.False(t, state.Playing)
	assert.False(t, state.Loading)

	// The next request must not stop a playback that already ended.
	p.Speak(context.Background(), "again")
	p.Wait()
	played := out.Played()
	require.Len(t, played, 2)
	assert.False(t, played[0].Stopped())

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []domain.NarrationOutcome{
		domain.NarrationFinished, domain.NarrationPlayed,
		domain.NarrationFinished, domain.NarrationPlayed,
	}, outcomes)
}

func TestPipeline_FailureClearsFlags(t *testing.T) {
	tests := []struct {
		name string
		res  ports.SynthesisResult
		err  error
	}{
		{name: "Backend Error", err: errors.New("quota")},
		{name: "Empty Audio", res: ports.SynthesisResult{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
				return tt.res, tt.err
			}}
			out := &testutils.FakeAudioOutput{}

			var got error
			p := New(synth, out, WithListener("s1", func(_ context.Context, e *domain.NarrationEvent) {
				got = e.Err
			}))

			p.Speak(context.Background(), "hello")
			p.Wait()

			st := p.State()
			assert.False(t, st.Loading)
			assert.False(t, st.Playing)
			assert.Empty(t, out.Played())
			assert.ErrorIs(t, got, domain.ErrSynthesisFailure)
		})
	}
}

func TestPipeline_BlankTextSkipsBackend(t *testing.T) {
	synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
		return ports.SynthesisResult{Audio: testutils.PCM16(4)}, nil
	}}
	p := New(synth, &testutils.FakeAudioOutput{})

	p.Speak(context.Background(), "   ")
	p.Wait()

	assert.Equal(t, 0, synth.Calls())
	assert.False(t, p.State().Loading)
}

func TestPipeline_InterruptInvalidatesInFlight(t *testing.T) {
	synth := newGatedSynth("late")
	out := &testutils.FakeAudioOutput{}
	p := New(synth, out)

	p.Speak(context.Background(), "late")
	assert.True(t, p.State().Loading)

	p.Interrupt()
	synth.release("late")
	p.Wait()

	assert.Empty(t, out.Played())
	assert.Equal(t, domain.NarrationState{}, p.State())
}

func TestPipeline_CloseRefusesRequests(t *testing.T) {
	synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
		return ports.SynthesisResult{Audio: testutils.PCM16(4)}, nil
	}}
	p := New(synth, &testutils.FakeAudioOutput{})
	p.Close()

	p.Speak(context.Background(), "ignored")
	p.Wait()

	assert.Equal(t, 0, synth.Calls())
}

func TestPipeline_PassesVoice(t *testing.T) {
	var voice string
	synth := &testutils.SynthesizerFunc{Fn: func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
		voice = req.VoiceID
		return ports.SynthesisResult{Audio: testutils.PCM16(1)}, nil
	}}

	p := New(synth, &testutils.FakeAudioOutput{})
	p.Speak(context.Background(), "x")
	p.Wait()
	assert.Equal(t, DefaultVoice, voice)

	p = New(synth, &testutils.FakeAudioOutput{}, WithVoice("Kore"))
	p.Speak(context.Background(), "x")
	p.Wait()
	assert.Equal(t, "Kore", voice)
}
