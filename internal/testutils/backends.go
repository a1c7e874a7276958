package testutils

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/aretw0/cerebro/pkg/ports"
)

// SynthesizerFunc adapts a function to ports.Synthesizer and counts calls.
type SynthesizerFunc struct {
	Fn    func(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error)
	calls atomic.Int32
}

func (s *SynthesizerFunc) Synthesize(ctx context.Context, req ports.SynthesisRequest) (ports.SynthesisResult, error) {
	s.calls.Add(1)
	return s.Fn(ctx, req)
}

// Calls returns how many times Synthesize was invoked.
func (s *SynthesizerFunc) Calls() int { return int(s.calls.Load()) }

// IllustratorFunc adapts a function to ports.Illustrator and counts calls.
type IllustratorFunc struct {
	Fn    func(ctx context.Context, req ports.IllustrationRequest) (ports.IllustrationResult, error)
	calls atomic.Int32
}

func (i *IllustratorFunc) Illustrate(ctx context.Context, req ports.IllustrationRequest) (ports.IllustrationResult, error) {
	i.calls.Add(1)
	return i.Fn(ctx, req)
}

func (i *IllustratorFunc) Calls() int { return int(i.calls.Load()) }

// AnswererFunc adapts a function to ports.Answerer and counts calls.
type AnswererFunc struct {
	Fn    func(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error)
	calls atomic.Int32
}

func (a *AnswererFunc) Answer(ctx context.Context, req ports.QueryRequest) (ports.QueryResult, error) {
	a.calls.Add(1)
	return a.Fn(ctx, req)
}

func (a *AnswererFunc) Calls() int { return int(a.calls.Load()) }

// PCM16 returns n frames of 16-bit little-endian mono silence-ish audio.
func PCM16(n int) []byte {
	out := make([]byte, n*2)
	for i := 0; i < n; i++ {
		out[i*2] = byte(i)
		out[i*2+1] = 0x10
	}
	return out
}

// Played is one buffer handed to a FakeAudioOutput.
type Played struct {
	Buffer  ports.AudioBuffer
	onEnded func()
	stopped atomic.Bool
}

// Stopped reports whether the engine stopped this playback.
func (p *Played) Stopped() bool { return p.stopped.Load() }

type fakePlayback struct{ p *Played }

func (f fakePlayback) Stop() { f.p.stopped.Store(true) }

// FakeAudioOutput records every Play call. Playbacks never end on their own;
// call Finish to simulate the end of a buffer.
type FakeAudioOutput struct {
	mu        sync.Mutex
	resumed   int
	played    []*Played
	ResumeErr error

	// EndImmediately fires onEnded from inside Play, like an output handed
	// a zero-length buffer.
	EndImmediately bool
}

var _ ports.AudioOutput = (*FakeAudioOutput)(nil)

func (o *FakeAudioOutput) Resume(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ResumeErr != nil {
		return o.ResumeErr
	}
	o.resumed++
	return nil
}

func (o *FakeAudioOutput) Play(buf ports.AudioBuffer, onEnded func()) (ports.Playback, error) {
	o.mu.Lock()
	p := &Played{Buffer: buf, onEnded: onEnded}
	o.played = append(o.played, p)
	now := o.EndImmediately
	o.mu.Unlock()

	if now && onEnded != nil {
		onEnded()
	}
	return fakePlayback{p: p}, nil
}

// Resumed returns how many times Resume succeeded.
func (o *FakeAudioOutput) Resumed() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resumed
}

// Played returns a copy of the playback log.
func (o *FakeAudioOutput) Played() []*Played {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Played(nil), o.played...)
}

// Finish fires the end callback of the i-th playback unless it was stopped.
func (o *FakeAudioOutput) Finish(i int) {
	o.mu.Lock()
	p := o.played[i]
	o.mu.Unlock()
	if !p.Stopped() && p.onEnded != nil {
		p.onEnded()
	}
}
