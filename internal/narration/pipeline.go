// Package narration turns step text into audio on the shared output.
//
// Every Speak issues a new request token. Only the newest token may touch
// playback state, so a slow synthesis for a step the user already left is
// dropped on arrival.
package narration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/cerebro/internal/clock"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// DefaultVoice is the prebuilt voice requested from the synthesis backend.
const DefaultVoice = "Fenrir"

var errEmptyAudio = errors.New("backend returned no audio")

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithVoice overrides DefaultVoice.
func WithVoice(voice string) Option {
	return func(p *Pipeline) {
		if voice != "" {
			p.voice = voice
		}
	}
}

// WithScheduler sets the clock used to stamp requests.
func WithScheduler(s ports.Scheduler) Option {
	return func(p *Pipeline) { p.sched = s }
}

// WithListener registers a callback for request resolutions. It is always
// invoked without the pipeline lock held.
func WithListener(sessionID string, fn func(context.Context, *domain.NarrationEvent)) Option {
	return func(p *Pipeline) {
		p.sessionID = sessionID
		p.listener = fn
	}
}

// Pipeline owns the narration flags for one session.
type Pipeline struct {
	synth     ports.Synthesizer
	out       ports.AudioOutput
	sched     ports.Scheduler
	logger    *slog.Logger
	voice     string
	sessionID string
	listener  func(context.Context, *domain.NarrationEvent)

	mu       sync.Mutex
	seq      uint64
	active   domain.PlaybackRequest
	loading  bool
	playing  bool
	playback ports.Playback
	cancel   context.CancelFunc
	closed   bool

	wg sync.WaitGroup
}

// New creates a Pipeline speaking through out.
func New(synth ports.Synthesizer, out ports.AudioOutput, opts ...Option) *Pipeline {
	p := &Pipeline{
		synth:  synth,
		out:    out,
		sched:  clock.System{},
		logger: logging.NewNop(),
		voice:  DefaultVoice,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Speak supersedes whatever is sounding or loading and starts synthesis of
// text. Blank text only silences the current request.
func (p *Pipeline) Speak(ctx context.Context, text string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.seq++
	req := domain.PlaybackRequest{ID: p.seq, Text: text, IssuedAt: p.sched.Now()}
	p.active = req
	p.stopLocked()

	if strings.TrimSpace(text) == "" {
		p.loading, p.playing = false, false
		p.mu.Unlock()
		return
	}

	p.loading, p.playing = true, true
	base := context.WithoutCancel(ctx)
	callCtx, cancel := context.WithCancel(base)
	p.cancel = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	p.logger.Debug("narration requested", "session_id", p.sessionID, "request_id", req.ID)

	go func() {
		defer p.wg.Done()
		defer cancel()
		res, err := p.synth.Synthesize(callCtx, ports.SynthesisRequest{Text: req.Text, VoiceID: p.voice})
		p.resolve(base, req.ID, res, err)
	}()
}

// Interrupt stops audio and invalidates any in-flight synthesis.
func (p *Pipeline) Interrupt() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = domain.PlaybackRequest{}
	p.stopLocked()
	p.loading, p.playing = false, false
}

// Close interrupts and refuses further requests.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.active = domain.PlaybackRequest{}
	p.stopLocked()
	p.loading, p.playing = false, false
}

// Wait blocks until every synthesis goroutine has returned.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// State returns a snapshot of the narration flags.
func (p *Pipeline) State() domain.NarrationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return domain.NarrationState{
		ActiveRequest: p.active.ID,
		Loading:       p.loading,
		Playing:       p.playing,
	}
}

// Active returns the request currently allowed to mutate playback.
func (p *Pipeline) Active() domain.PlaybackRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

func (p *Pipeline) stopLocked() {
	if p.playback != nil {
		p.playback.Stop()
		p.playback = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Pipeline) resolve(ctx context.Context, id uint64, res ports.SynthesisResult, err error) {
	p.mu.Lock()
	if p.closed || id != p.active.ID {
		p.mu.Unlock()
		p.logger.Debug("narration result discarded", "session_id", p.sessionID, "request_id", id)
		p.emit(ctx, id, domain.NarrationStale, nil)
		return
	}
	p.cancel = nil

	if err == nil && len(res.Audio) == 0 {
		err = errEmptyAudio
	}
	if err != nil {
		p.loading, p.playing = false, false
		p.mu.Unlock()
		p.fail(ctx, id, err)
		return
	}
	p.mu.Unlock()

	buf := DecodePCM16(res.Audio, rateFromMIME(res.MIMEType), 1)
	pb, err := p.out.Play(buf, func() { p.ended(ctx, id) })

	p.mu.Lock()
	if p.closed || id != p.active.ID {
		p.mu.Unlock()
		if pb != nil {
			pb.Stop()
		}
		p.logger.Debug("narration superseded during playback start", "session_id", p.sessionID, "request_id", id)
		p.emit(ctx, id, domain.NarrationStale, nil)
		return
	}
	p.loading = false
	if err != nil {
		p.playing = false
		p.mu.Unlock()
		p.fail(ctx, id, err)
		return
	}
	// A buffer that ended inside Play has already cleared playing.
	if p.playing {
		p.playback = pb
	}
	p.mu.Unlock()

	p.logger.Debug("narration playing", "session_id", p.sessionID, "request_id", id, "duration", buf.Duration())
	p.emit(ctx, id, domain.NarrationPlayed, nil)
}

func (p *Pipeline) ended(ctx context.Context, id uint64) {
	p.mu.Lock()
	if id != p.active.ID || !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	p.playback = nil
	p.mu.Unlock()

	p.emit(ctx, id, domain.NarrationFinished, nil)
}

func (p *Pipeline) fail(ctx context.Context, id uint64, cause error) {
	err := fmt.Errorf("%w: %w", domain.ErrSynthesisFailure, cause)
	p.logger.Warn("narration failed", "session_id", p.sessionID, "request_id", id, "err", err)
	p.emit(ctx, id, domain.NarrationFailed, err)
}

func (p *Pipeline) emit(ctx context.Context, id uint64, outcome domain.NarrationOutcome, err error) {
	if p.listener == nil {
		return
	}
	p.listener(ctx, &domain.NarrationEvent{
		EventBase: domain.EventBase{
			Timestamp: p.sched.Now(),
			Type:      domain.EventNarration,
			SessionID: p.sessionID,
		},
		RequestID: id,
		Outcome:   outcome,
		Err:       err,
	})
}
