package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/cerebro/internal/clock"
	"github.com/aretw0/cerebro/pkg/ports"
)

// ErrNotResumed is returned by Speaker.Play before Resume was called.
var ErrNotResumed = errors.New("audio output not resumed")

// Speaker implements ports.AudioOutput without a sound device. Each buffer
// "plays" for its real duration on the scheduler, which makes it usable for
// headless hosts (HTTP, MCP, pipes) and for tests.
type Speaker struct {
	sched ports.Scheduler

	mu      sync.Mutex
	resumed bool
	played  int
}

// NewSpeaker creates a Speaker. A nil scheduler uses the system clock.
func NewSpeaker(sched ports.Scheduler) *Speaker {
	if sched == nil {
		sched = clock.System{}
	}
	return &Speaker{sched: sched}
}

// Resume unlocks playback.
func (s *Speaker) Resume(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resumed = true
	return nil
}

// Play schedules onEnded after the buffer duration.
func (s *Speaker) Play(buf ports.AudioBuffer, onEnded func()) (ports.Playback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.resumed {
		return nil, ErrNotResumed
	}
	s.played++

	pb := &speakerPlayback{}
	pb.timer = s.sched.AfterFunc(buf.Duration(), func() {
		pb.mu.Lock()
		stopped := pb.stopped
		pb.mu.Unlock()
		if !stopped && onEnded != nil {
			onEnded()
		}
	})
	return pb, nil
}

// Played returns how many buffers were started.
func (s *Speaker) Played() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.played
}

type speakerPlayback struct {
	mu      sync.Mutex
	stopped bool
	timer   ports.Timer
}

func (p *speakerPlayback) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopped = true
	p.timer.Stop()
}
