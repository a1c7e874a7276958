package testutils

import (
	"sort"
	"sync"
	"time"

	"github.com/aretw0/cerebro/pkg/ports"
)

// FakeScheduler is a manually driven ports.Scheduler. Time only moves when
// Advance is called; due callbacks run synchronously on the caller's goroutine.
type FakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *FakeScheduler
	due     time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

// NewFakeScheduler returns a scheduler frozen at a fixed instant.
func NewFakeScheduler() *FakeScheduler {
	return &FakeScheduler{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

var _ ports.Scheduler = (*FakeScheduler)(nil)

func (s *FakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) ports.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{s: s, due: s.now.Add(d), seq: s.seq, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing every timer that becomes due
// in order. Timers scheduled by callbacks are honored if they fall inside the
// window.
func (s *FakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		next := s.nextDueLocked(target)
		if next == nil {
			s.now = target
			s.compactLocked()
			s.mu.Unlock()
			return
		}
		next.fired = true
		s.now = next.due
		fn := next.fn
		s.mu.Unlock()

		fn()
	}
}

// Pending returns the number of timers that have neither fired nor been stopped.
func (s *FakeScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			n++
		}
	}
	return n
}

func (s *FakeScheduler) nextDueLocked(target time.Time) *fakeTimer {
	var live []*fakeTimer
	for _, t := range s.timers {
		if !t.fired && !t.stopped && !t.due.After(target) {
			live = append(live, t)
		}
	}
	if len(live) == 0 {
		return nil
	}
	sort.Slice(live, func(i, j int) bool {
		if live[i].due.Equal(live[j].due) {
			return live[i].seq < live[j].seq
		}
		return live[i].due.Before(live[j].due)
	})
	return live[0]
}

func (s *FakeScheduler) compactLocked() {
	kept := s.timers[:0]
	for _, t := range s.timers {
		if !t.fired && !t.stopped {
			kept = append(kept, t)
		}
	}
	s.timers = kept
}
