package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeScheduler_FiresInOrder(t *testing.T) {
	s := NewFakeScheduler()
	var order []string

	s.AfterFunc(20*time.Millisecond, func() { order = append(order, "b") })
	s.AfterFunc(10*time.Millisecond, func() { order = append(order, "a") })
	s.AfterFunc(time.Second, func() { order = append(order, "late") })

	s.Advance(50 * time.Millisecond)

	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, s.Pending())
}

func TestFakeScheduler_ChainedTimers(t *testing.T) {
	s := NewFakeScheduler()
	ticks := 0
	var tick func()
	tick = func() {
		ticks++
		s.AfterFunc(16*time.Millisecond, tick)
	}
	s.AfterFunc(16*time.Millisecond, tick)

	s.Advance(100 * time.Millisecond)

	assert.Equal(t, 6, ticks)
}

func TestFakeScheduler_Stop(t *testing.T) {
	s := NewFakeScheduler()
	fired := false
	timer := s.AfterFunc(time.Millisecond, func() { fired = true })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())
	s.Advance(time.Second)

	assert.False(t, fired)
	assert.Equal(t, 0, s.Pending())
}

func TestFakeScheduler_NowAdvances(t *testing.T) {
	s := NewFakeScheduler()
	start := s.Now()
	var seen time.Time
	s.AfterFunc(30*time.Millisecond, func() { seen = s.Now() })

	s.Advance(time.Second)

	assert.Equal(t, start.Add(30*time.Millisecond), seen)
	assert.Equal(t, start.Add(time.Second), s.Now())
}
