package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cerebro/internal/testutils"
	"github.com/aretw0/cerebro/pkg/adapters/memory"
	"github.com/aretw0/cerebro/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeaker_RequiresResume(t *testing.T) {
	s := memory.NewSpeaker(testutils.NewFakeScheduler())

	_, err := s.Play(ports.AudioBuffer{SampleRate: 24000, Channels: 1}, nil)
	assert.ErrorIs(t, err, memory.ErrNotResumed)
}

func TestSpeaker_EndsAfterDuration(t *testing.T) {
	sched := testutils.NewFakeScheduler()
	s := memory.NewSpeaker(sched)
	require.NoError(t, s.Resume(context.Background()))

	ended := false
	buf := ports.AudioBuffer{SampleRate: 10, Channels: 1, Samples: make([]float32, 10)}
	_, err := s.Play(buf, func() { ended = true })
	require.NoError(t, err)

	sched.Advance(999 * time.Millisecond)
	assert.False(t, ended)
	sched.Advance(time.Millisecond)
	assert.True(t, ended)
	assert.Equal(t, 1, s.Played())
}

func TestSpeaker_StopSuppressesEnd(t *testing.T) {
	sched := testutils.NewFakeScheduler()
	s := memory.NewSpeaker(sched)
	require.NoError(t, s.Resume(context.Background()))

	ended := false
	pb, err := s.Play(ports.AudioBuffer{SampleRate: 10, Channels: 1, Samples: make([]float32, 10)}, func() { ended = true })
	require.NoError(t, err)

	pb.Stop()
	sched.Advance(time.Minute)
	assert.False(t, ended)
}
