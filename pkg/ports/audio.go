package ports

import (
	"context"
	"time"
)

// AudioBuffer is decoded, playable audio. Samples are interleaved and
// normalized to [-1, 1).
type AudioBuffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames in the buffer.
func (b AudioBuffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer.
func (b AudioBuffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Playback is a handle on one sounding buffer.
type Playback interface {
	// Stop halts the buffer. The end callback is not invoked for stopped playbacks.
	Stop()
}

// AudioOutput is the single audio context shared by every narration request.
// It must be resumed once, from a user-initiated action, before first use.
// onEnded may fire from any goroutine, including from inside Play.
type AudioOutput interface {
	Resume(ctx context.Context) error
	Play(buf AudioBuffer, onEnded func()) (Playback, error)
}
