package narration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodePCM16(t *testing.T) {
	// 0x4000 = 16384, 0xC000 = -16384, trailing odd byte dropped.
	buf := DecodePCM16([]byte{0x00, 0x40, 0x00, 0xC0, 0x7F}, SampleRate, 1)

	assert.Equal(t, []float32{0.5, -0.5}, buf.Samples)
	assert.Equal(t, 2, buf.Frames())
}

func TestDecodePCM16_Duration(t *testing.T) {
	buf := DecodePCM16(make([]byte, SampleRate*2), SampleRate, 1)
	assert.Equal(t, time.Second, buf.Duration())
}

func TestRateFromMIME(t *testing.T) {
	assert.Equal(t, 16000, rateFromMIME("audio/L16;codec=pcm;rate=16000"))
	assert.Equal(t, SampleRate, rateFromMIME(""))
	assert.Equal(t, SampleRate, rateFromMIME("audio/L16"))
	assert.Equal(t, SampleRate, rateFromMIME("not a mime;;"))
}
