package narration

import (
	"encoding/binary"
	"mime"
	"strconv"

	"github.com/aretw0/cerebro/pkg/ports"
)

// SampleRate is the rate the synthesis backend speaks at unless its MIME type
// says otherwise.
const SampleRate = 24000

// DecodePCM16 converts 16-bit little-endian interleaved PCM into a float
// buffer. A trailing odd byte is ignored.
func DecodePCM16(data []byte, sampleRate, channels int) ports.AudioBuffer {
	n := len(data) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(binary.LittleEndian.Uint16(data[i*2:]))
		samples[i] = float32(v) / 32768.0
	}
	return ports.AudioBuffer{SampleRate: sampleRate, Channels: channels, Samples: samples}
}

// rateFromMIME reads the rate parameter of an audio/L16 style MIME type,
// e.g. "audio/L16;codec=pcm;rate=24000".
func rateFromMIME(mimeType string) int {
	if mimeType == "" {
		return SampleRate
	}
	_, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return SampleRate
	}
	rate, err := strconv.Atoi(params["rate"])
	if err != nil || rate <= 0 {
		return SampleRate
	}
	return rate
}
