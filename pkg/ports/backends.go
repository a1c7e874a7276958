package ports

import "context"

// SynthesisRequest asks the narration backend to voice some text.
type SynthesisRequest struct {
	Text    string
	VoiceID string
}

// SynthesisResult carries raw audio. The engine expects 16-bit little-endian
// mono PCM at its fixed sample rate unless MIMEType says otherwise.
type SynthesisResult struct {
	Audio    []byte
	MIMEType string
}

// Synthesizer is the narration-to-audio backend.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (SynthesisResult, error)
}

// IllustrationRequest asks the visual backend for an image.
type IllustrationRequest struct {
	Prompt string
}

// IllustrationResult points at a displayable image (URL or data URI).
type IllustrationResult struct {
	URI string
}

// Illustrator is the text-to-image backend.
type Illustrator interface {
	Illustrate(ctx context.Context, req IllustrationRequest) (IllustrationResult, error)
}

// QueryRequest asks the assistant a question about the current step.
// ImageURI is optional and set when the user asks about the visual.
type QueryRequest struct {
	Question     string
	ContextText  string
	SystemPrompt string
	ImageURI     string
}

// QueryResult is the assistant's reply, fed back into narration.
type QueryResult struct {
	AnswerText string
}

// Answerer is the prompt-to-text backend.
type Answerer interface {
	Answer(ctx context.Context, req QueryRequest) (QueryResult, error)
}
