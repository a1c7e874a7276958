// Package gemini implements the narration, illustration and assistant
// backends on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const (
	DefaultTextModel   = "gemini-3-flash-preview"
	DefaultImageModel  = "gemini-2.5-flash-image"
	DefaultSpeechModel = "gemini-2.5-flash-preview-tts"
	DefaultVoice       = "Fenrir"

	// DefaultTemperature is used for assistant answers.
	DefaultTemperature float32 = 1.2

	tracerName = "github.com/aretw0/cerebro/pkg/adapters/gemini"
)

var (
	_ ports.Synthesizer = (*Client)(nil)
	_ ports.Illustrator = (*Client)(nil)
	_ ports.Answerer    = (*Client)(nil)
)

var (
	ErrNoCandidates = errors.New("no candidates returned")
	ErrNoAudio      = errors.New("no audio data returned")
	ErrNoImage      = errors.New("no image data returned")
	ErrBadImageURI  = errors.New("unsupported image uri")
)

// Generator is the subset of *genai.Models the client needs.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Client implements ports.Synthesizer, ports.Illustrator and ports.Answerer.
type Client struct {
	models Generator
	logger *slog.Logger
	tracer trace.Tracer

	textModel   string
	imageModel  string
	speechModel string
	temperature float32
}

// Option configures the Client.
type Option func(*Client)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

func WithTextModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.textModel = model
		}
	}
}

func WithImageModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.imageModel = model
		}
	}
}

func WithSpeechModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.speechModel = model
		}
	}
}

func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = t }
}

// WithTracerProvider overrides the global otel tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tracer = tp.Tracer(tracerName) }
}

// New creates a Client backed by the Gemini API.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}
	return NewWithGenerator(gc.Models, opts...), nil
}

// NewWithGenerator creates a Client over any Generator.
func NewWithGenerator(models Generator, opts ...Option) *Client {
	c := &Client{
		models:      models,
		logger:      logging.NewNop(),
		tracer:      otel.Tracer(tracerName),
		textModel:   DefaultTextModel,
		imageModel:  DefaultImageModel,
		speechModel: DefaultSpeechModel,
		temperature: DefaultTemperature,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize voices text as 16-bit mono PCM.
func (c *Client) Synthesize(ctx context.Context, req ports.SynthesisRequest) (res ports.SynthesisResult, err error) {
	voice := req.VoiceID
	if voice == "" {
		voice = DefaultVoice
	}

	ctx, span := c.start(ctx, "gemini.Synthesize", c.speechModel, attribute.String("voice", voice))
	defer func() { end(span, err) }()

	resp, err := c.models.GenerateContent(ctx, c.speechModel,
		[]*genai.Content{{Parts: []*genai.Part{genai.NewPartFromText(req.Text)}}},
		&genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityAudio)},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		})
	if err != nil {
		return res, fmt.Errorf("gemini synthesize: %w", err)
	}

	blob, err := firstInline(resp)
	if err != nil {
		return res, err
	}
	if blob == nil || len(blob.Data) == 0 {
		return res, ErrNoAudio
	}
	span.SetAttributes(attribute.Int("audio.bytes", len(blob.Data)))
	return ports.SynthesisResult{Audio: blob.Data, MIMEType: blob.MIMEType}, nil
}

// Illustrate generates an image and returns it as a base64 data URI.
func (c *Client) Illustrate(ctx context.Context, req ports.IllustrationRequest) (res ports.IllustrationResult, err error) {
	ctx, span := c.start(ctx, "gemini.Illustrate", c.imageModel)
	defer func() { end(span, err) }()

	resp, err := c.models.GenerateContent(ctx, c.imageModel,
		[]*genai.Content{{Parts: []*genai.Part{genai.NewPartFromText(req.Prompt)}}},
		nil)
	if err != nil {
		return res, fmt.Errorf("gemini illustrate: %w", err)
	}

	blob, err := firstInline(resp)
	if err != nil {
		return res, err
	}
	if blob == nil || len(blob.Data) == 0 {
		return res, ErrNoImage
	}
	mime := blob.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return ports.IllustrationResult{URI: EncodeDataURI(mime, blob.Data)}, nil
}

// Answer replies to a question, optionally about an image.
func (c *Client) Answer(ctx context.Context, req ports.QueryRequest) (res ports.QueryResult, err error) {
	ctx, span := c.start(ctx, "gemini.Answer", c.textModel, attribute.Bool("with_image", req.ImageURI != ""))
	defer func() { end(span, err) }()

	parts := []*genai.Part{genai.NewPartFromText(req.Question)}
	if req.ImageURI != "" {
		mime, data, err := DecodeDataURI(req.ImageURI)
		if err != nil {
			return res, err
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(c.temperature)}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.SystemPrompt)}}
	}

	resp, err := c.models.GenerateContent(ctx, c.textModel,
		[]*genai.Content{{Role: genai.RoleUser, Parts: parts}}, cfg)
	if err != nil {
		return res, fmt.Errorf("gemini answer: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return res, ErrNoCandidates
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" && !p.Thought {
			sb.WriteString(p.Text)
		}
	}
	return ports.QueryResult{AnswerText: strings.TrimSpace(sb.String())}, nil
}

func (c *Client) start(ctx context.Context, name, model string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String("gen_ai.request.model", model))
	return c.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func firstInline(resp *genai.GenerateContentResponse) (*genai.Blob, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoCandidates
	}
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData != nil {
			return p.InlineData, nil
		}
	}
	return nil, nil
}

// EncodeDataURI renders data as a base64 data URI.
func EncodeDataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI parses a base64 data URI.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: %.32q", ErrBadImageURI, uri)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrBadImageURI)
	}
	mime, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: not base64", ErrBadImageURI)
	}
	if mime == "" {
		mime = "image/png"
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", ErrBadImageURI, err)
	}
	return mime, data, nil
}
