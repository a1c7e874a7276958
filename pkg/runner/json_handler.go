package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/cerebro/pkg/session"
)

// Message is one line of JSON output.
type Message struct {
	Type    string         `json:"type"` // view, system, or an event name
	View    *session.View  `json:"view,omitempty"`
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// CommandMessage is the structured form of an input line.
type CommandMessage struct {
	Command string `json:"command"`
	Arg     string `json:"arg,omitempty"`
}

// JSONHandler implements the IOHandler interface for structured JSON-Lines communication.
type JSONHandler struct {
	Reader  *bufio.Reader
	Encoder *json.Encoder

	mu sync.Mutex // guards Encoder
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader:  bufio.NewReader(r),
		Encoder: json.NewEncoder(w),
	}
}

func (h *JSONHandler) emit(m Message) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.Encoder.Encode(m)
}

func (h *JSONHandler) Output(ctx context.Context, view session.View) error {
	return h.emit(Message{Type: "view", View: &view})
}

// Input accepts a command object, a JSON string, or a raw text line.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || text == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var cmd CommandMessage
	if err := json.Unmarshal([]byte(text), &cmd); err == nil && cmd.Command != "" {
		return strings.TrimSpace(cmd.Command + " " + cmd.Arg), nil
	}
	var val string
	if err := json.Unmarshal([]byte(text), &val); err == nil {
		return val, nil
	}
	return text, nil
}

func (h *JSONHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	return h.emit(Message{Type: name, Data: args})
}

func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(Message{Type: "system", Message: msg})
}
