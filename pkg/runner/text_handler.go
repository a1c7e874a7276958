package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/session"
)

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer

	mu        sync.Mutex // guards Writer
	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the content renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

// pump reads lines in the background so Input can honor cancellation.
func (h *TextHandler) pump() {
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err == io.EOF {
				close(h.inputChan)
				return
			}
			h.inputChan <- inputResult{err: err}
			// Backoff for non-fatal errors to prevent CPU spikes on persistent failure
			time.Sleep(50 * time.Millisecond)
		}
	}
}

func (h *TextHandler) printf(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.Writer, format, args...)
}

func (h *TextHandler) Output(ctx context.Context, view session.View) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s  [%d/%d]\n", view.Title, view.Cursor.StepIndex+1, view.StepCount)

	text := view.Step.NarrationText
	if h.Renderer != nil {
		if rendered, err := h.Renderer(text); err == nil {
			text = rendered
		}
	}
	fmt.Fprintln(&b, strings.TrimSpace(text))

	if view.Visual.Status == domain.AssetReady {
		fmt.Fprintf(&b, "(visual ready: %s)\n", view.Step.VisualPrompt)
	}
	switch view.Status {
	case domain.StatusNotStarted:
		fmt.Fprintln(&b, "Press Enter to begin.")
	case domain.StatusCompleted:
		fmt.Fprintln(&b, "Exercise complete.")
	case domain.StatusExited:
		fmt.Fprintln(&b, "Session ended. Progress saved.")
	}

	h.printf("%s", b.String())
	return nil
}

func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
		h.printf("> ")
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-h.inputChan:
		if !ok {
			return "", io.EOF
		}
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.text), nil
	}
}

// Signal prints one line per event, fields sorted by key.
func (h *TextHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s]", name)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, args[k])
	}
	h.printf("%s\n", b.String())
	return nil
}

func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	h.printf("\n[System] %s\n", msg)
	return nil
}
