package tui

import (
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"
)

const defaultWidth = 80

type rendererConfig struct {
	width int
	style string
}

// RendererOption configures NewRenderer.
type RendererOption func(*rendererConfig)

// WithWidth wraps narration at n columns. Zero means the terminal width.
func WithWidth(n int) RendererOption {
	return func(c *rendererConfig) { c.width = n }
}

// WithStyle selects a fixed glamour style ("dark", "light", "notty")
// instead of detecting the background.
func WithStyle(name string) RendererOption {
	return func(c *rendererConfig) { c.style = name }
}

// NewRenderer returns a function that renders step narration, which may use
// markdown emphasis, for the terminal. It degrades to the trimmed raw text
// when glamour cannot be initialized or fails on a given input.
func NewRenderer(opts ...RendererOption) func(string) (string, error) {
	var cfg rendererConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.width <= 0 {
		cfg.width = terminalWidth()
	}

	style := glamour.WithAutoStyle()
	if cfg.style != "" {
		style = glamour.WithStandardStyle(cfg.style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(cfg.width))
	if err != nil {
		return plain
	}
	return func(narration string) (string, error) {
		out, err := r.Render(narration)
		if err != nil {
			return plain(narration)
		}
		return strings.TrimRight(out, "\n"), nil
	}
}

func plain(narration string) (string, error) {
	return strings.TrimSpace(narration), nil
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultWidth
	}
	if w > 120 {
		return 120
	}
	return w
}
