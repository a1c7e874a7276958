package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxInputSize bounds a typed command or question, in bytes.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize overrides DefaultMaxInputSize for SanitizeInput.
	EnvMaxInputSize = "CEREBRO_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans a typed line or question. The size limit is read from
// EnvMaxInputSize on every call.
func SanitizeInput(input string) (string, error) {
	return sanitize(input, limitFromEnv())
}

// NewSanitizer returns a SanitizeInput variant with a fixed size limit.
// A non-positive limit falls back to DefaultMaxInputSize.
func NewSanitizer(limit int) func(string) (string, error) {
	if limit <= 0 {
		limit = DefaultMaxInputSize
	}
	return func(input string) (string, error) {
		return sanitize(input, limit)
	}
}

// sanitize rejects oversized or malformed input, then flattens it to a single
// trimmed line: line breaks and tabs become spaces, other control characters
// (ESC, NUL, BEL) are dropped so nothing reaches the terminal, the logs or
// the answerer prompt.
func sanitize(input string, limit int) (string, error) {
	if len(input) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}
	return strings.TrimSpace(strings.Map(flatten, input)), nil
}

func flatten(r rune) rune {
	switch {
	case r == '\n', r == '\r', r == '\t':
		return ' '
	case unicode.IsControl(r):
		return -1
	default:
		return r
	}
}

func limitFromEnv() int {
	if size, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && size > 0 {
		return size
	}
	return DefaultMaxInputSize
}
