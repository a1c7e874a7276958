package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_IncludesVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.4.0\n")

	out := buf.String()
	assert.Contains(t, out, "guided sessions  v1.4.0")
	assert.Equal(t, len(bannerLines)+3, strings.Count(out, "\n"))
}

func TestNewRenderer_RendersMarkdown(t *testing.T) {
	render := NewRenderer()

	out, err := render("Picture your **front door**.")
	require.NoError(t, err)
	assert.Contains(t, out, "front door")
}

func TestNewRenderer_FixedStyleWraps(t *testing.T) {
	render := NewRenderer(WithStyle("notty"), WithWidth(20))

	out, err := render("Walk slowly down the long hall and notice every door you pass.")
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, len(strings.TrimRight(line, " ")), 20)
	}
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestPlain_Trims(t *testing.T) {
	out, err := plain("  hello \n")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}
