package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{`   ____                _               `, "#818cf8"},
	{`  / ___|___ _ __ ___  | |__  _ __ ___  `, "#a78bfa"},
	{` | |   / _ \ '__/ _ \ | '_ \| '__/ _ \ `, "#c084fc"},
	{` | |__|  __/ | |  __/ | |_) | | | (_) |`, "#e879f9"},
	{`  \____\___|_|  \___| |_.__/|_|  \___/ `, "#f472b6"},
}

// PrintBanner writes the Cerebro banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, out.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  guided sessions  v"+strings.TrimSpace(version)).Faint())
	fmt.Fprintln(w)
}
