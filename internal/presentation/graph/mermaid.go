// Package graph renders exercises as Mermaid flowcharts.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/cerebro/pkg/domain"
)

// Overlay marks progress on the chart.
type Overlay struct {
	// CurrentIndex is the step the learner is on; -1 highlights nothing.
	CurrentIndex int
}

// OverlayFor builds an overlay from saved progress. It returns nil when the
// progress belongs to another exercise or is out of range.
func OverlayFor(ex domain.Exercise, p *domain.Progress) *Overlay {
	if p == nil || p.ExerciseID != ex.ID || p.StepIndex < 0 || p.StepIndex >= len(ex.Steps) {
		return nil
	}
	return &Overlay{CurrentIndex: p.StepIndex}
}

// GenerateMermaid produces a Mermaid flowchart of the exercise steps.
// Shapes:
// - First step: ((Circle))
// - Step with a visual: [[Subroutine]]
// - Step that waits for the learner: [/Parallelogram/]
// - Default: [Rectangle]
func GenerateMermaid(ex domain.Exercise, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	ids := make([]string, len(ex.Steps))
	for i, step := range ex.Steps {
		ids[i] = fmt.Sprintf("s%d_%s", i, sanitizeMermaidID(step.ID))

		opener, closer := "[", "]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case step.HasVisual():
			opener, closer = "[[", "]]"
		case step.RequiresInteraction:
			opener, closer = "[/", "/]"
		}
		label := escapeLabel(step.ID)
		if step.HasVisual() {
			label += " <br/> 🖼️"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", ids[i], opener, label, closer)
	}

	for i := 0; i+1 < len(ids); i++ {
		arrow := "-->"
		if ex.Steps[i].RequiresInteraction {
			arrow = "-- \"hold\" -->"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", ids[i], arrow, ids[i+1])
	}

	if overlay != nil && overlay.CurrentIndex >= 0 && overlay.CurrentIndex < len(ids) {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Black text stays readable on both light and dark themes.
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		for i := 0; i < overlay.CurrentIndex; i++ {
			fmt.Fprintf(&sb, "    class %s visited;\n", ids[i])
		}
		fmt.Fprintf(&sb, "    class %s current;\n", ids[overlay.CurrentIndex])
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	return strings.NewReplacer(".", "_", "-", "_", "/", "_", "\\", "_", " ", "_", "\"", "_").Replace(id)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
