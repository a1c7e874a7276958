package domain

import "fmt"

// Step is one narrated, optionally illustrated unit of content.
// Steps are supplied by the catalog and never mutated by the engine.
type Step struct {
	ID                  string `json:"id" yaml:"id"`
	NarrationText       string `json:"narration_text" yaml:"narration_text"`
	VisualPrompt        string `json:"visual_prompt,omitempty" yaml:"visual_prompt,omitempty"`
	RequiresInteraction bool   `json:"requires_interaction,omitempty" yaml:"requires_interaction,omitempty"`
}

// HasVisual reports whether the step asks for a generated visual.
func (s Step) HasVisual() bool {
	return s.VisualPrompt != ""
}

// Exercise is the content of a session: an ordered, non-empty list of Steps
// plus the human-edited metadata shown around it.
type Exercise struct {
	ID          string   `json:"id" yaml:"id"`
	Title       string   `json:"title" yaml:"title"`
	Domain      string   `json:"domain,omitempty" yaml:"domain,omitempty"`
	Tier        string   `json:"tier,omitempty" yaml:"tier,omitempty"`
	Duration    int      `json:"duration,omitempty" yaml:"duration,omitempty"` // minutes
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Benefits    []string `json:"benefits,omitempty" yaml:"benefits,omitempty"`
	Steps       []Step   `json:"steps" yaml:"steps"`
}

// Validate checks the structural invariants the engine relies on.
func (e *Exercise) Validate() error {
	if len(e.Steps) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptySession, e.ID)
	}
	seen := make(map[string]struct{}, len(e.Steps))
	for i, s := range e.Steps {
		if s.ID == "" {
			return fmt.Errorf("exercise %s: step %d has no id", e.ID, i)
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: %s in exercise %s", ErrDuplicateStep, s.ID, e.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// LastIndex returns the index of the final step.
func (e *Exercise) LastIndex() int {
	return len(e.Steps) - 1
}

// Step returns the step at index i.
func (e *Exercise) Step(i int) (Step, error) {
	if i < 0 || i >= len(e.Steps) {
		return Step{}, fmt.Errorf("%w: %d (steps: %d)", ErrInvalidStep, i, len(e.Steps))
	}
	return e.Steps[i], nil
}
