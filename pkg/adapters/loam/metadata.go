package loam

// ExerciseMetadata represents the header of an exercise document.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type ExerciseMetadata struct {
	ID          string   `json:"id" mapstructure:"id"`
	Title       string   `json:"title" mapstructure:"title"`
	Domain      string   `json:"domain" mapstructure:"domain"`
	Tier        string   `json:"tier" mapstructure:"tier"`
	Duration    int      `json:"duration" mapstructure:"duration"`
	Description string   `json:"description" mapstructure:"description"`
	Benefits    []string `json:"benefits" mapstructure:"benefits"`

	Steps []StepMetadata `json:"steps" mapstructure:"steps"`
}

type StepMetadata struct {
	ID string `json:"id" mapstructure:"id"`
	// Text is shorthand for narration_text.
	Text          string `json:"text" mapstructure:"text"`
	NarrationText string `json:"narration_text" mapstructure:"narration_text"`
	// Visual is shorthand for visual_prompt.
	Visual              string `json:"visual" mapstructure:"visual"`
	VisualPrompt        string `json:"visual_prompt" mapstructure:"visual_prompt"`
	RequiresInteraction bool   `json:"requires_interaction" mapstructure:"requires_interaction"`
}
