package domain

import "time"

// ExitReport is handed to the progress collaborator when a user leaves a
// session early. StepIndex is the last visited index.
type ExitReport struct {
	ProfileID  string    `json:"profile_id"`
	ExerciseID string    `json:"exercise_id"`
	StepIndex  int       `json:"step_index"`
	StepID     string    `json:"step_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// CompletionReport is handed to the progress collaborator when the last step
// is advanced past.
type CompletionReport struct {
	ProfileID  string    `json:"profile_id"`
	ExerciseID string    `json:"exercise_id"`
	Visited    []int     `json:"visited"`
	Timestamp  time.Time `json:"timestamp"`
}

// Progress marks an interrupted session that can be resumed.
type Progress struct {
	ExerciseID string    `json:"exercise_id"`
	StepIndex  int       `json:"step_index"`
	StepID     string    `json:"step_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Profile is the opaque user record persisted by the progress collaborator.
type Profile struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	LearningStyle      string    `json:"learning_style,omitempty"`
	Points             int       `json:"points"`
	Streak             int       `json:"streak"`
	Premium            bool      `json:"premium,omitempty"`
	Badges             []string  `json:"badges"`
	CompletedExercises []string  `json:"completed_exercises"`
	CurrentProgress    *Progress `json:"current_progress,omitempty"`

	// Sealed carries the encrypted record when the store encrypts at rest.
	// Every other field except ID is empty in that case.
	Sealed string `json:"sealed,omitempty"`
}

// NewProfile creates a fresh profile with a one-day streak.
func NewProfile(id, name string) *Profile {
	return &Profile{
		ID:                 id,
		Name:               name,
		Streak:             1,
		Badges:             []string{},
		CompletedExercises: []string{},
	}
}

// HasBadge reports whether the profile already earned the badge.
func (p *Profile) HasBadge(id string) bool {
	for _, b := range p.Badges {
		if b == id {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so stores can isolate callers from their data.
func (p *Profile) Clone() *Profile {
	c := *p
	c.Badges = append([]string(nil), p.Badges...)
	c.CompletedExercises = append([]string(nil), p.CompletedExercises...)
	if p.CurrentProgress != nil {
		cp := *p.CurrentProgress
		c.CurrentProgress = &cp
	}
	return &c
}
