package session

import "github.com/aretw0/cerebro/pkg/domain"

// View is a consistent-enough read of a session for renderers. Each
// component section is read under its own lock.
type View struct {
	SessionID  string               `json:"session_id"`
	ExerciseID string               `json:"exercise_id"`
	Title      string               `json:"title"`
	Status     domain.SessionStatus `json:"status"`
	Cursor     domain.Cursor        `json:"cursor"`
	Step       domain.Step          `json:"step"`
	StepCount  int                  `json:"step_count"`
	Progress   float64              `json:"progress"` // (index+1)/count
	CanAdvance bool                 `json:"can_advance"`

	Narration domain.NarrationState  `json:"narration"`
	Visual    domain.AssetEntry      `json:"visual"`
	Gesture   domain.GestureSnapshot `json:"gesture"`
}
