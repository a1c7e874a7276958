package domain

// SessionStatus is the lifecycle state of a session controller.
type SessionStatus string

const (
	StatusNotStarted SessionStatus = "not_started" // Waiting for the user to grant playback
	StatusActive     SessionStatus = "active"      // Steps are being presented
	StatusCompleted  SessionStatus = "completed"   // Terminal: last step was advanced past
	StatusExited     SessionStatus = "exited"      // Terminal: user left early
)

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusExited
}

// Cursor is the position of a session within its exercise.
type Cursor struct {
	StepIndex  int  `json:"step_index"`
	HasStarted bool `json:"has_started"`
}
