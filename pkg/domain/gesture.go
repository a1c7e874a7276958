package domain

import (
	"math"
	"slices"
	"time"
)

// GestureMode is the active phase of the pointer state machine.
type GestureMode string

const (
	ModeIdle       GestureMode = "idle"
	ModeHolding    GestureMode = "holding"
	ModeNavigating GestureMode = "navigating"
	ModeDragging   GestureMode = "dragging"
)

// Point is a pointer position in viewport pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Len returns the euclidean length of p seen as a vector.
func (p Point) Len() float64 {
	return math.Hypot(p.X, p.Y)
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width" mapstructure:"width"`
	Height float64 `json:"height" mapstructure:"height"`
}

// GestureSnapshot is a read-only copy of the gesture state for renderers.
type GestureSnapshot struct {
	Mode         GestureMode `json:"mode"`
	HoldStart    time.Time   `json:"hold_start,omitzero"`
	HoldProgress float64     `json:"hold_progress"` // 0..100
	Anchor       Point       `json:"anchor"`
	Live         Point       `json:"live"`
	SwipeOffset  float64     `json:"swipe_offset"`

	// Position is the top-left corner of the floating control.
	Position      Point `json:"position"`
	AssistantOpen bool  `json:"assistant_open"`

	// Directional affordances shown while navigating.
	BackAffordance    bool `json:"back_affordance"`
	ForwardAffordance bool `json:"forward_affordance"`
}

// Intent is a high-level result emitted by the gesture state machine.
type Intent string

const (
	IntentNavigateForward  Intent = "navigate_forward"
	IntentNavigateBackward Intent = "navigate_backward"
	IntentHoldComplete     Intent = "hold_complete"
	IntentAssistantToggled Intent = "assistant_toggled"
)

// HapticPattern describes a vibration side effect in milliseconds
// (on, off, on, ...).
type HapticPattern []int

var (
	// HapticLight accompanies a step change.
	HapticLight = HapticPattern{50}
	// HapticDoublePulse marks the hold-gate unlocking navigation.
	HapticDoublePulse = HapticPattern{30, 50, 30}
)

// Name returns a short label for known patterns.
func (p HapticPattern) Name() string {
	switch {
	case slices.Equal(p, HapticLight):
		return "light"
	case slices.Equal(p, HapticDoublePulse):
		return "double_pulse"
	}
	return "custom"
}
