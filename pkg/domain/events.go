package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter  EventType = "step_enter"
	EventStepLeave  EventType = "step_leave"
	EventNarration  EventType = "narration"
	EventAsset      EventType = "asset"
	EventGesture    EventType = "gesture"
	EventSessionEnd EventType = "session_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry into or exit from a step.
type StepEvent struct {
	EventBase
	ExerciseID string `json:"exercise_id"`
	StepID     string `json:"step_id"`
	StepIndex  int    `json:"step_index"`
}

// NarrationOutcome is how a narration request resolved.
type NarrationOutcome string

const (
	NarrationPlayed   NarrationOutcome = "played"
	NarrationFinished NarrationOutcome = "finished"
	NarrationStale    NarrationOutcome = "stale"
	NarrationFailed   NarrationOutcome = "failed"
)

// NarrationEvent reports the resolution of a playback request.
type NarrationEvent struct {
	EventBase
	RequestID uint64           `json:"request_id"`
	Outcome   NarrationOutcome `json:"outcome"`
	Err       error            `json:"-"`
}

// AssetOutcome is how an asset request progressed.
type AssetOutcome string

const (
	AssetRequested AssetOutcome = "requested"
	AssetDebounced AssetOutcome = "debounced" // canceled before it fired
	AssetGenerated AssetOutcome = "generated"
	AssetErrored   AssetOutcome = "errored"
)

// AssetEvent reports asset cache activity for one step.
type AssetEvent struct {
	EventBase
	StepID  string       `json:"step_id"`
	Outcome AssetOutcome `json:"outcome"`
	Err     error        `json:"-"`
}

// GestureEvent reports an intent produced by the gesture state machine.
type GestureEvent struct {
	EventBase
	Intent Intent      `json:"intent"`
	Mode   GestureMode `json:"mode"`
}

// SessionEvent reports the terminal transition of a session.
type SessionEvent struct {
	EventBase
	ExerciseID string        `json:"exercise_id"`
	Status     SessionStatus `json:"status"`
	StepIndex  int           `json:"step_index"`
}

// LifecycleHooks defines callbacks for engine observability and host side effects.
// Every field is optional.
type LifecycleHooks struct {
	OnStepEnter  func(context.Context, *StepEvent)
	OnStepLeave  func(context.Context, *StepEvent)
	OnNarration  func(context.Context, *NarrationEvent)
	OnAsset      func(context.Context, *AssetEvent)
	OnGesture    func(context.Context, *GestureEvent)
	OnHaptic     func(context.Context, HapticPattern)
	OnSessionEnd func(context.Context, *SessionEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:  chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:  chain(h.OnStepLeave, other.OnStepLeave),
		OnNarration:  chain(h.OnNarration, other.OnNarration),
		OnAsset:      chain(h.OnAsset, other.OnAsset),
		OnGesture:    chain(h.OnGesture, other.OnGesture),
		OnHaptic:     chain(h.OnHaptic, other.OnHaptic),
		OnSessionEnd: chain(h.OnSessionEnd, other.OnSessionEnd),
	}
}

func chain[T any](a, b func(context.Context, T)) func(context.Context, T) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, v T) {
		a(ctx, v)
		b(ctx, v)
	}
}
