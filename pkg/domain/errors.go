package domain

import "errors"

// Pipeline failures. These never interrupt a session: the engine degrades to
// the next-best presentation and logs them.
var (
	// ErrSynthesisFailure is logged when narration audio could not be produced.
	ErrSynthesisFailure = errors.New("synthesis failure")
	// ErrGenerationFailure is logged when a step visual could not be produced.
	ErrGenerationFailure = errors.New("generation failure")
	// ErrQueryFailure is logged when the assistant could not answer a question.
	ErrQueryFailure = errors.New("query failure")
)

// Session lifecycle errors.
var (
	ErrNotStarted     = errors.New("session not started")
	ErrAlreadyStarted = errors.New("session already started")
	ErrNotActive      = errors.New("session not active")
	ErrInvalidStep    = errors.New("step index out of range")
	ErrEmptyQuestion  = errors.New("question is empty")
	ErrNoVisual       = errors.New("current step has no ready visual")
)

// Content errors.
var (
	ErrEmptySession     = errors.New("exercise has no steps")
	ErrDuplicateStep    = errors.New("duplicate step id")
	ErrExerciseNotFound = errors.New("exercise not found")
)

// ErrProfileNotFound is returned when a profile ID cannot be found in the store.
var ErrProfileNotFound = errors.New("profile not found")

// ErrSessionNotFound is returned when a session ID is not (or no longer) active.
var ErrSessionNotFound = errors.New("session not found")
