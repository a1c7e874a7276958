package domain

import "time"

// PlaybackRequest is one narration attempt. Only the most recently issued
// request may mutate playback state.
type PlaybackRequest struct {
	ID       uint64    `json:"id"`
	Text     string    `json:"text"`
	IssuedAt time.Time `json:"issued_at"`
}

// NarrationState is a read-only copy of the narration pipeline flags.
type NarrationState struct {
	ActiveRequest uint64 `json:"active_request"`
	Loading       bool   `json:"loading"`
	Playing       bool   `json:"playing"`
}

// AssetStatus is the lifecycle of a generated visual.
type AssetStatus string

const (
	AssetAbsent  AssetStatus = "absent"
	AssetLoading AssetStatus = "loading"
	AssetReady   AssetStatus = "ready"
	AssetFailed  AssetStatus = "failed"
)

// AssetEntry is the cache record for one step.
type AssetEntry struct {
	StepID string      `json:"step_id"`
	Status AssetStatus `json:"status"`
	URI    string      `json:"uri,omitempty"`
}
