package ports

import (
	"context"

	"github.com/aretw0/cerebro/pkg/domain"
)

// ProfileStore defines the interface for persisting user profiles.
// This is what makes "Stop & Resume" possible across processes.
type ProfileStore interface {
	// Save persists the profile under its ID.
	Save(ctx context.Context, profile *domain.Profile) error

	// Load retrieves the profile for a given ID.
	// Returns domain.ErrProfileNotFound if the profile does not exist.
	Load(ctx context.Context, profileID string) (*domain.Profile, error)

	// Delete removes the profile for a given ID.
	Delete(ctx context.Context, profileID string) error

	// List returns the IDs of stored profiles.
	List(ctx context.Context) ([]string, error)
}

// ProgressReporter is the progress collaborator. The engine is indifferent to
// how or where reports are persisted.
type ProgressReporter interface {
	Exited(ctx context.Context, report domain.ExitReport) error
	Completed(ctx context.Context, report domain.CompletionReport) error
}
