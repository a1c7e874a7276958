package ports

import (
	"context"

	"github.com/aretw0/cerebro/pkg/domain"
)

// Catalog supplies exercise content. The engine never writes to it.
type Catalog interface {
	// Get returns the exercise with the given ID.
	// Returns domain.ErrExerciseNotFound if it does not exist.
	Get(ctx context.Context, exerciseID string) (*domain.Exercise, error)

	// List returns every exercise, ordered by ID.
	List(ctx context.Context) ([]domain.Exercise, error)
}
