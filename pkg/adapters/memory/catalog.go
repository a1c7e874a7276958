package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/cerebro/pkg/domain"
)

// Catalog implements ports.Catalog over a fixed set of exercises.
type Catalog struct {
	exercises map[string]domain.Exercise
}

// NewCatalog validates and indexes the given exercises.
func NewCatalog(exercises ...domain.Exercise) (*Catalog, error) {
	c := &Catalog{exercises: make(map[string]domain.Exercise, len(exercises))}
	for _, ex := range exercises {
		if ex.ID == "" {
			return nil, fmt.Errorf("exercise missing ID")
		}
		if _, dup := c.exercises[ex.ID]; dup {
			return nil, fmt.Errorf("duplicate exercise %q", ex.ID)
		}
		if err := ex.Validate(); err != nil {
			return nil, fmt.Errorf("exercise %s: %w", ex.ID, err)
		}
		c.exercises[ex.ID] = copyExercise(ex)
	}
	return c, nil
}

// Get returns a copy of the exercise.
func (c *Catalog) Get(ctx context.Context, exerciseID string) (*domain.Exercise, error) {
	ex, ok := c.exercises[exerciseID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, exerciseID)
	}
	out := copyExercise(ex)
	return &out, nil
}

// List returns every exercise ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]domain.Exercise, error) {
	keys := make([]string, 0, len(c.exercises))
	for k := range c.exercises {
		keys = append(keys, k)
	}
	sort.Strings(keys) // Deterministic order

	out := make([]domain.Exercise, 0, len(keys))
	for _, k := range keys {
		out = append(out, copyExercise(c.exercises[k]))
	}
	return out, nil
}

func copyExercise(ex domain.Exercise) domain.Exercise {
	ex.Benefits = append([]string(nil), ex.Benefits...)
	ex.Steps = append([]domain.Step(nil), ex.Steps...)
	return ex
}
