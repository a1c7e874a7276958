package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

// CatalogContractTest is a reusable test suite that verifies if an adapter complies with ports.Catalog.
// expected maps exercise IDs to their step IDs, in order.
func CatalogContractTest(t *testing.T, catalog ports.Catalog, expected map[string][]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Get_Success", func(t *testing.T) {
		for id, stepIDs := range expected {
			ex, err := catalog.Get(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error getting exercise %s: %v", id, err)
			}
			if ex.ID != id {
				t.Errorf("id mismatch: got %q, want %q", ex.ID, id)
			}
			if len(ex.Steps) != len(stepIDs) {
				t.Fatalf("exercise %s: got %d steps, want %d", id, len(ex.Steps), len(stepIDs))
			}
			for i, sid := range stepIDs {
				if ex.Steps[i].ID != sid {
					t.Errorf("exercise %s step %d: got %q, want %q", id, i, ex.Steps[i].ID, sid)
				}
			}
		}
	})

	t.Run("Get_NotFound", func(t *testing.T) {
		_, err := catalog.Get(ctx, "non-existent-exercise")
		if !errors.Is(err, domain.ErrExerciseNotFound) {
			t.Errorf("expected ErrExerciseNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		list, err := catalog.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing exercises: %v", err)
		}
		if len(list) != len(expected) {
			t.Errorf("expected %d exercises, got %d", len(expected), len(list))
		}
		for i := 1; i < len(list); i++ {
			if list[i-1].ID > list[i].ID {
				t.Errorf("list not ordered by id: %q before %q", list[i-1].ID, list[i].ID)
			}
		}
	})
}
