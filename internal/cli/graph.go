package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/cerebro/internal/config"
	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/internal/presentation/graph"
	"github.com/aretw0/cerebro/pkg/adapters/loam"
	"github.com/aretw0/cerebro/pkg/domain"
)

// Graph writes the Mermaid chart of an exercise to w. With a profile, the
// saved position is highlighted. No backend key is needed.
func Graph(ctx context.Context, cfg *config.Config, exerciseID, profileID string, w io.Writer) error {
	catalog, err := loam.Open(cfg.ContentDir, loam.WithLogger(logging.NewNop()))
	if err != nil {
		return fmt.Errorf("error opening catalog: %w", err)
	}
	ex, err := catalog.Get(ctx, exerciseID)
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if profileID != "" {
		c := &Components{}
		defer func() { _ = c.Close() }()
		store, _, err := c.profileStore(ctx, cfg)
		if err != nil {
			return err
		}
		profile, err := store.Load(ctx, profileID)
		switch {
		case errors.Is(err, domain.ErrProfileNotFound):
		case err != nil:
			return err
		default:
			overlay = graph.OverlayFor(*ex, profile.CurrentProgress)
		}
	}

	_, err = io.WriteString(w, graph.GenerateMermaid(*ex, overlay))
	return err
}
