package loam

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/loam"
)

// Catalog adapts a Loam repository to the ports.Catalog interface.
// Each document is one exercise; its body is used as the description
// when the frontmatter has none.
type Catalog struct {
	Repo   *loam.TypedRepository[ExerciseMetadata]
	logger *slog.Logger
}

// Option configures the Catalog.
type Option func(*Catalog)

// WithLogger sets the logger used to report skipped documents.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

// New creates a new Loam catalog.
func New(repo *loam.TypedRepository[ExerciseMetadata], opts ...Option) *Catalog {
	c := &Catalog{
		Repo:   repo,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open initializes a read-only Loam repository at dir and wraps it in a Catalog.
func Open(dir string, opts ...Option) (*Catalog, error) {
	repo, err := loam.Init(dir,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open content repository %s: %w", dir, err)
	}
	return New(loam.NewTypedRepository[ExerciseMetadata](repo), opts...), nil
}

// Get loads and validates one exercise.
func (c *Catalog) Get(ctx context.Context, exerciseID string) (*domain.Exercise, error) {
	doc, err := c.Repo.Get(ctx, exerciseID)
	if err != nil {
		// Loam identifies documents by file name; an explicit frontmatter id
		// can differ from it, so fall back to a scan.
		ex, ok, listErr := c.find(ctx, exerciseID)
		if listErr != nil {
			return nil, listErr
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrExerciseNotFound, exerciseID)
		}
		return ex, nil
	}

	ex := toExercise(doc.ID, doc.Data, doc.Content)
	if err := ex.Validate(); err != nil {
		return nil, err
	}
	return ex, nil
}

func (c *Catalog) find(ctx context.Context, exerciseID string) (*domain.Exercise, bool, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range list {
		if list[i].ID == exerciseID {
			return &list[i], true, nil
		}
	}
	return nil, false, nil
}

// List returns every valid exercise in the repository, ordered by ID.
// Invalid documents are skipped and logged; duplicate IDs are an error.
func (c *Catalog) List(ctx context.Context) ([]domain.Exercise, error) {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]domain.Exercise, 0, len(docs))
	for _, doc := range docs {
		ex := toExercise(doc.ID, doc.Data, doc.Content)

		if existingPath, ok := seen[ex.ID]; ok {
			return nil, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", ex.ID, existingPath, doc.ID)
		}
		seen[ex.ID] = doc.ID

		if err := ex.Validate(); err != nil {
			c.logger.Warn("skipping invalid exercise", "exercise_id", ex.ID, "err", err)
			continue
		}
		out = append(out, *ex)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Validate checks every document and returns all problems joined, where List
// would skip them.
func (c *Catalog) Validate(ctx context.Context) error {
	docs, err := c.Repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loam list failed: %w", err)
	}

	var errs []error
	seen := make(map[string]string)
	for _, doc := range docs {
		ex := toExercise(doc.ID, doc.Data, doc.Content)
		if existingPath, ok := seen[ex.ID]; ok {
			errs = append(errs, fmt.Errorf("collision detected: ID '%s' is defined in both '%s' and '%s'", ex.ID, existingPath, doc.ID))
			continue
		}
		seen[ex.ID] = doc.ID
		if err := ex.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", doc.ID, err))
		}
	}
	return errors.Join(errs...)
}

func toExercise(docID string, meta ExerciseMetadata, content string) *domain.Exercise {
	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}

	ex := &domain.Exercise{
		ID:          trimExtension(rawID),
		Title:       meta.Title,
		Domain:      meta.Domain,
		Tier:        meta.Tier,
		Duration:    meta.Duration,
		Description: meta.Description,
		Benefits:    meta.Benefits,
		Steps:       make([]domain.Step, 0, len(meta.Steps)),
	}
	if ex.Description == "" {
		ex.Description = strings.TrimSpace(content)
	}

	for i, sm := range meta.Steps {
		step := domain.Step{
			ID:                  sm.ID,
			NarrationText:       sm.NarrationText,
			VisualPrompt:        sm.VisualPrompt,
			RequiresInteraction: sm.RequiresInteraction,
		}
		if step.ID == "" {
			step.ID = fmt.Sprintf("s%d", i+1)
		}
		if step.NarrationText == "" {
			step.NarrationText = sm.Text
		}
		if step.VisualPrompt == "" {
			step.VisualPrompt = sm.Visual
		}
		ex.Steps = append(ex.Steps, step)
	}
	return ex
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
