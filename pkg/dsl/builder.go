package dsl

import (
	"fmt"

	"github.com/aretw0/cerebro/pkg/adapters/memory"
	"github.com/aretw0/cerebro/pkg/domain"
)

// Builder collects exercises in declaration order.
type Builder struct {
	order     []string
	exercises map[string]*ExerciseBuilder
}

// New creates a new catalog builder.
func New() *Builder {
	return &Builder{exercises: make(map[string]*ExerciseBuilder)}
}

// Exercise starts an exercise. If it already exists, the existing builder is
// returned so steps can be appended.
func (b *Builder) Exercise(id string) *ExerciseBuilder {
	if eb, ok := b.exercises[id]; ok {
		return eb
	}
	eb := &ExerciseBuilder{ex: domain.Exercise{ID: id}}
	b.exercises[id] = eb
	b.order = append(b.order, id)
	return eb
}

// Exercises returns copies of the declared exercises.
func (b *Builder) Exercises() []domain.Exercise {
	out := make([]domain.Exercise, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.exercises[id].Build())
	}
	return out
}

// Build validates the exercises into an in-memory catalog.
func (b *Builder) Build() (*memory.Catalog, error) {
	catalog, err := memory.NewCatalog(b.Exercises()...)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return catalog, nil
}

// ExerciseBuilder configures one exercise.
type ExerciseBuilder struct {
	ex domain.Exercise
}

func (eb *ExerciseBuilder) Title(title string) *ExerciseBuilder {
	eb.ex.Title = title
	return eb
}

func (eb *ExerciseBuilder) Domain(name string) *ExerciseBuilder {
	eb.ex.Domain = name
	return eb
}

func (eb *ExerciseBuilder) Tier(tier string) *ExerciseBuilder {
	eb.ex.Tier = tier
	return eb
}

// Duration sets the expected length in minutes.
func (eb *ExerciseBuilder) Duration(minutes int) *ExerciseBuilder {
	eb.ex.Duration = minutes
	return eb
}

func (eb *ExerciseBuilder) Description(text string) *ExerciseBuilder {
	eb.ex.Description = text
	return eb
}

func (eb *ExerciseBuilder) Benefits(benefits ...string) *ExerciseBuilder {
	eb.ex.Benefits = append(eb.ex.Benefits, benefits...)
	return eb
}

// Step appends a step with its narration.
func (eb *ExerciseBuilder) Step(id, narration string) *StepBuilder {
	eb.ex.Steps = append(eb.ex.Steps, domain.Step{ID: id, NarrationText: narration})
	return &StepBuilder{exercise: eb, index: len(eb.ex.Steps) - 1}
}

// Build returns a copy of the exercise. It is not validated.
func (eb *ExerciseBuilder) Build() domain.Exercise {
	ex := eb.ex
	ex.Benefits = append([]string(nil), eb.ex.Benefits...)
	ex.Steps = append([]domain.Step(nil), eb.ex.Steps...)
	return ex
}

// StepBuilder refines the most recently added step.
type StepBuilder struct {
	exercise *ExerciseBuilder
	index    int
}

func (sb *StepBuilder) step() *domain.Step {
	return &sb.exercise.ex.Steps[sb.index]
}

// Visual asks for a generated illustration.
func (sb *StepBuilder) Visual(prompt string) *StepBuilder {
	sb.step().VisualPrompt = prompt
	return sb
}

// Hold marks the step as waiting for a hold gesture before moving on.
func (sb *StepBuilder) Hold() *StepBuilder {
	sb.step().RequiresInteraction = true
	return sb
}

// Step appends the next step to the same exercise.
func (sb *StepBuilder) Step(id, narration string) *StepBuilder {
	return sb.exercise.Step(id, narration)
}

// Done returns to the exercise builder.
func (sb *StepBuilder) Done() *ExerciseBuilder {
	return sb.exercise
}
