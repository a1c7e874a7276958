package progress

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/ports"
)

const (
	// PointsPerCompletion is awarded every time an exercise is finished.
	PointsPerCompletion = 150

	// BadgeFirstCompletion is earned by the first finished exercise.
	BadgeFirstCompletion = "b-001"
	// BadgeStreak is earned by finishing an exercise on a long streak.
	BadgeStreak = "b-004"
	// StreakBadgeThreshold is the streak length that earns BadgeStreak.
	StreakBadgeThreshold = 7
)

// Recorder is the default progress collaborator: it stores resume markers on
// exit and awards points and badges on completion.
type Recorder struct {
	manager *Manager
	logger  *slog.Logger
}

var _ ports.ProgressReporter = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithRecorderLogger sets the logger used for report summaries.
func WithRecorderLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder creates a Recorder writing through manager.
func NewRecorder(manager *Manager, opts ...RecorderOption) *Recorder {
	r := &Recorder{manager: manager, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Exited stores the last visited step so the exercise can be resumed.
func (r *Recorder) Exited(ctx context.Context, report domain.ExitReport) error {
	_, err := r.manager.Update(ctx, report.ProfileID, func(p *domain.Profile) error {
		p.CurrentProgress = &domain.Progress{
			ExerciseID: report.ExerciseID,
			StepIndex:  report.StepIndex,
			StepID:     report.StepID,
			Timestamp:  report.Timestamp,
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record exit: %w", err)
	}
	r.logger.Info("progress saved",
		"profile_id", report.ProfileID,
		"exercise_id", report.ExerciseID,
		"step_index", report.StepIndex,
	)
	return nil
}

// Completed awards points and badges and clears the resume marker.
func (r *Recorder) Completed(ctx context.Context, report domain.CompletionReport) error {
	p, err := r.manager.Update(ctx, report.ProfileID, func(p *domain.Profile) error {
		p.Points += PointsPerCompletion
		if !p.HasBadge(BadgeFirstCompletion) {
			p.Badges = append(p.Badges, BadgeFirstCompletion)
		}
		if p.Streak >= StreakBadgeThreshold && !p.HasBadge(BadgeStreak) {
			p.Badges = append(p.Badges, BadgeStreak)
		}
		p.CompletedExercises = append(p.CompletedExercises, report.ExerciseID)
		p.CurrentProgress = nil
		return nil
	})
	if err != nil {
		return fmt.Errorf("record completion: %w", err)
	}
	r.logger.Info("exercise completed",
		"profile_id", report.ProfileID,
		"exercise_id", report.ExerciseID,
		"visited", len(report.Visited),
		"points", p.Points,
	)
	return nil
}

// Resume returns the step index to resume exerciseID at, if the profile has
// an interrupted run of that exercise.
func (r *Recorder) Resume(ctx context.Context, profileID, exerciseID string) (int, bool, error) {
	p, err := r.manager.LoadOrCreate(ctx, profileID, "")
	if err != nil {
		return 0, false, err
	}
	cp := p.CurrentProgress
	if cp == nil || cp.ExerciseID != exerciseID {
		return 0, false, nil
	}
	return cp.StepIndex, true, nil
}
