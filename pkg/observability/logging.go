package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/cerebro/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter",
				"session_id", e.SessionID,
				"exercise_id", e.ExerciseID,
				"step_id", e.StepID,
				"step_index", e.StepIndex,
			)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnNarration: func(ctx context.Context, e *domain.NarrationEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "narration", "session_id", e.SessionID, "request_id", e.RequestID, "outcome", e.Outcome, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "narration", "session_id", e.SessionID, "request_id", e.RequestID, "outcome", e.Outcome)
		},
		OnAsset: func(ctx context.Context, e *domain.AssetEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "asset", "session_id", e.SessionID, "step_id", e.StepID, "outcome", e.Outcome, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "asset", "session_id", e.SessionID, "step_id", e.StepID, "outcome", e.Outcome)
		},
		OnGesture: func(ctx context.Context, e *domain.GestureEvent) {
			logger.DebugContext(ctx, "gesture", "session_id", e.SessionID, "intent", e.Intent, "mode", e.Mode)
		},
		OnSessionEnd: func(ctx context.Context, e *domain.SessionEvent) {
			logger.InfoContext(ctx, "session_end",
				"session_id", e.SessionID,
				"exercise_id", e.ExerciseID,
				"status", e.Status,
				"step_index", e.StepIndex,
			)
		},
	}
}
