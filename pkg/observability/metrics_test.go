package observability_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/aretw0/cerebro/internal/logging"
	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/aretw0/cerebro/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	hooks := m.Hooks()
	ctx := context.Background()

	m.SessionOpened()
	hooks.OnStepEnter(ctx, &domain.StepEvent{ExerciseID: "ex", StepID: "s1"})
	hooks.OnStepEnter(ctx, &domain.StepEvent{ExerciseID: "ex", StepID: "s1"})
	hooks.OnNarration(ctx, &domain.NarrationEvent{Outcome: domain.NarrationStale})
	hooks.OnAsset(ctx, &domain.AssetEvent{Outcome: domain.AssetGenerated})
	hooks.OnGesture(ctx, &domain.GestureEvent{Intent: domain.IntentNavigateForward})
	hooks.OnHaptic(ctx, domain.HapticDoublePulse)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.StepVisits.WithLabelValues("ex", "s1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Narrations.WithLabelValues("stale")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Assets.WithLabelValues("generated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Gestures.WithLabelValues("navigate_forward")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Haptics.WithLabelValues("double_pulse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveSessions))

	hooks.OnSessionEnd(ctx, &domain.SessionEvent{ExerciseID: "ex", Status: domain.StatusCompleted, StepIndex: 2})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsEnded.WithLabelValues("ex", "completed")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveSessions))

	expected := `
# HELP cerebro_session_steps_reached Step index (1-based) reached when a session ended.
# TYPE cerebro_session_steps_reached histogram
cerebro_session_steps_reached_bucket{le="1"} 0
cerebro_session_steps_reached_bucket{le="2"} 0
cerebro_session_steps_reached_bucket{le="3"} 1
cerebro_session_steps_reached_bucket{le="4"} 1
cerebro_session_steps_reached_bucket{le="5"} 1
cerebro_session_steps_reached_bucket{le="6"} 1
cerebro_session_steps_reached_bucket{le="7"} 1
cerebro_session_steps_reached_bucket{le="8"} 1
cerebro_session_steps_reached_bucket{le="9"} 1
cerebro_session_steps_reached_bucket{le="10"} 1
cerebro_session_steps_reached_bucket{le="+Inf"} 1
cerebro_session_steps_reached_sum 3
cerebro_session_steps_reached_count 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "cerebro_session_steps_reached"))
}

func TestMetrics_NilRegisterer(t *testing.T) {
	m := observability.NewMetrics(nil)
	m.Hooks().OnStepEnter(context.Background(), &domain.StepEvent{ExerciseID: "ex", StepID: "s1"})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StepVisits.WithLabelValues("ex", "s1")))
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelDebug)
	hooks := observability.LogHooks(logger)

	hooks.OnStepEnter(context.Background(), &domain.StepEvent{
		EventBase:  domain.EventBase{SessionID: "sess-1"},
		ExerciseID: "ex",
		StepID:     "s2",
		StepIndex:  1,
	})
	hooks.OnAsset(context.Background(), &domain.AssetEvent{
		StepID:  "s2",
		Outcome: domain.AssetErrored,
		Err:     domain.ErrGenerationFailure,
	})

	out := buf.String()
	assert.Contains(t, out, "msg=step_enter")
	assert.Contains(t, out, "session_id=sess-1")
	assert.Contains(t, out, "step_id=s2")
	assert.Contains(t, out, "outcome=errored")
	assert.Contains(t, out, "err=")
}

func TestInitTracing(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := observability.InitTracing(&buf)
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "probe")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"probe"`)
}
