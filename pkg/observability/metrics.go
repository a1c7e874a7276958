package observability

import (
	"context"

	"github.com/aretw0/cerebro/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cerebro"

// Metrics holds the Prometheus collectors fed by session lifecycle hooks.
type Metrics struct {
	StepVisits     *prometheus.CounterVec
	Narrations     *prometheus.CounterVec
	Assets         *prometheus.CounterVec
	Gestures       *prometheus.CounterVec
	Haptics        *prometheus.CounterVec
	SessionsEnded  *prometheus.CounterVec
	ActiveSessions prometheus.Gauge
	StepsReached   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StepVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_visits_total",
			Help:      "Total number of step entries.",
		}, []string{"exercise_id", "step_id"}),
		Narrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "narrations_total",
			Help:      "Narration requests by outcome.",
		}, []string{"outcome"}),
		Assets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_total",
			Help:      "Visual asset requests by outcome.",
		}, []string{"outcome"}),
		Gestures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gesture_intents_total",
			Help:      "Intents produced by the gesture machine.",
		}, []string{"intent"}),
		Haptics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "haptics_total",
			Help:      "Haptic patterns emitted.",
		}, []string{"pattern"}),
		SessionsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_ended_total",
			Help:      "Sessions that reached a terminal status.",
		}, []string{"exercise_id", "status"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions opened and not yet ended.",
		}),
		StepsReached: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_steps_reached",
			Help:      "Step index (1-based) reached when a session ended.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.StepVisits, m.Narrations, m.Assets, m.Gestures,
		m.Haptics, m.SessionsEnded, m.ActiveSessions, m.StepsReached,
	}
}

// SessionOpened increments the active sessions gauge. The matching decrement
// happens in the OnSessionEnd hook.
func (m *Metrics) SessionOpened() {
	m.ActiveSessions.Inc()
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
			m.StepVisits.WithLabelValues(e.ExerciseID, e.StepID).Inc()
		},
		OnNarration: func(_ context.Context, e *domain.NarrationEvent) {
			m.Narrations.WithLabelValues(string(e.Outcome)).Inc()
		},
		OnAsset: func(_ context.Context, e *domain.AssetEvent) {
			m.Assets.WithLabelValues(string(e.Outcome)).Inc()
		},
		OnGesture: func(_ context.Context, e *domain.GestureEvent) {
			m.Gestures.WithLabelValues(string(e.Intent)).Inc()
		},
		OnHaptic: func(_ context.Context, p domain.HapticPattern) {
			m.Haptics.WithLabelValues(p.Name()).Inc()
		},
		OnSessionEnd: func(_ context.Context, e *domain.SessionEvent) {
			m.SessionsEnded.WithLabelValues(e.ExerciseID, string(e.Status)).Inc()
			m.ActiveSessions.Dec()
			m.StepsReached.Observe(float64(e.StepIndex + 1))
		},
	}
}
