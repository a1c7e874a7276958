/*
Package observability exposes session activity as Prometheus metrics and
structured log lines.

Both are delivered as domain.LifecycleHooks so they can be merged into any
session without the engine knowing about them:

	m := observability.NewMetrics(prometheus.DefaultRegisterer)
	hooks := m.Hooks().Merge(observability.LogHooks(logger))
*/
package observability
