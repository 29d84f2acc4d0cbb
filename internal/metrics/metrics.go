// Package metrics defines the Prometheus collectors the memorization
// engine reports to. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "hifz"

// Metrics groups the engine's collectors.
type Metrics struct {
	practiceSessions *prometheus.CounterVec
	accuracy         prometheus.Histogram
	streakUpdates    *prometheus.CounterVec
	dueReviews       prometheus.Histogram
	storeFailures    *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		practiceSessions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "practice_sessions_total",
			Help:      "Practice sessions recorded, by accuracy band and resulting status.",
		}, []string{"band", "status"}),
		accuracy: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "practice_accuracy",
			Help:      "Accuracy scores submitted with practice sessions after clamping.",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
		streakUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_updates_total",
			Help:      "Daily activity events, by streak transition.",
		}, []string{"transition"}),
		dueReviews: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "due_reviews_returned",
			Help:      "Number of due reviews returned per query.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 114},
		}),
		storeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_failures_total",
			Help:      "Store errors seen by the engine, by operation.",
		}, []string{"operation"}),
	}
}

// ObservePractice records one practice session.
func (m *Metrics) ObservePractice(band, status string, accuracy int) {
	if m == nil {
		return
	}
	m.practiceSessions.WithLabelValues(band, status).Inc()
	m.accuracy.Observe(float64(accuracy))
}

// ObserveStreak records one daily activity event.
func (m *Metrics) ObserveStreak(transition string) {
	if m == nil {
		return
	}
	m.streakUpdates.WithLabelValues(transition).Inc()
}

// ObserveDueReviews records the size of a due-review result.
func (m *Metrics) ObserveDueReviews(n int) {
	if m == nil {
		return
	}
	m.dueReviews.Observe(float64(n))
}

// ObserveStoreFailure counts a store error for operation.
func (m *Metrics) ObserveStoreFailure(operation string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(operation).Inc()
}
