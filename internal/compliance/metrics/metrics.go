package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the compliance module.
// Tracks synchronization activity, status transitions, and scoring.
type Metrics struct {
	SyncsPerformed   prometheus.Counter
	StatusesCreated  prometheus.Counter
	StatusTransition *prometheus.CounterVec
	ScoreDistribution prometheus.Histogram
	ScoreDuration    prometheus.Histogram
}

// New creates a Metrics instance with all compliance module metrics registered.
func New() *Metrics {
	return &Metrics{
		SyncsPerformed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "saathi_compliance_syncs_total",
			Help: "Total number of status synchronization runs",
		}),
		StatusesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "saathi_compliance_statuses_created_total",
			Help: "Total number of compliance status rows materialized",
		}),
		StatusTransition: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "saathi_compliance_status_transitions_total",
			Help: "Total status transitions by target state",
		}, []string{"state"}),
		ScoreDistribution: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "saathi_compliance_confidence_score",
			Help:    "Distribution of computed confidence scores",
			Buckets: []float64{10, 25, 50, 60, 70, 75, 85, 95, 100},
		}),
		ScoreDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "saathi_compliance_score_duration_seconds",
			Help:    "Duration of confidence score computations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementSyncs records a completed synchronization run.
func (m *Metrics) IncrementSyncs() {
	if m == nil {
		return
	}
	m.SyncsPerformed.Inc()
}

// IncrementStatusesCreated records newly materialized status rows.
func (m *Metrics) IncrementStatusesCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.StatusesCreated.Add(float64(n))
}

// RecordTransition records a status transition to the given terminal state.
func (m *Metrics) RecordTransition(state string) {
	if m == nil {
		return
	}
	m.StatusTransition.WithLabelValues(state).Inc()
}

// ObserveScore records a computed confidence score and how long it took.
// Call with time.Now() captured at the start of the computation.
func (m *Metrics) ObserveScore(score int, start time.Time) {
	if m == nil {
		return
	}
	m.ScoreDistribution.Observe(float64(score))
	m.ScoreDuration.Observe(time.Since(start).Seconds())
}
