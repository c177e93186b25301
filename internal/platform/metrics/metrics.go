// Package metrics holds the request-level Prometheus metrics shared by all
// handlers. Module-specific metrics live next to their module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application-wide Prometheus metrics.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	UsersRegistered prometheus.Counter
}

// New creates and registers all application-wide metrics.
func New() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "saathi_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		UsersRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "saathi_users_registered_total",
			Help: "Total number of registered users",
		}),
	}
}

// ObserveRequest records one handled HTTP request.
func (m *Metrics) ObserveRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// IncrementUsersRegistered increments the registered users counter by 1.
func (m *Metrics) IncrementUsersRegistered() {
	if m == nil {
		return
	}
	m.UsersRegistered.Inc()
}
