package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide HTTP metrics. Module metrics live with their modules.
type Metrics struct {
	RequestLatency *prometheus.HistogramVec
	CommandsTotal  *prometheus.CounterVec
}

// New creates and registers the HTTP metrics.
func New() *Metrics {
	return &Metrics{
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "progression_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),

		CommandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "progression_commands_total",
			Help: "Commands received over HTTP by event name and gate outcome",
		}, []string{"event", "outcome"}),
	}
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route, method, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route, method, status).Observe(d.Seconds())
	}
}

// IncCommand records one accepted command.
func (m *Metrics) IncCommand(event, outcome string) {
	if m != nil {
		m.CommandsTotal.WithLabelValues(event, outcome).Inc()
	}
}
