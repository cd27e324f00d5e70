package gate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the gate.
type Metrics struct {
	Ingested     *prometheus.CounterVec
	Applied      *prometheus.CounterVec
	ApplyLatency *prometheus.HistogramVec
	Deferrals    prometheus.Counter
	DeadLetters  prometheus.Counter
	Lanes        prometheus.Gauge
	Pending      prometheus.Gauge
}

// NewMetrics creates and registers the gate metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Ingested: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "progression_gate_ingested_total",
			Help: "Events offered to the gate by outcome",
		}, []string{"outcome"}),
		Applied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "progression_gate_applied_total",
			Help: "Events applied by event name and result",
		}, []string{"event", "result"}),
		ApplyLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "progression_gate_apply_duration_seconds",
			Help:    "Time to apply one event including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),
		Deferrals: promauto.NewCounter(prometheus.CounterOpts{
			Name: "progression_gate_deferrals_total",
			Help: "Events scheduled for a later attempt",
		}),
		DeadLetters: promauto.NewCounter(prometheus.CounterOpts{
			Name: "progression_gate_dead_letters_total",
			Help: "Events the gate gave up on",
		}),
		Lanes: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "progression_gate_lanes",
			Help: "Sequencing keys with queued work",
		}),
		Pending: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "progression_gate_pending",
			Help: "Events accepted but not yet applied",
		}),
	}
}

func (m *Metrics) incIngested(outcome Outcome) {
	if m != nil {
		m.Ingested.WithLabelValues(string(outcome)).Inc()
	}
}

func (m *Metrics) observeApplied(event, result string, d time.Duration) {
	if m != nil {
		m.Applied.WithLabelValues(event, result).Inc()
		m.ApplyLatency.WithLabelValues(event).Observe(d.Seconds())
	}
}

func (m *Metrics) incDeferrals() {
	if m != nil {
		m.Deferrals.Inc()
	}
}

func (m *Metrics) incDeadLetters() {
	if m != nil {
		m.DeadLetters.Inc()
	}
}

func (m *Metrics) setSizes(lanes, pending int) {
	if m != nil {
		m.Lanes.Set(float64(lanes))
		m.Pending.Set(float64(pending))
	}
}
