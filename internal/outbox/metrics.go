package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	Relayed       prometheus.Counter
	RelayFailures prometheus.Counter
	BreakerOpen   prometheus.Gauge
}

// NewMetrics creates and registers the relay metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Relayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "progression_outbox_relayed_total",
			Help: "Outbox messages delivered to Kafka",
		}),
		RelayFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "progression_outbox_relay_failures_total",
			Help: "Failed attempts to deliver an outbox batch",
		}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "progression_outbox_breaker_open",
			Help: "1 while the relay circuit breaker is open",
		}),
	}
}

func (m *Metrics) addRelayed(n int) {
	if m != nil && n > 0 {
		m.Relayed.Add(float64(n))
	}
}

func (m *Metrics) incRelayFailures() {
	if m != nil {
		m.RelayFailures.Inc()
	}
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	if open {
		m.BreakerOpen.Set(1)
		return
	}
	m.BreakerOpen.Set(0)
}
