package stream

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the broker sink.
type Metrics struct {
	Published    prometheus.Counter
	Failures     prometheus.Counter
	Dropped      prometheus.Counter
	BreakerState prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Published: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_audit_stream_published_total",
			Help: "Audit events acknowledged by the broker",
		}),
		Failures: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_audit_stream_failures_total",
			Help: "Audit events the broker failed to acknowledge",
		}),
		Dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_audit_stream_dropped_total",
			Help: "Audit events dropped while the circuit was open",
		}),
		BreakerState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "skillchain_audit_stream_circuit_open",
			Help: "Broker circuit state (0=closed, 1=open)",
		}),
	}
}

func (m *Metrics) SetBreakerState(open bool) {
	if open {
		m.BreakerState.Set(1)
	} else {
		m.BreakerState.Set(0)
	}
}
