package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the registry module.
type Metrics struct {
	CertificatesIssued prometheus.Counter
	BatchSize          prometheus.Histogram
	Rejected           *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CertificatesIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "skillchain_certificates_issued_total",
			Help: "Total number of certificates issued",
		}),
		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "skillchain_batch_issue_size",
			Help:    "Number of recipients per committed batch issuance",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}),
		Rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillchain_registry_rejected_total",
			Help: "Registry operations rejected, by operation and error code",
		}, []string{"operation", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skillchain_registry_operation_duration_seconds",
			Help:    "Duration of registry operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "skillchain_certificate_cache_lookups_total",
			Help: "Certificate cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveOperation records the duration of an operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementRejected(operation, code string) {
	m.Rejected.WithLabelValues(operation, code).Inc()
}

// RecordIssued records a committed issuance of n certificates.
func (m *Metrics) RecordIssued(n int, batch bool) {
	m.CertificatesIssued.Add(float64(n))
	if batch {
		m.BatchSize.Observe(float64(n))
	}
}

func (m *Metrics) RecordCacheLookup(hit bool) {
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.CacheLookups.WithLabelValues("miss").Inc()
}
