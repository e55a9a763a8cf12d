package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reconciliation engine.
type Metrics struct {
	Verdicts         *prometheus.CounterVec
	UpstreamFailures prometheus.Counter
}

// New creates a Metrics instance with all reconciliation metrics registered.
func New() *Metrics {
	return &Metrics{
		Verdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sysga_reconcile_verdicts_total",
			Help: "Total reconciliation runs by verdict",
		}, []string{"verdict"}),

		UpstreamFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sysga_reconcile_upstream_failures_total",
			Help: "Total reconciliation runs aborted by an unreachable on-chain gateway",
		}),
	}
}

// IncrementVerdict records a completed reconciliation.
func (m *Metrics) IncrementVerdict(verdict string) {
	if m != nil {
		m.Verdicts.WithLabelValues(verdict).Inc()
	}
}

// IncrementUpstreamFailure records an aborted reconciliation.
func (m *Metrics) IncrementUpstreamFailure() {
	if m != nil {
		m.UpstreamFailures.Inc()
	}
}
