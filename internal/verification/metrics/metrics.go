package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification orchestrator.
type Metrics struct {
	SessionsStarted   *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	SessionsFailed    *prometheus.CounterVec
}

// New creates a Metrics instance with all verification metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sysga_verification_sessions_started_total",
			Help: "Total verification sessions opened, by actor role",
		}, []string{"role"}),

		SessionsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sysga_verification_sessions_completed_total",
			Help: "Total sessions reaching Completed, by reconciliation verdict",
		}, []string{"verdict"}),

		SessionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sysga_verification_sessions_failed_total",
			Help: "Total sessions reaching Failed, by failure code",
		}, []string{"reason"}),
	}
}

// IncrementStarted records an opened session.
func (m *Metrics) IncrementStarted(role string) {
	if m != nil {
		m.SessionsStarted.WithLabelValues(role).Inc()
	}
}

// IncrementCompleted records a successful session.
func (m *Metrics) IncrementCompleted(verdict string) {
	if m != nil {
		m.SessionsCompleted.WithLabelValues(verdict).Inc()
	}
}

// IncrementFailed records a terminally failed session.
func (m *Metrics) IncrementFailed(reason string) {
	if m != nil {
		m.SessionsFailed.WithLabelValues(reason).Inc()
	}
}
