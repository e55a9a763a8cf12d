package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the OTP challenge module.
type Metrics struct {
	ChallengesIssued *prometheus.CounterVec
	VerifyOutcomes   *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
	ChallengesSwept  prometheus.Counter
}

// New creates a Metrics instance with all OTP module metrics registered.
func New() *Metrics {
	return &Metrics{
		ChallengesIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sysga_otp_challenges_issued_total",
			Help: "Total OTP challenges issued, by channel",
		}, []string{"channel"}),

		VerifyOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sysga_otp_verify_outcomes_total",
			Help: "Total verify calls by outcome",
		}, []string{"outcome"}), // outcome: success, mismatch, locked, expired, already_used, not_found

		DeliveryFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sysga_otp_delivery_failures_total",
			Help: "Total challenge deliveries that exhausted every channel",
		}),

		ChallengesSwept: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sysga_otp_challenges_swept_total",
			Help: "Total challenges removed by the maintenance sweep",
		}),
	}
}

// IncrementIssued records a successfully persisted challenge.
func (m *Metrics) IncrementIssued(channel string) {
	if m != nil {
		m.ChallengesIssued.WithLabelValues(channel).Inc()
	}
}

// IncrementVerify records a verify outcome.
func (m *Metrics) IncrementVerify(outcome string) {
	if m != nil {
		m.VerifyOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncrementDeliveryFailure records a fully exhausted delivery.
func (m *Metrics) IncrementDeliveryFailure() {
	if m != nil {
		m.DeliveryFailures.Inc()
	}
}

// AddSwept records challenges removed by a sweep pass.
func (m *Metrics) AddSwept(n int) {
	if m != nil {
		m.ChallengesSwept.Add(float64(n))
	}
}
