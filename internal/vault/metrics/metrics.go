package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics provides observability for the vault module: operation outcomes,
// value moved and critical path durations.
type Metrics struct {
	Operations  *prometheus.CounterVec
	AmountMoved *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// New registers the vault metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_vault_operations_total",
			Help: "Vault operations by operation, outcome and error code",
		}, []string{"operation", "outcome", "code"}),
		AmountMoved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tokenvault_vault_amount_moved_total",
			Help: "Token units moved into (deposit) or out of (withdraw) pools",
		}, []string{"operation"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tokenvault_vault_operation_duration_seconds",
			Help:    "Duration of vault operations including the transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
	}
}

// Observe records one finished operation. code is empty on success.
func (m *Metrics) Observe(operation, outcome, code string, start time.Time) {
	m.Operations.WithLabelValues(operation, outcome, code).Inc()
	m.Duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// AddAmount records value moved by a successful deposit or withdrawal.
func (m *Metrics) AddAmount(operation string, amount uint64) {
	m.AmountMoved.WithLabelValues(operation).Add(float64(amount))
}
