package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Published       prometheus.Counter
	PublishFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Published: f.NewCounter(prometheus.CounterOpts{
			Name: "tokenvault_outbox_published_total",
			Help: "Outbox entries acknowledged by the broker",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "tokenvault_outbox_publish_failures_total",
			Help: "Outbox publish attempts rejected by the broker",
		}),
	}
}
