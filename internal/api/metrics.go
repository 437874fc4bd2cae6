package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the relay's Prometheus collectors. Each Handler carries its
// own registry so tests can build handlers freely without duplicate
// registration panics.
type Metrics struct {
	registry *prometheus.Registry

	alertsReceived   prometheus.Counter
	resolutionErrors prometheus.Counter
	cardsDelivered   *prometheus.CounterVec
	cardsExhausted   *prometheus.CounterVec
	cardsFailed      *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		alertsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mongoalerts",
			Name:      "alerts_received_total",
			Help:      "Alert webhooks accepted on POST /alert.",
		}),
		resolutionErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mongoalerts",
			Name:      "channel_resolution_errors_total",
			Help:      "Alerts rejected for a missing or unknown channel.",
		}),
		cardsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mongoalerts",
			Name:      "cards_delivered_total",
			Help:      "Cards accepted by the destination webhook.",
		}, []string{"channel"}),
		cardsExhausted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mongoalerts",
			Name:      "cards_exhausted_total",
			Help:      "Cards dropped after exhausting rate-limit retries.",
		}, []string{"channel"}),
		cardsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mongoalerts",
			Name:      "cards_failed_total",
			Help:      "Cards rejected by the destination or lost to transport errors.",
		}, []string{"channel"}),
	}

	m.registry.MustRegister(
		m.alertsReceived,
		m.resolutionErrors,
		m.cardsDelivered,
		m.cardsExhausted,
		m.cardsFailed,
	)
	return m
}

// handler serves the registry in Prometheus exposition format.
func (m *Metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
