package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/newsletter/pkg/metrics"
)

type subscriptionMetrics struct {
	subscriptions *prometheus.CounterVec
	confirmations *prometheus.CounterVec
}

// NewSubscriptionMetrics registers the subscription counters on reg.
func NewSubscriptionMetrics(reg prometheus.Registerer) metrics.SubscriptionMetrics {
	return &subscriptionMetrics{
		subscriptions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscriptions_total",
				Help:      "Signup attempts by outcome",
			},
			[]string{"outcome"},
		),
		confirmations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "subscription_confirmations_total",
				Help:      "Confirmation attempts by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *subscriptionMetrics) RecordSubscription(outcome string) {
	if m == nil {
		return
	}
	m.subscriptions.WithLabelValues(outcome).Inc()
}

func (m *subscriptionMetrics) RecordConfirmation(outcome string) {
	if m == nil {
		return
	}
	m.confirmations.WithLabelValues(outcome).Inc()
}
