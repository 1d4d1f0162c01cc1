// Package metrics exposes the billing counters on the default Prometheus
// registry, served by the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "checkouts_total",
		Help:      "Checkout session attempts by outcome.",
	}, []string{"outcome"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "webhook_events_total",
		Help:      "Webhook deliveries by provider event type and outcome.",
	}, []string{"type", "outcome"})

	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Time spent reconciling one webhook delivery.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"type"})

	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "activations_total",
		Help:      "Subscription activation attempts by outcome.",
	}, []string{"outcome"})

	StatusAnomaliesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "status_anomalies_total",
		Help:      "Provider subscription statuses with no local mapping.",
	}, []string{"status"})

	AbandonedCheckoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "billing",
		Name:      "abandoned_checkouts_total",
		Help:      "PENDING subscriptions canceled by the reaper.",
	})
)
