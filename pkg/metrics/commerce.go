package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CommerceMetrics records checkout and settlement outcomes.
type CommerceMetrics struct {
	checkoutDuration  *prometheus.HistogramVec
	checkoutOutcomes  *prometheus.CounterVec
	settlementResults *prometheus.CounterVec
	refunds           *prometheus.CounterVec
	outboxPublished   *prometheus.CounterVec
}

// NewCommerceMetrics registers the commerce metrics on the provided registerer.
func NewCommerceMetrics(reg prometheus.Registerer) *CommerceMetrics {
	if reg == nil {
		return &CommerceMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"payment_method"})
	checkoutOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_total",
		Help: "Checkout attempts broken down by payment method and outcome.",
	}, []string{"payment_method", "outcome"})
	settlementResults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_total",
		Help: "Settlement operations broken down by operation and outcome.",
	}, []string{"operation", "outcome"})
	refunds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "refund_total",
		Help: "Refunds broken down by payment method.",
	}, []string{"payment_method"})
	outboxPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_published_total",
		Help: "Outbox events published broken down by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(checkoutDuration, checkoutOutcomes, settlementResults, refunds, outboxPublished)
	return &CommerceMetrics{
		checkoutDuration:  checkoutDuration,
		checkoutOutcomes:  checkoutOutcomes,
		settlementResults: settlementResults,
		refunds:           refunds,
		outboxPublished:   outboxPublished,
	}
}

// ObserveCheckout records the outcome and duration of one checkout attempt.
func (c *CommerceMetrics) ObserveCheckout(method string, outcome string, duration time.Duration) {
	if c == nil || c.checkoutOutcomes == nil {
		return
	}
	c.checkoutDuration.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
	c.checkoutOutcomes.WithLabelValues(normalizeLabel(method), normalizeLabel(outcome)).Inc()
}

// IncSettlement increments the settlement counter for the named operation.
func (c *CommerceMetrics) IncSettlement(operation, outcome string) {
	if c == nil || c.settlementResults == nil {
		return
	}
	c.settlementResults.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome)).Inc()
}

// IncRefund increments the refund counter for the given payment method.
func (c *CommerceMetrics) IncRefund(method string) {
	if c == nil || c.refunds == nil {
		return
	}
	c.refunds.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncOutboxPublished increments the outbox publish counter.
func (c *CommerceMetrics) IncOutboxPublished(eventType, outcome string) {
	if c == nil || c.outboxPublished == nil {
		return
	}
	c.outboxPublished.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
