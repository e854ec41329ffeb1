package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Order placement outcomes.
const (
	OutcomePlaced   = "placed"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// OrderMetrics tracks order placement throughput and latency.
type OrderMetrics struct {
	placed   *prometheus.CounterVec
	duration prometheus.Histogram
	revenue  prometheus.Counter
	statuses *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Order placement attempts by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_duration_seconds",
		Help:    "Duration of the order placement transaction.",
		Buckets: prometheus.DefBuckets,
	})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_revenue_total",
		Help: "Sum of placed order totals in the store currency.",
	})
	statuses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status transitions by target status.",
	}, []string{"status"})
	reg.MustRegister(placed, duration, revenue, statuses)
	return &OrderMetrics{
		placed:   placed,
		duration: duration,
		revenue:  revenue,
		statuses: statuses,
	}
}

// ObservePlacement records one placement attempt.
func (m *OrderMetrics) ObservePlacement(outcome string, took time.Duration) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(outcome)).Inc()
	m.duration.Observe(took.Seconds())
}

// AddRevenue adds a placed order total.
func (m *OrderMetrics) AddRevenue(amount float64) {
	if m == nil || m.revenue == nil || amount <= 0 {
		return
	}
	m.revenue.Add(amount)
}

// IncStatus counts a status transition.
func (m *OrderMetrics) IncStatus(status string) {
	if m == nil || m.statuses == nil {
		return
	}
	m.statuses.WithLabelValues(normalizeLabel(status)).Inc()
}
