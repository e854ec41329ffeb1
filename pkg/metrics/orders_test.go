package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestOrderMetricsRecordsPlacements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	m.ObservePlacement(OutcomePlaced, 40*time.Millisecond)
	m.ObservePlacement(OutcomePlaced, 20*time.Millisecond)
	m.ObservePlacement(OutcomeRejected, 5*time.Millisecond)
	m.AddRevenue(3022500)
	m.AddRevenue(-1)
	m.IncStatus("shipped")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "orders_placed_total", "outcome", OutcomePlaced); err != nil || got != 2 {
		t.Fatalf("expected placed=2, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "orders_placed_total", "outcome", OutcomeRejected); err != nil || got != 1 {
		t.Fatalf("expected rejected=1, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "order_status_transitions_total", "status", "shipped"); err != nil || got != 1 {
		t.Fatalf("expected shipped=1, got %f (%v)", got, err)
	}

	revenue := findMetricFamily(mfs, "order_revenue_total")
	if revenue == nil || revenue.GetMetric()[0].GetCounter().GetValue() != 3022500 {
		t.Fatalf("unexpected revenue metric %v", revenue)
	}
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe("GET", "/api/v1/products", 200, 10*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "http_requests_total", "route", "/api/v1/products"); err != nil || got != 1 {
		t.Fatalf("expected one request, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var orders *OrderMetrics
	orders.ObservePlacement(OutcomeFailed, time.Second)
	orders.AddRevenue(1)
	orders.IncStatus("x")

	NewOrderMetrics(nil).ObservePlacement(OutcomePlaced, time.Second)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Second)
}
