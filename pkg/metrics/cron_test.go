package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCronMetricsSplitsResultsPerJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronMetrics(reg)
	finished := time.Date(2026, 3, 1, 4, 0, 0, 0, time.UTC)

	m.ObserveRun("discount_expiry", 40*time.Millisecond, finished, nil)
	m.ObserveRun("discount_expiry", 35*time.Millisecond, finished, nil)
	m.ObserveRun("outbox_retention", 2*time.Second, finished, errors.New("delete outbox: timeout"))

	expected := `
# HELP cron_job_runs_total Maintenance job runs by job and result.
# TYPE cron_job_runs_total counter
cron_job_runs_total{job="discount_expiry",result="ok"} 2
cron_job_runs_total{job="outbox_retention",result="failed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "cron_job_runs_total"); err != nil {
		t.Fatalf("runs counter mismatch: %v", err)
	}
	if got := testutil.ToFloat64(m.lastSuccess.WithLabelValues("discount_expiry")); got != float64(finished.Unix()) {
		t.Fatalf("expected last success %d, got %v", finished.Unix(), got)
	}
	if got := testutil.CollectAndCount(m.lastSuccess); got != 1 {
		t.Fatalf("failed outbox_retention run must not set last success, got %d series", got)
	}
	if got := testutil.CollectAndCount(m.duration); got != 2 {
		t.Fatalf("expected a duration series per job, got %d", got)
	}
}

func TestCronMetricsNilSafe(t *testing.T) {
	var m *CronMetrics
	m.ObserveRun("discount_expiry", time.Second, time.Now(), nil)
	NewCronMetrics(nil).ObserveRun("outbox_retention", time.Second, time.Now(), errors.New("x"))
}
