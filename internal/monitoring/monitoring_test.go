package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMetricsSummary(t *testing.T) {
	now := time.Unix(1755000000, 0)
	m := NewMetrics(WithClock(func() time.Time { return now }))

	m.Observe("server_time", 10*time.Millisecond, nil)
	m.Observe("server_time", 30*time.Millisecond, nil)
	m.Observe("server_time", 20*time.Millisecond, errors.New("boom"))
	m.Observe("orderbook", 50*time.Millisecond, nil)

	now = now.Add(90 * time.Second)
	summary := m.Summary()

	if summary.UptimeSeconds != 90 {
		t.Errorf("expected uptime 90s, got %v", summary.UptimeSeconds)
	}
	if summary.TotalRequests != 4 {
		t.Errorf("expected 4 total requests, got %d", summary.TotalRequests)
	}
	if len(summary.Endpoints) != 2 {
		t.Fatalf("expected 2 endpoints, got %d", len(summary.Endpoints))
	}

	if summary.Endpoints[0].Endpoint != "orderbook" || summary.Endpoints[1].Endpoint != "server_time" {
		t.Fatalf("expected sorted endpoints, got %+v", summary.Endpoints)
	}

	st := summary.Endpoints[1]
	if st.RequestCount != 3 || st.ErrorCount != 1 {
		t.Errorf("unexpected counts %+v", st)
	}
	if want := 2.0 / 3.0; st.SuccessRate < want-0.001 || st.SuccessRate > want+0.001 {
		t.Errorf("expected success rate ~0.667, got %v", st.SuccessRate)
	}
	if st.AvgDurationMs != 20 {
		t.Errorf("expected avg 20ms, got %v", st.AvgDurationMs)
	}
	if st.P95DurationMs != 30 {
		t.Errorf("expected p95 30ms, got %v", st.P95DurationMs)
	}
}

func TestMetricsP95Window(t *testing.T) {
	m := NewMetrics()

	// Fill beyond the sample window; the early 1ms outliers must age out.
	for i := 0; i < sampleWindow; i++ {
		m.Observe("kline", time.Millisecond, nil)
	}
	for i := 0; i < sampleWindow; i++ {
		m.Observe("kline", 100*time.Millisecond, nil)
	}

	summary := m.Summary()
	if len(summary.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(summary.Endpoints))
	}
	if got := summary.Endpoints[0].P95DurationMs; got != 100 {
		t.Errorf("expected p95 100ms after window rollover, got %v", got)
	}
}

func TestMetricsReset(t *testing.T) {
	m := NewMetrics()
	m.Observe("ticker", time.Millisecond, nil)

	m.Reset()
	summary := m.Summary()
	if summary.TotalRequests != 0 || len(summary.Endpoints) != 0 {
		t.Errorf("expected empty summary after reset, got %+v", summary)
	}
}

func TestHealthRun(t *testing.T) {
	h := NewHealth()
	h.Register("whitebit_api", func(ctx context.Context) error { return nil })
	h.Register("redis", func(ctx context.Context) error { return errors.New("connection refused") })

	report := h.Run(context.Background())
	if report.Status != "unhealthy" {
		t.Errorf("expected unhealthy status, got %s", report.Status)
	}
	if report.Checks["whitebit_api"] != "ok" {
		t.Errorf("expected ok check, got %q", report.Checks["whitebit_api"])
	}
	if report.Checks["redis"] != "connection refused" {
		t.Errorf("expected failure text, got %q", report.Checks["redis"])
	}
}

func TestHealthAllPassing(t *testing.T) {
	h := NewHealth()
	h.Register("whitebit_api", func(ctx context.Context) error { return nil })

	report := h.Run(context.Background())
	if report.Status != "healthy" {
		t.Errorf("expected healthy status, got %s", report.Status)
	}
}
