// Package monitoring collects per-endpoint request metrics and runs
// health checks for the web status surface.
package monitoring

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"
)

// sampleWindow bounds how many recent durations feed the p95 estimate.
const sampleWindow = 128

type endpointStats struct {
	requests  int64
	errors    int64
	totalDur  time.Duration
	durations []time.Duration
	next      int
	filled    bool
}

// Metrics aggregates request counts and latencies per upstream endpoint.
type Metrics struct {
	mu        sync.Mutex
	now       func() time.Time
	started   time.Time
	endpoints map[string]*endpointStats
}

type MetricsOption func(*Metrics)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MetricsOption {
	return func(m *Metrics) { m.now = now }
}

func NewMetrics(opts ...MetricsOption) *Metrics {
	m := &Metrics{
		now:       time.Now,
		endpoints: make(map[string]*endpointStats),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.started = m.now()
	return m
}

// Observe records one call against an endpoint.
func (m *Metrics) Observe(endpoint string, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.endpoints[endpoint]
	if !ok {
		stats = &endpointStats{durations: make([]time.Duration, sampleWindow)}
		m.endpoints[endpoint] = stats
	}

	stats.requests++
	if err != nil {
		stats.errors++
	}
	stats.totalDur += d
	stats.durations[stats.next] = d
	stats.next++
	if stats.next == sampleWindow {
		stats.next = 0
		stats.filled = true
	}
}

// Reset discards all recorded metrics and restarts the uptime clock.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints = make(map[string]*endpointStats)
	m.started = m.now()
}

// EndpointSummary is the aggregated view of one endpoint.
type EndpointSummary struct {
	Endpoint      string  `json:"endpoint"`
	RequestCount  int64   `json:"request_count"`
	ErrorCount    int64   `json:"error_count"`
	SuccessRate   float64 `json:"success_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	P95DurationMs float64 `json:"p95_duration_ms"`
}

// Summary is the full metrics report.
type Summary struct {
	UptimeSeconds float64           `json:"uptime_seconds"`
	TotalRequests int64             `json:"total_requests"`
	Endpoints     []EndpointSummary `json:"endpoints"`
}

func (m *Metrics) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := Summary{
		UptimeSeconds: m.now().Sub(m.started).Seconds(),
		Endpoints:     make([]EndpointSummary, 0, len(m.endpoints)),
	}

	for endpoint, stats := range m.endpoints {
		out.TotalRequests += stats.requests

		entry := EndpointSummary{
			Endpoint:     endpoint,
			RequestCount: stats.requests,
			ErrorCount:   stats.errors,
		}
		if stats.requests > 0 {
			entry.SuccessRate = float64(stats.requests-stats.errors) / float64(stats.requests)
			entry.AvgDurationMs = float64(stats.totalDur.Milliseconds()) / float64(stats.requests)
		}
		entry.P95DurationMs = p95(stats)
		out.Endpoints = append(out.Endpoints, entry)
	}

	sort.Slice(out.Endpoints, func(i, j int) bool {
		return out.Endpoints[i].Endpoint < out.Endpoints[j].Endpoint
	})
	return out
}

func p95(stats *endpointStats) float64 {
	n := stats.next
	if stats.filled {
		n = sampleWindow
	}
	if n == 0 {
		return 0
	}

	samples := make([]time.Duration, n)
	copy(samples, stats.durations[:n])
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })

	idx := int(math.Ceil(0.95*float64(n))) - 1
	if idx < 0 {
		idx = 0
	}
	return float64(samples[idx].Milliseconds())
}

// CheckFunc probes one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

// Health runs named checks and folds them into a single status.
type Health struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealth() *Health {
	return &Health{checks: make(map[string]CheckFunc)}
}

func (h *Health) Register(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Report is the aggregate health view. Status is "healthy" only when every
// check passed; Checks maps check names to "ok" or the failure text.
type Report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (h *Health) Run(ctx context.Context) Report {
	h.mu.RLock()
	checks := make(map[string]CheckFunc, len(h.checks))
	for name, check := range h.checks {
		checks[name] = check
	}
	h.mu.RUnlock()

	report := Report{Status: "healthy", Checks: make(map[string]string, len(checks))}
	for name, check := range checks {
		if err := check(ctx); err != nil {
			report.Status = "unhealthy"
			report.Checks[name] = err.Error()
			continue
		}
		report.Checks[name] = "ok"
	}
	return report
}
