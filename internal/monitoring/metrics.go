package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/draftworks/batchd/internal/pipeline"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Validation metrics
	ItemsChecked  prometheus.Counter
	ItemsAccepted prometheus.Counter
	ItemsRejected *prometheus.CounterVec

	// Build metrics
	WorkersBusy prometheus.Gauge

	// Run metrics
	RunActive   prometheus.Gauge
	RunsTotal   prometheus.Counter
	RunFailures prometheus.Counter
	RunDuration prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON status endpoint.
type Snapshot struct {
	TotalRequests int64   `json:"total_requests"`
	RunsTotal     int64   `json:"runs_total"`
	RunFailures   int64   `json:"run_failures"`
	ItemsAccepted int64   `json:"items_accepted"`
	ItemsRejected int64   `json:"items_rejected"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchd_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "batchd_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		ItemsChecked: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "batchd_items_checked_total",
				Help: "Total number of items run through the validation stage",
			},
		),
		ItemsAccepted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "batchd_items_accepted_total",
				Help: "Total number of items accepted for building",
			},
		),
		ItemsRejected: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "batchd_items_rejected_total",
				Help: "Total number of items rejected, by reason",
			},
			[]string{"reason"},
		),

		WorkersBusy: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchd_build_workers_busy",
				Help: "Number of build workers currently executing the external action",
			},
		),

		RunActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchd_run_active",
				Help: "1 while a pipeline run is in flight",
			},
		),
		RunsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "batchd_runs_total",
				Help: "Total number of pipeline runs started",
			},
		),
		RunFailures: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "batchd_run_failures_total",
				Help: "Total number of runs terminated by a fatal stage error",
			},
		),
		RunDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "batchd_run_duration_seconds",
				Help:    "End-to-end duration of completed pipeline runs",
				Buckets: []float64{.1, .5, 1, 5, 15, 30, 60, 120, 300, 600},
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchd_ws_connections",
				Help: "Number of connected log-console WebSocket clients",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "batchd_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
	return m
}

// RecordHTTPRequest records one handled HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.mu.Unlock()
}

// GetSnapshot returns current metric values for the JSON status endpoint.
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := m.snapshot
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}

// ItemChecked implements pipeline.Observer.
func (m *Metrics) ItemChecked(accepted bool, reason pipeline.RejectReason) {
	m.ItemsChecked.Inc()
	m.mu.Lock()
	defer m.mu.Unlock()
	if accepted {
		m.ItemsAccepted.Inc()
		m.snapshot.ItemsAccepted++
		return
	}
	m.ItemsRejected.WithLabelValues(string(reason)).Inc()
	m.snapshot.ItemsRejected++
}

// BuildWorkersBusy implements pipeline.Observer.
func (m *Metrics) BuildWorkersBusy(delta int) {
	m.WorkersBusy.Add(float64(delta))
}

// RunStarted implements pipeline.Observer.
func (m *Metrics) RunStarted(workers int) {
	m.RunActive.Set(1)
	m.RunsTotal.Inc()
	m.mu.Lock()
	m.snapshot.RunsTotal++
	m.mu.Unlock()
}

// RunFinished implements pipeline.Observer.
func (m *Metrics) RunFinished(d time.Duration, err error) {
	m.RunActive.Set(0)
	m.RunDuration.Observe(d.Seconds())
	if err != nil {
		m.RunFailures.Inc()
		m.mu.Lock()
		m.snapshot.RunFailures++
		m.mu.Unlock()
	}
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}
