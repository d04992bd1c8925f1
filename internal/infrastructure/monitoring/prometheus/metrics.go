// Package prometheus registers and serves the platform metrics.
package prometheus

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AppMetrics holds all application metrics.
type AppMetrics struct {
	registry *prometheus.Registry

	// HTTP layer
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Evaluation pipeline
	jobsFinishedTotal   *prometheus.CounterVec
	stageDuration       *prometheus.HistogramVec
	collaboratorLatency *prometheus.HistogramVec
	collaboratorErrors  *prometheus.CounterVec

	// Credit ledger
	ledgerTransactionsTotal *prometheus.CounterVec
	tokensMovedTotal        *prometheus.CounterVec
}

var (
	httpDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	stageDurationBuckets = []float64{1, 5, 10, 30, 60, 120, 300, 600}
	modelLatencyBuckets  = []float64{.5, 1, 2, 5, 10, 30, 60, 120}
)

// NewAppMetrics registers all metrics on a fresh registry.
func NewAppMetrics(namespace string) *AppMetrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &AppMetrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status_code"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration",
			Buckets:   httpDurationBuckets,
		}, []string{"method", "path"}),
		jobsFinishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Evaluation jobs finished, by terminal status",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Pipeline stage duration",
			Buckets:   stageDurationBuckets,
		}, []string{"stage"}),
		collaboratorLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "collaborator_latency_seconds",
			Help:      "External collaborator call latency",
			Buckets:   modelLatencyBuckets,
		}, []string{"collaborator"}),
		collaboratorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_errors_total",
			Help:      "External collaborator call failures",
		}, []string{"collaborator"}),
		ledgerTransactionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_transactions_total",
			Help:      "Ledger transactions applied, by kind",
		}, []string{"kind"}),
		tokensMovedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_moved_total",
			Help:      "Tokens moved through the ledger, by kind",
		}, []string{"kind"}),
	}

	registry.MustRegister(
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.jobsFinishedTotal,
		m.stageDuration,
		m.collaboratorLatency,
		m.collaboratorErrors,
		m.ledgerTransactionsTotal,
		m.tokensMovedTotal,
	)
	return m
}

// Handler serves the registry for scraping.
func (m *AppMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// JobFinished counts a terminal job by status.
func (m *AppMetrics) JobFinished(status string) {
	m.jobsFinishedTotal.WithLabelValues(status).Inc()
}

// StageObserved records one pipeline stage duration.
func (m *AppMetrics) StageObserved(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// CollaboratorCall records the latency and outcome of one external call.
func (m *AppMetrics) CollaboratorCall(name string, seconds float64, err error) {
	m.collaboratorLatency.WithLabelValues(name).Observe(seconds)
	if err != nil {
		m.collaboratorErrors.WithLabelValues(name).Inc()
	}
}

// LedgerTransaction counts one applied ledger transaction.
func (m *AppMetrics) LedgerTransaction(kind string, amount int64) {
	m.ledgerTransactionsTotal.WithLabelValues(kind).Inc()
	m.tokensMovedTotal.WithLabelValues(kind).Add(float64(amount))
}

// RecordHTTPRequest records one served request.
func (m *AppMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
