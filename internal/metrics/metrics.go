// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package metrics exposes Prometheus instrumentation for the HTTP
// layer, the SQLite store, upstream API clients, and the caches.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbase_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starbase_http_active_requests",
			Help: "Current number of in-flight HTTP requests",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_rate_limit_rejections_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"route"},
	)

	// Database metrics.
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbase_db_query_duration_seconds",
			Help:    "Duration of SQLite queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_db_query_errors_total",
			Help: "Total number of SQLite query errors",
		},
		[]string{"operation", "table"},
	)

	// Upstream API client metrics.
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"source", "outcome"},
	)

	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "starbase_upstream_request_duration_seconds",
			Help:    "Upstream API request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"source"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starbase_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"source"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"source", "from", "to"},
	)

	// Cache metrics.
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)

	PayloadFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_payload_fallbacks_total",
			Help: "Total number of responses served from the stale payload store",
		},
		[]string{"source"},
	)

	// WebSocket metrics.
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "starbase_websocket_connections",
			Help: "Current number of WebSocket connections",
		},
	)

	WebSocketMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_websocket_messages_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"topic"},
	)

	// Ingest metrics.
	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_ingest_runs_total",
			Help: "Total number of background ingest runs",
		},
		[]string{"source", "outcome"},
	)

	IngestLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "starbase_ingest_last_success_timestamp_seconds",
			Help: "Unix time of the last successful ingest per source",
		},
		[]string{"source"},
	)

	// Auth metrics.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	LogEntryViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "starbase_log_entry_views_total",
			Help: "Total number of log entry view increments",
		},
	)

	PageRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "starbase_page_renders_total",
			Help: "Total number of HTML page renders by template",
		},
		[]string{"template"},
	)
)

// RecordHTTPRequest records a completed HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDBQuery records a database query with its outcome.
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, table).Inc()
	}
}

// RecordUpstreamRequest records an upstream API call with its outcome.
func RecordUpstreamRequest(source string, duration time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	UpstreamRequests.WithLabelValues(source, outcome).Inc()
	UpstreamRequestDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordIngestRun records a background ingest run.
func RecordIngestRun(source string, err error) {
	if err != nil {
		IngestRuns.WithLabelValues(source, "failure").Inc()
		return
	}
	IngestRuns.WithLabelValues(source, "success").Inc()
	IngestLastSuccess.WithLabelValues(source).SetToCurrentTime()
}
