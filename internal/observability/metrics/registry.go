// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics. The path label is always a route pattern, never a raw URL.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Buckets cover 5ms up to 10s so p95/p99 stay readable.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)

	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)
)

// Domain metrics.
var (
	ArticlesWrittenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_written_total",
			Help: "Articles created, updated, deleted or transitioned",
		},
		[]string{"operation"},
	)

	// SlugCollisionsTotal counts inserts that lost a slug race and were retried.
	SlugCollisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slug_collisions_total",
			Help: "Unique violations on slug columns that triggered a retry",
		},
		[]string{"resource"},
	)

	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "article_summaries_total",
			Help: "Summaries produced, by provider and outcome",
		},
		[]string{"provider", "outcome"}, // outcome: success, fallback
	)

	SummarizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarization_duration_seconds",
			Help:    "Time taken to summarize an article",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		},
		[]string{"provider"},
	)

	AssetsUploadedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assets_uploaded_total",
			Help: "Uploaded assets by type",
		},
		[]string{"type"},
	)

	AssetUploadBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "asset_upload_bytes",
			Help:    "Size of uploaded assets in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 9), // 1KiB .. 64MiB
		},
	)

	AuthEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by kind and result",
		},
		[]string{"event", "result"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"circuit"},
	)
)

// Database metrics
var (
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)
