package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Generations
	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generations_total",
			Help: "Generations committed (debited and recorded)",
		},
		[]string{"content_type"},
	)
	GenerationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_failures_total",
			Help: "Generations that did not commit",
		},
		[]string{"reason"}, // backend|rate_limited|insufficient|persist
	)
	GenerationLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_latency_seconds",
			Help:    "Latency of content generation backend calls.",
			Buckets: []float64{.25, .5, 1, 2, 5, 10, 20, 40},
		},
	)

	// Ledger
	TokensDebited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tokens_debited_total",
			Help: "Units debited from balances",
		},
	)
	InsufficientBalance = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "insufficient_balance_total",
			Help: "Debits rejected for insufficient balance",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	// HTTP
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		},
		[]string{"method", "route", "code"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: []float64{.005, .025, .1, .25, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "route"},
	)
	HTTPResponseBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_response_bytes_total",
			Help: "Response body bytes written by route pattern",
		},
		[]string{"route"},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			GenerationsTotal,
			GenerationFailures,
			GenerationLatency,
			TokensDebited,
			InsufficientBalance,
			WorkerQueueDepth,
			HTTPRequests,
			HTTPDuration,
			HTTPResponseBytes,
		)
	})
}
