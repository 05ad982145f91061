// Package metrics defines the Prometheus metric collectors used across the
// ranking platform and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the platform.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	DocumentsRankedTotal *prometheus.CounterVec
	TokensProcessedTotal prometheus.Counter
	RankLatency          *prometheus.HistogramVec
	RankedRowsCount      prometheus.Histogram
	ScoresDroppedTotal   prometheus.Counter
	MemoHitsTotal        prometheus.Counter
	MemoMissesTotal      prometheus.Counter
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	RankingsStoredTotal  *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		DocumentsRankedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "documents_ranked_total",
				Help: "Total documents ranked by outcome (ok, invalid, error).",
			},
			[]string{"outcome"},
		),
		TokensProcessedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tokens_processed_total",
				Help: "Total annotated tokens consumed by the ranking pipeline.",
			},
		),
		RankLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rank_latency_seconds",
				Help:    "Ranking pass latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"mode"},
		),
		RankedRowsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ranked_rows_count",
				Help:    "Number of rows returned per ranking request.",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		ScoresDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "scores_dropped_total",
				Help: "Words dropped from results for non-finite scores.",
			},
		),
		MemoHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lemma_memo_hits_total",
				Help: "Lemma memoization table hits.",
			},
		),
		MemoMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lemma_memo_misses_total",
				Help: "Lemma memoization table misses.",
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of ranking result cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of ranking result cache misses.",
			},
		),
		RankingsStoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rankings_stored_total",
				Help: "Ranked rows persisted to PostgreSQL by status (added, skipped, error).",
			},
			[]string{"status"},
		),
	}

	prometheus.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.DocumentsRankedTotal,
		m.TokensProcessedTotal,
		m.RankLatency,
		m.RankedRowsCount,
		m.ScoresDroppedTotal,
		m.MemoHitsTotal,
		m.MemoMissesTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.RankingsStoredTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
