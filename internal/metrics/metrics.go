// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/recommend"
)

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB track queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Profile store Metrics
	ProfileOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_store_operations_total",
			Help: "Total number of profile store operations",
		},
		[]string{"operation", "outcome"},
	)

	ProfileGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profile_store_gc_runs_total",
			Help: "Total number of Badger value log GC runs",
		},
		[]string{"outcome"},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Recommendation Metrics
	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_operation_duration_seconds",
			Help:    "Duration of recommendation operations in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation", "outcome"},
	)

	RecommendStrategy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_results_total",
			Help: "Recommendation lists served by composition strategy",
		},
		[]string{"strategy", "context"},
	)

	RatingsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_ratings_total",
			Help: "Total number of ratings recorded",
		},
		[]string{"context"},
	)

	// External catalog Metrics
	CatalogRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_requests_total",
			Help: "Total number of external catalog calls",
		},
		[]string{"operation", "outcome"},
	)

	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_request_duration_seconds",
			Help:    "External catalog call duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)

	CatalogRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_retries_total",
			Help: "HTTP retries against the external catalog by status",
		},
		[]string{"status_code"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Event Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published",
		},
		[]string{"topic", "outcome"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_consumed_total",
			Help: "Total number of events handled by consumers",
		},
		[]string{"handler", "outcome"},
	)

	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommend_cache_invalidated_entries_total",
			Help: "Cached recommendation lists dropped after a rating",
		},
	)

	// System Metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version information",
		},
		[]string{"version", "go_version"},
	)
)

// outcome labels used across vectors.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Outcome maps err onto a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, recommend.ErrNotFound):
		return "not_found"
	case errors.Is(err, recommend.ErrValidation):
		return "invalid"
	case errors.Is(err, recommend.ErrStoreUnavailable):
		return "unavailable"
	default:
		return OutcomeError
	}
}

// RecordDBQuery records a track store query.
func RecordDBQuery(operation string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}

// RecordProfileOperation records a profile store call.
func RecordProfileOperation(operation string, err error) {
	ProfileOperations.WithLabelValues(operation, Outcome(err)).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordRecommendation records one engine operation.
func RecordRecommendation(operation string, duration time.Duration, err error) {
	RecommendDuration.WithLabelValues(operation, Outcome(err)).Observe(duration.Seconds())
}

// RecordCatalogRequest records one external catalog call.
func RecordCatalogRequest(operation string, duration time.Duration, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	CatalogRequests.WithLabelValues(operation, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordEventPublish records a publish attempt.
func RecordEventPublish(topic string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	EventsPublished.WithLabelValues(topic, outcome).Inc()
}

// RecordEventConsumed records a handled message.
func RecordEventConsumed(handler string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	EventsConsumed.WithLabelValues(handler, outcome).Inc()
}

// RegisterEngineStats exports the engine's own counters. stats is called on
// every scrape.
func RegisterEngineStats(reg prometheus.Registerer, stats func() recommend.Stats) error {
	counters := []struct {
		name, help string
		value      func(recommend.Stats) int64
	}{
		{"recommend_requests_total", "Engine requests handled", func(s recommend.Stats) int64 { return s.Requests }},
		{"recommend_cache_hits_total", "Recommendation lists served from cache", func(s recommend.Stats) int64 { return s.CacheHits }},
		{"recommend_cache_misses_total", "Recommendation lists composed", func(s recommend.Stats) int64 { return s.CacheMisses }},
		{"recommend_cold_starts_total", "Requests answered for users without history", func(s recommend.Stats) int64 { return s.ColdStarts }},
		{"recommend_fallbacks_total", "Requests degraded to the popularity list", func(s recommend.Stats) int64 { return s.Fallbacks }},
		{"recommend_errors_total", "Engine requests that returned an error", func(s recommend.Stats) int64 { return s.Errors }},
	}

	for _, c := range counters {
		value := c.value
		err := reg.Register(prometheus.NewCounterFunc(
			prometheus.CounterOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(value(stats())) },
		))
		if err != nil {
			return err
		}
	}
	return nil
}

// RegisterCacheStats exports a result cache's statistics under the given
// cache_type label.
func RegisterCacheStats(reg prometheus.Registerer, cacheType string, stats func() cache.Stats) error {
	labels := prometheus.Labels{"cache_type": cacheType}
	collectors := []prometheus.Collector{
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "cache_hits_total", Help: "Total number of cache hits", ConstLabels: labels,
		}, func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "cache_misses_total", Help: "Total number of cache misses", ConstLabels: labels,
		}, func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name: "cache_evictions_total", Help: "Total number of cache evictions", ConstLabels: labels,
		}, func() float64 { return float64(stats().Evictions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "cache_entries", Help: "Current number of cached entries", ConstLabels: labels,
		}, func() float64 { return float64(stats().TotalKeys) }),
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
