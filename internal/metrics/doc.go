// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package metrics provides Prometheus metrics collection and export for observability.

Static vectors are created with promauto on the default registry. The engine
and the result cache keep their own counters; RegisterEngineStats and
RegisterCacheStats expose those through CounterFunc and GaugeFunc collectors
so nothing is counted twice.

# Metrics Endpoint

Metrics are exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

API Metrics:
  - api_requests_total: Requests by method, route pattern and status code
  - api_request_duration_seconds: Request latency by method and route pattern
  - api_active_requests: In-flight requests
  - api_rate_limit_hits_total: Requests rejected by the rate limiter

Recommendation Metrics:
  - recommend_operation_duration_seconds: Engine calls by operation and outcome
  - recommend_results_total: Lists served by strategy and context
  - recommend_ratings_total: Ratings recorded by context
  - recommend_requests_total, recommend_cache_hits_total,
    recommend_cache_misses_total, recommend_cold_starts_total,
    recommend_fallbacks_total, recommend_errors_total: engine counters

Store Metrics:
  - duckdb_query_duration_seconds, duckdb_query_errors_total: track store
  - profile_store_operations_total: profile store calls by outcome
  - profile_store_gc_runs_total: Badger value log GC runs

External Catalog Metrics:
  - catalog_requests_total, catalog_request_duration_seconds
  - catalog_retries_total: HTTP retries by status code
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open
  - circuit_breaker_requests_total: success, failure or rejected
  - circuit_breaker_consecutive_failures
  - circuit_breaker_state_transitions_total

Cache and Event Metrics:
  - cache_hits_total, cache_misses_total, cache_evictions_total, cache_entries
  - events_published_total, events_consumed_total
  - recommend_cache_invalidated_entries_total

# Example Alerts

	groups:
	  - name: cadence
	    rules:
	      - alert: CatalogCircuitOpen
	        expr: circuit_breaker_state{name="catalog"} == 2
	        for: 5m
	      - alert: RecommendationFallbacks
	        expr: rate(recommend_fallbacks_total[5m]) > 1
	        for: 10m
*/
package metrics
