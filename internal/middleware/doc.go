// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package middleware provides chi-compatible HTTP middleware for Cadence.

  - RequestID: accepts or generates X-Request-ID and puts a request-scoped
    zerolog logger in the context
  - PrometheusMetrics: request count, latency and in-flight gauge labeled by
    chi route pattern
  - AccessLog: one structured log line per request, warn for slow or failed
    requests

Order matters. RequestID must run first so later middleware and handlers
log with the request id:

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.AccessLog(time.Second))
	r.Use(middleware.PrometheusMetrics)

Route patterns are only known after chi has routed the request, which is
why PrometheusMetrics and AccessLog read the pattern after calling next.
*/
package middleware
