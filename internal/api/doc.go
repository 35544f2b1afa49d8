// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package api exposes the recommendation engine over HTTP using chi.

Routes (all JSON):

	GET  /health                                  dependency health
	GET  /health/live                             liveness probe
	GET  /metrics                                 Prometheus exposition

	GET  /api/v1/recommendations                  personalized list
	GET  /api/v1/recommendations/context/{context} context-only list
	GET  /api/v1/tracks/{trackID}/similar         same-cluster similar tracks
	GET  /api/v1/tracks/{trackID}/matches/{context} context check
	GET  /api/v1/trending                         popular tracks and new releases
	PUT  /api/v1/users/{userID}                   create profile (idempotent)
	POST /api/v1/users/{userID}/ratings           rate a track
	GET  /api/v1/users/{userID}/insights          listening insights
	GET  /api/v1/users/{userID}/history           paginated rating history

Every response uses one envelope:

	{"status":"success","data":{...},"metadata":{"timestamp":"...","request_id":"...","query_time_ms":3}}
	{"status":"error","error":{"code":"NOT_FOUND","message":"..."},"metadata":{...}}

Engine errors map to status codes by sentinel: ErrValidation is 400,
ErrNotFound is 404, ErrStoreUnavailable is 503 and anything else is 500.
Messages of 5xx responses are generic; the cause is logged with the
request id instead.

Middleware stack, outermost first: request id, real IP, panic recovery,
CORS, gzip, access log and Prometheus metrics. The /api/v1 group is
additionally rate limited per client IP with go-chi/httprate.
*/
package api
