// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package catalog is the external music catalog adapter.

Client implements recommend.Catalog against a Spotify-compatible Web API:

  - SearchSimilar calls /v1/recommendations with per-context seed genres,
    target_* values from the user's preference vector and the context's
    min_* / max_* ranges, then attaches audio features in one batch call.
  - Enrich searches by name and primary artist and attaches URLs, artwork,
    release date and artist genres. Features the local track lacks are
    filled from the catalog.
  - NewReleases maps /v1/browse/new-releases albums to track entries.

Resilience:

  - Access tokens: OAuth2 client credentials (golang.org/x/oauth2)
  - Rate limiting: token bucket (golang.org/x/time/rate)
  - Circuit breaker: sony/gobreaker, opens after N consecutive failures
  - Retries: 429, 5xx and transport errors, exponential backoff, Retry-After

Every error wraps recommend.ErrExternalService. The engine treats all catalog
calls as best-effort.
*/
package catalog
