// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package services adapts Cadence components to suture.Service.
//
//   - HTTPServerService: *http.Server with graceful shutdown (api layer)
//   - ProfileMaintenanceService: periodic Badger value log GC (data layer)
//   - EventRouterService: Watermill rating event router (messaging layer)
//
// Every service returns ctx.Err() on cancellation and a wrapped error on
// failure, which tells suture to restart it under the tree's backoff policy.
package services
