// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package profile stores user taste profiles in BadgerDB.
//
// Store implements recommend.ProfileStore. Each profile is one JSON value
// under "profile:<userID>". Update is a read-modify-write inside a single
// Badger transaction, serialized per user by a striped lock, so a rating
// either lands completely or not at all.
package profile
