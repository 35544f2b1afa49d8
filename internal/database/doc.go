// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package database stores the track catalog in DuckDB and implements
// recommend.TrackStore.
//
// # Architecture
//
//   - database.go: lifecycle (open, initialize, checkpoint, close)
//   - database_schema.go: tracks table and indexes
//   - database_connection.go: pool configuration and error classification
//   - query_builder.go: TrackQuery to SQL translation
//   - tracks.go: Find, GetTrack, UpsertTracks, SetActive
//   - seed.go: JSON seed files and synthetic demo catalogs
//
// # Query Semantics
//
// Feature range constraints compile to "(col IS NULL OR col BETWEEN ? AND ?)",
// so a track missing a feature passes that constraint exactly as
// recommend.InRange does in memory. Results are ordered by the requested
// column with id as tie-breaker.
//
// # Errors
//
// Every failed query is wrapped in recommend.ErrStoreUnavailable; a missing
// id is recommend.ErrNotFound.
//
// # Usage
//
//	db, err := database.New(&cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	tracks, err := db.Find(ctx, recommend.TrackQuery{
//	    ActiveOnly: true,
//	    Ranges:     recommend.Constraints(recommend.ContextWorkout),
//	    Sort:       recommend.SortOrder{By: recommend.SortByPopularity, Desc: true},
//	    Limit:      40,
//	})
package database
