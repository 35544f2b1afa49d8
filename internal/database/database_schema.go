// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
database_schema.go - Database Schema Management

Tables:
  - tracks: one row per track. Every audio feature is a nullable DOUBLE
    column named after the feature (key and mode are stored as musical_key
    and musical_mode); NULL means the feature is unknown.
    artists is a JSON array of names, primary artist first.

Index Strategy:
Indexes are created for the columns the recommender filters and sorts on
(cluster, popularity, active).
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getTableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func getTableCreationQueries() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			artists TEXT NOT NULL DEFAULT '[]',
			album TEXT NOT NULL DEFAULT '',
			year INTEGER NOT NULL DEFAULT 0,
			explicit BOOLEAN NOT NULL DEFAULT false,

			danceability DOUBLE,
			energy DOUBLE,
			valence DOUBLE,
			acousticness DOUBLE,
			speechiness DOUBLE,
			instrumentalness DOUBLE,
			liveness DOUBLE,
			loudness DOUBLE,
			tempo DOUBLE,
			musical_key DOUBLE,
			musical_mode DOUBLE,
			time_signature DOUBLE,
			duration_ms DOUBLE,

			popularity DOUBLE NOT NULL DEFAULT 0,
			cluster INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP DEFAULT current_timestamp,
			updated_at TIMESTAMP DEFAULT current_timestamp
		)`,
	}
}

// createIndexes creates indexes for the recommender's access paths
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range getIndexQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}
	return nil
}

func getIndexQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_tracks_cluster ON tracks(cluster)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_popularity ON tracks(popularity)`,
		`CREATE INDEX IF NOT EXISTS idx_tracks_active ON tracks(active)`,
	}
}
