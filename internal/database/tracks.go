// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// featureOrder fixes the column order of the feature block.
var featureOrder = []recommend.Feature{
	recommend.FeatureDanceability,
	recommend.FeatureEnergy,
	recommend.FeatureValence,
	recommend.FeatureAcousticness,
	recommend.FeatureSpeechiness,
	recommend.FeatureInstrumentalness,
	recommend.FeatureLiveness,
	recommend.FeatureLoudness,
	recommend.FeatureTempo,
	recommend.FeatureKey,
	recommend.FeatureMode,
	recommend.FeatureTimeSignature,
	recommend.FeatureDurationMS,
}

var trackColumns = func() string {
	cols := []string{"id", "name", "artists", "album", "year", "explicit"}
	for _, f := range featureOrder {
		cols = append(cols, featureColumns[f])
	}
	cols = append(cols, "popularity", "cluster", "active")
	return strings.Join(cols, ", ")
}()

// maxUpsertRetries bounds retries on DuckDB transaction conflicts.
const maxUpsertRetries = 3

func scanTrack(rows *sql.Rows) (recommend.Track, error) {
	var (
		t        recommend.Track
		artists  string
		features = make([]sql.NullFloat64, len(featureOrder))
	)

	dest := []interface{}{&t.ID, &t.Name, &artists, &t.Album, &t.Year, &t.Explicit}
	for i := range features {
		dest = append(dest, &features[i])
	}
	dest = append(dest, &t.Popularity, &t.Cluster, &t.Active)

	if err := rows.Scan(dest...); err != nil {
		return recommend.Track{}, err
	}

	if err := json.Unmarshal([]byte(artists), &t.Artists); err != nil {
		return recommend.Track{}, fmt.Errorf("decode artists for %s: %w", t.ID, err)
	}
	for i, f := range featureOrder {
		if features[i].Valid {
			t.Features.Set(f, features[i].Float64)
		}
	}
	return t, nil
}

// Find returns tracks matching q.
//
//nolint:gocritic // hugeParam: q passed by value per recommend.TrackStore
func (db *DB) Find(ctx context.Context, q recommend.TrackQuery) ([]recommend.Track, error) {
	query, args, err := buildTrackQuery(q)
	if err != nil {
		return nil, fmt.Errorf("build track query: %w", err)
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tracks, err := queryAndScan(ctx, db.conn, query, args, scanTrack)
	metrics.RecordDBQuery("find", time.Since(start), err)
	if err != nil {
		return nil, storeError("find tracks", err)
	}

	logging.Debug().
		Int("returned", len(tracks)).
		Int("limit", q.Limit).
		Int("excluded", len(q.ExcludeIDs)).
		Dur("duration", time.Since(start)).
		Msg("Track query")
	return tracks, nil
}

// GetTrack returns one track by id, active or not.
func (db *DB) GetTrack(ctx context.Context, id string) (recommend.Track, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	tracks, err := queryAndScan(ctx, db.conn,
		"SELECT "+trackColumns+" FROM tracks WHERE id = ?", []interface{}{id}, scanTrack)
	metrics.RecordDBQuery("get_track", time.Since(start), err)
	if err != nil {
		return recommend.Track{}, storeError("get track", err)
	}
	if len(tracks) == 0 {
		return recommend.Track{}, fmt.Errorf("track %s: %w", id, recommend.ErrNotFound)
	}
	return tracks[0], nil
}

// UpsertTracks inserts or replaces tracks in one transaction. Tracks with
// invalid features are rejected before anything is written.
func (db *DB) UpsertTracks(ctx context.Context, tracks []recommend.Track) error {
	if len(tracks) == 0 {
		return nil
	}
	for i := range tracks {
		if strings.TrimSpace(tracks[i].ID) == "" {
			return &recommend.ValidationError{Field: "id", Message: fmt.Sprintf("track %d has no id", i)}
		}
		if err := tracks[i].Features.Validate(); err != nil {
			return fmt.Errorf("track %s: %w", tracks[i].ID, err)
		}
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	var err error
	for attempt := 0; attempt < maxUpsertRetries; attempt++ {
		if err = db.upsertTx(ctx, tracks); err == nil || !isTransactionConflict(err) {
			break
		}
		logging.Debug().Int("attempt", attempt+1).Err(err).Msg("Track upsert conflict, retrying")
	}
	metrics.RecordDBQuery("upsert", time.Since(start), err)
	if err != nil {
		return storeError("upsert tracks", err)
	}

	logging.Debug().Int("count", len(tracks)).Msg("Upserted tracks")
	return nil
}

func (db *DB) upsertTx(ctx context.Context, tracks []recommend.Track) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 9+len(featureOrder)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		"INSERT OR REPLACE INTO tracks ("+trackColumns+", updated_at) VALUES ("+placeholders+", current_timestamp)")
	if err != nil {
		return err
	}
	defer closeWithLog(stmt, "upsert statement")

	for i := range tracks {
		args, err := trackArgs(&tracks[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("insert %s: %w", tracks[i].ID, err)
		}
	}

	return tx.Commit()
}

func trackArgs(t *recommend.Track) ([]interface{}, error) {
	artists := t.Artists
	if artists == nil {
		artists = []string{}
	}
	encoded, err := json.Marshal(artists)
	if err != nil {
		return nil, fmt.Errorf("encode artists for %s: %w", t.ID, err)
	}

	args := []interface{}{t.ID, t.Name, string(encoded), t.Album, t.Year, t.Explicit}
	for _, f := range featureOrder {
		if v, ok := t.Features.Get(f); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return append(args, t.Popularity, t.Cluster, t.Active), nil
}

// SetActive marks a track active or logically deleted.
func (db *DB) SetActive(ctx context.Context, id string, active bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	res, err := db.conn.ExecContext(ctx,
		"UPDATE tracks SET active = ?, updated_at = current_timestamp WHERE id = ?", active, id)
	if err != nil {
		return storeError("set active", err)
	}
	n, err := res.RowsAffected()
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return storeError("set active", err)
	}
	if n == 0 {
		return fmt.Errorf("track %s: %w", id, recommend.ErrNotFound)
	}
	return nil
}

var _ recommend.TrackStore = (*DB)(nil)
