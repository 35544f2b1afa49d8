// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// seedBatchSize bounds one upsert transaction during seeding.
const seedBatchSize = 500

// LoadSeedFile upserts the tracks in a JSON file holding an array of tracks
// and returns how many were loaded. Tracks without an explicit "active"
// field are loaded as active.
func (db *DB) LoadSeedFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}

	var raw []struct {
		recommend.Track
		Active *bool `json:"active"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return 0, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	tracks := make([]recommend.Track, len(raw))
	for i := range raw {
		tracks[i] = raw[i].Track
		tracks[i].Active = raw[i].Active == nil || *raw[i].Active
	}

	if err := db.upsertBatches(ctx, tracks); err != nil {
		return 0, err
	}

	logging.Info().Str("path", path).Int("tracks", len(tracks)).Msg("Loaded seed tracks")
	return len(tracks), nil
}

// SeedMockData generates n synthetic tracks spread across clusters. The
// same seed always produces the same catalog. Intended for demos and local
// development only.
func (db *DB) SeedMockData(ctx context.Context, n int, seed uint64) error {
	logging.Info().Int("tracks", n).Msg("Seeding database with mock tracks...")

	const numClusters = 8

	artists := []string{
		"The Lanterns", "Mira Vale", "Northbound", "Kilo Echo", "Static Bloom",
		"June Harbor", "Pale Rivers", "Omar Lind", "Sable", "Neon Choir",
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	unit := func(center float64) float64 {
		v := center + (rng.Float64()-0.5)*0.5
		return math.Round(math.Max(0, math.Min(1, v))*1000) / 1000
	}

	tracks := make([]recommend.Track, 0, n)
	for i := 0; i < n; i++ {
		cluster := i % numClusters
		// Each cluster has its own sonic center so cluster blends differ.
		center := (float64(cluster) + 0.5) / numClusters

		tracks = append(tracks, recommend.Track{
			ID:         fmt.Sprintf("mock-%05d", i),
			Name:       fmt.Sprintf("Track %d", i),
			Artists:    []string{artists[rng.IntN(len(artists))]},
			Album:      fmt.Sprintf("Album %d", i/10),
			Year:       1970 + rng.IntN(56),
			Explicit:   rng.IntN(10) == 0,
			Popularity: math.Round(rng.Float64()*10000) / 100,
			Cluster:    cluster,
			Active:     rng.IntN(50) != 0,
			Features: recommend.FeatureVector{
				Danceability:     recommend.Float(unit(center)),
				Energy:           recommend.Float(unit(center)),
				Valence:          recommend.Float(unit(1 - center)),
				Acousticness:     recommend.Float(unit(1 - center)),
				Speechiness:      recommend.Float(unit(0.1)),
				Instrumentalness: recommend.Float(unit(0.3)),
				Liveness:         recommend.Float(unit(0.2)),
				Loudness:         recommend.Float(-20 + rng.Float64()*18),
				Tempo:            recommend.Float(math.Round(60 + center*120 + rng.Float64()*20)),
				Key:              recommend.Float(float64(rng.IntN(12))),
				Mode:             recommend.Float(float64(rng.IntN(2))),
				TimeSignature:    recommend.Float(4),
				DurationMS:       recommend.Float(float64(150000 + rng.IntN(150000))),
			},
		})
	}

	if err := db.upsertBatches(ctx, tracks); err != nil {
		return err
	}

	logging.Info().Int("tracks", n).Int("clusters", numClusters).Msg("Mock data seeding complete")
	return nil
}

func (db *DB) upsertBatches(ctx context.Context, tracks []recommend.Track) error {
	for start := 0; start < len(tracks); start += seedBatchSize {
		end := start + seedBatchSize
		if end > len(tracks) {
			end = len(tracks)
		}
		if err := db.UpsertTracks(ctx, tracks[start:end]); err != nil {
			return fmt.Errorf("seed batch %d-%d: %w", start, end, err)
		}
	}
	return nil
}
