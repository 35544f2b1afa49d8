// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"sort"
)

// PreferenceScore is the mean closeness between a track's features and a
// preference vector over PreferenceFeatures. Features missing on either side
// are skipped; with no overlap the score is 0, so the track sorts last but
// stays in the pool.
func PreferenceScore(features, prefs FeatureVector) float64 {
	return closeness(features, prefs, PreferenceFeatures)
}

// RankByPreference scores tracks against prefs and sorts them by score,
// highest first. Equal scores keep input order.
func RankByPreference(tracks []Track, prefs FeatureVector) []ScoredTrack {
	scored := make([]ScoredTrack, len(tracks))
	for i, t := range tracks {
		scored[i] = ScoredTrack{
			Track:  t,
			Score:  PreferenceScore(t.Features, prefs),
			Reason: "preference",
		}
	}
	sortByScore(scored)
	return scored
}

// RankBySimilarity scores tracks against a seed vector and sorts them by
// similarity, highest first. Equal scores keep input order.
func RankBySimilarity(seed FeatureVector, tracks []Track) []ScoredTrack {
	scored := make([]ScoredTrack, len(tracks))
	for i, t := range tracks {
		scored[i] = ScoredTrack{
			Track:  t,
			Score:  Similarity(seed, t.Features),
			Reason: "similar",
		}
	}
	sortByScore(scored)
	return scored
}

func sortByScore(scored []ScoredTrack) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
}

// FilterContext keeps active tracks that match c, preserving order.
func FilterContext(tracks []Track, c Context) []Track {
	constraints := contextFilters[c]
	out := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.Active && satisfies(t.Features, constraints) {
			out = append(out, t)
		}
	}
	return out
}

// Tracks unwraps scored tracks, keeping at most limit (limit <= 0 keeps all).
func Tracks(scored []ScoredTrack, limit int) []Track {
	if limit <= 0 || limit > len(scored) {
		limit = len(scored)
	}
	out := make([]Track, limit)
	for i := 0; i < limit; i++ {
		out[i] = scored[i].Track
	}
	return out
}
