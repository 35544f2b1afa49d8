// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"math"
)

// SearchQuery filters the local catalog. Zero values leave a filter open.
type SearchQuery struct {
	YearFrom int
	YearTo   int
	Ranges   []Constraint
	Explicit *bool
	Limit    int
}

// Validate rejects inverted or non-finite bounds and unknown features.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (q SearchQuery) Validate() error {
	if q.YearFrom < 0 || q.YearTo < 0 {
		return &ValidationError{Field: "year", Message: "must not be negative"}
	}
	if q.YearFrom != 0 && q.YearTo != 0 && q.YearFrom > q.YearTo {
		return &ValidationError{Field: "year", Message: fmt.Sprintf("year_from %d after year_to %d", q.YearFrom, q.YearTo)}
	}
	seen := make(map[Feature]bool, len(q.Ranges))
	for _, c := range q.Ranges {
		if !isFeature(c.Feature) {
			return &ValidationError{Field: "feature", Message: "unknown feature " + string(c.Feature)}
		}
		if seen[c.Feature] {
			return &ValidationError{Field: string(c.Feature), Message: "bounded more than once"}
		}
		seen[c.Feature] = true
		if math.IsNaN(c.Min) || math.IsNaN(c.Max) {
			return &ValidationError{Field: string(c.Feature), Message: "bounds must be numbers"}
		}
		if c.Min > c.Max {
			return &ValidationError{Field: string(c.Feature), Message: fmt.Sprintf("min %g above max %g", c.Min, c.Max)}
		}
	}
	return nil
}

func isFeature(f Feature) bool {
	for _, known := range AllFeatures {
		if f == known {
			return true
		}
	}
	return false
}

// SearchTracks returns active tracks inside every bound, most popular
// first. A track missing a bounded feature still matches that bound.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func (e *Engine) SearchTracks(ctx context.Context, q SearchQuery) ([]Track, error) {
	e.requestCount.Add(1)
	if err := q.Validate(); err != nil {
		return nil, err
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	tracks, err := e.tracks.Find(sctx, TrackQuery{
		ActiveOnly: true,
		Ranges:     q.Ranges,
		YearFrom:   q.YearFrom,
		YearTo:     q.YearTo,
		Explicit:   q.Explicit,
		Sort:       SortOrder{By: SortByPopularity, Desc: true},
		Limit:      e.clampLimit(q.Limit, e.config.Limits.DefaultLimit),
	})
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("search tracks: %w", err)
	}
	return tracks, nil
}
