// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"fmt"
	"strings"

	"github.com/tomtom215/cadence/internal/recommend"
)

// featureColumns maps features to their tracks column. Only names in this
// map are ever interpolated into SQL.
var featureColumns = map[recommend.Feature]string{
	recommend.FeatureDanceability:     "danceability",
	recommend.FeatureEnergy:           "energy",
	recommend.FeatureValence:          "valence",
	recommend.FeatureAcousticness:     "acousticness",
	recommend.FeatureSpeechiness:      "speechiness",
	recommend.FeatureInstrumentalness: "instrumentalness",
	recommend.FeatureLiveness:         "liveness",
	recommend.FeatureLoudness:         "loudness",
	recommend.FeatureTempo:            "tempo",
	recommend.FeatureKey:              "musical_key",
	recommend.FeatureMode:             "musical_mode",
	recommend.FeatureTimeSignature:    "time_signature",
	recommend.FeatureDurationMS:       "duration_ms",
}

var sortColumns = map[recommend.SortField]string{
	recommend.SortByPopularity: "popularity",
	recommend.SortByYear:       "year",
	recommend.SortByCluster:    "cluster",
}

// buildInClause creates a parameterized IN clause for SQL queries.
// Returns the placeholder string and the arguments slice.
//
// Example:
//
//	placeholders, args := buildInClause([]string{"t1", "t2", "t3"})
//	// placeholders = "?,?,?"
//	// args = []interface{}{"t1", "t2", "t3"}
func buildInClause(items []string) (string, []interface{}) {
	placeholders := make([]string, len(items))
	args := make([]interface{}, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item
	}
	return strings.Join(placeholders, ","), args
}

// buildTrackQuery translates a TrackQuery into SQL. A NULL feature passes
// its range constraint, matching recommend.InRange.
//
//nolint:gocritic // hugeParam: q passed by value for immutability
func buildTrackQuery(q recommend.TrackQuery) (string, []interface{}, error) {
	qb := newQueryBuilder("SELECT " + trackColumns + " FROM tracks WHERE 1=1")

	if q.ActiveOnly {
		qb.addFilter("active")
	}

	for _, c := range q.Ranges {
		col, ok := featureColumns[c.Feature]
		if !ok {
			return "", nil, fmt.Errorf("unknown feature %q", c.Feature)
		}
		qb.addFilter(fmt.Sprintf("(%s IS NULL OR %s BETWEEN ? AND ?)", col, col), c.Min, c.Max)
	}

	if q.ClusterEquals != nil {
		qb.addFilter("cluster = ?", *q.ClusterEquals)
	}
	if q.ClusterNotEquals != nil {
		qb.addFilter("cluster <> ?", *q.ClusterNotEquals)
	}

	if len(q.ExcludeIDs) > 0 {
		placeholders, args := buildInClause(q.ExcludeIDs)
		qb.addFilter("id NOT IN ("+placeholders+")", args...)
	}

	if q.YearFrom != 0 {
		qb.addFilter("year >= ?", q.YearFrom)
	}
	if q.YearTo != 0 {
		qb.addFilter("year <= ?", q.YearTo)
	}
	if q.PopularityMin != 0 {
		qb.addFilter("popularity >= ?", q.PopularityMin)
	}
	if q.PopularityMax != 0 {
		qb.addFilter("popularity <= ?", q.PopularityMax)
	}
	if q.Explicit != nil {
		qb.addFilter("explicit = ?", *q.Explicit)
	}

	suffix := "ORDER BY "
	for _, s := range []recommend.SortOrder{q.Sort, q.ThenSort} {
		if s.By == "" {
			continue
		}
		col, ok := sortColumns[s.By]
		if !ok {
			return "", nil, fmt.Errorf("unknown sort field %q", s.By)
		}
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		suffix += col + " " + dir + ", "
	}
	// id breaks ties so equal scores come back in a stable order.
	suffix += "id ASC"

	if q.Limit > 0 {
		suffix += " LIMIT ?"
		qb.addLimit(q.Limit)
	}

	query, args := qb.build(suffix)
	return query, args, nil
}
