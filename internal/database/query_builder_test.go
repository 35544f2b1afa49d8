// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package database

import (
	"reflect"
	"strings"
	"testing"

	"github.com/tomtom215/cadence/internal/recommend"
)

func TestBuildInClause(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		items            []string
		wantPlaceholders string
		wantArgs         []interface{}
	}{
		{"empty", []string{}, "", []interface{}{}},
		{"single", []string{"t1"}, "?", []interface{}{"t1"}},
		{"multiple", []string{"t1", "t2", "t3"}, "?,?,?", []interface{}{"t1", "t2", "t3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			placeholders, args := buildInClause(tt.items)
			if placeholders != tt.wantPlaceholders {
				t.Errorf("placeholders = %q, want %q", placeholders, tt.wantPlaceholders)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildTrackQuery(t *testing.T) {
	t.Parallel()

	cluster := 3
	clean := false
	tests := []struct {
		name         string
		q            recommend.TrackQuery
		wantContains []string
		wantArgs     []interface{}
		wantErr      bool
	}{
		{
			name:         "no filters orders by id",
			q:            recommend.TrackQuery{},
			wantContains: []string{"WHERE 1=1 ORDER BY id ASC"},
			wantArgs:     []interface{}{},
		},
		{
			name: "ranges allow nulls",
			q: recommend.TrackQuery{
				ActiveOnly: true,
				Ranges:     []recommend.Constraint{{Feature: recommend.FeatureKey, Range: recommend.Range{Min: 0, Max: 5}}},
			},
			wantContains: []string{"AND active", "(musical_key IS NULL OR musical_key BETWEEN ? AND ?)"},
			wantArgs:     []interface{}{0.0, 5.0},
		},
		{
			name: "cluster, exclusions, sort and limit",
			q: recommend.TrackQuery{
				ClusterNotEquals: &cluster,
				ExcludeIDs:       []string{"a", "b"},
				Sort:             recommend.SortOrder{By: recommend.SortByPopularity, Desc: true},
				Limit:            7,
			},
			wantContains: []string{"cluster <> ?", "id NOT IN (?,?)", "ORDER BY popularity DESC, id ASC LIMIT ?"},
			wantArgs:     []interface{}{3, "a", "b", 7},
		},
		{
			name: "year, popularity and explicit bounds",
			q: recommend.TrackQuery{
				YearFrom:      1990,
				YearTo:        1999,
				PopularityMin: 20,
				PopularityMax: 70,
				Explicit:      &clean,
			},
			wantContains: []string{"year >= ?", "year <= ?", "popularity >= ?", "popularity <= ?", "explicit = ?"},
			wantArgs:     []interface{}{1990, 1999, 20.0, 70.0, false},
		},
		{
			name: "secondary sort",
			q: recommend.TrackQuery{
				YearTo:   2021,
				Sort:     recommend.SortOrder{By: recommend.SortByYear, Desc: true},
				ThenSort: recommend.SortOrder{By: recommend.SortByPopularity, Desc: true},
			},
			wantContains: []string{"ORDER BY year DESC, popularity DESC, id ASC"},
			wantArgs:     []interface{}{2021},
		},
		{
			name:    "unknown secondary sort",
			q:       recommend.TrackQuery{ThenSort: recommend.SortOrder{By: "bogus"}},
			wantErr: true,
		},
		{
			name:    "unknown feature",
			q:       recommend.TrackQuery{Ranges: []recommend.Constraint{{Feature: "bogus"}}},
			wantErr: true,
		},
		{
			name:    "unknown sort",
			q:       recommend.TrackQuery{Sort: recommend.SortOrder{By: "name; DROP TABLE tracks"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			query, args, err := buildTrackQuery(tt.q)
			if (err != nil) != tt.wantErr {
				t.Fatalf("buildTrackQuery() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(query, want) {
					t.Errorf("query %q missing %q", query, want)
				}
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %#v, want %#v", args, tt.wantArgs)
			}
		})
	}
}

func TestQueryBuilderBuild(t *testing.T) {
	t.Parallel()

	qb := newQueryBuilder("SELECT id FROM tracks WHERE 1=1")
	qb.addFilter("cluster = ?", 2)
	qb.addFilter("popularity > ?", 10.5)
	query, args := qb.addLimit(5).build("LIMIT ?")

	want := "SELECT id FROM tracks WHERE 1=1 AND cluster = ? AND popularity > ? LIMIT ?"
	if query != want {
		t.Errorf("query = %q, want %q", query, want)
	}
	if !reflect.DeepEqual(args, []interface{}{2, 10.5, 5}) {
		t.Errorf("args = %v", args)
	}
}
