// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"fmt"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/recommend"
)

func TestPlaylistThemes(t *testing.T) {
	t.Parallel()

	rec, env := do(t, newTestRouter(&fakeEngine{}, nil), http.MethodGet, "/api/v1/playlists/themes", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var data struct {
		Themes []recommend.ThemeInfo `json:"themes"`
		Total  int                   `json:"total"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Total != len(recommend.Themes()) || len(data.Themes) != data.Total {
		t.Errorf("themes = %d, total = %d", len(data.Themes), data.Total)
	}
}

func TestGeneratePlaylist(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want recommend.PlaylistRequest
	}{
		{
			name: "preferences default on",
			body: `{"theme":"throwback","num_tracks":15}`,
			want: recommend.PlaylistRequest{UserID: "alice", Theme: "throwback", Size: 15, Personalize: true},
		},
		{
			name: "preferences off",
			body: `{"theme":"mood","context":"sleep","include_user_preferences":false}`,
			want: recommend.PlaylistRequest{UserID: "alice", Theme: "mood", Context: "sleep"},
		},
		{
			name: "empty object",
			body: `{}`,
			want: recommend.PlaylistRequest{UserID: "alice", Personalize: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &fakeEngine{}
			rec, env := do(t, newTestRouter(engine, nil), http.MethodPost, "/api/v1/users/alice/playlists", strings.NewReader(tt.body))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if engine.lastPlaylist != tt.want {
				t.Errorf("engine call = %+v, want %+v", engine.lastPlaylist, tt.want)
			}
			var pl recommend.Playlist
			if err := json.Unmarshal(env.Data, &pl); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if pl.Duration.Formatted != "1:01" || pl.TotalTracks != 1 {
				t.Errorf("playlist = %+v", pl)
			}
		})
	}
}

func TestGeneratePlaylist_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"unknown theme", `{"theme":"karaoke"}`},
		{"unknown context", `{"theme":"mood","context":"commute"}`},
		{"too many tracks", `{"num_tracks":500}`},
		{"negative size", `{"num_tracks":-1}`},
		{"unknown field", `{"genre":"jazz"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			engine := &fakeEngine{}
			rec, env := do(t, newTestRouter(engine, nil), http.MethodPost, "/api/v1/users/alice/playlists", strings.NewReader(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body = %s", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != ErrCodeValidation {
				t.Errorf("error = %+v", env.Error)
			}
			if len(engine.called()) != 0 {
				t.Errorf("engine called: %v", engine.called())
			}
		})
	}
}

func TestGeneratePlaylist_UnknownUser(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{err: fmt.Errorf("profile ghost: %w", recommend.ErrNotFound)}
	rec, _ := do(t, newTestRouter(engine, nil), http.MethodPost, "/api/v1/users/ghost/playlists", strings.NewReader(`{}`))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestSearchTracks(t *testing.T) {
	t.Parallel()

	engine := &fakeEngine{}
	h := newTestRouter(engine, nil)

	rec, env := do(t, h, http.MethodGet,
		"/api/v1/tracks/search?year_from=1990&year_to=1999&energy_min=0.7&tempo_max=140&explicit=false&limit=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	got := engine.lastSearch
	if got.YearFrom != 1990 || got.YearTo != 1999 || got.Limit != 5 {
		t.Errorf("search = %+v", got)
	}
	if got.Explicit == nil || *got.Explicit {
		t.Errorf("Explicit = %v, want false", got.Explicit)
	}
	want := []recommend.Constraint{
		{Feature: recommend.FeatureEnergy, Range: recommend.Range{Min: 0.7, Max: math.MaxFloat64}},
		{Feature: recommend.FeatureTempo, Range: recommend.Range{Min: -math.MaxFloat64, Max: 140}},
	}
	if len(got.Ranges) != len(want) {
		t.Fatalf("Ranges = %+v, want %+v", got.Ranges, want)
	}
	for i := range want {
		if got.Ranges[i] != want[i] {
			t.Errorf("Ranges[%d] = %+v, want %+v", i, got.Ranges[i], want[i])
		}
	}

	var data struct {
		Tracks []recommend.Track `json:"tracks"`
		Count  int               `json:"count"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Count != 2 || len(data.Tracks) != 2 {
		t.Errorf("data = %+v", data)
	}

	// No filters leaves explicit unset.
	if rec, _ := do(t, h, http.MethodGet, "/api/v1/tracks/search", nil); rec.Code != http.StatusOK {
		t.Fatalf("bare search status = %d", rec.Code)
	}
	if engine.lastSearch.Explicit != nil || len(engine.lastSearch.Ranges) != 0 {
		t.Errorf("bare search = %+v", engine.lastSearch)
	}
}

func TestSearchTracks_BadQueries(t *testing.T) {
	t.Parallel()

	for _, target := range []string{
		"/api/v1/tracks/search?year_from=soon",
		"/api/v1/tracks/search?year_to=-5",
		"/api/v1/tracks/search?energy_min=high",
		"/api/v1/tracks/search?valence_max=NaN",
		"/api/v1/tracks/search?explicit=maybe",
		"/api/v1/tracks/search?limit=1000",
	} {
		engine := &fakeEngine{}
		rec, _ := do(t, newTestRouter(engine, nil), http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
		if len(engine.called()) != 0 {
			t.Errorf("GET %s reached the engine", target)
		}
	}
}
