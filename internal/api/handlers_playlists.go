// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
)

// PlaylistRequest is the body of POST /users/{userID}/playlists.
type PlaylistRequest struct {
	Theme     string `json:"theme" validate:"omitempty,playlist_theme"`
	NumTracks int    `json:"num_tracks" validate:"gte=0,lte=100"`
	Context   string `json:"context" validate:"omitempty,listening_context"`

	// IncludeUserPreferences defaults to true when omitted.
	IncludeUserPreferences *bool `json:"include_user_preferences"`
}

// searchQuery holds the scalar parameters of GET /tracks/search.
type searchQuery struct {
	YearFrom int `json:"year_from" validate:"gte=0"`
	YearTo   int `json:"year_to" validate:"gte=0"`
	Limit    int `json:"limit" validate:"gte=0,lte=100"`
}

// PlaylistThemes handles GET /api/v1/playlists/themes.
func (h *Handler) PlaylistThemes(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	themes := recommend.Themes()
	respondSuccess(w, r, start, map[string]interface{}{
		"themes": themes,
		"total":  len(themes),
	})
}

// GeneratePlaylist handles POST /api/v1/users/{userID}/playlists.
func (h *Handler) GeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	uq := userQuery{UserID: chi.URLParam(r, "userID")}
	if err := validate(&uq); err != nil {
		respondError(w, r, err)
		return
	}
	var body PlaylistRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&body); err != nil {
		respondError(w, r, err)
		return
	}

	personalize := body.IncludeUserPreferences == nil || *body.IncludeUserPreferences
	pl, err := h.engine.GeneratePlaylist(r.Context(), recommend.PlaylistRequest{
		UserID:      uq.UserID,
		Theme:       body.Theme,
		Size:        body.NumTracks,
		Context:     body.Context,
		Personalize: personalize,
	})
	observe("generate_playlist", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Str("user_id", uq.UserID).
		Str("theme", string(pl.Theme)).
		Int("tracks", pl.TotalTracks).
		Msg("Playlist generated")
	respondSuccess(w, r, start, pl)
}

// SearchTracks handles GET /api/v1/tracks/search. Every feature accepts
// <feature>_min and <feature>_max; a missing side is open.
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	var sq searchQuery
	var err error
	if sq.YearFrom, err = queryInt(q, "year_from", 0); err != nil {
		respondError(w, r, err)
		return
	}
	if sq.YearTo, err = queryInt(q, "year_to", 0); err != nil {
		respondError(w, r, err)
		return
	}
	if sq.Limit, err = queryInt(q, "limit", 0); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&sq); err != nil {
		respondError(w, r, err)
		return
	}
	ranges, err := featureRanges(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	explicit, err := queryOptionalBool(q, "explicit")
	if err != nil {
		respondError(w, r, err)
		return
	}

	tracks, err := h.engine.SearchTracks(r.Context(), recommend.SearchQuery{
		YearFrom: sq.YearFrom,
		YearTo:   sq.YearTo,
		Ranges:   ranges,
		Explicit: explicit,
		Limit:    sq.Limit,
	})
	observe("search_tracks", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, map[string]interface{}{
		"tracks": tracks,
		"count":  len(tracks),
	})
}

// featureRanges collects <feature>_min/<feature>_max pairs in feature order.
func featureRanges(q url.Values) ([]recommend.Constraint, error) {
	var out []recommend.Constraint
	for _, f := range recommend.AllFeatures {
		lo, hasLo, err := queryFloat(q, string(f)+"_min")
		if err != nil {
			return nil, err
		}
		hi, hasHi, err := queryFloat(q, string(f)+"_max")
		if err != nil {
			return nil, err
		}
		if !hasLo && !hasHi {
			continue
		}
		if !hasLo {
			lo = -math.MaxFloat64
		}
		if !hasHi {
			hi = math.MaxFloat64
		}
		out = append(out, recommend.Constraint{Feature: f, Range: recommend.Range{Min: lo, Max: hi}})
	}
	return out, nil
}

func queryFloat(q url.Values, name string) (float64, bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, &recommend.ValidationError{Field: name, Message: "must be a finite number"}
	}
	return v, true, nil
}

// queryOptionalBool distinguishes an absent parameter from false.
func queryOptionalBool(q url.Values, name string) (*bool, error) {
	if q.Get(name) == "" {
		return nil, nil
	}
	b, err := queryBool(q, name)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
