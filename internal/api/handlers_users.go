// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// profileSummary is the profile view returned by PUT /users/{userID}. The
// full history is served by the history endpoint.
type profileSummary struct {
	UserID          string                    `json:"user_id"`
	Preferences     recommend.FeatureVector   `json:"preferences"`
	ContextAffinity map[recommend.Context]int `json:"context_affinity"`
	Analytics       recommend.Analytics       `json:"analytics"`
	HistoryLength   int                       `json:"history_length"`
	CreatedAt       time.Time                 `json:"created_at"`
}

// CreateUser handles PUT /api/v1/users/{userID}. Existing profiles are
// returned unchanged.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	uq := userQuery{UserID: chi.URLParam(r, "userID")}
	if err := validate(&uq); err != nil {
		respondError(w, r, err)
		return
	}

	p, err := h.engine.CreateProfile(r.Context(), uq.UserID)
	observe("create_profile", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, profileSummary{
		UserID:          p.UserID,
		Preferences:     p.Preferences,
		ContextAffinity: p.ContextAffinity,
		Analytics:       p.Analytics,
		HistoryLength:   len(p.History),
		CreatedAt:       p.CreatedAt,
	})
}

// RateTrack handles POST /api/v1/users/{userID}/ratings.
func (h *Handler) RateTrack(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	uq := userQuery{UserID: chi.URLParam(r, "userID")}
	if err := validate(&uq); err != nil {
		respondError(w, r, err)
		return
	}
	var body RateRequest
	if err := decodeJSON(w, r, &body); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&body); err != nil {
		respondError(w, r, err)
		return
	}

	analytics, err := h.engine.RateTrack(r.Context(), uq.UserID, body.TrackID, body.Rating, body.Context)
	observe("rate_track", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	c, _ := recommend.ParseContext(body.Context)
	metrics.RatingsRecorded.WithLabelValues(string(c)).Inc()
	logging.Ctx(r.Context()).Info().
		Str("user_id", uq.UserID).
		Str("track_id", body.TrackID).
		Int("rating", body.Rating).
		Str("context", string(c)).
		Msg("Rating recorded")
	respondSuccess(w, r, start, map[string]interface{}{
		"user_id":   uq.UserID,
		"track_id":  body.TrackID,
		"rating":    body.Rating,
		"context":   c,
		"analytics": analytics,
	})
}

// Insights handles GET /api/v1/users/{userID}/insights.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	uq := userQuery{UserID: chi.URLParam(r, "userID")}
	if err := validate(&uq); err != nil {
		respondError(w, r, err)
		return
	}

	insights, err := h.engine.Insights(r.Context(), uq.UserID)
	observe("insights", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, insights)
}

// History handles GET /api/v1/users/{userID}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	uq := userQuery{UserID: chi.URLParam(r, "userID"), Context: q.Get("context")}
	page, err := parsePage(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&uq); err != nil {
		respondError(w, r, err)
		return
	}

	hist, err := h.engine.History(r.Context(), uq.UserID, uq.Context, page.Offset, page.Limit)
	observe("history", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondPage(w, r, start, hist.Entries, &Pagination{
		Offset:  hist.Offset,
		Limit:   hist.Limit,
		Total:   hist.Total,
		HasMore: hist.HasMore,
	})
}
