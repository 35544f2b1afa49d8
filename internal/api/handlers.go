// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// Recommender is the engine surface the API serves. *recommend.Engine
// satisfies it.
type Recommender interface {
	GetRecommendations(ctx context.Context, req recommend.RecommendationRequest) (*recommend.Recommendations, error)
	RecommendForContext(ctx context.Context, userID, contextLabel string, limit int, useExternal bool) ([]recommend.ScoredTrack, error)
	GetSimilarTracks(ctx context.Context, trackID string, limit int) ([]recommend.Track, error)
	MatchesTrackContext(ctx context.Context, trackID, contextLabel string) (bool, error)
	Trending(ctx context.Context, limit int) ([]recommend.Track, error)
	CreateProfile(ctx context.Context, userID string) (recommend.UserProfile, error)
	RateTrack(ctx context.Context, userID, trackID string, rating int, contextLabel string) (recommend.Analytics, error)
	Insights(ctx context.Context, userID string) (*recommend.Insights, error)
	History(ctx context.Context, userID, contextLabel string, offset, limit int) (*recommend.HistoryPage, error)
	GeneratePlaylist(ctx context.Context, req recommend.PlaylistRequest) (*recommend.Playlist, error)
	SearchTracks(ctx context.Context, q recommend.SearchQuery) ([]recommend.Track, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Handler serves the API routes.
type Handler struct {
	engine    Recommender
	checks    map[string]HealthCheck
	version   string
	startTime time.Time
}

// NewHandler creates a handler. checks are run by GET /health.
func NewHandler(engine Recommender, checks map[string]HealthCheck, version string) *Handler {
	return &Handler{
		engine:    engine,
		checks:    checks,
		version:   version,
		startTime: time.Now(),
	}
}

// observe records the latency and outcome of one engine operation.
func observe(op string, start time.Time, err error) {
	metrics.RecordRecommendation(op, time.Since(start), err)
}

// Recommendations handles GET /api/v1/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	req := recommend.RecommendationRequest{
		UserID:     q.Get("user_id"),
		Context:    q.Get("context"),
		ExcludeIDs: q["exclude"],
	}
	var err error
	if req.Limit, err = queryInt(q, "limit", 0); err != nil {
		respondError(w, r, err)
		return
	}
	if req.UseExternal, err = queryBool(q, "use_external"); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&req); err != nil {
		respondError(w, r, err)
		return
	}

	recs, err := h.engine.GetRecommendations(r.Context(), req)
	observe("get_recommendations", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	metrics.RecommendStrategy.WithLabelValues(string(recs.Strategy), string(recs.Context)).Inc()
	logging.Ctx(r.Context()).Debug().
		Str("user_id", req.UserID).
		Str("strategy", string(recs.Strategy)).
		Int("returned", len(recs.Tracks)).
		Bool("cache_hit", recs.CacheHit).
		Msg("Recommendations served")
	respondSuccess(w, r, start, recs)
}

// ContextRecommendations handles GET /api/v1/recommendations/context/{context}.
func (h *Handler) ContextRecommendations(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	q := r.URL.Query()

	uq := userQuery{UserID: q.Get("user_id"), Context: chi.URLParam(r, "context")}
	page, err := parsePage(q)
	if err != nil {
		respondError(w, r, err)
		return
	}
	useExternal, err := queryBool(q, "use_external")
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&uq); err != nil {
		respondError(w, r, err)
		return
	}

	tracks, err := h.engine.RecommendForContext(r.Context(), uq.UserID, uq.Context, page.Limit, useExternal)
	observe("recommend_for_context", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, map[string]interface{}{
		"context": recommend.Context(uq.Context),
		"tracks":  tracks,
		"count":   len(tracks),
	})
}

// SimilarTracks handles GET /api/v1/tracks/{trackID}/similar.
func (h *Handler) SimilarTracks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tq := trackQuery{TrackID: chi.URLParam(r, "trackID")}
	page, err := parsePage(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if err := validate(&tq); err != nil {
		respondError(w, r, err)
		return
	}

	tracks, err := h.engine.GetSimilarTracks(r.Context(), tq.TrackID, page.Limit)
	observe("similar_tracks", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, map[string]interface{}{
		"track_id": tq.TrackID,
		"tracks":   tracks,
		"count":    len(tracks),
	})
}

// MatchesContext handles GET /api/v1/tracks/{trackID}/matches/{context}.
func (h *Handler) MatchesContext(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	tq := trackQuery{TrackID: chi.URLParam(r, "trackID")}
	if err := validate(&tq); err != nil {
		respondError(w, r, err)
		return
	}
	contextLabel := chi.URLParam(r, "context")
	c, err := recommend.ParseContext(contextLabel)
	if err != nil {
		respondError(w, r, err)
		return
	}

	ok, err := h.engine.MatchesTrackContext(r.Context(), tq.TrackID, contextLabel)
	observe("matches_context", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, map[string]interface{}{
		"track_id": tq.TrackID,
		"context":  c,
		"matches":  ok,
	})
}

// Trending handles GET /api/v1/trending.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	page, err := parsePage(r.URL.Query())
	if err != nil {
		respondError(w, r, err)
		return
	}

	tracks, err := h.engine.Trending(r.Context(), page.Limit)
	observe("trending", start, err)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondSuccess(w, r, start, map[string]interface{}{
		"tracks": tracks,
		"count":  len(tracks),
	})
}

var _ Recommender = (*recommend.Engine)(nil)
