// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Engine exposes the recommendation operations. It is safe for concurrent
// use once its collaborators have been set.
type Engine struct {
	config   *Config
	logger   zerolog.Logger
	tracks   TrackStore
	profiles ProfileStore

	// Optional collaborators. Set before serving requests.
	catalog  Catalog
	scorer   Scorer
	cache    ResultCache
	notifier RatingNotifier

	retriever *Retriever
	now       func() time.Time

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	coldStarts   atomic.Int64
	fallbacks    atomic.Int64
	errorCount   atomic.Int64
	ratings      atomic.Int64
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	ColdStarts  int64 `json:"cold_starts"`
	Fallbacks   int64 `json:"fallbacks"`
	Errors      int64 `json:"errors"`
	Ratings     int64 `json:"ratings"`
}

// NewEngine creates an engine over the given stores.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, tracks TrackStore, profiles ProfileStore, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if tracks == nil {
		return nil, errors.New("track store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile store is required")
	}

	logger = logger.With().Str("component", "recommend").Logger()
	return &Engine{
		config:    cfg,
		logger:    logger,
		tracks:    tracks,
		profiles:  profiles,
		retriever: NewRetriever(tracks, nil, cfg.Timeouts.External, logger),
		now:       time.Now,
	}, nil
}

// SetCatalog enables external candidates and enrichment.
func (e *Engine) SetCatalog(c Catalog) {
	e.catalog = c
	e.retriever = NewRetriever(e.tracks, c, e.config.Timeouts.External, e.logger)
	e.logger.Info().Msg("external catalog attached")
}

// SetScorer registers the optional reordering plugin.
func (e *Engine) SetScorer(s Scorer) {
	e.scorer = s
	e.logger.Info().Str("scorer", s.Name()).Msg("registered scorer")
}

// SetCache attaches a result cache. Ignored when caching is disabled.
func (e *Engine) SetCache(c ResultCache) {
	e.cache = c
}

// SetNotifier registers the rating event sink.
func (e *Engine) SetNotifier(n RatingNotifier) {
	e.notifier = n
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	return Stats{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		ColdStarts:  e.coldStarts.Load(),
		Fallbacks:   e.fallbacks.Load(),
		Errors:      e.errorCount.Load(),
		Ratings:     e.ratings.Load(),
	}
}

// GetRecommendations composes up to Limit tracks for a user. Unless the user
// does not exist or the request is invalid, a store failure degrades to the
// popularity list instead of an error.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) GetRecommendations(ctx context.Context, req RecommendationRequest) (*Recommendations, error) {
	start := e.now()
	e.requestCount.Add(1)

	if strings.TrimSpace(req.UserID) == "" {
		return nil, &ValidationError{Field: "user_id", Message: "is required"}
	}
	c, err := ParseContext(req.Context)
	if err != nil {
		return nil, err
	}
	limit := e.clampLimit(req.Limit, e.config.Limits.DefaultLimit)

	logger := e.logger.With().
		Str("user_id", req.UserID).
		Str("context", string(c)).
		Int("limit", limit).
		Logger()

	key := cacheKey(req.UserID, c, limit, req.UseExternal, req.ExcludeIDs)
	if recs := e.cached(key); recs != nil {
		logger.Debug().Msg("cache hit")
		return recs, nil
	}

	recs, err := e.recommend(ctx, req, c, limit, logger)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}

	e.enrich(ctx, recs.Tracks)
	e.store(key, recs)

	logger.Debug().
		Str("strategy", string(recs.Strategy)).
		Int("returned", len(recs.Tracks)).
		Dur("latency", e.now().Sub(start)).
		Msg("recommendation complete")
	return recs, nil
}

//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) recommend(ctx context.Context, req RecommendationRequest, c Context, limit int, logger zerolog.Logger) (*Recommendations, error) {
	profile, err := e.getProfile(ctx, req.UserID)
	if err != nil {
		if !IsRecoverable(err) {
			return nil, fmt.Errorf("load profile: %w", err)
		}
		logger.Warn().Err(err).Msg("profile store failed, serving popularity fallback")
		return e.fallback(ctx, c, limit, req.ExcludeIDs)
	}

	if len(profile.History) == 0 {
		e.coldStarts.Add(1)
		tracks, err := e.popular(ctx, limit, req.ExcludeIDs)
		if err != nil {
			return nil, fmt.Errorf("cold start: %w", err)
		}
		return &Recommendations{Tracks: tracks, Context: c, Strategy: StrategyColdStart}, nil
	}

	recs, err := e.compose(ctx, &profile, c, limit, req, logger)
	if err != nil {
		if !IsRecoverable(err) {
			return nil, err
		}
		logger.Warn().Err(err).Msg("cluster blend failed, serving popularity fallback")
		return e.fallback(ctx, c, limit, req.ExcludeIDs)
	}

	if len(recs.Tracks) == 0 {
		logger.Debug().Msg("cluster blend empty, serving popularity fallback")
		return e.fallback(ctx, c, limit, req.ExcludeIDs)
	}
	return recs, nil
}

// GetSimilarTracks ranks active tracks from the seed's cluster by feature
// similarity to the seed.
func (e *Engine) GetSimilarTracks(ctx context.Context, trackID string, limit int) ([]Track, error) {
	e.requestCount.Add(1)
	if strings.TrimSpace(trackID) == "" {
		return nil, &ValidationError{Field: "track_id", Message: "is required"}
	}
	limit = e.clampLimit(limit, e.config.Limits.DefaultSimilarLimit)

	seed, err := e.getTrack(ctx, trackID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load seed track: %w", err)
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	cluster := seed.Cluster
	candidates, err := e.tracks.Find(sctx, TrackQuery{
		ActiveOnly:    true,
		ClusterEquals: &cluster,
		ExcludeIDs:    []string{seed.ID},
		Sort:          SortOrder{By: SortByPopularity, Desc: true},
		Limit:         2 * limit,
	})
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("query cluster %d: %w", cluster, err)
	}

	similar := Tracks(RankBySimilarity(seed.Features, candidates), limit)
	e.enrich(ctx, similar)
	return similar, nil
}

// RateTrack appends a rating to the user's history and returns the
// recomputed analytics. The profile write is not tied to the caller's
// cancellation.
func (e *Engine) RateTrack(ctx context.Context, userID, trackID string, rating int, contextLabel string) (Analytics, error) {
	if strings.TrimSpace(userID) == "" {
		return Analytics{}, &ValidationError{Field: "user_id", Message: "is required"}
	}
	if strings.TrimSpace(trackID) == "" {
		return Analytics{}, &ValidationError{Field: "track_id", Message: "is required"}
	}
	if err := ValidateRating(rating); err != nil {
		return Analytics{}, err
	}
	c, err := ParseContext(contextLabel)
	if err != nil {
		return Analytics{}, err
	}

	track, err := e.getTrack(ctx, trackID)
	if err != nil {
		return Analytics{}, fmt.Errorf("load rated track: %w", err)
	}

	now := e.now()
	entry := NewHistoryEntry(track, rating, c, now)

	wctx, cancel := e.storeContext(context.WithoutCancel(ctx))
	defer cancel()
	profile, err := e.profiles.Update(wctx, userID, func(p *UserProfile) error {
		ApplyRating(p, entry, now)
		return nil
	})
	if err != nil {
		return Analytics{}, fmt.Errorf("update profile: %w", err)
	}
	e.ratings.Add(1)
	e.InvalidateUser(userID)

	if e.notifier != nil {
		ev := RatingEvent{
			UserID:    userID,
			TrackID:   trackID,
			Rating:    rating,
			Context:   c,
			Timestamp: now,
			Analytics: profile.Analytics,
		}
		if err := e.notifier.RatingRecorded(ctx, ev); err != nil {
			e.logger.Warn().Err(err).Str("user_id", userID).Msg("publish rating event failed")
		}
	}

	e.logger.Debug().
		Str("user_id", userID).
		Str("track_id", trackID).
		Int("rating", rating).
		Str("context", string(c)).
		Int("history", len(profile.History)).
		Msg("rating recorded")
	return profile.Analytics, nil
}

// MatchesTrackContext loads a track and checks it against a context label.
func (e *Engine) MatchesTrackContext(ctx context.Context, trackID, contextLabel string) (bool, error) {
	c, err := ParseContext(contextLabel)
	if err != nil {
		return false, err
	}
	t, err := e.getTrack(ctx, trackID)
	if err != nil {
		return false, err
	}
	return MatchesContext(t, c), nil
}

// CreateProfile stores a neutral profile for userID if none exists.
func (e *Engine) CreateProfile(ctx context.Context, userID string) (UserProfile, error) {
	if strings.TrimSpace(userID) == "" {
		return UserProfile{}, &ValidationError{Field: "user_id", Message: "is required"}
	}
	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.profiles.Create(sctx, userID)
}

// InvalidateUser drops cached results for userID.
func (e *Engine) InvalidateUser(userID string) int {
	if e.cache == nil {
		return 0
	}
	return e.cache.DeletePrefix(userCachePrefix(userID))
}

func (e *Engine) clampLimit(limit, def int) int {
	if limit <= 0 {
		limit = def
	}
	if limit > e.config.Limits.MaxLimit {
		limit = e.config.Limits.MaxLimit
	}
	return limit
}

func (e *Engine) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.Timeouts.Store <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.config.Timeouts.Store)
}

func (e *Engine) getTrack(ctx context.Context, id string) (Track, error) {
	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.tracks.GetTrack(sctx, id)
}

func (e *Engine) getProfile(ctx context.Context, userID string) (UserProfile, error) {
	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	return e.profiles.Get(sctx, userID)
}

func userCachePrefix(userID string) string {
	return "recs:" + userID + ":"
}

func cacheKey(userID string, c Context, limit int, external bool, exclude []string) string {
	key := fmt.Sprintf("%s%s:%d:%t", userCachePrefix(userID), c, limit, external)
	if len(exclude) == 0 {
		return key
	}
	ids := make([]string, len(exclude))
	copy(ids, exclude)
	sort.Strings(ids)
	h := fnv.New64a()
	for _, id := range ids {
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%s:%x", key, h.Sum64())
}

func (e *Engine) cached(key string) *Recommendations {
	if e.cache == nil || !e.config.Cache.Enabled {
		return nil
	}
	v, ok := e.cache.Get(key)
	if !ok {
		e.cacheMisses.Add(1)
		return nil
	}
	recs, ok := v.(*Recommendations)
	if !ok {
		e.cacheMisses.Add(1)
		return nil
	}
	e.cacheHits.Add(1)
	out := copyRecommendations(recs)
	out.CacheHit = true
	return out
}

func (e *Engine) store(key string, recs *Recommendations) {
	if e.cache == nil || !e.config.Cache.Enabled {
		return
	}
	e.cache.SetWithTTL(key, copyRecommendations(recs), e.config.Cache.TTL)
}

func copyRecommendations(r *Recommendations) *Recommendations {
	cp := *r
	cp.Tracks = make([]Track, len(r.Tracks))
	copy(cp.Tracks, r.Tracks)
	return &cp
}
