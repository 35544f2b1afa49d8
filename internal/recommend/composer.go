// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog"
)

// segmentSize returns ceil(share*limit). The epsilon absorbs float error so
// that 0.6*5 is 3, not 4.
func segmentSize(share float64, limit int) int {
	return int(math.Ceil(share*float64(limit) - 1e-9))
}

// compose builds the cluster blend for a user with history: the dominant
// segment first, then the diverse segment, truncated to limit. The context
// only labels the result and feeds the scorer; it does not filter clusters.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) compose(ctx context.Context, profile *UserProfile, c Context, limit int, req RecommendationRequest, logger zerolog.Logger) (*Recommendations, error) {
	dominant, ok := DominantCluster(profile.History)
	if !ok {
		return nil, fmt.Errorf("dominant cluster: %w", ErrValidation)
	}

	exclude := append(profile.HistoryIDs(), req.ExcludeIDs...)
	dominantN := segmentSize(e.config.DominantShare, limit)
	diverseN := segmentSize(1-e.config.DominantShare, limit)

	sctx, cancel := e.storeContext(ctx)
	defer cancel()

	same, err := e.tracks.Find(sctx, TrackQuery{
		ActiveOnly:    true,
		ClusterEquals: &dominant,
		ExcludeIDs:    exclude,
		Sort:          SortOrder{By: SortByPopularity, Desc: true},
		Limit:         dominantN,
	})
	if err != nil {
		return nil, fmt.Errorf("query dominant cluster %d: %w", dominant, err)
	}

	other, err := e.tracks.Find(sctx, TrackQuery{
		ActiveOnly:       true,
		ClusterNotEquals: &dominant,
		ExcludeIDs:       exclude,
		Sort:             SortOrder{By: SortByPopularity, Desc: true},
		Limit:            diverseN,
	})
	if err != nil {
		return nil, fmt.Errorf("query diverse clusters: %w", err)
	}

	recs := &Recommendations{
		Context:         c,
		Strategy:        StrategyBlend,
		DominantCluster: &dominant,
	}
	if e.scorer != nil {
		same = e.applyScorer(ctx, same, profile, c, logger)
		other = e.applyScorer(ctx, other, profile, c, logger)
		recs.Scorer = e.scorer.Name()
	}

	tracks := make([]Track, 0, len(same)+len(other))
	tracks = append(tracks, same...)
	tracks = append(tracks, other...)
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}

	if req.UseExternal && e.catalog != nil && len(tracks) < limit {
		seen := make(map[string]struct{}, len(exclude)+len(tracks))
		for _, id := range exclude {
			seen[id] = struct{}{}
		}
		for _, t := range tracks {
			seen[t.ID] = struct{}{}
		}
		external := e.retriever.searchExternal(ctx, RetrievalRequest{
			Context:     c,
			ExcludeIDs:  exclude,
			Limit:       limit,
			UseExternal: true,
			Seed:        profile.Preferences,
		}, limit-len(tracks), seen)
		tracks = append(tracks, external...)
		recs.ExternalCount = len(external)
	}

	recs.Tracks = tracks
	return recs, nil
}

// applyScorer reorders one segment. Output naming unknown or repeated ids is
// discarded; tracks the scorer omitted are appended in their original order
// so a scorer can reorder a segment but never shrink it.
func (e *Engine) applyScorer(ctx context.Context, segment []Track, profile *UserProfile, c Context, logger zerolog.Logger) []Track {
	if len(segment) < 2 {
		return segment
	}

	scored, err := e.scorer.Score(ctx, segment, *profile, c)
	if err != nil {
		logger.Warn().Err(err).Str("scorer", e.scorer.Name()).Msg("scorer failed, keeping blend order")
		return segment
	}

	index := make(map[string]int, len(segment))
	for i, t := range segment {
		index[t.ID] = i
	}
	used := make([]bool, len(segment))
	out := make([]Track, 0, len(segment))
	for _, s := range scored {
		i, ok := index[s.Track.ID]
		if !ok || used[i] {
			logger.Warn().Str("scorer", e.scorer.Name()).Str("track_id", s.Track.ID).
				Msg("scorer returned unknown or duplicate track, keeping blend order")
			return segment
		}
		used[i] = true
		out = append(out, segment[i])
	}
	for i, t := range segment {
		if !used[i] {
			out = append(out, t)
		}
	}
	return out
}

// popular returns the most popular active tracks, ignoring context.
func (e *Engine) popular(ctx context.Context, limit int, exclude []string) ([]Track, error) {
	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	tracks, err := e.tracks.Find(sctx, TrackQuery{
		ActiveOnly: true,
		ExcludeIDs: exclude,
		Sort:       SortOrder{By: SortByPopularity, Desc: true},
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("query popular tracks: %w", err)
	}
	return tracks, nil
}

func (e *Engine) fallback(ctx context.Context, c Context, limit int, exclude []string) (*Recommendations, error) {
	e.fallbacks.Add(1)
	tracks, err := e.popular(ctx, limit, exclude)
	if err != nil {
		return nil, fmt.Errorf("popularity fallback: %w", err)
	}
	return &Recommendations{Tracks: tracks, Context: c, Strategy: StrategyFallback}, nil
}

// enrich attaches catalog metadata in place to tracks that have none. Each
// failure leaves its track untouched.
func (e *Engine) enrich(ctx context.Context, tracks []Track) {
	if e.catalog == nil || !e.config.Enrichment.Enabled || len(tracks) == 0 {
		return
	}

	sem := make(chan struct{}, e.config.Enrichment.Concurrency)
	var wg sync.WaitGroup
	var failed int
	var mu sync.Mutex

	for i := range tracks {
		if tracks[i].Catalog != nil {
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			cctx := ctx
			if e.config.Timeouts.External > 0 {
				var cancel context.CancelFunc
				cctx, cancel = context.WithTimeout(ctx, e.config.Timeouts.External)
				defer cancel()
			}
			enriched, err := e.catalog.Enrich(cctx, tracks[i])
			if err != nil || enriched.ID != tracks[i].ID {
				mu.Lock()
				failed++
				mu.Unlock()
				return
			}
			tracks[i] = enriched
		}(i)
	}
	wg.Wait()

	if failed > 0 {
		e.logger.Debug().Int("failed", failed).Int("total", len(tracks)).Msg("enrichment incomplete")
	}
}
