// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package reranking

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/cadence/internal/recommend"
)

// Hybrid source names, also used in ScoredTrack.Reason.
const (
	SourceContent    = "content"
	SourcePreference = "preference"
	SourceContext    = "context"
	SourcePopularity = "popularity"
)

const (
	// contentSeedSize is how many recent ratings form the content seed.
	contentSeedSize = 10

	// multiSourceBoost multiplies the score of tracks nominated by more
	// than one source.
	multiSourceBoost = 1.2
)

// HybridConfig weights the hybrid sources.
type HybridConfig struct {
	ContentWeight    float64
	PreferenceWeight float64
	ContextWeight    float64
	PopularityWeight float64

	// Depth is the share of candidates each source nominates, in (0, 1].
	Depth float64
}

// DefaultHybridConfig returns the standard source weights.
func DefaultHybridConfig() HybridConfig {
	return HybridConfig{
		ContentWeight:    0.6,
		PreferenceWeight: 0.3,
		ContextWeight:    0.1,
		PopularityWeight: 0.1,
		Depth:            0.5,
	}
}

// Hybrid fuses several candidate sources into one ranking.
//
// Each source nominates its top share of the candidates:
//
//   - content: closest to the centroid of the last ten rated tracks
//   - preference: highest recommend.PreferenceScore
//   - context: every candidate matching the request context (none for general)
//   - popularity: most popular
//
// A track scores the sum of the weights of the sources that nominated it,
// multiplied by 1.2 when more than one did. Tracks no source nominated keep
// their input order at the end.
type Hybrid struct {
	config HybridConfig
}

// NewHybrid creates a hybrid scorer. Negative weights are treated as zero
// and an out-of-range depth falls back to the default.
func NewHybrid(cfg HybridConfig) *Hybrid {
	for _, w := range []*float64{&cfg.ContentWeight, &cfg.PreferenceWeight, &cfg.ContextWeight, &cfg.PopularityWeight} {
		if *w < 0 {
			*w = 0
		}
	}
	if cfg.Depth <= 0 || cfg.Depth > 1 {
		cfg.Depth = DefaultHybridConfig().Depth
	}
	return &Hybrid{config: cfg}
}

// Name returns the scorer identifier.
func (h *Hybrid) Name() string {
	return NameHybrid
}

type nomination struct {
	score   float64
	sources []string
}

// Score ranks candidates by fused source weight.
//
//nolint:gocritic // hugeParam: profile passed by value per recommend.Scorer
func (h *Hybrid) Score(ctx context.Context, candidates []recommend.Track, profile recommend.UserProfile, c recommend.Context) ([]recommend.ScoredTrack, error) {
	if len(candidates) == 0 {
		return []recommend.ScoredTrack{}, nil
	}
	if len(candidates) > maxRerankSize {
		return nil, fmt.Errorf("hybrid: %d candidates exceeds limit %d", len(candidates), maxRerankSize)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	depth := int(math.Ceil(h.config.Depth * float64(len(candidates))))
	noms := make([]nomination, len(candidates))
	nominate := func(source string, weight float64, picked []int) {
		for _, i := range picked {
			noms[i].score += weight
			noms[i].sources = append(noms[i].sources, source)
		}
	}

	if seed, ok := contentSeed(profile.History); ok {
		nominate(SourceContent, h.config.ContentWeight, topBy(candidates, depth, func(t *recommend.Track) float64 {
			return recommend.Similarity(seed, t.Features)
		}))
	}
	if !profile.Preferences.IsEmpty() {
		nominate(SourcePreference, h.config.PreferenceWeight, topBy(candidates, depth, func(t *recommend.Track) float64 {
			return recommend.PreferenceScore(t.Features, profile.Preferences)
		}))
	}
	if len(recommend.Constraints(c)) > 0 {
		var matching []int
		for i := range candidates {
			if recommend.MatchesContext(candidates[i], c) {
				matching = append(matching, i)
			}
		}
		nominate(SourceContext, h.config.ContextWeight, matching)
	}
	nominate(SourcePopularity, h.config.PopularityWeight, topBy(candidates, depth, func(t *recommend.Track) float64 {
		return t.Popularity
	}))

	out := make([]recommend.ScoredTrack, len(candidates))
	for i, t := range candidates {
		n := noms[i]
		if len(n.sources) > 1 {
			n.score *= multiSourceBoost
		}
		out[i] = recommend.ScoredTrack{Track: t, Score: n.score, Reason: strings.Join(n.sources, "+")}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

// contentSeed averages the features of the most recent ratings. Each
// feature is averaged over the entries that carry it.
func contentSeed(history []recommend.HistoryEntry) (recommend.FeatureVector, bool) {
	if len(history) == 0 {
		return recommend.FeatureVector{}, false
	}
	if len(history) > contentSeedSize {
		history = history[len(history)-contentSeedSize:]
	}

	var seed recommend.FeatureVector
	for _, f := range recommend.AllFeatures {
		var sum float64
		var n int
		for i := range history {
			if v, ok := history[i].Features.Get(f); ok {
				sum += v
				n++
			}
		}
		if n > 0 {
			seed.Set(f, sum/float64(n))
		}
	}
	return seed, !seed.IsEmpty()
}

// topBy returns the indices of the k highest-scoring tracks. Ties keep
// input order.
func topBy(tracks []recommend.Track, k int, score func(t *recommend.Track) float64) []int {
	idx := make([]int, len(tracks))
	scores := make([]float64, len(tracks))
	for i := range tracks {
		idx[i] = i
		scores[i] = score(&tracks[i])
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}

var _ recommend.Scorer = (*Hybrid)(nil)
