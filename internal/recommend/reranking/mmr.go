// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package reranking

import (
	"context"
	"fmt"

	"github.com/tomtom215/cadence/internal/recommend"
)

// maxRerankSize bounds the pairwise similarity matrix.
const maxRerankSize = 2000

// Scorer names accepted by New.
const (
	NameNone        = ""
	NamePreference  = "preference"
	NameMMR         = "mmr"
	NameHybrid      = "hybrid"
	NameCalibration = "calibration"
)

// New returns the scorer registered under name, or nil for NameNone.
// lambda is the relevance trade-off of mmr and calibration.
func New(name string, lambda float64) (recommend.Scorer, error) {
	switch name {
	case NameNone, "none":
		return nil, nil
	case NamePreference:
		return NewPreference(), nil
	case NameMMR:
		return NewMMR(lambda), nil
	case NameHybrid:
		return NewHybrid(DefaultHybridConfig()), nil
	case NameCalibration:
		cfg := DefaultCalibrationConfig()
		cfg.Lambda = lambda
		return NewCalibration(cfg), nil
	default:
		return nil, fmt.Errorf("unknown scorer %q", name)
	}
}

// Preference orders candidates by recommend.PreferenceScore.
type Preference struct{}

// NewPreference creates a preference scorer.
func NewPreference() *Preference {
	return &Preference{}
}

// Name returns the scorer identifier.
func (p *Preference) Name() string {
	return NamePreference
}

// Score ranks candidates against the profile's preferences.
//
//nolint:gocritic // hugeParam: profile passed by value per recommend.Scorer
func (p *Preference) Score(ctx context.Context, candidates []recommend.Track, profile recommend.UserProfile, c recommend.Context) ([]recommend.ScoredTrack, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return recommend.RankByPreference(candidates, profile.Preferences), nil
}

// MMR implements Maximal Marginal Relevance reranking.
// It balances relevance and diversity by iteratively selecting tracks
// that are both close to the user's taste and dissimilar to tracks
// already selected.
//
// The MMR formula is:
//
//	MMR = argmax[lambda * pref(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// Where:
//   - lambda: balance parameter (1.0 = pure relevance, 0.0 = pure diversity)
//   - pref(i): recommend.PreferenceScore of track i
//   - sim(i, s): recommend.Similarity between the audio features of i and s
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	lambda float64
}

// NewMMR creates a new MMR scorer. lambda is clamped to [0, 1].
func NewMMR(lambda float64) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the scorer identifier.
func (m *MMR) Name() string {
	return NameMMR
}

// Score orders every candidate by greedy MMR selection. The returned
// ScoredTrack.Score is the MMR value at the time the track was picked.
//
//nolint:gocritic // hugeParam: profile passed by value per recommend.Scorer
func (m *MMR) Score(ctx context.Context, candidates []recommend.Track, profile recommend.UserProfile, c recommend.Context) ([]recommend.ScoredTrack, error) {
	if len(candidates) == 0 {
		return []recommend.ScoredTrack{}, nil
	}
	if len(candidates) > maxRerankSize {
		return nil, fmt.Errorf("mmr: %d candidates exceeds limit %d", len(candidates), maxRerankSize)
	}

	relevance := make([]float64, len(candidates))
	for i, t := range candidates {
		relevance[i] = recommend.PreferenceScore(t.Features, profile.Preferences)
	}

	// Pure relevance needs no similarity matrix.
	if m.lambda >= 1.0 {
		return recommend.RankByPreference(candidates, profile.Preferences), nil
	}

	similarities := buildSimilarityMatrix(candidates)

	selected := make([]recommend.ScoredTrack, 0, len(candidates))
	picked := make([]bool, len(candidates))
	order := make([]int, 0, len(candidates))

	for len(selected) < len(candidates) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bestIdx := -1
		bestMMR := 0.0
		for i := range candidates {
			if picked[i] {
				continue
			}

			maxSim := 0.0
			for _, j := range order {
				if sim := similarities[i][j]; sim > maxSim {
					maxSim = sim
				}
			}

			score := m.lambda*relevance[i] - (1-m.lambda)*maxSim
			// Strict comparison keeps the earlier candidate on ties.
			if bestIdx < 0 || score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}

		picked[bestIdx] = true
		order = append(order, bestIdx)
		selected = append(selected, recommend.ScoredTrack{
			Track:  candidates[bestIdx],
			Score:  bestMMR,
			Reason: NameMMR,
		})
	}

	return selected, nil
}

// buildSimilarityMatrix computes pairwise audio-feature similarity.
func buildSimilarityMatrix(tracks []recommend.Track) [][]float64 {
	n := len(tracks)
	similarities := make([][]float64, n)
	for i := range similarities {
		similarities[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			sim := recommend.Similarity(tracks[i].Features, tracks[j].Features)
			similarities[i][j] = sim
			similarities[j][i] = sim
		}
	}

	return similarities
}

var (
	_ recommend.Scorer = (*MMR)(nil)
	_ recommend.Scorer = (*Preference)(nil)
)
