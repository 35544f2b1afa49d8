// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package reranking

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/tomtom215/cadence/internal/recommend"
)

// Calibration attributes.
const (
	AttributeCluster = "cluster"
	AttributeEnergy  = "energy"
	AttributeContext = "context"
)

// calibrationWindow is how many recent ratings form the target distribution.
const calibrationWindow = 50

// CalibrationConfig contains configuration for calibration reranking.
type CalibrationConfig struct {
	// Lambda balances relevance and calibration (0=pure calibration, 1=pure relevance).
	Lambda float64

	// AttributeWeights assigns importance to each attribute. Unknown keys
	// are ignored. If empty, only cluster calibration is used.
	AttributeWeights map[string]float64
}

// DefaultCalibrationConfig returns default calibration configuration.
func DefaultCalibrationConfig() CalibrationConfig {
	return CalibrationConfig{
		Lambda: 0.7,
		AttributeWeights: map[string]float64{
			AttributeCluster: 1.0,
			AttributeEnergy:  0.5,
		},
	}
}

// Calibration implements calibrated recommendations.
// Reference: "Calibrated Recommendations" (Steck, 2018)
//
// The distribution of clusters and energy levels in the output is pulled
// toward the user's recent ratings, so one dominant taste does not crowd
// out the others. Each greedy step picks the candidate maximizing
//
//	lambda * pref(i) + (1-lambda) * (1 - KL(target || output+i))
//
// with KL clamped to [0, 1] and averaged over the weighted attributes.
type Calibration struct {
	config CalibrationConfig
}

// NewCalibration creates a new calibration reranker.
func NewCalibration(cfg CalibrationConfig) *Calibration {
	if cfg.Lambda < 0 {
		cfg.Lambda = 0
	}
	if cfg.Lambda > 1 {
		cfg.Lambda = 1
	}
	if len(cfg.AttributeWeights) == 0 {
		cfg.AttributeWeights = map[string]float64{AttributeCluster: 1.0}
	}
	return &Calibration{config: cfg}
}

// Name returns the scorer identifier.
func (c *Calibration) Name() string {
	return NameCalibration
}

// Score orders candidates by greedy calibrated selection. Without history
// there is no target and the order is by preference alone.
//
//nolint:gocritic // hugeParam: profile passed by value per recommend.Scorer
func (c *Calibration) Score(ctx context.Context, candidates []recommend.Track, profile recommend.UserProfile, lc recommend.Context) ([]recommend.ScoredTrack, error) {
	if len(candidates) == 0 {
		return []recommend.ScoredTrack{}, nil
	}
	if len(candidates) > maxRerankSize {
		return nil, fmt.Errorf("calibration: %d candidates exceeds limit %d", len(candidates), maxRerankSize)
	}

	target := c.targetDistribution(profile.History)
	if len(target) == 0 {
		return recommend.RankByPreference(candidates, profile.Preferences), nil
	}

	relevance := make([]float64, len(candidates))
	for i, t := range candidates {
		relevance[i] = recommend.PreferenceScore(t.Features, profile.Preferences)
	}

	counts := make(map[string]map[string]float64, len(c.config.AttributeWeights))
	for attr := range c.config.AttributeWeights {
		counts[attr] = make(map[string]float64)
	}

	picked := make([]bool, len(candidates))
	out := make([]recommend.ScoredTrack, 0, len(candidates))
	for len(out) < len(candidates) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bestIdx := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if picked[i] {
				continue
			}
			calib := c.calibrationScore(target, counts, c.attributes(&candidates[i], lc))
			score := c.config.Lambda*relevance[i] + (1-c.config.Lambda)*calib
			// Strict comparison keeps the earlier candidate on ties.
			if score > bestScore {
				bestScore = score
				bestIdx = i
			}
		}

		picked[bestIdx] = true
		for attr, value := range c.attributes(&candidates[bestIdx], lc) {
			if counts[attr] != nil {
				counts[attr][value]++
			}
		}
		out = append(out, recommend.ScoredTrack{
			Track:  candidates[bestIdx],
			Score:  bestScore,
			Reason: NameCalibration,
		})
	}
	return out, nil
}

// targetDistribution is the normalized attribute distribution of the
// recent history.
func (c *Calibration) targetDistribution(history []recommend.HistoryEntry) map[string]map[string]float64 {
	if len(history) == 0 {
		return nil
	}
	if len(history) > calibrationWindow {
		history = history[len(history)-calibrationWindow:]
	}

	dist := make(map[string]map[string]float64)
	for i := range history {
		h := &history[i]
		values := map[string]string{
			AttributeCluster: strconv.Itoa(h.Cluster),
			AttributeContext: string(h.Context),
		}
		if bucket, ok := energyBucket(h.Features); ok {
			values[AttributeEnergy] = bucket
		}
		for attr := range c.config.AttributeWeights {
			v, ok := values[attr]
			if !ok {
				continue
			}
			if dist[attr] == nil {
				dist[attr] = make(map[string]float64)
			}
			dist[attr][v]++
		}
	}
	for attr := range dist {
		normalizeDistribution(dist[attr])
	}
	return dist
}

// attributes returns the calibration values of a candidate. A candidate
// counts toward the request context only when it matches it.
func (c *Calibration) attributes(t *recommend.Track, lc recommend.Context) map[string]string {
	values := map[string]string{AttributeCluster: strconv.Itoa(t.Cluster)}
	if bucket, ok := energyBucket(t.Features); ok {
		values[AttributeEnergy] = bucket
	}
	if lc != recommend.ContextGeneral && recommend.MatchesContext(*t, lc) {
		values[AttributeContext] = string(lc)
	} else {
		values[AttributeContext] = string(recommend.ContextGeneral)
	}
	return values
}

// calibrationScore scores the output distribution after adding a candidate
// with the given attribute values. Higher is better.
func (c *Calibration) calibrationScore(target, counts map[string]map[string]float64, add map[string]string) float64 {
	var totalScore, totalWeight float64
	for attr, weight := range c.config.AttributeWeights {
		targetDist := target[attr]
		if len(targetDist) == 0 || weight <= 0 {
			continue
		}

		rec := make(map[string]float64, len(counts[attr])+1)
		for k, v := range counts[attr] {
			rec[k] = v
		}
		if v, ok := add[attr]; ok {
			rec[v]++
		}
		normalizeDistribution(rec)

		kl := klDivergence(targetDist, rec)
		totalScore += weight * (1.0 - math.Min(kl, 1.0))
		totalWeight += weight
	}
	if totalWeight == 0 {
		return 0.5
	}
	return totalScore / totalWeight
}

// energyBucket buckets energy with the taste thresholds.
func energyBucket(v recommend.FeatureVector) (string, bool) {
	e, ok := v.Get(recommend.FeatureEnergy)
	if !ok {
		return "", false
	}
	switch {
	case e < 0.33:
		return "low", true
	case e < 0.67:
		return "mid", true
	default:
		return "high", true
	}
}

// klDivergence computes KL divergence from p to q.
func klDivergence(p, q map[string]float64) float64 {
	var kl float64
	epsilon := 1e-10 // Smoothing to avoid log(0)

	for key, pVal := range p {
		qVal := q[key]
		if qVal <= 0 {
			qVal = epsilon
		}
		if pVal > 0 {
			kl += pVal * math.Log(pVal/qVal)
		}
	}

	return kl
}

// normalizeDistribution normalizes a distribution to sum to 1.
func normalizeDistribution(dist map[string]float64) {
	var total float64
	for _, v := range dist {
		total += v
	}

	if total > 0 {
		for k := range dist {
			dist[k] /= total
		}
	}
}

var _ recommend.Scorer = (*Calibration)(nil)
