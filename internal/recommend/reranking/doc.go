// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package reranking provides recommend.Scorer implementations that reorder
// a composed segment.
//
// # Available Scorers
//
// Preference:
//   - Orders candidates by closeness to the user's preference vector
//   - Stable: equal scores keep the blend order
//
// Maximal Marginal Relevance (MMR):
//   - Balances preference closeness with audio-feature diversity
//   - Penalizes tracks that sound like tracks already picked
//   - Lambda controls the tradeoff (1.0 = pure preference)
//
// Hybrid:
//   - Content, preference, context and popularity sources each nominate
//     their top share of the segment
//   - Scores sum the nominating sources' weights (0.6/0.3/0.1/0.1)
//   - Tracks nominated by more than one source get a 1.2x boost
//
// Calibration:
//   - Pulls the cluster and energy mix toward the user's recent ratings
//   - Greedy selection on lambda * preference + (1-lambda) * (1 - KL)
//
// # Usage
//
//	scorer, err := reranking.New(cfg.Recommend.Scorer, cfg.Recommend.MMRLambda)
//	if err != nil {
//	    return err
//	}
//	if scorer != nil {
//	    engine.SetScorer(scorer)
//	}
//
// Scorers only reorder. The engine discards output that names tracks outside
// the segment it passed in.
package reranking
