// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package recommend implements context-aware track recommendation and the
// preference model that learns from ratings.
//
// # Architecture
//
// A recommendation request flows through four stages:
//
//	Context table -> Retrieval -> Scoring -> Composer
//	(feature ranges)  (store + catalog)  (similarity)  (cluster blend)
//
// A rating flows the other way: RateTrack snapshots the track into the
// user's history and refolds preferences, context affinity and analytics
// from the most recent PreferenceWindow entries.
//
// # Feature Vectors
//
// Every audio feature is optional. Similarity and preference scores average
// 1-|a-b| over the features both vectors carry; absent features are skipped,
// never treated as zero. Context matching is permissive in the same way: a
// track without tempo passes a tempo constraint.
//
// # Composition
//
// For a user with history the composer picks the dominant cluster among the
// last ClusterWindow ratings and returns ceil(0.6·limit) popular tracks from
// it followed by ceil(0.4·limit) from every other cluster, excluding rated
// tracks. Users without history get the popularity list. Any store failure
// after the user has been resolved degrades to the popularity list.
//
// # Collaborators
//
// The engine depends on TrackStore and ProfileStore. Catalog, Scorer,
// ResultCache and RatingNotifier are optional and best-effort:
//
//	engine, err := recommend.NewEngine(cfg, tracks, profiles, logger)
//	if err != nil {
//	    return err
//	}
//	engine.SetCatalog(catalogClient)
//	engine.SetCache(resultCache)
//
//	recs, err := engine.GetRecommendations(ctx, recommend.RecommendationRequest{
//	    UserID:  "u-42",
//	    Context: "workout",
//	    Limit:   20,
//	})
//
// # Thread Safety
//
// The engine is safe for concurrent use once its collaborators are set.
// Concurrent ratings for one user are serialized by ProfileStore.Update.
package recommend
