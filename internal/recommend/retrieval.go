// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// RetrievalRequest describes one candidate pull.
type RetrievalRequest struct {
	Context     Context
	ExcludeIDs  []string
	Limit       int
	UseExternal bool

	// Seed steers the external catalog search. Usually the user's
	// preference vector.
	Seed FeatureVector
}

// Retriever pulls context-filtered candidates from the track store and,
// when the store comes up short, from the external catalog.
type Retriever struct {
	store           TrackStore
	catalog         Catalog
	logger          zerolog.Logger
	externalTimeout time.Duration
}

// NewRetriever creates a retriever. catalog may be nil.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetriever(store TrackStore, catalog Catalog, externalTimeout time.Duration, logger zerolog.Logger) *Retriever {
	return &Retriever{
		store:           store,
		catalog:         catalog,
		logger:          logger.With().Str("component", "retrieval").Logger(),
		externalTimeout: externalTimeout,
	}
}

// Retrieve returns up to 2×Limit local candidates ordered by popularity,
// followed by external supplements when the local pool is smaller than
// Limit. Store errors are returned; catalog errors are logged and dropped.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Retriever) Retrieve(ctx context.Context, req RetrievalRequest) ([]Track, int, error) {
	if req.Limit <= 0 {
		return []Track{}, 0, nil
	}

	local, err := r.store.Find(ctx, TrackQuery{
		ActiveOnly: true,
		Ranges:     Constraints(req.Context),
		ExcludeIDs: req.ExcludeIDs,
		Sort:       SortOrder{By: SortByPopularity, Desc: true},
		Limit:      2 * req.Limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query local candidates: %w", err)
	}

	if len(local) >= req.Limit || !req.UseExternal || r.catalog == nil {
		return local, 0, nil
	}

	exclude := make(map[string]struct{}, len(req.ExcludeIDs)+len(local))
	for _, id := range req.ExcludeIDs {
		exclude[id] = struct{}{}
	}
	for _, t := range local {
		exclude[t.ID] = struct{}{}
	}

	external := r.searchExternal(ctx, req, req.Limit-len(local), exclude)
	return append(local, external...), len(external), nil
}

// searchExternal never fails; it returns whatever usable tracks the catalog
// produced before erroring or timing out.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (r *Retriever) searchExternal(ctx context.Context, req RetrievalRequest, want int, exclude map[string]struct{}) []Track {
	if r.externalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.externalTimeout)
		defer cancel()
	}

	found, err := r.catalog.SearchSimilar(ctx, req.Seed, req.Context, want)
	if err != nil {
		r.logger.Warn().
			Err(err).
			Str("context", string(req.Context)).
			Int("wanted", want).
			Msg("external catalog search failed, using local candidates only")
		return nil
	}

	out := make([]Track, 0, want)
	for _, t := range found {
		if len(out) == want {
			break
		}
		if _, skip := exclude[t.ID]; skip {
			continue
		}
		if !t.Active || !MatchesContext(t, req.Context) {
			continue
		}
		exclude[t.ID] = struct{}{}
		out = append(out, t)
	}

	r.logger.Debug().
		Int("returned", len(found)).
		Int("kept", len(out)).
		Msg("external catalog supplement")
	return out
}
