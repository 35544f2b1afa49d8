// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Taste trait thresholds.
const (
	tasteLow  = 0.33
	tasteHigh = 0.67

	// trendingExternalMax caps new releases mixed into trending.
	trendingExternalMax = 10
)

// HourlyPattern summarizes ratings made in one hour of the day.
type HourlyPattern struct {
	AvgEnergy  float64 `json:"avg_energy"`
	AvgMood    float64 `json:"avg_mood"`
	TrackCount int     `json:"track_count"`
}

// TasteTrait is one interpreted preference.
type TasteTrait struct {
	Value          float64 `json:"value"`
	Interpretation string  `json:"interpretation"`
}

// Insights describes a user's listening behavior.
type Insights struct {
	UserID            string                   `json:"user_id"`
	Analytics         Analytics                `json:"analytics"`
	FavoriteContext   Context                  `json:"favorite_context,omitempty"`
	ContextAffinity   map[Context]int          `json:"context_affinity"`
	ListeningPatterns map[string]HourlyPattern `json:"listening_patterns"`
	TasteProfile      map[Feature]TasteTrait   `json:"taste_profile"`
	Message           string                   `json:"message,omitempty"`
}

// HistoryPage is one page of a user's history, most recent first.
type HistoryPage struct {
	Entries []HistoryEntry `json:"entries"`
	Total   int            `json:"total"`
	Offset  int            `json:"offset"`
	Limit   int            `json:"limit"`
	HasMore bool           `json:"has_more"`
}

var traitLabels = map[Feature][3]string{
	FeatureEnergy:           {"calm", "moderate", "high-energy"},
	FeatureValence:          {"melancholic", "balanced", "upbeat"},
	FeatureDanceability:     {"listening-focused", "groovy", "dance-oriented"},
	FeatureAcousticness:     {"electronic", "mixed", "acoustic"},
	FeatureInstrumentalness: {"vocal", "mixed", "instrumental"},
	FeatureSpeechiness:      {"musical", "mixed", "spoken-word"},
}

func interpret(f Feature, v float64) string {
	labels, ok := traitLabels[f]
	if !ok {
		labels = [3]string{"low", "moderate", "high"}
	}
	switch {
	case v < tasteLow:
		return labels[0]
	case v >= tasteHigh:
		return labels[2]
	default:
		return labels[1]
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Insights reports analytics, hourly listening patterns and an interpreted
// taste profile for userID.
func (e *Engine) Insights(ctx context.Context, userID string) (*Insights, error) {
	profile, err := e.getProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	out := &Insights{
		UserID:            userID,
		Analytics:         profile.Analytics,
		ContextAffinity:   make(map[Context]int, len(KnownContexts)),
		ListeningPatterns: map[string]HourlyPattern{},
		TasteProfile:      make(map[Feature]TasteTrait, len(PreferenceFeatures)),
	}
	for c, n := range profile.ContextAffinity {
		out.ContextAffinity[c] = n
	}

	best := 0
	for _, c := range KnownContexts {
		if n := profile.ContextAffinity[c]; n > best {
			best, out.FavoriteContext = n, c
		}
	}

	for _, f := range PreferenceFeatures {
		v, ok := profile.Preferences.Get(f)
		if !ok {
			continue
		}
		out.TasteProfile[f] = TasteTrait{Value: round3(v), Interpretation: interpret(f, v)}
	}

	if len(profile.History) == 0 {
		out.Message = "no listening history yet"
		return out, nil
	}
	out.ListeningPatterns = hourlyPatterns(recent(profile.History, e.config.Limits.InsightsWindow))
	return out, nil
}

// hourlyPatterns groups entries by UTC hour. Missing energy or valence
// counts as 0.5.
func hourlyPatterns(window []HistoryEntry) map[string]HourlyPattern {
	type acc struct {
		energy, mood float64
		n            int
	}
	hours := make(map[int]*acc)
	for _, h := range window {
		hour := h.Timestamp.UTC().Hour()
		a, ok := hours[hour]
		if !ok {
			a = &acc{}
			hours[hour] = a
		}
		energy, ok := h.Features.Get(FeatureEnergy)
		if !ok {
			energy = 0.5
		}
		mood, ok := h.Features.Get(FeatureValence)
		if !ok {
			mood = 0.5
		}
		a.energy += energy
		a.mood += mood
		a.n++
	}

	out := make(map[string]HourlyPattern, len(hours))
	for hour, a := range hours {
		n := float64(a.n)
		out[fmt.Sprintf("%02d:00", hour)] = HourlyPattern{
			AvgEnergy:  round3(a.energy / n),
			AvgMood:    round3(a.mood / n),
			TrackCount: a.n,
		}
	}
	return out
}

// History returns a page of the user's ratings, most recent first, optionally
// restricted to one context.
func (e *Engine) History(ctx context.Context, userID, contextLabel string, offset, limit int) (*HistoryPage, error) {
	var filter Context
	if contextLabel != "" {
		c, err := ParseContext(contextLabel)
		if err != nil {
			return nil, err
		}
		filter = c
	}
	if offset < 0 {
		return nil, &ValidationError{Field: "offset", Message: "must not be negative"}
	}
	limit = e.clampLimit(limit, e.config.Limits.DefaultLimit)

	profile, err := e.getProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	matched := make([]HistoryEntry, 0, len(profile.History))
	for i := len(profile.History) - 1; i >= 0; i-- {
		h := profile.History[i]
		if filter != "" && h.Context != filter {
			continue
		}
		matched = append(matched, h)
	}

	page := &HistoryPage{Total: len(matched), Offset: offset, Limit: limit, Entries: []HistoryEntry{}}
	if offset >= len(matched) {
		return page, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	page.Entries = matched[offset:end]
	page.HasMore = end < len(matched)
	return page, nil
}

// RecommendForContext retrieves context-matching candidates the user has not
// rated recently and ranks them by the user's preferences.
func (e *Engine) RecommendForContext(ctx context.Context, userID, contextLabel string, limit int, useExternal bool) ([]ScoredTrack, error) {
	e.requestCount.Add(1)
	c, err := ParseContext(contextLabel)
	if err != nil {
		return nil, err
	}
	limit = e.clampLimit(limit, e.config.Limits.DefaultLimit)

	profile, err := e.getProfile(ctx, userID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	recentIDs := make([]string, 0, ClusterWindow)
	for _, h := range recent(profile.History, ClusterWindow) {
		recentIDs = append(recentIDs, h.TrackID)
	}

	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	candidates, _, err := e.retriever.Retrieve(sctx, RetrievalRequest{
		Context:     c,
		ExcludeIDs:  recentIDs,
		Limit:       limit,
		UseExternal: useExternal,
		Seed:        profile.Preferences,
	})
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("retrieve %s candidates: %w", c, err)
	}

	ranked := RankByPreference(candidates, profile.Preferences)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	tracks := make([]Track, len(ranked))
	for i := range ranked {
		tracks[i] = ranked[i].Track
	}
	e.enrich(ctx, tracks)
	for i := range ranked {
		ranked[i].Track = tracks[i]
	}
	return ranked, nil
}

// Trending returns the most popular local tracks topped up with catalog new
// releases that do not duplicate a local track by name and artist.
func (e *Engine) Trending(ctx context.Context, limit int) ([]Track, error) {
	e.requestCount.Add(1)
	limit = e.clampLimit(limit, e.config.Limits.DefaultLimit)

	local, err := e.popular(ctx, limit, nil)
	if err != nil {
		e.errorCount.Add(1)
		return nil, err
	}
	if e.catalog == nil || len(local) >= limit {
		return local, nil
	}

	want := limit
	if want > trendingExternalMax {
		want = trendingExternalMax
	}
	cctx := ctx
	if e.config.Timeouts.External > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, e.config.Timeouts.External)
		defer cancel()
	}
	releases, err := e.catalog.NewReleases(cctx, want)
	if err != nil {
		e.logger.Warn().Err(err).Msg("new releases unavailable, trending from local tracks only")
		return local, nil
	}

	out := local
	for _, r := range releases {
		if len(out) >= limit {
			break
		}
		if containsRelease(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// containsRelease matches by case-insensitive name and any shared artist.
func containsRelease(tracks []Track, r Track) bool {
	for _, t := range tracks {
		if t.ID == r.ID {
			return true
		}
		if !strings.EqualFold(t.Name, r.Name) {
			continue
		}
		for _, a := range t.Artists {
			for _, b := range r.Artists {
				if strings.EqualFold(a, b) {
					return true
				}
			}
		}
	}
	return false
}
