// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"time"
)

const (
	// MaxHistory caps a profile's history; older entries are evicted first.
	MaxHistory = 1000

	// PreferenceWindow is how many recent entries feed the preference fold,
	// context counts and analytics.
	PreferenceWindow = 50

	// ClusterWindow is how many recent entries vote for the dominant cluster.
	ClusterWindow = 20

	// MinRating and MaxRating bound a rating.
	MinRating = 1
	MaxRating = 5
)

// ValidateRating rejects ratings outside [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return &ValidationError{Field: "rating", Message: "must be between 1 and 5"}
	}
	return nil
}

// NewHistoryEntry snapshots t for the history. The feature vector is copied.
func NewHistoryEntry(t Track, rating int, c Context, at time.Time) HistoryEntry {
	return HistoryEntry{
		TrackID:    t.ID,
		TrackName:  t.Name,
		ArtistName: t.PrimaryArtist(),
		Rating:     rating,
		Context:    c,
		Timestamp:  at,
		Cluster:    t.Cluster,
		Features:   t.Features.Clone(),
	}
}

// ApplyRating appends entry to p and recomputes preferences, context
// affinity and analytics from the recent window. It returns the new
// analytics.
//
//nolint:gocritic // hugeParam: entry passed by value, it is stored as-is
func ApplyRating(p *UserProfile, entry HistoryEntry, now time.Time) Analytics {
	p.History = append(p.History, entry)
	if over := len(p.History) - MaxHistory; over > 0 {
		kept := make([]HistoryEntry, MaxHistory)
		copy(kept, p.History[over:])
		p.History = kept
	}

	window := recent(p.History, PreferenceWindow)
	foldPreferences(&p.Preferences, window)
	recountContexts(p, window)
	p.Analytics = computeAnalytics(len(p.History), window, now)
	p.UpdatedAt = now

	return p.Analytics
}

func recent(history []HistoryEntry, n int) []HistoryEntry {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// foldPreferences blends each preference feature 50/50 with every window
// entry carrying it, oldest to newest. Each step builds on the value the
// previous step produced, so the order matters.
func foldPreferences(prefs *FeatureVector, window []HistoryEntry) {
	for _, f := range PreferenceFeatures {
		current, ok := prefs.Get(f)
		if !ok {
			current = 0.5
		}
		for _, e := range window {
			if v, present := e.Features.Get(f); present {
				current = (current + v) / 2
			}
		}
		prefs.Set(f, current)
	}
}

// recountContexts sets the affinity of every context seen in the window to
// its count there. Contexts absent from the window keep their value.
func recountContexts(p *UserProfile, window []HistoryEntry) {
	if p.ContextAffinity == nil {
		p.ContextAffinity = make(map[Context]int, len(KnownContexts))
	}
	counts := make(map[Context]int)
	for _, e := range window {
		counts[e.Context]++
	}
	for c, n := range counts {
		if c.IsKnown() {
			p.ContextAffinity[c] = n
		}
	}
}

func computeAnalytics(total int, window []HistoryEntry, now time.Time) Analytics {
	a := Analytics{TotalLiked: total, LastActive: now}
	if len(window) == 0 {
		return a
	}

	artists := make(map[string]struct{}, len(window))
	tracks := make(map[string]struct{}, len(window))
	for _, e := range window {
		artists[e.ArtistName] = struct{}{}
		tracks[e.TrackID] = struct{}{}
	}

	n := float64(len(window))
	a.DiversityScore = float64(len(artists)) / n
	a.DiscoveryRate = float64(len(tracks)) / n
	return a
}

// DominantCluster returns the most frequent cluster among the last
// ClusterWindow entries. Ties go to the smallest cluster id. ok is false
// for an empty history.
func DominantCluster(history []HistoryEntry) (cluster int, ok bool) {
	window := recent(history, ClusterWindow)
	if len(window) == 0 {
		return 0, false
	}

	counts := make(map[int]int, len(window))
	for _, e := range window {
		counts[e.Cluster]++
	}

	best, bestCount := 0, -1
	for c, n := range counts {
		if n > bestCount || (n == bestCount && c < best) {
			best, bestCount = c, n
		}
	}
	return best, true
}
