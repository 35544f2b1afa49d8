// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package reranking

import (
	"context"
	"math"
	"testing"

	"github.com/tomtom215/cadence/internal/recommend"
)

func hybridCandidates() []recommend.Track {
	a := track("a", 0.9, 0.9, 0.9)
	a.Popularity = 10
	b := track("b", 0.1, 0.1, 0.1)
	b.Popularity = 90
	c := track("c", 0.85, 0.85, 0.85)
	c.Popularity = 80
	d := track("d", 0.5, 0.5, 0.5)
	d.Popularity = 20
	return []recommend.Track{a, b, c, d}
}

// hybridProfile listened to loud tracks but prefers quiet ones, so content
// and preference disagree.
func hybridProfile() recommend.UserProfile {
	p := profileWith(0.1, 0.1, 0.1)
	p.History = []recommend.HistoryEntry{{TrackID: "seed", Features: track("seed", 0.9, 0.9, 0.9).Features}}
	return p
}

func TestHybrid_Score(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		profile     recommend.UserProfile
		context     recommend.Context
		wantIDs     []string
		wantScores  []float64
		wantReasons []string
	}{
		{
			name:        "general context",
			profile:     hybridProfile(),
			context:     recommend.ContextGeneral,
			wantIDs:     []string{"c", "a", "b", "d"},
			wantScores:  []float64{0.84, 0.6, 0.48, 0.3},
			wantReasons: []string{"content+popularity", "content", "preference+popularity", "preference"},
		},
		{
			name:        "workout context nominates matching tracks",
			profile:     hybridProfile(),
			context:     recommend.ContextWorkout,
			wantIDs:     []string{"c", "a", "b", "d"},
			wantScores:  []float64{0.96, 0.84, 0.48, 0.3},
			wantReasons: []string{"content+context+popularity", "content+context", "preference+popularity", "preference"},
		},
		{
			name:        "no history skips content",
			profile:     profileWith(0.1, 0.1, 0.1),
			context:     recommend.ContextGeneral,
			wantIDs:     []string{"b", "d", "c", "a"},
			wantScores:  []float64{0.48, 0.3, 0.1, 0},
			wantReasons: []string{"preference+popularity", "preference", "popularity", ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHybrid(DefaultHybridConfig())
			got, err := h.Score(context.Background(), hybridCandidates(), tt.profile, tt.context)
			if err != nil {
				t.Fatalf("Score() error = %v", err)
			}
			if gotIDs := ids(got); !equal(gotIDs, tt.wantIDs) {
				t.Fatalf("order = %v, want %v", gotIDs, tt.wantIDs)
			}
			for i, s := range got {
				if math.Abs(s.Score-tt.wantScores[i]) > 1e-9 {
					t.Errorf("%s score = %f, want %f", s.Track.ID, s.Score, tt.wantScores[i])
				}
				if s.Reason != tt.wantReasons[i] {
					t.Errorf("%s reason = %q, want %q", s.Track.ID, s.Reason, tt.wantReasons[i])
				}
			}
		})
	}
}

func TestHybrid_Score_EdgeCases(t *testing.T) {
	t.Parallel()

	h := NewHybrid(DefaultHybridConfig())

	got, err := h.Score(context.Background(), nil, hybridProfile(), recommend.ContextGeneral)
	if err != nil || len(got) != 0 {
		t.Errorf("Score(nil) = %v, %v", got, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := h.Score(ctx, hybridCandidates(), hybridProfile(), recommend.ContextGeneral); err == nil {
		t.Error("Score() with cancelled context succeeded")
	}

	big := make([]recommend.Track, maxRerankSize+1)
	if _, err := h.Score(context.Background(), big, hybridProfile(), recommend.ContextGeneral); err == nil {
		t.Error("Score() accepted an oversized segment")
	}
}

func TestNewHybrid(t *testing.T) {
	t.Parallel()

	h := NewHybrid(HybridConfig{ContentWeight: -1, PreferenceWeight: 0.5, Depth: 3})
	if h.config.ContentWeight != 0 || h.config.PreferenceWeight != 0.5 {
		t.Errorf("weights = %+v", h.config)
	}
	if h.config.Depth != DefaultHybridConfig().Depth {
		t.Errorf("Depth = %f, want default", h.config.Depth)
	}
}

func TestContentSeed(t *testing.T) {
	t.Parallel()

	if _, ok := contentSeed(nil); ok {
		t.Error("contentSeed(nil) ok = true")
	}

	history := make([]recommend.HistoryEntry, 0, 12)
	// The two oldest entries fall outside the ten-entry seed window.
	for i := 0; i < 2; i++ {
		history = append(history, recommend.HistoryEntry{Features: recommend.FeatureVector{Energy: recommend.Float(0)}})
	}
	for i := 0; i < 10; i++ {
		fv := recommend.FeatureVector{Energy: recommend.Float(0.8)}
		if i%2 == 0 {
			fv.Tempo = recommend.Float(120)
		}
		history = append(history, recommend.HistoryEntry{Features: fv})
	}

	seed, ok := contentSeed(history)
	if !ok {
		t.Fatal("contentSeed() ok = false")
	}
	if e, _ := seed.Get(recommend.FeatureEnergy); math.Abs(e-0.8) > 1e-9 {
		t.Errorf("energy = %f, want 0.8", e)
	}
	if tempo, _ := seed.Get(recommend.FeatureTempo); tempo != 120 {
		t.Errorf("tempo = %f, want 120 averaged over entries that carry it", tempo)
	}
	if _, ok := seed.Get(recommend.FeatureValence); ok {
		t.Error("valence set without any entry carrying it")
	}
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
