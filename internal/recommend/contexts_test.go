// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"errors"
	"testing"
)

func TestParseContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Context
		wantErr bool
	}{
		{in: "", want: ContextGeneral},
		{in: "workout", want: ContextWorkout},
		{in: "  Chill ", want: ContextChill},
		{in: "FOCUS", want: ContextFocus},
		{in: "commute", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseContext(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseContext(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Errorf("error %v does not wrap ErrValidation", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseContext(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMatchesContext(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		features FeatureVector
		ctx      Context
		want     bool
	}{
		{
			name:     "workout match",
			features: FeatureVector{Energy: Float(0.9), Tempo: Float(150), Valence: Float(0.6)},
			ctx:      ContextWorkout,
			want:     true,
		},
		{
			name:     "workout too slow",
			features: FeatureVector{Energy: Float(0.9), Tempo: Float(80)},
			ctx:      ContextWorkout,
			want:     false,
		},
		{
			name:     "missing features are permissive",
			features: FeatureVector{Energy: Float(0.1)},
			ctx:      ContextSleep,
			want:     true,
		},
		{
			name:     "focus rejects speech",
			features: FeatureVector{Instrumentalness: Float(0.9), Speechiness: Float(0.6)},
			ctx:      ContextFocus,
			want:     false,
		},
		{
			name:     "general accepts anything",
			features: FeatureVector{Energy: Float(0.0), Tempo: Float(300)},
			ctx:      ContextGeneral,
			want:     true,
		},
		{
			name:     "unknown label has no constraints",
			features: FeatureVector{Energy: Float(0.0)},
			ctx:      Context("commute"),
			want:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := MatchesContext(Track{ID: "t", Features: tt.features}, tt.ctx)
			if got != tt.want {
				t.Errorf("MatchesContext() = %v, want %v", got, tt.want)
			}
		})
	}
}

// A match implies every present constrained feature lies in its range.
func TestMatchesContext_ImpliesRanges(t *testing.T) {
	t.Parallel()

	values := []float64{0, 0.1, 0.25, 0.35, 0.5, 0.65, 0.75, 0.9, 1}
	tempos := []float64{50, 70, 95, 110, 125, 160, 210}

	for _, c := range KnownContexts {
		for _, e := range values {
			for _, v := range values {
				for _, tempo := range tempos {
					track := Track{Features: FeatureVector{
						Energy:           Float(e),
						Valence:          Float(v),
						Danceability:     Float(v),
						Instrumentalness: Float(e),
						Speechiness:      Float(v),
						Tempo:            Float(tempo),
					}}
					if !MatchesContext(track, c) {
						continue
					}
					for _, con := range Constraints(c) {
						got, ok := track.Features.Get(con.Feature)
						if ok && !con.Contains(got) {
							t.Fatalf("%s matched with %s=%f outside [%f, %f]", c, con.Feature, got, con.Min, con.Max)
						}
					}
				}
			}
		}
	}
}

func TestConstraints_ReturnsCopy(t *testing.T) {
	t.Parallel()

	c := Constraints(ContextWorkout)
	if len(c) != 3 {
		t.Fatalf("workout constraints = %d, want 3", len(c))
	}
	c[0].Min = 0

	again := Constraints(ContextWorkout)
	if again[0].Min != 0.7 {
		t.Errorf("mutating returned constraints changed the table: min = %f", again[0].Min)
	}

	if Constraints(ContextGeneral) != nil {
		t.Error("general context should have no constraints")
	}
}
