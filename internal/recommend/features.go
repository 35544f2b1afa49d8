// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"math"
)

// Feature names a single audio descriptor in a FeatureVector.
type Feature string

// Audio features carried by a track.
const (
	FeatureDanceability     Feature = "danceability"
	FeatureEnergy           Feature = "energy"
	FeatureValence          Feature = "valence"
	FeatureAcousticness     Feature = "acousticness"
	FeatureSpeechiness      Feature = "speechiness"
	FeatureInstrumentalness Feature = "instrumentalness"
	FeatureLiveness         Feature = "liveness"
	FeatureLoudness         Feature = "loudness"
	FeatureTempo            Feature = "tempo"
	FeatureKey              Feature = "key"
	FeatureMode             Feature = "mode"
	FeatureTimeSignature    Feature = "time_signature"
	FeatureDurationMS       Feature = "duration_ms"
)

// AllFeatures lists every feature in declaration order.
var AllFeatures = []Feature{
	FeatureDanceability,
	FeatureEnergy,
	FeatureValence,
	FeatureAcousticness,
	FeatureSpeechiness,
	FeatureInstrumentalness,
	FeatureLiveness,
	FeatureLoudness,
	FeatureTempo,
	FeatureKey,
	FeatureMode,
	FeatureTimeSignature,
	FeatureDurationMS,
}

// comparisonFeatures are averaged by Similarity, in this order.
var comparisonFeatures = []Feature{
	FeatureDanceability,
	FeatureEnergy,
	FeatureValence,
	FeatureAcousticness,
	FeatureSpeechiness,
	FeatureInstrumentalness,
	FeatureLiveness,
}

// PreferenceFeatures are the features tracked in a user's preference vector.
var PreferenceFeatures = []Feature{
	FeatureDanceability,
	FeatureEnergy,
	FeatureValence,
	FeatureAcousticness,
	FeatureSpeechiness,
	FeatureInstrumentalness,
}

// FeatureVector holds a track's audio descriptors. A nil field means the
// feature is unknown for that track; it is never treated as zero.
type FeatureVector struct {
	Danceability     *float64 `json:"danceability,omitempty"`
	Energy           *float64 `json:"energy,omitempty"`
	Valence          *float64 `json:"valence,omitempty"`
	Acousticness     *float64 `json:"acousticness,omitempty"`
	Speechiness      *float64 `json:"speechiness,omitempty"`
	Instrumentalness *float64 `json:"instrumentalness,omitempty"`
	Liveness         *float64 `json:"liveness,omitempty"`
	Loudness         *float64 `json:"loudness,omitempty"`
	Tempo            *float64 `json:"tempo,omitempty"`
	Key              *float64 `json:"key,omitempty"`
	Mode             *float64 `json:"mode,omitempty"`
	TimeSignature    *float64 `json:"time_signature,omitempty"`
	DurationMS       *float64 `json:"duration_ms,omitempty"`
}

// Float returns a pointer to v, for building FeatureVector literals.
func Float(v float64) *float64 {
	return &v
}

func (v *FeatureVector) field(f Feature) **float64 {
	switch f {
	case FeatureDanceability:
		return &v.Danceability
	case FeatureEnergy:
		return &v.Energy
	case FeatureValence:
		return &v.Valence
	case FeatureAcousticness:
		return &v.Acousticness
	case FeatureSpeechiness:
		return &v.Speechiness
	case FeatureInstrumentalness:
		return &v.Instrumentalness
	case FeatureLiveness:
		return &v.Liveness
	case FeatureLoudness:
		return &v.Loudness
	case FeatureTempo:
		return &v.Tempo
	case FeatureKey:
		return &v.Key
	case FeatureMode:
		return &v.Mode
	case FeatureTimeSignature:
		return &v.TimeSignature
	case FeatureDurationMS:
		return &v.DurationMS
	default:
		return nil
	}
}

// Get returns the value of f and whether it is present.
func (v FeatureVector) Get(f Feature) (float64, bool) {
	p := v.field(f)
	if p == nil || *p == nil {
		return 0, false
	}
	return **p, true
}

// Set assigns f. Unknown feature names are ignored.
func (v *FeatureVector) Set(f Feature, value float64) {
	if p := v.field(f); p != nil {
		*p = Float(value)
	}
}

// Clear marks f as unknown.
func (v *FeatureVector) Clear(f Feature) {
	if p := v.field(f); p != nil {
		*p = nil
	}
}

// Clone returns a deep copy so the snapshot cannot alias the source.
func (v FeatureVector) Clone() FeatureVector {
	var out FeatureVector
	for _, f := range AllFeatures {
		if val, ok := v.Get(f); ok {
			out.Set(f, val)
		}
	}
	return out
}

// Present returns the features that carry a value, in declaration order.
func (v FeatureVector) Present() []Feature {
	out := make([]Feature, 0, len(AllFeatures))
	for _, f := range AllFeatures {
		if _, ok := v.Get(f); ok {
			out = append(out, f)
		}
	}
	return out
}

// IsEmpty reports whether no feature is present.
func (v FeatureVector) IsEmpty() bool {
	return len(v.Present()) == 0
}

// featureBounds are the valid ranges per feature. Loudness is unbounded.
var featureBounds = map[Feature]Range{
	FeatureDanceability:     {Min: 0, Max: 1},
	FeatureEnergy:           {Min: 0, Max: 1},
	FeatureValence:          {Min: 0, Max: 1},
	FeatureAcousticness:     {Min: 0, Max: 1},
	FeatureSpeechiness:      {Min: 0, Max: 1},
	FeatureInstrumentalness: {Min: 0, Max: 1},
	FeatureLiveness:         {Min: 0, Max: 1},
	FeatureTempo:            {Min: 0, Max: math.Inf(1)},
	FeatureKey:              {Min: 0, Max: 11},
	FeatureMode:             {Min: 0, Max: 1},
	FeatureTimeSignature:    {Min: 0, Max: 7},
	FeatureDurationMS:       {Min: 0, Max: math.Inf(1)},
}

var integralFeatures = map[Feature]bool{
	FeatureKey:           true,
	FeatureMode:          true,
	FeatureTimeSignature: true,
}

// Validate checks every present feature against its declared range.
func (v FeatureVector) Validate() error {
	for _, f := range AllFeatures {
		val, ok := v.Get(f)
		if !ok {
			continue
		}
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return &ValidationError{Field: string(f), Message: "must be a finite number"}
		}
		if b, bounded := featureBounds[f]; bounded && !b.Contains(val) {
			return &ValidationError{
				Field:   string(f),
				Message: fmt.Sprintf("%g outside [%g, %g]", val, b.Min, b.Max),
			}
		}
		if integralFeatures[f] && val != math.Trunc(val) {
			return &ValidationError{Field: string(f), Message: "must be an integer"}
		}
	}
	return nil
}

// closeness averages 1-|a-b| over the given features present on both sides.
// Zero overlap yields 0.
func closeness(a, b FeatureVector, features []Feature) float64 {
	var sum float64
	var n int
	for _, f := range features {
		av, aok := a.Get(f)
		bv, bok := b.Get(f)
		if !aok || !bok {
			continue
		}
		sum += 1 - math.Abs(av-bv)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Similarity returns the mean per-feature closeness of a and b over
// danceability, energy, valence, acousticness, speechiness,
// instrumentalness and liveness. Only features present in both vectors
// count; with no overlap the result is 0. A single overlapping feature
// carries the full weight.
func Similarity(a, b FeatureVector) float64 {
	return closeness(a, b, comparisonFeatures)
}

// InRange reports whether f lies in [lo, hi]. An absent feature passes.
func InRange(v FeatureVector, f Feature, lo, hi float64) bool {
	val, ok := v.Get(f)
	if !ok {
		return true
	}
	return val >= lo && val <= hi
}

// MoodEnergy is energy × valence.
func (v FeatureVector) MoodEnergy() (float64, bool) {
	e, eok := v.Get(FeatureEnergy)
	val, vok := v.Get(FeatureValence)
	if !eok || !vok {
		return 0, false
	}
	return e * val, true
}

// DanceTempo is danceability scaled by tempo/200.
func (v FeatureVector) DanceTempo() (float64, bool) {
	d, dok := v.Get(FeatureDanceability)
	t, tok := v.Get(FeatureTempo)
	if !dok || !tok {
		return 0, false
	}
	return d * (t / 200), true
}

// AcousticInstrumental is the mean of acousticness and instrumentalness.
func (v FeatureVector) AcousticInstrumental() (float64, bool) {
	a, aok := v.Get(FeatureAcousticness)
	i, iok := v.Get(FeatureInstrumentalness)
	if !aok || !iok {
		return 0, false
	}
	return (a + i) / 2, true
}
