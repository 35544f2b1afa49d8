// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"strings"
)

// Context is a listening-activity label.
type Context string

// Known listening contexts.
const (
	ContextWorkout Context = "workout"
	ContextChill   Context = "chill"
	ContextParty   Context = "party"
	ContextFocus   Context = "focus"
	ContextSleep   Context = "sleep"
	ContextGeneral Context = "general"
)

// KnownContexts lists every label with a dedicated affinity counter.
var KnownContexts = []Context{
	ContextWorkout,
	ContextChill,
	ContextParty,
	ContextFocus,
	ContextSleep,
	ContextGeneral,
}

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Constraint bounds one feature.
type Constraint struct {
	Feature Feature `json:"feature"`
	Range
}

// contextFilters is the only context table. Store queries, in-memory
// matching and catalog seed parameters all read from it.
var contextFilters = map[Context][]Constraint{
	ContextWorkout: {
		{Feature: FeatureEnergy, Range: Range{Min: 0.7, Max: 1.0}},
		{Feature: FeatureTempo, Range: Range{Min: 120, Max: 200}},
		{Feature: FeatureValence, Range: Range{Min: 0.4, Max: 1.0}},
	},
	ContextChill: {
		{Feature: FeatureEnergy, Range: Range{Min: 0.0, Max: 0.5}},
		{Feature: FeatureValence, Range: Range{Min: 0.3, Max: 0.8}},
		{Feature: FeatureTempo, Range: Range{Min: 60, Max: 120}},
	},
	ContextParty: {
		{Feature: FeatureDanceability, Range: Range{Min: 0.7, Max: 1.0}},
		{Feature: FeatureEnergy, Range: Range{Min: 0.7, Max: 1.0}},
		{Feature: FeatureValence, Range: Range{Min: 0.5, Max: 1.0}},
	},
	ContextFocus: {
		{Feature: FeatureInstrumentalness, Range: Range{Min: 0.5, Max: 1.0}},
		{Feature: FeatureSpeechiness, Range: Range{Min: 0.0, Max: 0.3}},
		{Feature: FeatureEnergy, Range: Range{Min: 0.2, Max: 0.7}},
	},
	ContextSleep: {
		{Feature: FeatureEnergy, Range: Range{Min: 0.0, Max: 0.3}},
		{Feature: FeatureTempo, Range: Range{Min: 60, Max: 100}},
		{Feature: FeatureValence, Range: Range{Min: 0.2, Max: 0.6}},
	},
}

// Constraints returns a copy of the range constraints for c. General and
// unrecognised labels have none.
func Constraints(c Context) []Constraint {
	src := contextFilters[c]
	if len(src) == 0 {
		return nil
	}
	out := make([]Constraint, len(src))
	copy(out, src)
	return out
}

// IsKnown reports whether c is one of KnownContexts.
func (c Context) IsKnown() bool {
	for _, k := range KnownContexts {
		if c == k {
			return true
		}
	}
	return false
}

// ParseContext normalises a caller-supplied label. An empty label means
// general; anything else must be a known context.
func ParseContext(s string) (Context, error) {
	c := Context(strings.ToLower(strings.TrimSpace(s)))
	if c == "" {
		return ContextGeneral, nil
	}
	if !c.IsKnown() {
		return "", &ValidationError{Field: "context", Message: "unknown context " + s}
	}
	return c, nil
}

// MatchesContext reports whether every constraint of c holds for the
// features the track actually has.
func MatchesContext(t Track, c Context) bool {
	return satisfies(t.Features, contextFilters[c])
}

func satisfies(v FeatureVector, constraints []Constraint) bool {
	for _, con := range constraints {
		if !InRange(v, con.Feature, con.Min, con.Max) {
			return false
		}
	}
	return true
}
