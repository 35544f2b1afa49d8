// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func workoutStore() *mockTrackStore {
	return &mockTrackStore{tracks: []Track{
		{ID: "t1", Active: true, Popularity: 40, Features: FeatureVector{Energy: Float(0.9), Tempo: Float(150)}},
		{ID: "t2", Active: true, Popularity: 90, Features: FeatureVector{Energy: Float(0.2), Tempo: Float(80)}},
		{ID: "t3", Active: true, Popularity: 70, Features: FeatureVector{Energy: Float(0.95), Tempo: Float(140)}},
	}}
}

func TestRetriever_Retrieve_Workout(t *testing.T) {
	t.Parallel()

	r := NewRetriever(workoutStore(), nil, time.Second, zerolog.Nop())
	got, external, err := r.Retrieve(context.Background(), RetrievalRequest{Context: ContextWorkout, Limit: 10})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if external != 0 {
		t.Errorf("external = %d, want 0", external)
	}
	want := []string{"t3", "t1"}
	if !equalIDs(trackIDs(got), want) {
		t.Errorf("Retrieve() = %v, want %v", trackIDs(got), want)
	}
}

func TestRetriever_Retrieve_Overfetch(t *testing.T) {
	t.Parallel()

	store := &mockTrackStore{}
	for i := 0; i < 10; i++ {
		store.tracks = append(store.tracks, newTestTrack(fmt.Sprintf("t%d", i), 0, float64(i), 0.5))
	}

	r := NewRetriever(store, nil, time.Second, zerolog.Nop())
	got, _, err := r.Retrieve(context.Background(), RetrievalRequest{
		Context:    ContextGeneral,
		Limit:      3,
		ExcludeIDs: []string{"t9"},
	})
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	want := []string{"t8", "t7", "t6", "t5", "t4", "t3"}
	if !equalIDs(trackIDs(got), want) {
		t.Errorf("Retrieve() = %v, want %v", trackIDs(got), want)
	}
}

func TestRetriever_Retrieve_External(t *testing.T) {
	t.Parallel()

	fast := FeatureVector{Energy: Float(0.8), Tempo: Float(130)}
	tests := []struct {
		name         string
		catalog      *mockCatalog
		useExternal  bool
		wantIDs      []string
		wantExternal int
	}{
		{
			name: "supplements short local pool",
			catalog: &mockCatalog{similar: []Track{
				{ID: "x1", Active: true, Features: fast},
				{ID: "t1", Active: true, Features: fast},
				{ID: "x2", Active: true, Features: FeatureVector{Energy: Float(0.1)}},
				{ID: "x3", Active: true, Features: fast},
			}},
			useExternal:  true,
			wantIDs:      []string{"t3", "t1", "x1", "x3"},
			wantExternal: 2,
		},
		{
			name:        "external disabled",
			catalog:     &mockCatalog{similar: []Track{{ID: "x1", Active: true, Features: fast}}},
			useExternal: false,
			wantIDs:     []string{"t3", "t1"},
		},
		{
			name:        "catalog failure absorbed",
			catalog:     &mockCatalog{similarErr: fmt.Errorf("search: %w", ErrExternalService)},
			useExternal: true,
			wantIDs:     []string{"t3", "t1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := NewRetriever(workoutStore(), tt.catalog, time.Second, zerolog.Nop())
			got, external, err := r.Retrieve(context.Background(), RetrievalRequest{
				Context:     ContextWorkout,
				Limit:       4,
				UseExternal: tt.useExternal,
			})
			if err != nil {
				t.Fatalf("Retrieve() error = %v", err)
			}
			if !equalIDs(trackIDs(got), tt.wantIDs) {
				t.Errorf("Retrieve() = %v, want %v", trackIDs(got), tt.wantIDs)
			}
			if external != tt.wantExternal {
				t.Errorf("external = %d, want %d", external, tt.wantExternal)
			}
		})
	}
}

func TestRetriever_Retrieve_StoreError(t *testing.T) {
	t.Parallel()

	store := &mockTrackStore{err: fmt.Errorf("dial: %w", ErrStoreUnavailable)}
	r := NewRetriever(store, &mockCatalog{}, time.Second, zerolog.Nop())

	_, _, err := r.Retrieve(context.Background(), RetrievalRequest{Context: ContextChill, Limit: 5, UseExternal: true})
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Retrieve() error = %v, want ErrStoreUnavailable", err)
	}
}
