// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package profile

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/recommend"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(&config.ProfilesConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	s.now = func() time.Time { return testTime }
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func TestStore_CreateIsIdempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	p, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got, _ := p.Preferences.Get(recommend.FeatureEnergy); got != 0.5 {
		t.Errorf("initial energy preference = %f, want 0.5", got)
	}
	if !p.CreatedAt.Equal(testTime) {
		t.Errorf("CreatedAt = %v", p.CreatedAt)
	}

	// Mutate, then Create again: the stored profile must come back untouched.
	p.Analytics.TotalLiked = 7
	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	again, err := s.Create(ctx, "alice")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if again.Analytics.TotalLiked != 7 {
		t.Errorf("Create() replaced an existing profile: %+v", again.Analytics)
	}

	if _, err := s.Create(ctx, "  "); !errors.Is(err, recommend.ErrValidation) {
		t.Errorf("Create(blank) error = %v, want ErrValidation", err)
	}
}

func TestStore_GetMissing(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "ghost")
	if !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	_, err = s.Update(context.Background(), "ghost", func(p *recommend.UserProfile) error { return nil })
	if !errors.Is(err, recommend.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	p := recommend.NewUserProfile("bob", testTime)
	track := recommend.Track{
		ID: "t1", Name: "Song", Artists: []string{"Band"}, Cluster: 3,
		Features: recommend.FeatureVector{Energy: recommend.Float(0.9), Tempo: recommend.Float(128)},
	}
	recommend.ApplyRating(&p, recommend.NewHistoryEntry(track, 5, recommend.ContextWorkout, testTime), testTime)

	if err := s.Save(ctx, p); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := s.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if len(got.History) != 1 || got.History[0].TrackID != "t1" || got.History[0].Cluster != 3 {
		t.Fatalf("history = %+v", got.History)
	}
	if v, ok := got.History[0].Features.Get(recommend.FeatureTempo); !ok || v != 128 {
		t.Errorf("history tempo = %f, %v", v, ok)
	}
	if _, ok := got.History[0].Features.Get(recommend.FeatureValence); ok {
		t.Error("absent features must stay absent after a round trip")
	}
	if got.ContextAffinity[recommend.ContextWorkout] != 1 {
		t.Errorf("workout affinity = %d", got.ContextAffinity[recommend.ContextWorkout])
	}
	if !got.History[0].Timestamp.Equal(testTime) {
		t.Errorf("timestamp = %v", got.History[0].Timestamp)
	}
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "carol"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	boom := errors.New("boom")
	_, err := s.Update(ctx, "carol", func(p *recommend.UserProfile) error {
		p.Analytics.TotalLiked = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update() error = %v, want boom", err)
	}

	got, _ := s.Get(ctx, "carol")
	if got.Analytics.TotalLiked != 0 {
		t.Errorf("failed update was persisted: %+v", got.Analytics)
	}
}

func TestStore_UpdateCanceledContext(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if _, err := s.Create(context.Background(), "dave"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_, err := s.Update(ctx, "dave", func(p *recommend.UserProfile) error {
		called = true
		return nil
	})
	if !errors.Is(err, recommend.ErrStoreUnavailable) {
		t.Errorf("Update() error = %v, want ErrStoreUnavailable", err)
	}
	if called {
		t.Error("fn must not run on a canceled context")
	}
}

// Concurrent ratings for one user must not lose updates.
func TestStore_ConcurrentUpdates(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Create(ctx, "erin"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update(ctx, "erin", func(p *recommend.UserProfile) error {
				entry := recommend.HistoryEntry{TrackID: fmt.Sprintf("t%d", i), Context: recommend.ContextGeneral}
				recommend.ApplyRating(p, entry, testTime)
				return nil
			})
			if err != nil {
				t.Errorf("Update() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := s.Get(ctx, "erin")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.History) != writers || got.Analytics.TotalLiked != writers {
		t.Errorf("history = %d, total = %d, want %d", len(got.History), got.Analytics.TotalLiked, writers)
	}
}

func TestStore_Count(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if _, err := s.Create(ctx, id); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}
	n, err := s.Count(ctx)
	if err != nil || n != 3 {
		t.Errorf("Count() = %d, %v; want 3", n, err)
	}
	if err := s.RunGC(0.5); err != nil {
		t.Errorf("RunGC() in memory error = %v", err)
	}
}

func TestStore_Closed(t *testing.T) {
	t.Parallel()
	s, err := Open(&config.ProfilesConfig{InMemory: true})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	_, err = s.Get(context.Background(), "x")
	if !errors.Is(err, recommend.ErrStoreUnavailable) || !errors.Is(err, ErrClosed) {
		t.Errorf("Get() after close error = %v", err)
	}
	if err := s.RunGC(0.5); !errors.Is(err, ErrClosed) {
		t.Errorf("RunGC() after close error = %v", err)
	}
}

func TestStore_PersistsOnDisk(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "profiles")
	cfg := &config.ProfilesConfig{Path: dir, SyncWrites: true}

	s, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := s.Create(context.Background(), "frank"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = Open(cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()

	if _, err := s.Get(context.Background(), "frank"); err != nil {
		t.Errorf("Get() after reopen error = %v", err)
	}
}
