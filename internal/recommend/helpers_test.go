// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// mockTrackStore evaluates TrackQuery in memory.
type mockTrackStore struct {
	mu     sync.Mutex
	tracks []Track
	err    error
	// failClusterQueries fails any query filtering on cluster.
	failClusterQueries bool
	findCalls          atomic.Int32
}

func (m *mockTrackStore) Find(ctx context.Context, q TrackQuery) ([]Track, error) {
	m.findCalls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	if m.failClusterQueries && (q.ClusterEquals != nil || q.ClusterNotEquals != nil) {
		return nil, fmt.Errorf("find: %w", ErrStoreUnavailable)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	exclude := make(map[string]struct{}, len(q.ExcludeIDs))
	for _, id := range q.ExcludeIDs {
		exclude[id] = struct{}{}
	}

	out := make([]Track, 0, len(m.tracks))
	for _, t := range m.tracks {
		if q.ActiveOnly && !t.Active {
			continue
		}
		if _, skip := exclude[t.ID]; skip {
			continue
		}
		if q.ClusterEquals != nil && t.Cluster != *q.ClusterEquals {
			continue
		}
		if q.ClusterNotEquals != nil && t.Cluster == *q.ClusterNotEquals {
			continue
		}
		if !satisfies(t.Features, q.Ranges) || !withinBounds(&t, &q) {
			continue
		}
		out = append(out, t)
	}

	sort.SliceStable(out, func(i, j int) bool {
		for _, s := range []SortOrder{q.Sort, q.ThenSort} {
			a, b := sortKey(&out[i], s.By), sortKey(&out[j], s.By)
			if a == b {
				continue
			}
			if s.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func withinBounds(t *Track, q *TrackQuery) bool {
	switch {
	case q.YearFrom != 0 && t.Year < q.YearFrom,
		q.YearTo != 0 && t.Year > q.YearTo,
		q.PopularityMin != 0 && t.Popularity < q.PopularityMin,
		q.PopularityMax != 0 && t.Popularity > q.PopularityMax,
		q.Explicit != nil && t.Explicit != *q.Explicit:
		return false
	}
	return true
}

func sortKey(t *Track, by SortField) float64 {
	switch by {
	case SortByPopularity:
		return t.Popularity
	case SortByYear:
		return float64(t.Year)
	case SortByCluster:
		return float64(t.Cluster)
	}
	return 0
}

func (m *mockTrackStore) GetTrack(ctx context.Context, id string) (Track, error) {
	if m.err != nil {
		return Track{}, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tracks {
		if t.ID == id {
			return t, nil
		}
	}
	return Track{}, fmt.Errorf("track %s: %w", id, ErrNotFound)
}

// mockProfileStore keeps profiles in a map.
type mockProfileStore struct {
	mu       sync.Mutex
	profiles map[string]UserProfile
	getErr   error
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[string]UserProfile)}
}

func (m *mockProfileStore) Get(ctx context.Context, userID string) (UserProfile, error) {
	if m.getErr != nil {
		return UserProfile{}, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return UserProfile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	return p, nil
}

func (m *mockProfileStore) Save(ctx context.Context, p UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

func (m *mockProfileStore) Update(ctx context.Context, userID string, fn func(p *UserProfile) error) (UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return UserProfile{}, fmt.Errorf("profile %s: %w", userID, ErrNotFound)
	}
	if err := fn(&p); err != nil {
		return UserProfile{}, err
	}
	m.profiles[userID] = p
	return p, nil
}

func (m *mockProfileStore) Create(ctx context.Context, userID string) (UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		return p, nil
	}
	p := NewUserProfile(userID, testTime)
	m.profiles[userID] = p
	return p, nil
}

// mockCatalog returns canned tracks.
type mockCatalog struct {
	similar     []Track
	similarErr  error
	releases    []Track
	releasesErr error
	enrichErr   error
	enrichCalls atomic.Int32
}

func (m *mockCatalog) SearchSimilar(ctx context.Context, seed FeatureVector, c Context, limit int) ([]Track, error) {
	if m.similarErr != nil {
		return nil, m.similarErr
	}
	return m.similar, nil
}

func (m *mockCatalog) Enrich(ctx context.Context, t Track) (Track, error) {
	m.enrichCalls.Add(1)
	if m.enrichErr != nil {
		return Track{}, m.enrichErr
	}
	t.Catalog = &CatalogData{ExternalID: "ext-" + t.ID}
	return t, nil
}

func (m *mockCatalog) NewReleases(ctx context.Context, limit int) ([]Track, error) {
	if m.releasesErr != nil {
		return nil, m.releasesErr
	}
	if len(m.releases) > limit {
		return m.releases[:limit], nil
	}
	return m.releases, nil
}

// mockCache is a map without expiry.
type mockCache struct {
	mu    sync.Mutex
	items map[string]interface{}
}

func newMockCache() *mockCache {
	return &mockCache{items: make(map[string]interface{})}
}

func (m *mockCache) Get(key string) (interface{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *mockCache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
}

func (m *mockCache) DeletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.items {
		if strings.HasPrefix(k, prefix) {
			delete(m.items, k)
			n++
		}
	}
	return n
}

// mockNotifier records events.
type mockNotifier struct {
	mu     sync.Mutex
	events []RatingEvent
	err    error
}

func (m *mockNotifier) RatingRecorded(ctx context.Context, ev RatingEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return m.err
}

// reverseScorer returns candidates in reverse order.
type reverseScorer struct {
	err   error
	bogus bool
}

func (s *reverseScorer) Name() string { return "reverse" }

func (s *reverseScorer) Score(ctx context.Context, candidates []Track, profile UserProfile, c Context) ([]ScoredTrack, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([]ScoredTrack, 0, len(candidates))
	for i := len(candidates) - 1; i >= 0; i-- {
		out = append(out, ScoredTrack{Track: candidates[i], Score: float64(i)})
	}
	if s.bogus {
		out = append(out, ScoredTrack{Track: Track{ID: "injected"}})
	}
	return out, nil
}

func newTestTrack(id string, cluster int, popularity float64, energy float64) Track {
	return Track{
		ID:         id,
		Name:       "Track " + id,
		Artists:    []string{"Artist " + id},
		Cluster:    cluster,
		Popularity: popularity,
		Active:     true,
		Features: FeatureVector{
			Energy:       Float(energy),
			Danceability: Float(0.5),
			Valence:      Float(0.5),
		},
	}
}

func newTestEngine(t *testing.T, tracks *mockTrackStore, profiles *mockProfileStore) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), tracks, profiles, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	e.now = func() time.Time { return testTime }
	return e
}

func trackIDs(tracks []Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// profileWithHistory builds a profile whose history rates the given tracks
// in order.
func profileWithHistory(userID string, tracks ...Track) UserProfile {
	p := NewUserProfile(userID, testTime)
	for i, t := range tracks {
		ApplyRating(&p, NewHistoryEntry(t, 5, ContextGeneral, testTime.Add(time.Duration(i)*time.Minute)), testTime)
	}
	return p
}
