// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/recommend"
)

var testTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// fakeEngine records calls and returns canned results.
type fakeEngine struct {
	mu    sync.Mutex
	calls []string
	err   error

	lastRequest recommend.RecommendationRequest
	lastRating  struct {
		userID, trackID, context string
		rating                   int
	}
	lastHistory struct {
		userID, context string
		offset, limit   int
	}
	lastLimit    int
	lastPlaylist recommend.PlaylistRequest
	lastSearch   recommend.SearchQuery
}

func (f *fakeEngine) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeEngine) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func sampleTrack(id string) recommend.Track {
	return recommend.Track{
		ID:         id,
		Name:       "Track " + id,
		Artists:    []string{"Artist"},
		Popularity: 50,
		Active:     true,
		Features:   recommend.FeatureVector{Energy: recommend.Float(0.8)},
	}
}

func (f *fakeEngine) GetRecommendations(ctx context.Context, req recommend.RecommendationRequest) (*recommend.Recommendations, error) {
	f.record("GetRecommendations")
	f.mu.Lock()
	f.lastRequest = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, _ := recommend.ParseContext(req.Context)
	return &recommend.Recommendations{
		Tracks:   []recommend.Track{sampleTrack("t1"), sampleTrack("t2")},
		Context:  c,
		Strategy: recommend.StrategyBlend,
	}, nil
}

func (f *fakeEngine) RecommendForContext(ctx context.Context, userID, contextLabel string, limit int, useExternal bool) ([]recommend.ScoredTrack, error) {
	f.record("RecommendForContext")
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []recommend.ScoredTrack{{Track: sampleTrack("t3"), Score: 0.9}}, nil
}

func (f *fakeEngine) GetSimilarTracks(ctx context.Context, trackID string, limit int) ([]recommend.Track, error) {
	f.record("GetSimilarTracks")
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []recommend.Track{sampleTrack("t4")}, nil
}

func (f *fakeEngine) MatchesTrackContext(ctx context.Context, trackID, contextLabel string) (bool, error) {
	f.record("MatchesTrackContext")
	if f.err != nil {
		return false, f.err
	}
	return contextLabel == "workout", nil
}

func (f *fakeEngine) Trending(ctx context.Context, limit int) ([]recommend.Track, error) {
	f.record("Trending")
	f.mu.Lock()
	f.lastLimit = limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []recommend.Track{sampleTrack("t5")}, nil
}

func (f *fakeEngine) CreateProfile(ctx context.Context, userID string) (recommend.UserProfile, error) {
	f.record("CreateProfile")
	if f.err != nil {
		return recommend.UserProfile{}, f.err
	}
	return recommend.NewUserProfile(userID, testTime), nil
}

func (f *fakeEngine) RateTrack(ctx context.Context, userID, trackID string, rating int, contextLabel string) (recommend.Analytics, error) {
	f.record("RateTrack")
	f.mu.Lock()
	f.lastRating.userID, f.lastRating.trackID, f.lastRating.context, f.lastRating.rating = userID, trackID, contextLabel, rating
	f.mu.Unlock()
	if f.err != nil {
		return recommend.Analytics{}, f.err
	}
	return recommend.Analytics{TotalLiked: 1, DiversityScore: 1, DiscoveryRate: 1, LastActive: testTime}, nil
}

func (f *fakeEngine) Insights(ctx context.Context, userID string) (*recommend.Insights, error) {
	f.record("Insights")
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.Insights{UserID: userID, FavoriteContext: recommend.ContextChill}, nil
}

func (f *fakeEngine) History(ctx context.Context, userID, contextLabel string, offset, limit int) (*recommend.HistoryPage, error) {
	f.record("History")
	f.mu.Lock()
	f.lastHistory.userID, f.lastHistory.context, f.lastHistory.offset, f.lastHistory.limit = userID, contextLabel, offset, limit
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.HistoryPage{
		Entries: []recommend.HistoryEntry{{TrackID: "t1", Rating: 5, Context: recommend.ContextChill, Timestamp: testTime}},
		Total:   12,
		Offset:  offset,
		Limit:   10,
		HasMore: true,
	}, nil
}

func (f *fakeEngine) GeneratePlaylist(ctx context.Context, req recommend.PlaylistRequest) (*recommend.Playlist, error) {
	f.record("GeneratePlaylist")
	f.mu.Lock()
	f.lastPlaylist = req
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	theme, _ := recommend.ParseTheme(req.Theme)
	return &recommend.Playlist{
		UserID:       req.UserID,
		Theme:        theme,
		Tracks:       []recommend.Track{sampleTrack("t6")},
		TotalTracks:  1,
		Duration:     recommend.PlaylistDuration{TotalMS: 61000, Minutes: 1, Seconds: 1, Formatted: "1:01"},
		Personalized: req.Personalize,
		GeneratedAt:  testTime,
	}, nil
}

func (f *fakeEngine) SearchTracks(ctx context.Context, q recommend.SearchQuery) ([]recommend.Track, error) {
	f.record("SearchTracks")
	f.mu.Lock()
	f.lastSearch = q
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []recommend.Track{sampleTrack("t7"), sampleTrack("t8")}, nil
}

var _ Recommender = (*fakeEngine)(nil)

func newTestRouter(engine Recommender, checks map[string]HealthCheck) http.Handler {
	return NewRouter(NewHandler(engine, checks, "test"), RouterConfig{
		CORSOrigins:       []string{"https://app.example.org"},
		RateLimitDisabled: true,
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "# metrics\n")
		}),
	})
}

// envelope mirrors Response with raw data for per-test decoding.
type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Error    *APIError       `json:"error"`
	Metadata Metadata        `json:"metadata"`
}

func do(t *testing.T, h http.Handler, method, target string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: decode body %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return rec, env
}
