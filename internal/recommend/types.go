// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"time"
)

// Track is a playable item with audio features.
type Track struct {
	// ID is the opaque track identifier.
	ID string `json:"id"`

	// Name is the track title.
	Name string `json:"name"`

	// Artists lists performer names, primary artist first.
	Artists []string `json:"artists"`

	// Album is the album title.
	Album string `json:"album"`

	// Year is the release year.
	Year int `json:"year"`

	// Explicit marks explicit lyrics.
	Explicit bool `json:"explicit"`

	// Features are the track's audio descriptors.
	Features FeatureVector `json:"audio_features"`

	// Popularity is the ranking score in [0, 100].
	Popularity float64 `json:"popularity"`

	// Cluster is an upstream grouping label.
	Cluster int `json:"cluster"`

	// Active is false for logically deleted tracks.
	Active bool `json:"active"`

	// Catalog holds external metadata once the track has been enriched or
	// when it was sourced from the external catalog.
	Catalog *CatalogData `json:"catalog,omitempty"`
}

// PrimaryArtist returns the first artist or "Unknown Artist".
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 || t.Artists[0] == "" {
		return "Unknown Artist"
	}
	return t.Artists[0]
}

// CatalogData is metadata supplied by the external catalog.
type CatalogData struct {
	ExternalID  string   `json:"external_id"`
	URL         string   `json:"url,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	Popularity  int      `json:"popularity"`
	AlbumImage  string   `json:"album_image,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
	Genres      []string `json:"genres,omitempty"`
}

// HistoryEntry records one rating. Entries are never mutated after append.
type HistoryEntry struct {
	TrackID    string        `json:"track_id"`
	TrackName  string        `json:"track_name"`
	ArtistName string        `json:"artist_name"`
	Rating     int           `json:"rating"`
	Context    Context       `json:"context"`
	Timestamp  time.Time     `json:"timestamp"`
	Cluster    int           `json:"cluster"`
	Features   FeatureVector `json:"audio_features"`
}

// Analytics are derived from the recent history window.
type Analytics struct {
	TotalLiked     int       `json:"total_liked"`
	DiversityScore float64   `json:"diversity_score"`
	DiscoveryRate  float64   `json:"discovery_rate"`
	LastActive     time.Time `json:"last_active"`
}

// UserProfile is a user's taste state.
type UserProfile struct {
	UserID string `json:"user_id"`

	// Preferences track PreferenceFeatures only.
	Preferences FeatureVector `json:"preferences"`

	// ContextAffinity counts recent ratings per context.
	ContextAffinity map[Context]int `json:"context_affinity"`

	// History is ordered oldest first and capped at MaxHistory.
	History []HistoryEntry `json:"history"`

	Analytics Analytics `json:"analytics"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUserProfile returns a profile with neutral preferences.
func NewUserProfile(userID string, now time.Time) UserProfile {
	prefs := FeatureVector{}
	for _, f := range PreferenceFeatures {
		prefs.Set(f, 0.5)
	}
	affinity := make(map[Context]int, len(KnownContexts))
	for _, c := range KnownContexts {
		affinity[c] = 0
	}
	return UserProfile{
		UserID:          userID,
		Preferences:     prefs,
		ContextAffinity: affinity,
		History:         []HistoryEntry{},
		Analytics:       Analytics{LastActive: now},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HistoryIDs returns every track id in the history, oldest first, without
// duplicates.
func (p *UserProfile) HistoryIDs() []string {
	seen := make(map[string]struct{}, len(p.History))
	ids := make([]string, 0, len(p.History))
	for _, h := range p.History {
		if _, ok := seen[h.TrackID]; ok {
			continue
		}
		seen[h.TrackID] = struct{}{}
		ids = append(ids, h.TrackID)
	}
	return ids
}

// SortField selects the track ordering column.
type SortField string

// Sort columns supported by track stores.
const (
	SortByPopularity SortField = "popularity"
	SortByYear       SortField = "year"
	SortByCluster    SortField = "cluster"
)

// SortOrder is a single-column ordering.
type SortOrder struct {
	By   SortField
	Desc bool
}

// TrackQuery filters tracks in a TrackStore.
type TrackQuery struct {
	// ActiveOnly restricts results to active tracks.
	ActiveOnly bool

	// Ranges must all hold. A track missing a constrained feature passes
	// that constraint.
	Ranges []Constraint

	// ClusterEquals restricts to one cluster when non-nil.
	ClusterEquals *int

	// ClusterNotEquals excludes one cluster when non-nil.
	ClusterNotEquals *int

	// ExcludeIDs are never returned.
	ExcludeIDs []string

	// YearFrom and YearTo bound the release year inclusively. Zero leaves
	// that side open.
	YearFrom, YearTo int

	// PopularityMin and PopularityMax bound popularity inclusively. Zero
	// leaves that side open.
	PopularityMin, PopularityMax float64

	// Explicit restricts to explicit (true) or clean (false) tracks when
	// non-nil.
	Explicit *bool

	// Sort orders the result. Ties keep store order.
	Sort SortOrder

	// ThenSort orders ties left by Sort.
	ThenSort SortOrder

	// Limit caps the result; zero means no cap.
	Limit int
}

// ScoredTrack pairs a track with a ranking score.
type ScoredTrack struct {
	Track  Track   `json:"track"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// TrackStore provides tracks. Implementations wrap connection failures in
// ErrStoreUnavailable and missing ids in ErrNotFound.
type TrackStore interface {
	Find(ctx context.Context, q TrackQuery) ([]Track, error)
	GetTrack(ctx context.Context, id string) (Track, error)
}

// ProfileStore persists user profiles.
type ProfileStore interface {
	Get(ctx context.Context, userID string) (UserProfile, error)
	Save(ctx context.Context, p UserProfile) error

	// Update runs fn as a serialized read-modify-write for userID and
	// persists the result if fn returns nil.
	Update(ctx context.Context, userID string, fn func(p *UserProfile) error) (UserProfile, error)

	// Create stores a fresh profile, returning the existing one if present.
	Create(ctx context.Context, userID string) (UserProfile, error)
}

// Catalog is the optional external metadata provider. All calls are
// best-effort from the engine's point of view.
type Catalog interface {
	SearchSimilar(ctx context.Context, seed FeatureVector, c Context, limit int) ([]Track, error)
	Enrich(ctx context.Context, t Track) (Track, error)
	NewReleases(ctx context.Context, limit int) ([]Track, error)
}

// Scorer reorders a candidate list for a user. The engine consults it after
// the deterministic blend; a failing or absent scorer leaves the blend as is.
type Scorer interface {
	Name() string
	Score(ctx context.Context, candidates []Track, profile UserProfile, c Context) ([]ScoredTrack, error)
}

// RatingEvent describes a recorded rating.
type RatingEvent struct {
	UserID    string    `json:"user_id"`
	TrackID   string    `json:"track_id"`
	Rating    int       `json:"rating"`
	Context   Context   `json:"context"`
	Timestamp time.Time `json:"timestamp"`
	Analytics Analytics `json:"analytics"`
}

// RatingNotifier is told about every persisted rating.
type RatingNotifier interface {
	RatingRecorded(ctx context.Context, ev RatingEvent) error
}

// ResultCache stores composed recommendation lists.
type ResultCache interface {
	Get(key string) (interface{}, bool)
	SetWithTTL(key string, value interface{}, ttl time.Duration)
	DeletePrefix(prefix string) int
}

// Strategy names the path that produced a recommendation list.
type Strategy string

// Strategies reported in Recommendations.
const (
	StrategyBlend     Strategy = "cluster_blend"
	StrategyColdStart Strategy = "cold_start"
	StrategyFallback  Strategy = "popularity_fallback"
)

// RecommendationRequest is the input to GetRecommendations.
type RecommendationRequest struct {
	UserID      string   `json:"user_id" validate:"required,identifier"`
	Context     string   `json:"context" validate:"omitempty,listening_context"`
	Limit       int      `json:"limit" validate:"gte=0,lte=100"`
	UseExternal bool     `json:"use_external"`
	ExcludeIDs  []string `json:"exclude_ids,omitempty" validate:"omitempty,max=1000,dive,required"`
}

// Recommendations is the output of GetRecommendations.
type Recommendations struct {
	Tracks          []Track  `json:"tracks"`
	Context         Context  `json:"context"`
	Strategy        Strategy `json:"strategy"`
	DominantCluster *int     `json:"dominant_cluster,omitempty"`
	Scorer          string   `json:"scorer,omitempty"`
	ExternalCount   int      `json:"external_count"`
	CacheHit        bool     `json:"cache_hit"`
}
