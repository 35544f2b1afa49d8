// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"
)

// Theme names a playlist recipe.
type Theme string

// Playlist themes. The first five reuse the context table.
const (
	ThemeWorkout   Theme = "workout"
	ThemeChill     Theme = "chill"
	ThemeParty     Theme = "party"
	ThemeFocus     Theme = "focus"
	ThemeSleep     Theme = "sleep"
	ThemeDiscovery Theme = "discovery"
	ThemeThrowback Theme = "throwback"
	ThemeMood      Theme = "mood"
	ThemeGeneral   Theme = "general"
)

const (
	// DefaultPlaylistSize applies when a request names no size.
	DefaultPlaylistSize = 20

	// throwbackYears is how old a track must be to count as a throwback.
	throwbackYears = 5

	// moodWindow is how many recent ratings set the mood.
	moodWindow = 20

	// moodSpread widens the averaged mood into a range on each side.
	moodSpread = 0.2

	// workoutRelaxedEnergy lowers the workout energy floor for listeners
	// who prefer calmer tracks.
	workoutRelaxedEnergy = 0.6
)

// Discovery favors the less popular middle of the catalog.
var discoveryPopularity = Range{Min: 20, Max: 70}

// ThemeInfo describes a theme for clients.
type ThemeInfo struct {
	ID          Theme    `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Traits      []string `json:"features"`
}

var themeCatalog = []ThemeInfo{
	{ThemeWorkout, "Workout", "High-energy tracks for exercise", []string{"High energy", "Fast tempo", "Motivational"}},
	{ThemeChill, "Chill", "Relaxing tracks for unwinding", []string{"Low energy", "Calm mood", "Relaxing"}},
	{ThemeParty, "Party", "Upbeat tracks to get the party started", []string{"High danceability", "Upbeat", "Energetic"}},
	{ThemeFocus, "Focus", "Instrumental and ambient tracks for concentration", []string{"Instrumental", "Minimal vocals", "Concentration-friendly"}},
	{ThemeSleep, "Sleep", "Calm tracks for bedtime", []string{"Very low energy", "Slow tempo", "Calming"}},
	{ThemeDiscovery, "Discovery", "Hidden gems from the middle of the catalog", []string{"Diverse selection", "Less popular tracks", "New discoveries"}},
	{ThemeThrowback, "Throwback", "Classic tracks from the past", []string{"Older tracks", "Classic hits", "Nostalgic"}},
	{ThemeMood, "Mood", "Tracks that match your recent listening", []string{"Personalized", "Mood-based", "Adaptive"}},
	{ThemeGeneral, "General", "The most popular active tracks", []string{"Popular", "Broad"}},
}

// Themes lists every playlist theme.
func Themes() []ThemeInfo {
	out := make([]ThemeInfo, len(themeCatalog))
	copy(out, themeCatalog)
	return out
}

// ParseTheme normalises a theme label. An empty label means discovery.
func ParseTheme(s string) (Theme, error) {
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return ThemeDiscovery, nil
	}
	for _, info := range themeCatalog {
		if info.ID == t {
			return t, nil
		}
	}
	return "", &ValidationError{Field: "theme", Message: "unknown theme " + s}
}

// PlaylistRequest asks for a themed playlist.
type PlaylistRequest struct {
	UserID string
	Theme  string

	// Size defaults to DefaultPlaylistSize and is capped by the max limit.
	Size int

	// Context seeds the mood theme for users without history.
	Context string

	// Personalize reorders the theme's pool by the user's preferences.
	Personalize bool
}

// PlaylistDuration is the summed track length.
type PlaylistDuration struct {
	TotalMS   int64  `json:"total_ms"`
	Minutes   int64  `json:"minutes"`
	Seconds   int64  `json:"seconds"`
	Formatted string `json:"formatted"`
}

// Playlist is a generated themed playlist.
type Playlist struct {
	UserID       string           `json:"user_id"`
	Theme        Theme            `json:"theme"`
	Tracks       []Track          `json:"tracks"`
	TotalTracks  int              `json:"total_tracks"`
	Duration     PlaylistDuration `json:"duration"`
	Personalized bool             `json:"personalized"`
	GeneratedAt  time.Time        `json:"generated_at"`
}

// GeneratePlaylist builds a playlist for the theme. Each theme queries a
// pool twice the requested size; with personalization the pool is ranked
// by preference score before it is cut to size.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) GeneratePlaylist(ctx context.Context, req PlaylistRequest) (*Playlist, error) {
	e.requestCount.Add(1)

	if strings.TrimSpace(req.UserID) == "" {
		return nil, &ValidationError{Field: "user_id", Message: "is required"}
	}
	theme, err := ParseTheme(req.Theme)
	if err != nil {
		return nil, err
	}
	c, err := ParseContext(req.Context)
	if err != nil {
		return nil, err
	}
	size := e.clampLimit(req.Size, DefaultPlaylistSize)

	profile, err := e.getProfile(ctx, req.UserID)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("load profile: %w", err)
	}

	q := e.themeQuery(theme, c, &profile, req.Personalize)
	q.ActiveOnly = true
	q.Limit = 2 * size

	sctx, cancel := e.storeContext(ctx)
	defer cancel()
	pool, err := e.tracks.Find(sctx, q)
	if err != nil {
		e.errorCount.Add(1)
		return nil, fmt.Errorf("query %s playlist: %w", theme, err)
	}

	tracks := pool
	if req.Personalize {
		tracks = Tracks(RankByPreference(pool, profile.Preferences), size)
	} else if len(tracks) > size {
		tracks = tracks[:size]
	}
	e.enrich(ctx, tracks)

	e.logger.Debug().
		Str("user_id", req.UserID).
		Str("theme", string(theme)).
		Int("pool", len(pool)).
		Int("returned", len(tracks)).
		Bool("personalized", req.Personalize).
		Msg("playlist generated")

	return &Playlist{
		UserID:       req.UserID,
		Theme:        theme,
		Tracks:       tracks,
		TotalTracks:  len(tracks),
		Duration:     totalDuration(tracks),
		Personalized: req.Personalize,
		GeneratedAt:  e.now().UTC(),
	}, nil
}

// themeQuery returns the filters and ordering for a theme.
func (e *Engine) themeQuery(theme Theme, c Context, profile *UserProfile, personalize bool) TrackQuery {
	byPopularity := SortOrder{By: SortByPopularity, Desc: true}

	switch theme {
	case ThemeWorkout:
		ranges := Constraints(ContextWorkout)
		if energy, ok := profile.Preferences.Get(FeatureEnergy); personalize && ok && energy < 0.5 {
			for i := range ranges {
				if ranges[i].Feature == FeatureEnergy {
					ranges[i].Min = workoutRelaxedEnergy
				}
			}
		}
		return TrackQuery{Ranges: ranges, Sort: byPopularity}
	case ThemeChill, ThemeParty, ThemeFocus, ThemeSleep:
		return TrackQuery{Ranges: Constraints(Context(theme)), Sort: byPopularity}
	case ThemeDiscovery:
		return TrackQuery{
			PopularityMin: discoveryPopularity.Min,
			PopularityMax: discoveryPopularity.Max,
			Sort:          SortOrder{By: SortByPopularity},
		}
	case ThemeThrowback:
		return TrackQuery{
			YearFrom: 1,
			YearTo:   e.now().Year() - throwbackYears,
			Sort:     SortOrder{By: SortByYear, Desc: true},
			ThenSort: byPopularity,
		}
	case ThemeMood:
		if len(profile.History) == 0 {
			return TrackQuery{Ranges: Constraints(c), Sort: byPopularity}
		}
		return TrackQuery{Ranges: moodRanges(recent(profile.History, moodWindow)), Sort: byPopularity}
	default:
		return TrackQuery{Sort: byPopularity}
	}
}

// moodRanges centers energy and valence ranges on the window's averages.
// Entries missing a feature count as 0.5.
func moodRanges(window []HistoryEntry) []Constraint {
	var energy, valence float64
	for _, h := range window {
		if v, ok := h.Features.Get(FeatureEnergy); ok {
			energy += v
		} else {
			energy += 0.5
		}
		if v, ok := h.Features.Get(FeatureValence); ok {
			valence += v
		} else {
			valence += 0.5
		}
	}
	n := float64(len(window))
	around := func(f Feature, avg float64) Constraint {
		return Constraint{Feature: f, Range: Range{
			Min: math.Max(0, avg-moodSpread),
			Max: math.Min(1, avg+moodSpread),
		}}
	}
	return []Constraint{around(FeatureEnergy, energy/n), around(FeatureValence, valence/n)}
}

func totalDuration(tracks []Track) PlaylistDuration {
	var ms int64
	for _, t := range tracks {
		if v, ok := t.Features.Get(FeatureDurationMS); ok {
			ms += int64(v)
		}
	}
	d := PlaylistDuration{
		TotalMS: ms,
		Minutes: ms / 60000,
		Seconds: (ms % 60000) / 1000,
	}
	d.Formatted = fmt.Sprintf("%d:%02d", d.Minutes, d.Seconds)
	return d
}
