// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/cadence/internal/recommend"
)

// API limits of the catalog endpoints.
const (
	maxRecommendationLimit = 100
	maxAudioFeatureIDs     = 100
	maxNewReleasesLimit    = 50
)

// seedGenres steer catalog recommendations per context. The catalog
// requires at least one seed and a feature vector alone is not one.
var seedGenres = map[recommend.Context][]string{
	recommend.ContextWorkout: {"work-out", "edm"},
	recommend.ContextChill:   {"chill", "ambient"},
	recommend.ContextParty:   {"party", "dance"},
	recommend.ContextFocus:   {"study", "classical"},
	recommend.ContextSleep:   {"sleep", "ambient"},
	recommend.ContextGeneral: {"pop"},
}

// SearchSimilar asks the catalog for tracks near seed that satisfy the
// context's feature ranges. Returned tracks carry audio features when the
// catalog has them.
func (c *Client) SearchSimilar(ctx context.Context, seed recommend.FeatureVector, lc recommend.Context, limit int) ([]recommend.Track, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > maxRecommendationLimit {
		limit = maxRecommendationLimit
	}

	var resp wireRecommendations
	if err := c.get(ctx, "search_similar", "/v1/recommendations", c.recommendationQuery(seed, lc, limit), &resp); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Tracks))
	for i := range resp.Tracks {
		ids = append(ids, resp.Tracks[i].ID)
	}
	features, err := c.audioFeatures(ctx, ids)
	if err != nil {
		// Tracks without features still pass range checks.
		c.logger.Debug().Err(err).Int("tracks", len(ids)).Msg("Audio features unavailable for catalog tracks")
	}

	tracks := make([]recommend.Track, 0, len(resp.Tracks))
	for i := range resp.Tracks {
		if resp.Tracks[i].ID == "" {
			continue
		}
		tracks = append(tracks, resp.Tracks[i].toTrack(features[resp.Tracks[i].ID]))
	}
	return tracks, nil
}

func (c *Client) recommendationQuery(seed recommend.FeatureVector, lc recommend.Context, limit int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if c.market != "" {
		q.Set("market", c.market)
	}

	genres, ok := seedGenres[lc]
	if !ok {
		genres = seedGenres[recommend.ContextGeneral]
	}
	q.Set("seed_genres", strings.Join(genres, ","))

	for _, f := range recommend.PreferenceFeatures {
		if v, ok := seed.Get(f); ok {
			q.Set("target_"+string(f), formatFloat(v))
		}
	}
	for _, con := range recommend.Constraints(lc) {
		q.Set("min_"+string(con.Feature), formatFloat(con.Min))
		q.Set("max_"+string(con.Feature), formatFloat(con.Max))
	}
	return q
}

// Enrich looks t up in the catalog by name and primary artist and attaches
// the match's metadata. Features t lacks are filled from the catalog; the
// track id never changes.
//
//nolint:gocritic // hugeParam: t passed by value per recommend.Catalog
func (c *Client) Enrich(ctx context.Context, t recommend.Track) (recommend.Track, error) {
	match, err := c.searchTrack(ctx, t.Name, t.PrimaryArtist())
	if err != nil {
		return recommend.Track{}, err
	}
	if match == nil {
		return recommend.Track{}, fmt.Errorf("catalog enrich %s: %w: no match", t.ID, recommend.ErrExternalService)
	}

	out := t
	out.Features = t.Features.Clone()
	out.Catalog = match.catalogData()

	if len(match.Artists) > 0 && match.Artists[0].ID != "" {
		var artist wireArtistDetails
		if err := c.get(ctx, "artist", "/v1/artists/"+url.PathEscape(match.Artists[0].ID), nil, &artist); err == nil {
			out.Catalog.Genres = artist.Genres
		}
	}

	if len(out.Features.Present()) < len(recommend.AllFeatures) {
		features, err := c.audioFeatures(ctx, []string{match.ID})
		if err == nil {
			fillMissing(&out.Features, features[match.ID].toFeatures())
		}
	}
	return out, nil
}

// searchTrack tries a fielded query first and a plain one second.
func (c *Client) searchTrack(ctx context.Context, name, artist string) (*wireTrack, error) {
	queries := []string{
		fmt.Sprintf("track:%q artist:%q", name, artist),
		name + " " + artist,
	}
	for _, query := range queries {
		q := url.Values{}
		q.Set("q", query)
		q.Set("type", "track")
		q.Set("limit", "1")
		if c.market != "" {
			q.Set("market", c.market)
		}

		var resp wireSearch
		if err := c.get(ctx, "search", "/v1/search", q, &resp); err != nil {
			return nil, err
		}
		if len(resp.Tracks.Items) > 0 {
			return &resp.Tracks.Items[0], nil
		}
	}
	return nil, nil
}

// audioFeatures fetches features for up to maxAudioFeatureIDs ids. Ids the
// catalog has no features for are absent from the map.
func (c *Client) audioFeatures(ctx context.Context, ids []string) (map[string]*wireAudioFeatures, error) {
	out := make(map[string]*wireAudioFeatures, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	if len(ids) > maxAudioFeatureIDs {
		ids = ids[:maxAudioFeatureIDs]
	}

	q := url.Values{}
	q.Set("ids", strings.Join(ids, ","))
	var resp wireAudioFeaturesList
	if err := c.get(ctx, "audio_features", "/v1/audio-features", q, &resp); err != nil {
		return out, err
	}
	for _, f := range resp.AudioFeatures {
		if f != nil && f.ID != "" {
			out[f.ID] = f
		}
	}
	return out, nil
}

// NewReleases returns recently released albums as track entries.
func (c *Client) NewReleases(ctx context.Context, limit int) ([]recommend.Track, error) {
	if limit <= 0 {
		return nil, nil
	}
	if limit > maxNewReleasesLimit {
		limit = maxNewReleasesLimit
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if c.market != "" {
		q.Set("country", c.market)
	}

	var resp wireNewReleases
	if err := c.get(ctx, "new_releases", "/v1/browse/new-releases", q, &resp); err != nil {
		return nil, err
	}

	tracks := make([]recommend.Track, 0, len(resp.Albums.Items))
	for i := range resp.Albums.Items {
		if resp.Albums.Items[i].ID == "" {
			continue
		}
		tracks = append(tracks, resp.Albums.Items[i].toTrack())
	}
	return tracks, nil
}

func fillMissing(dst *recommend.FeatureVector, src recommend.FeatureVector) {
	for _, f := range src.Present() {
		if _, ok := dst.Get(f); ok {
			continue
		}
		v, _ := src.Get(f)
		dst.Set(f, v)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ recommend.Catalog = (*Client)(nil)
