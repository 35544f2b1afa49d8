// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"strconv"

	"github.com/tomtom215/cadence/internal/recommend"
)

// externalIDPrefix marks track ids that came from the catalog rather than
// the local store.
const externalIDPrefix = "spotify:"

type wireArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type wireImage struct {
	URL string `json:"url"`
}

type wireExternalURLs struct {
	Spotify string `json:"spotify"`
}

type wireAlbum struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Artists      []wireArtist     `json:"artists"`
	Images       []wireImage      `json:"images"`
	ReleaseDate  string           `json:"release_date"`
	Popularity   int              `json:"popularity"`
	ExternalURLs wireExternalURLs `json:"external_urls"`
}

type wireTrack struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Artists      []wireArtist     `json:"artists"`
	Album        wireAlbum        `json:"album"`
	Popularity   int              `json:"popularity"`
	Explicit     bool             `json:"explicit"`
	DurationMS   int              `json:"duration_ms"`
	PreviewURL   string           `json:"preview_url"`
	ExternalURLs wireExternalURLs `json:"external_urls"`
}

// wireAudioFeatures uses pointers so a missing field stays absent.
type wireAudioFeatures struct {
	ID               string   `json:"id"`
	Danceability     *float64 `json:"danceability"`
	Energy           *float64 `json:"energy"`
	Valence          *float64 `json:"valence"`
	Acousticness     *float64 `json:"acousticness"`
	Speechiness      *float64 `json:"speechiness"`
	Instrumentalness *float64 `json:"instrumentalness"`
	Liveness         *float64 `json:"liveness"`
	Loudness         *float64 `json:"loudness"`
	Tempo            *float64 `json:"tempo"`
	Key              *float64 `json:"key"`
	Mode             *float64 `json:"mode"`
	TimeSignature    *float64 `json:"time_signature"`
	DurationMS       *float64 `json:"duration_ms"`
}

type wireRecommendations struct {
	Tracks []wireTrack `json:"tracks"`
}

type wireSearch struct {
	Tracks struct {
		Items []wireTrack `json:"items"`
	} `json:"tracks"`
}

type wireAudioFeaturesList struct {
	AudioFeatures []*wireAudioFeatures `json:"audio_features"`
}

type wireArtistDetails struct {
	ID     string   `json:"id"`
	Genres []string `json:"genres"`
}

type wireNewReleases struct {
	Albums struct {
		Items []wireAlbum `json:"items"`
	} `json:"albums"`
}

func (f *wireAudioFeatures) toFeatures() recommend.FeatureVector {
	if f == nil {
		return recommend.FeatureVector{}
	}
	return recommend.FeatureVector{
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Valence:          f.Valence,
		Acousticness:     f.Acousticness,
		Speechiness:      f.Speechiness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Loudness:         f.Loudness,
		Tempo:            f.Tempo,
		Key:              f.Key,
		Mode:             f.Mode,
		TimeSignature:    f.TimeSignature,
		DurationMS:       f.DurationMS,
	}.Clone()
}

func artistNames(artists []wireArtist) []string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func firstImage(images []wireImage) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

// releaseYear parses the year from "2024", "2024-05" or "2024-05-17".
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

func (w *wireTrack) catalogData() *recommend.CatalogData {
	return &recommend.CatalogData{
		ExternalID:  w.ID,
		URL:         w.ExternalURLs.Spotify,
		PreviewURL:  w.PreviewURL,
		Popularity:  w.Popularity,
		AlbumImage:  firstImage(w.Album.Images),
		ReleaseDate: w.Album.ReleaseDate,
	}
}

// toTrack maps a catalog track into a recommend.Track. Catalog tracks are
// always active and carry no cluster label.
func (w *wireTrack) toTrack(features *wireAudioFeatures) recommend.Track {
	t := recommend.Track{
		ID:         externalIDPrefix + w.ID,
		Name:       w.Name,
		Artists:    artistNames(w.Artists),
		Album:      w.Album.Name,
		Year:       releaseYear(w.Album.ReleaseDate),
		Explicit:   w.Explicit,
		Popularity: float64(w.Popularity),
		Active:     true,
		Features:   features.toFeatures(),
		Catalog:    w.catalogData(),
	}
	if _, ok := t.Features.Get(recommend.FeatureDurationMS); !ok && w.DurationMS > 0 {
		t.Features.Set(recommend.FeatureDurationMS, float64(w.DurationMS))
	}
	return t
}

// albumToTrack represents a new-release album as a track entry.
func (a *wireAlbum) toTrack() recommend.Track {
	return recommend.Track{
		ID:         externalIDPrefix + "album:" + a.ID,
		Name:       a.Name,
		Artists:    artistNames(a.Artists),
		Album:      a.Name,
		Year:       releaseYear(a.ReleaseDate),
		Popularity: float64(a.Popularity),
		Active:     true,
		Catalog: &recommend.CatalogData{
			ExternalID:  a.ID,
			URL:         a.ExternalURLs.Spotify,
			Popularity:  a.Popularity,
			AlbumImage:  firstImage(a.Images),
			ReleaseDate: a.ReleaseDate,
		},
	}
}
