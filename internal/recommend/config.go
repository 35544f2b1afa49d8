// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package recommend

import (
	"fmt"
	"time"
)

// Config contains operational settings for the engine. The recommendation
// policy itself (window sizes, blend share, history cap) is fixed.
type Config struct {
	// Limits contains request size limits.
	Limits LimitsConfig `json:"limits"`

	// Timeouts bound calls to collaborators.
	Timeouts TimeoutConfig `json:"timeouts"`

	// Enrichment controls best-effort catalog enrichment of results.
	Enrichment EnrichmentConfig `json:"enrichment"`

	// Cache controls the result cache, when one is supplied.
	Cache CacheConfig `json:"cache"`

	// DominantShare is the fraction of a result drawn from the user's
	// dominant cluster. The rest comes from other clusters.
	DominantShare float64 `json:"dominant_share"`
}

// LimitsConfig contains request size limits.
type LimitsConfig struct {
	// DefaultLimit applies when a request asks for 0 tracks.
	DefaultLimit int `json:"default_limit"`

	// MaxLimit caps any request.
	MaxLimit int `json:"max_limit"`

	// DefaultSimilarLimit applies to similar-track requests asking for 0.
	DefaultSimilarLimit int `json:"default_similar_limit"`

	// InsightsWindow is how many recent entries feed listening patterns.
	InsightsWindow int `json:"insights_window"`
}

// TimeoutConfig bounds collaborator calls.
type TimeoutConfig struct {
	// Store bounds each track or profile store call.
	Store time.Duration `json:"store"`

	// External bounds each catalog call.
	External time.Duration `json:"external"`
}

// EnrichmentConfig controls catalog enrichment.
type EnrichmentConfig struct {
	Enabled     bool `json:"enabled"`
	Concurrency int  `json:"concurrency"`
}

// CacheConfig controls result caching.
type CacheConfig struct {
	Enabled bool          `json:"enabled"`
	TTL     time.Duration `json:"ttl"`
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Limits: LimitsConfig{
			DefaultLimit:        20,
			MaxLimit:            100,
			DefaultSimilarLimit: 10,
			InsightsWindow:      100,
		},
		Timeouts: TimeoutConfig{
			Store:    5 * time.Second,
			External: 3 * time.Second,
		},
		Enrichment: EnrichmentConfig{
			Enabled:     true,
			Concurrency: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Minute,
		},
		DominantShare: 0.6,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Limits.DefaultLimit < 1 {
		return fmt.Errorf("limits.default_limit must be positive, got %d", c.Limits.DefaultLimit)
	}
	if c.Limits.MaxLimit < c.Limits.DefaultLimit {
		return fmt.Errorf("limits.max_limit must be >= limits.default_limit, got %d < %d",
			c.Limits.MaxLimit, c.Limits.DefaultLimit)
	}
	if c.Limits.DefaultSimilarLimit < 1 {
		return fmt.Errorf("limits.default_similar_limit must be positive, got %d", c.Limits.DefaultSimilarLimit)
	}
	if c.Limits.InsightsWindow < 1 {
		return fmt.Errorf("limits.insights_window must be positive, got %d", c.Limits.InsightsWindow)
	}
	if c.Timeouts.Store < 0 || c.Timeouts.External < 0 {
		return fmt.Errorf("timeouts must be non-negative")
	}
	if c.Enrichment.Enabled && c.Enrichment.Concurrency < 1 {
		return fmt.Errorf("enrichment.concurrency must be positive, got %d", c.Enrichment.Concurrency)
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		return fmt.Errorf("cache.ttl must be positive when cache is enabled, got %v", c.Cache.TTL)
	}
	if c.DominantShare <= 0 || c.DominantShare >= 1 {
		return fmt.Errorf("dominant_share must be in (0, 1), got %f", c.DominantShare)
	}
	return nil
}

// Clone returns a copy. All fields are value types.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
