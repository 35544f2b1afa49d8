// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"strings"
	"time"
)

// Rate limit bounds
const (
	minRateLimitRequests = 1
	maxRateLimitRequests = 100000
	minRateLimitWindow   = time.Second
	maxRateLimitWindow   = time.Hour
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateDatabase,
		c.validateProfiles,
		c.validateCatalog,
		c.validateRecommend,
		c.validateEvents,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// validateServer validates server configuration
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must not be negative")
	}
	return c.validateRateLimits()
}

// validateRateLimits validates rate limiting configuration bounds.
func (c *Config) validateRateLimits() error {
	if c.Server.RateLimitDisabled {
		return nil
	}
	if c.Server.RateLimitReqs < minRateLimitRequests || c.Server.RateLimitReqs > maxRateLimitRequests {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitRequests, maxRateLimitRequests)
	}
	if c.Server.RateLimitWindow < minRateLimitWindow || c.Server.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// HasWildcardCORS checks if CORS is configured with wildcard origins
func (c *Config) HasWildcardCORS() bool {
	for _, origin := range c.Server.CORSOrigins {
		if origin == "*" {
			return true
		}
	}
	return false
}

// validLogLevels defines the allowed log levels
var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validLogFormats defines the allowed log formats
var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	if c.Database.SeedMockData && c.Database.MockTrackCount < 1 {
		return fmt.Errorf("MOCK_TRACK_COUNT must be positive when SEED_MOCK_DATA=true")
	}
	return nil
}

func (c *Config) validateProfiles() error {
	if !c.Profiles.InMemory && c.Profiles.Path == "" {
		return fmt.Errorf("PROFILES_PATH is required unless PROFILES_IN_MEMORY=true")
	}
	if c.Profiles.GCInterval < 0 {
		return fmt.Errorf("PROFILES_GC_INTERVAL must not be negative")
	}
	return nil
}

// validateCatalog validates external catalog configuration (only if enabled)
func (c *Config) validateCatalog() error {
	if !c.Catalog.Enabled {
		return nil
	}

	if err := validateHTTPURL(c.Catalog.BaseURL, "CATALOG_BASE_URL"); err != nil {
		return fmt.Errorf("CATALOG_BASE_URL is invalid: %w", err)
	}
	if err := validateTokenURL(c.Catalog.TokenURL); err != nil {
		return fmt.Errorf("CATALOG_TOKEN_URL is invalid: %w", err)
	}
	if c.Catalog.ClientID == "" || c.Catalog.ClientSecret == "" {
		return fmt.Errorf("CATALOG_CLIENT_ID and CATALOG_CLIENT_SECRET are required when CATALOG_ENABLED=true")
	}
	if containsPlaceholder(c.Catalog.ClientSecret) {
		return fmt.Errorf("CATALOG_CLIENT_SECRET appears to be a placeholder value")
	}
	if c.Catalog.RateLimit <= 0 || c.Catalog.Burst < 1 {
		return fmt.Errorf("CATALOG_RATE_LIMIT and CATALOG_BURST must be positive")
	}
	if c.Catalog.Timeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive")
	}
	if c.Catalog.MaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative")
	}
	if c.Catalog.BreakerFailures == 0 {
		return fmt.Errorf("CATALOG_BREAKER_FAILURES must be positive")
	}
	return nil
}

// validScorers are the re-ranking stages the engine can be built with.
var validScorers = map[string]bool{
	"":            true,
	"none":        true,
	"preference":  true,
	"mmr":         true,
	"hybrid":      true,
	"calibration": true,
}

func (c *Config) validateRecommend() error {
	if !validScorers[c.Recommend.Scorer] {
		return fmt.Errorf("RECOMMEND_SCORER must be one of: none, preference, mmr, hybrid, calibration")
	}
	if c.Recommend.MMRLambda < 0 || c.Recommend.MMRLambda > 1 {
		return fmt.Errorf("RECOMMEND_MMR_LAMBDA must be between 0 and 1")
	}
	if c.Recommend.CacheType != "ttl" && c.Recommend.CacheType != "lfu" {
		return fmt.Errorf("RECOMMEND_CACHE_TYPE must be ttl or lfu")
	}
	if c.Recommend.CacheEnabled && c.Recommend.CacheMaxEntries < 0 {
		return fmt.Errorf("RECOMMEND_CACHE_MAX_ENTRIES must not be negative")
	}
	if err := c.Recommend.EngineConfig().Validate(); err != nil {
		return fmt.Errorf("recommend: %w", err)
	}
	return nil
}

func (c *Config) validateEvents() error {
	if !c.Events.Enabled {
		return nil
	}
	if c.Events.TopicPrefix == "" {
		return fmt.Errorf("EVENTS_TOPIC_PREFIX is required when events are enabled")
	}
	if c.Events.NATSURL != "" {
		if err := validateNATSURL(c.Events.NATSURL); err != nil {
			return fmt.Errorf("NATS_URL is invalid: %w", err)
		}
		if c.Events.SubscribersCount < 1 {
			return fmt.Errorf("EVENTS_SUBSCRIBERS_COUNT must be positive")
		}
	}
	if c.Events.RouterRetryCount < 0 {
		return fmt.Errorf("EVENTS_ROUTER_RETRY_COUNT must not be negative")
	}
	return nil
}

// placeholderPatterns defines common placeholder patterns that indicate
// the user forgot to set a real value.
var placeholderPatterns = []string{
	"REPLACE",
	"CHANGEME",
	"CHANGE_ME",
	"YOUR_SECRET",
	"PLACEHOLDER",
	"EXAMPLE",
}

// containsPlaceholder checks if a value contains common placeholder patterns
func containsPlaceholder(value string) bool {
	upperValue := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upperValue, pattern) {
			return true
		}
	}
	return false
}
