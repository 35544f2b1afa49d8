// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cadence/config.yaml",
	"/etc/cadence/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              3857,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			Environment:       "development",
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Database: DatabaseConfig{
			Path:                   "/data/cadence.duckdb",
			MaxMemory:              "1GB",
			Threads:                0,
			PreserveInsertionOrder: true,
			SkipIndexes:            false,
			SeedFile:               "",
			SeedMockData:           false,
			MockTrackCount:         2000,
			MockSeed:               42,
		},
		Profiles: ProfilesConfig{
			Path:       "/data/profiles",
			InMemory:   false,
			SyncWrites: true,
			GCInterval: 10 * time.Minute,
		},
		Catalog: CatalogConfig{
			Enabled:         false, // standalone mode by default
			BaseURL:         "https://api.spotify.com",
			TokenURL:        "https://accounts.spotify.com/api/token",
			Market:          "US",
			RateLimit:       5,
			Burst:           10,
			Timeout:         3 * time.Second,
			MaxRetries:      2,
			RetryBackoff:    250 * time.Millisecond,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Recommend: RecommendConfig{
			DominantShare:       0.6,
			DefaultLimit:        20,
			MaxLimit:            100,
			DefaultSimilarLimit: 10,
			InsightsWindow:      100,
			StoreTimeout:        5 * time.Second,
			ExternalTimeout:     3 * time.Second,
			EnrichEnabled:       true,
			EnrichConcurrency:   4,
			CacheEnabled:        true,
			CacheType:           "ttl",
			CacheTTL:            5 * time.Minute,
			CacheMaxEntries:     10000,
			Scorer:              "none",
			MMRLambda:           0.7,
		},
		Events: EventsConfig{
			Enabled:             true,
			NATSURL:             "", // empty = in-process gochannel
			TopicPrefix:         "cadence",
			QueueGroup:          "", // empty = every instance sees every event
			SubscribersCount:    1,
			RouterRetryCount:    3,
			RouterRetryInterval: 100 * time.Millisecond,
			RouterCloseTimeout:  10 * time.Second,
			PublishTimeout:      2 * time.Second,
		},
	}
}

// Load loads configuration using Koanf with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// Precedence is ENV > File > Defaults.
func Load() (*Config, error) {
	return load(findConfigFile())
}

// FilePath returns the config file Load would read, or "" when none exists.
func FilePath() string {
	return findConfigFile()
}

// LoadFile is Load with an explicit config file path. An empty path skips
// the file layer.
func LoadFile(path string) (*Config, error) {
	return load(path)
}

func load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars arrive as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
// Unmapped variables are ignored so unrelated environment does not leak
// into the configuration.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"environment":           "server.environment",
	"cors_origins":          "server.cors_origins",
	"rate_limit_requests":   "server.rate_limit_reqs",
	"rate_limit_window":     "server.rate_limit_window",
	"disable_rate_limit":    "server.rate_limit_disabled",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Track database
	"duckdb_path":                     "database.path",
	"duckdb_max_memory":               "database.max_memory",
	"duckdb_threads":                  "database.threads",
	"duckdb_preserve_insertion_order": "database.preserve_insertion_order",
	"duckdb_skip_indexes":             "database.skip_indexes",
	"seed_file":                       "database.seed_file",
	"seed_mock_data":                  "database.seed_mock_data",
	"mock_track_count":                "database.mock_track_count",
	"mock_seed":                       "database.mock_seed",

	// Profile store
	"profiles_path":        "profiles.path",
	"profiles_in_memory":   "profiles.in_memory",
	"profiles_sync_writes": "profiles.sync_writes",
	"profiles_gc_interval": "profiles.gc_interval",

	// External catalog
	"catalog_enabled":          "catalog.enabled",
	"catalog_base_url":         "catalog.base_url",
	"catalog_token_url":        "catalog.token_url",
	"catalog_client_id":        "catalog.client_id",
	"catalog_client_secret":    "catalog.client_secret",
	"catalog_market":           "catalog.market",
	"catalog_rate_limit":       "catalog.rate_limit",
	"catalog_burst":            "catalog.burst",
	"catalog_timeout":          "catalog.timeout",
	"catalog_max_retries":      "catalog.max_retries",
	"catalog_retry_backoff":    "catalog.retry_backoff",
	"catalog_breaker_failures": "catalog.breaker_failures",
	"catalog_breaker_timeout":  "catalog.breaker_timeout",

	// Recommendation engine
	"recommend_dominant_share":        "recommend.dominant_share",
	"recommend_default_limit":         "recommend.default_limit",
	"recommend_max_limit":             "recommend.max_limit",
	"recommend_default_similar_limit": "recommend.default_similar_limit",
	"recommend_insights_window":       "recommend.insights_window",
	"recommend_store_timeout":         "recommend.store_timeout",
	"recommend_external_timeout":      "recommend.external_timeout",
	"recommend_enrich_enabled":        "recommend.enrich_enabled",
	"recommend_enrich_concurrency":    "recommend.enrich_concurrency",
	"recommend_cache_enabled":         "recommend.cache_enabled",
	"recommend_cache_ttl":             "recommend.cache_ttl",
	"recommend_cache_type":            "recommend.cache_type",
	"recommend_cache_max_entries":     "recommend.cache_max_entries",
	"recommend_scorer":                "recommend.scorer",
	"recommend_mmr_lambda":            "recommend.mmr_lambda",

	// Events
	"events_enabled":               "events.enabled",
	"nats_url":                     "events.nats_url",
	"events_topic_prefix":          "events.topic_prefix",
	"events_queue_group":           "events.queue_group",
	"events_subscribers_count":     "events.subscribers_count",
	"events_router_retry_count":    "events.router_retry_count",
	"events_router_retry_interval": "events.router_retry_interval",
	"events_router_close_timeout":  "events.router_close_timeout",
	"events_publish_timeout":       "events.publish_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - HTTP_PORT -> server.port
//   - DUCKDB_PATH -> database.path
//   - CATALOG_CLIENT_ID -> catalog.client_id
//   - NATS_URL -> events.nats_url
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// The caller is responsible for synchronizing access to the reloaded
// configuration.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)
	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
