// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package config

import (
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/cadence/internal/recommend"
)

// Config holds all service configuration loaded from defaults, an optional
// YAML file and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Stores:
//     - Database: DuckDB track catalog (path, memory, seeding)
//     - Profiles: Badger user profile store
//
//  2. Recommendation:
//     - Recommend: engine limits, timeouts, cache and re-ranking
//     - Catalog: optional external music catalog client
//
//  3. Infrastructure:
//     - Server: HTTP server, CORS and rate limiting
//     - Events: rating events over in-process pub/sub or NATS
//     - Logging: log level and output format
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Database  DatabaseConfig  `koanf:"database"`
	Profiles  ProfilesConfig  `koanf:"profiles"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Recommend RecommendConfig `koanf:"recommend"`
	Events    EventsConfig    `koanf:"events"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging or production

	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	Caller bool `koanf:"caller"`
}

// DatabaseConfig holds DuckDB track store settings
type DatabaseConfig struct {
	Path                   string `koanf:"path"`
	MaxMemory              string `koanf:"max_memory"`
	Threads                int    `koanf:"threads"`                  // 0 = use NumCPU
	PreserveInsertionOrder bool   `koanf:"preserve_insertion_order"` // DuckDB default is true
	SkipIndexes            bool   `koanf:"skip_indexes"`             // for fast test setup

	// SeedFile is a JSON array of tracks upserted at startup.
	SeedFile string `koanf:"seed_file"`

	// SeedMockData generates MockTrackCount synthetic tracks at startup.
	SeedMockData   bool   `koanf:"seed_mock_data"`
	MockTrackCount int    `koanf:"mock_track_count"`
	MockSeed       uint64 `koanf:"mock_seed"`
}

// ProfilesConfig holds Badger profile store settings
type ProfilesConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	GCInterval time.Duration `koanf:"gc_interval"` // value log GC; 0 disables
}

// CatalogConfig holds the external music catalog client settings.
// The client authenticates with OAuth2 client credentials.
//
// Environment Variables:
//   - CATALOG_ENABLED: Enable the external catalog (default: false)
//   - CATALOG_BASE_URL: API base URL
//   - CATALOG_TOKEN_URL: OAuth2 token endpoint
//   - CATALOG_CLIENT_ID / CATALOG_CLIENT_SECRET: credentials
type CatalogConfig struct {
	Enabled      bool   `koanf:"enabled"`
	BaseURL      string `koanf:"base_url"`
	TokenURL     string `koanf:"token_url"`
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	Market       string `koanf:"market"`

	RateLimit    float64       `koanf:"rate_limit"` // requests per second
	Burst        int           `koanf:"burst"`
	Timeout      time.Duration `koanf:"timeout"`
	MaxRetries   int           `koanf:"max_retries"`
	RetryBackoff time.Duration `koanf:"retry_backoff"`

	// Circuit breaker
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// RecommendConfig holds recommendation engine settings.
type RecommendConfig struct {
	DominantShare       float64       `koanf:"dominant_share"`
	DefaultLimit        int           `koanf:"default_limit"`
	MaxLimit            int           `koanf:"max_limit"`
	DefaultSimilarLimit int           `koanf:"default_similar_limit"`
	InsightsWindow      int           `koanf:"insights_window"`
	StoreTimeout        time.Duration `koanf:"store_timeout"`
	ExternalTimeout     time.Duration `koanf:"external_timeout"`

	EnrichEnabled     bool `koanf:"enrich_enabled"`
	EnrichConcurrency int  `koanf:"enrich_concurrency"`

	CacheEnabled    bool          `koanf:"cache_enabled"`
	CacheType       string        `koanf:"cache_type"` // ttl or lfu
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	CacheMaxEntries int           `koanf:"cache_max_entries"`

	// Scorer is the optional re-ranking stage: none, preference, mmr,
	// hybrid or calibration. MMRLambda also sets the calibration lambda.
	Scorer    string  `koanf:"scorer"`
	MMRLambda float64 `koanf:"mmr_lambda"`
}

// EngineConfig converts to the engine's own configuration.
func (r *RecommendConfig) EngineConfig() *recommend.Config {
	return &recommend.Config{
		Limits: recommend.LimitsConfig{
			DefaultLimit:        r.DefaultLimit,
			MaxLimit:            r.MaxLimit,
			DefaultSimilarLimit: r.DefaultSimilarLimit,
			InsightsWindow:      r.InsightsWindow,
		},
		Timeouts: recommend.TimeoutConfig{
			Store:    r.StoreTimeout,
			External: r.ExternalTimeout,
		},
		Enrichment: recommend.EnrichmentConfig{
			Enabled:     r.EnrichEnabled,
			Concurrency: r.EnrichConcurrency,
		},
		Cache: recommend.CacheConfig{
			Enabled: r.CacheEnabled,
			TTL:     r.CacheTTL,
		},
		DominantShare: r.DominantShare,
	}
}

// EventsConfig holds rating event settings. With an empty NATSURL events
// stay in process on a Watermill gochannel.
type EventsConfig struct {
	Enabled             bool          `koanf:"enabled"`
	NATSURL             string        `koanf:"nats_url"`
	TopicPrefix         string        `koanf:"topic_prefix"`
	// QueueGroup load-balances events across subscribers sharing it. Leave
	// empty for cache invalidation, which every instance must observe.
	QueueGroup          string        `koanf:"queue_group"`
	SubscribersCount    int           `koanf:"subscribers_count"`
	RouterRetryCount    int           `koanf:"router_retry_count"`
	RouterRetryInterval time.Duration `koanf:"router_retry_interval"`
	RouterCloseTimeout  time.Duration `koanf:"router_close_timeout"`
	PublishTimeout      time.Duration `koanf:"publish_timeout"`
}
