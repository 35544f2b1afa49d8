// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package config provides centralized configuration management for Cadence.

Configuration is layered with Koanf v2. Each layer overrides the previous one:

 1. Built-in defaults (structs provider over defaultConfig)
 2. Optional YAML file: CONFIG_PATH, else config.yaml / /etc/cadence/config.yaml
 3. Environment variables, through an explicit mapping table

Only mapped environment variables are read, so unrelated process environment
never leaks into the configuration.

# Configuration Structure

  - ServerConfig: HTTP listener, timeouts, CORS and rate limiting
  - LoggingConfig: zerolog level and format
  - DatabaseConfig: DuckDB track catalog and startup seeding
  - ProfilesConfig: Badger user profile store
  - CatalogConfig: external catalog client (OAuth2, rate limit, circuit breaker)
  - RecommendConfig: engine limits, timeouts, result cache and re-ranking
  - EventsConfig: rating events over Watermill (gochannel or NATS)

# Usage

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}
	engineCfg := cfg.Recommend.EngineConfig()

# Environment Variables

	HTTP_PORT=3857
	LOG_LEVEL=info
	DUCKDB_PATH=/data/cadence.duckdb
	SEED_FILE=/data/tracks.json
	PROFILES_PATH=/data/profiles
	CATALOG_ENABLED=true
	CATALOG_CLIENT_ID=...
	CATALOG_CLIENT_SECRET=...
	RECOMMEND_SCORER=mmr
	NATS_URL=nats://nats:4222
*/
package config
