// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/cache"
	"github.com/tomtom215/cadence/internal/catalog"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/reranking"
)

// engineComponents holds the engine and the optional parts wired into it.
type engineComponents struct {
	engine  *recommend.Engine
	cache   cache.Cacher    // nil when caching is disabled
	catalog *catalog.Client // nil in standalone mode
}

// Close releases the result cache.
func (c *engineComponents) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// initEngine builds the engine with its result cache, external catalog and
// scorer, and registers its statistics with the default registry.
func initEngine(cfg *config.Config, tracks recommend.TrackStore, profiles recommend.ProfileStore) (*engineComponents, error) {
	return buildEngine(cfg, tracks, profiles, prometheus.DefaultRegisterer)
}

func buildEngine(cfg *config.Config, tracks recommend.TrackStore, profiles recommend.ProfileStore, reg prometheus.Registerer) (*engineComponents, error) {
	engine, err := recommend.NewEngine(cfg.Recommend.EngineConfig(), tracks, profiles, logging.WithComponent("recommend"))
	if err != nil {
		return nil, err
	}
	c := &engineComponents{engine: engine}

	if cfg.Recommend.CacheEnabled {
		cacheType := cache.CacheType(cfg.Recommend.CacheType)
		c.cache = cache.NewCacher(cache.CacheConfig{
			Type:     cacheType,
			TTL:      cfg.Recommend.CacheTTL,
			Capacity: cfg.Recommend.CacheMaxEntries,
		})
		engine.SetCache(c.cache)
		if err := metrics.RegisterCacheStats(reg, string(cacheType), c.cache.GetStats); err != nil {
			c.Close()
			return nil, fmt.Errorf("register cache metrics: %w", err)
		}
	}

	if cfg.Catalog.Enabled {
		client, err := catalog.New(&cfg.Catalog, logging.Logger())
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("external catalog: %w", err)
		}
		c.catalog = client
		engine.SetCatalog(client)
	} else {
		logging.Info().Msg("External catalog disabled - running in standalone mode")
	}

	scorer, err := reranking.New(cfg.Recommend.Scorer, cfg.Recommend.MMRLambda)
	if err != nil {
		c.Close()
		return nil, err
	}
	if scorer != nil {
		engine.SetScorer(scorer)
		logging.Info().Str("scorer", scorer.Name()).Msg("Re-ranking scorer enabled")
	}

	if err := metrics.RegisterEngineStats(reg, engine.Stats); err != nil {
		c.Close()
		return nil, fmt.Errorf("register engine metrics: %w", err)
	}
	return c, nil
}

// trackPinger is the part of the track store the health check needs.
type trackPinger interface {
	Ping(ctx context.Context) error
}

// profileCounter is the part of the profile store the health check needs.
type profileCounter interface {
	Count(ctx context.Context) (int, error)
}

// healthChecks returns the dependency checks behind GET /health. The
// catalog check fails only while its circuit breaker is open.
func healthChecks(tracks trackPinger, profiles profileCounter, client *catalog.Client) map[string]api.HealthCheck {
	checks := map[string]api.HealthCheck{
		"tracks": tracks.Ping,
		"profiles": func(ctx context.Context) error {
			_, err := profiles.Count(ctx)
			return err
		},
	}
	if client != nil {
		checks["catalog"] = func(ctx context.Context) error {
			if state := client.BreakerState(); state == "open" {
				return fmt.Errorf("circuit breaker %s", state)
			}
			return nil
		}
	}
	return checks
}
