// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/tomtom215/cadence/internal/api"
	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/profile"
	"github.com/tomtom215/cadence/internal/supervisor"
	"github.com/tomtom215/cadence/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // Main initialization function with sequential setup steps
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	watchLogLevel()

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Bool("catalog_enabled", cfg.Catalog.Enabled).
		Bool("events_enabled", cfg.Events.Enabled).
		Msg("Starting Cadence")
	metrics.AppInfo.WithLabelValues(version, runtime.Version()).Set(1)

	if cfg.HasWildcardCORS() && cfg.IsProduction() {
		logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*) in production")
	}
	if cfg.Server.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize track database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing track database")
		}
	}()

	if err := seedTracks(context.Background(), db, &cfg.Database); err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to seed track database")
	}

	profiles, err := profile.Open(&cfg.Profiles)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to open profile store")
	}
	defer func() {
		if err := profiles.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing profile store")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := initEngine(cfg, db, profiles)
	if err != nil {
		cancel()
		_ = profiles.Close()
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize recommendation engine")
	}
	defer eng.Close()

	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())

	evts, err := initEvents(&cfg.Events, eng.engine, tree)
	if err != nil {
		cancel()
		_ = profiles.Close()
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize events")
	}
	defer evts.Shutdown()

	if cfg.Profiles.GCInterval > 0 && !cfg.Profiles.InMemory {
		tree.AddDataService(services.NewProfileMaintenanceService(
			profiles, cfg.Profiles.GCInterval, logging.WithComponent("profiles")))
	}

	handler := api.NewHandler(eng.engine, healthChecks(db, profiles, eng.catalog), version)
	server := api.NewServer(&cfg.Server, api.NewRouter(handler, api.RouterConfigFromServer(&cfg.Server)))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Cadence stopped gracefully")
}

// seedTracks loads the configured seed file, then mock data if enabled.
func seedTracks(ctx context.Context, db *database.DB, cfg *config.DatabaseConfig) error {
	if cfg.SeedFile != "" {
		if _, err := db.LoadSeedFile(ctx, cfg.SeedFile); err != nil {
			return err
		}
	}
	if cfg.SeedMockData {
		logging.Info().Msg("Mock data seeding enabled (SEED_MOCK_DATA=true)")
		if err := db.SeedMockData(ctx, cfg.MockTrackCount, cfg.MockSeed); err != nil {
			return err
		}
	}
	return nil
}

// watchLogLevel re-reads the config file on change and applies its log
// level. Other settings need a restart.
func watchLogLevel() {
	path := config.FilePath()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid config reload")
			return
		}
		logging.SetLevelString(cfg.Logging.Level)
		logging.Info().Str("level", cfg.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}
