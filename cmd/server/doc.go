// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package main is the entry point for the Cadence server.

Cadence serves context-aware music recommendations over a JSON HTTP API.
Tracks live in DuckDB, listener profiles in BadgerDB, and rating events
travel over Watermill (in-process or NATS) so every instance drops cached
recommendation lists for the rating user.

# Application Architecture

Long-running components run under a Suture v4 supervisor tree:

	RootSupervisor ("cadence")
	├── DataSupervisor ("data-layer")
	│   └── Profile maintenance (Badger value log GC)
	├── MessagingSupervisor ("messaging-layer")
	│   └── Event router (rating -> cache invalidation)
	└── APISupervisor ("api-layer")
	    └── HTTP server (chi)

Component initialization order:

 1. Configuration: Koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog with JSON or console output
 3. Track store: DuckDB, optionally seeded from a file or mock generator
 4. Profile store: BadgerDB
 5. Engine: result cache, external catalog and re-ranking scorer
 6. Events: Watermill transport, rating publisher and invalidation router
 7. Supervisor tree and HTTP server

# Configuration

Priority: Environment variables > Config file > Defaults

	HTTP_PORT=3857                 # HTTP server port
	LOG_LEVEL=info                 # trace, debug, info, warn, error
	DUCKDB_PATH=/data/cadence.duckdb
	SEED_FILE=/data/tracks.json    # JSON array of tracks loaded at startup
	SEED_MOCK_DATA=true            # synthetic catalog for local development
	PROFILES_PATH=/data/profiles
	CATALOG_ENABLED=true           # external catalog enrichment
	CATALOG_CLIENT_ID=...
	CATALOG_CLIENT_SECRET=...
	RECOMMEND_SCORER=mmr           # none, preference, mmr, hybrid or calibration
	NATS_URL=nats://nats:4222      # empty keeps events in process

The config file (CONFIG_PATH or ./config.yaml) is watched; log level
changes apply without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The supervisor stops the HTTP
server gracefully (SHUTDOWN_TIMEOUT), then the event router, then the
stores are closed.
*/
package main
