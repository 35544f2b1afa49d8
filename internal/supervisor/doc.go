// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package supervisor runs Cadence's long-lived services under a suture v4
supervisor tree.

Services are grouped into layers so that restarts stay local: a crash in
the event router restarts the messaging layer only, while the HTTP server
keeps answering requests. Supervisor events (restarts, backoff, timeouts)
are logged through sutureslog into the zerolog pipeline.

Usage:

	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	tree.AddDataService(services.NewProfileMaintenanceService(store, interval, logger))
	tree.AddMessagingService(services.NewEventRouterService(buildRouter))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor stopped")
	}

Services live in the services subpackage.
*/
package supervisor
