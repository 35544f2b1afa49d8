// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

/*
Package events carries rating events between Cadence instances.

Every successful rating is published as a JSON RatingEvent on the
"<prefix>.ratings" topic. A Watermill router subscribed to the same topic
drops the rater's cached recommendations, so a rating on one instance
invalidates the cache on all of them.

Two transports are supported:

  - In-process Watermill gochannel when no NATS URL is configured
  - Core NATS (JetStream disabled) through watermill-nats

Events are a notification channel only. Losing one means another
instance serves a stale cached list until the cache TTL expires; the
profile write itself is never affected.

Usage:

	tr, err := events.NewTransport(&cfg.Events, logger)
	pub := events.NewRatingPublisher(tr.Publisher, &cfg.Events, logger)
	engine.SetNotifier(pub)

	router, err := events.NewRouter(&cfg.Events, tr.Subscriber, engine, logger)
	go router.Run(ctx)
*/
package events
