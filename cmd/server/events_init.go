// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package main

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/events"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/supervisor/services"
)

// treeRegistrar is the part of the supervisor tree events need.
type treeRegistrar interface {
	AddMessagingService(svc suture.Service) suture.ServiceToken
}

// EventComponents holds the rating event transport and publisher.
type EventComponents struct {
	transport *events.Transport
	publisher *events.RatingPublisher
}

// initEvents connects the transport, makes the engine publish rating
// events, and adds the invalidation router to the messaging layer. It
// returns nil components when events are disabled.
func initEvents(cfg *config.EventsConfig, engine *recommend.Engine, tree treeRegistrar) (*EventComponents, error) {
	if !cfg.Enabled {
		logging.Info().Msg("Rating events disabled (EVENTS_ENABLED=false)")
		return nil, nil
	}

	logger := logging.WithComponent("events")
	transport, err := events.NewTransport(cfg, watermill.NewSlogLogger(logging.NewSlogLogger("events")))
	if err != nil {
		return nil, err
	}

	publisher := events.NewRatingPublisher(transport.Publisher, cfg, logger)
	engine.SetNotifier(publisher)

	tree.AddMessagingService(services.NewEventRouterService(func() (services.EventRouter, error) {
		router, err := events.NewRouter(cfg, transport.Subscriber, engine, logger)
		if err != nil {
			return nil, err
		}
		return router, nil
	}))

	logging.Info().
		Str("transport", transport.Kind).
		Str("topic", events.RatingsTopic(cfg.TopicPrefix)).
		Msg("Rating events enabled")
	return &EventComponents{transport: transport, publisher: publisher}, nil
}

// Shutdown stops publishing and closes the transport. Safe on nil.
func (c *EventComponents) Shutdown() {
	if c == nil {
		return
	}
	if err := c.publisher.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing rating publisher")
	}
	if err := c.transport.Close(); err != nil {
		logging.Warn().Err(err).Msg("Error closing event transport")
	}
}
