// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"fmt"
)

// EventRouter is the lifecycle subset of a Watermill *message.Router.
type EventRouter interface {
	Run(ctx context.Context) error
	Close() error
}

// EventRouterService supervises a message router.
//
// A Watermill router cannot be run again once it has stopped, so the
// service takes a constructor and builds a fresh router on every start.
// Run returns when ctx is canceled after closing the router's handlers.
type EventRouterService struct {
	build func() (EventRouter, error)
}

// NewEventRouterService supervises routers created by build.
func NewEventRouterService(build func() (EventRouter, error)) *EventRouterService {
	return &EventRouterService{build: build}
}

// Serve implements suture.Service.
func (s *EventRouterService) Serve(ctx context.Context) error {
	router, err := s.build()
	if err != nil {
		return fmt.Errorf("build event router: %w", err)
	}

	if err := router.Run(ctx); err != nil {
		_ = router.Close()
		return fmt.Errorf("event router stopped: %w", err)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// Run returned without cancellation: the router was closed underneath
	// us, so let the supervisor start a new one.
	return fmt.Errorf("event router exited unexpectedly")
}

func (s *EventRouterService) String() string {
	return "event-router"
}
