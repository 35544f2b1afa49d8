// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
)

// DefaultGCDiscardRatio is the Badger value log GC discard ratio.
const DefaultGCDiscardRatio = 0.5

// ValueLogCollector is satisfied by *profile.Store.
type ValueLogCollector interface {
	RunGC(discardRatio float64) error
}

// ProfileMaintenanceService periodically reclaims space in the profile
// store's value log. Profiles are rewritten on every rating, so without GC
// the value log grows with the rating count rather than the user count.
type ProfileMaintenanceService struct {
	store    ValueLogCollector
	interval time.Duration
	ratio    float64
	logger   zerolog.Logger
}

// NewProfileMaintenanceService runs store.RunGC every interval.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewProfileMaintenanceService(store ValueLogCollector, interval time.Duration, logger zerolog.Logger) *ProfileMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &ProfileMaintenanceService{
		store:    store,
		interval: interval,
		ratio:    DefaultGCDiscardRatio,
		logger:   logger.With().Str("service", "profile-maintenance").Logger(),
	}
}

// Serve implements suture.Service. GC failures are logged and retried on
// the next tick rather than restarting the service.
func (s *ProfileMaintenanceService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("profile maintenance starting")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

// runOnce tags each GC run with its own correlation ID.
func (s *ProfileMaintenanceService) runOnce(ctx context.Context) {
	ctx = logging.ContextWithLogger(logging.ContextWithNewCorrelationID(ctx), s.logger)
	logger := logging.Ctx(ctx)

	start := time.Now()
	err := s.store.RunGC(s.ratio)
	metrics.ProfileGCRuns.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		logger.Warn().Err(err).Msg("profile value log GC failed")
		return
	}
	logger.Debug().Dur("duration", time.Since(start)).Msg("profile value log GC complete")
}

func (s *ProfileMaintenanceService) String() string {
	return "profile-maintenance"
}
