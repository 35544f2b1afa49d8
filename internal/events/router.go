// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// InvalidationHandlerName names the cache invalidation consumer.
const InvalidationHandlerName = "invalidate_recommendations"

// Invalidator drops cached recommendations for one user.
type Invalidator interface {
	InvalidateUser(userID string) int
}

// NewRouter builds a Watermill router that consumes rating events from sub
// and invalidates the rater's cached recommendations. Run it with
// router.Run(ctx); Close stops it.
func NewRouter(cfg *config.EventsConfig, sub message.Subscriber, inv Invalidator, logger zerolog.Logger) (*message.Router, error) {
	wmLogger := watermill.NewSlogLogger(logging.NewSlogLogger("events"))

	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.RouterCloseTimeout,
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      cfg.RouterRetryCount,
			InitialInterval: cfg.RouterRetryInterval,
			MaxInterval:     cfg.RouterRetryInterval * 10,
			Multiplier:      2,
			Logger:          wmLogger,
		}.Middleware,
	)

	h := &invalidationHandler{
		inv:    inv,
		logger: logger.With().Str("component", "event_router").Logger(),
	}
	router.AddConsumerHandler(InvalidationHandlerName, RatingsTopic(cfg.TopicPrefix), sub, h.handle)
	return router, nil
}

type invalidationHandler struct {
	inv    Invalidator
	logger zerolog.Logger
}

func (h *invalidationHandler) handle(msg *message.Message) (err error) {
	start := time.Now()
	defer func() { metrics.RecordEventConsumed(InvalidationHandlerName, err) }()

	var ev recommend.RatingEvent
	if jsonErr := json.Unmarshal(msg.Payload, &ev); jsonErr != nil {
		// Retrying cannot fix a malformed payload.
		h.logger.Warn().Err(jsonErr).Str("message_id", msg.UUID).Msg("Dropping undecodable rating event")
		return nil
	}
	userID := ev.UserID
	if strings.TrimSpace(userID) == "" {
		userID = msg.Metadata.Get(MetadataUserID)
	}
	if strings.TrimSpace(userID) == "" {
		h.logger.Warn().Str("message_id", msg.UUID).Msg("Dropping rating event without user")
		return nil
	}

	n := h.inv.InvalidateUser(userID)
	metrics.CacheInvalidations.Add(float64(n))

	h.logger.Debug().
		Str("user_id", userID).
		Str("correlation_id", middleware.MessageCorrelationID(msg)).
		Int("entries", n).
		Dur("duration", time.Since(start)).
		Msg("Invalidated cached recommendations")
	return nil
}

var _ Invalidator = (*recommend.Engine)(nil)
