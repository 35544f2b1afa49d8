// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/logging"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// Metadata keys set on every rating message.
const (
	MetadataUserID  = "user_id"
	MetadataContext = "context"
)

// ErrPublisherClosed is returned after Close.
var ErrPublisherClosed = errors.New("rating publisher is closed")

// RatingPublisher sends rating events to a Watermill publisher.
type RatingPublisher struct {
	publisher message.Publisher
	topic     string
	timeout   time.Duration
	logger    zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// NewRatingPublisher wraps pub. Closing the RatingPublisher does not close
// pub; the Transport owns it.
func NewRatingPublisher(pub message.Publisher, cfg *config.EventsConfig, logger zerolog.Logger) *RatingPublisher {
	return &RatingPublisher{
		publisher: pub,
		topic:     RatingsTopic(cfg.TopicPrefix),
		timeout:   cfg.PublishTimeout,
		logger:    logger.With().Str("component", "rating_publisher").Logger(),
	}
}

// RatingRecorded implements recommend.RatingNotifier.
func (p *RatingPublisher) RatingRecorded(ctx context.Context, ev recommend.RatingEvent) (err error) {
	defer func() { metrics.RecordEventPublish(p.topic, err) }()

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrPublisherClosed
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode rating event: %w", err)
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(MetadataUserID, ev.UserID)
	msg.Metadata.Set(MetadataContext, string(ev.Context))
	if id := logging.RequestIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}

	if p.timeout <= 0 {
		return p.publisher.Publish(p.topic, msg)
	}

	// Publish has no context; bound the wait so a stalled broker cannot hold
	// up the rating response.
	done := make(chan error, 1)
	go func() { done <- p.publisher.Publish(p.topic, msg) }()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case err = <-done:
	case <-timer.C:
		err = fmt.Errorf("publish %s: timed out after %s", p.topic, p.timeout)
	case <-ctx.Done():
		err = ctx.Err()
	}
	if err == nil {
		p.logger.Debug().Str("user_id", ev.UserID).Str("message_id", msg.UUID).Msg("Rating event published")
	}
	return err
}

// Close stops further publishing.
func (p *RatingPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

var _ recommend.RatingNotifier = (*RatingPublisher)(nil)
