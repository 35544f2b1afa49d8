// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/recommend"
)

// maxErrorBodySize limits how much of an error response is kept.
const maxErrorBodySize = 64 * 1024

// maxRetryAfter caps a server-supplied Retry-After delay.
const maxRetryAfter = 10 * time.Second

// errNotFound marks a 404 from the catalog. It does not count against the
// circuit breaker.
var errNotFound = errors.New("catalog resource not found")

// StatusError is a non-success HTTP response that was not retried.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog returned status %d: %s", e.StatusCode, e.Body)
}

// Client talks to a Spotify-compatible Web API. It implements
// recommend.Catalog and is safe for concurrent use.
//
// Every call passes through a token-bucket rate limiter, a circuit breaker
// and a bounded retry loop for 429 and 5xx responses. Access tokens come
// from the OAuth2 client credentials flow and are refreshed transparently.
type Client struct {
	baseURL    string
	market     string
	http       *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	maxRetries int
	backoff    time.Duration
	logger     zerolog.Logger
}

// New creates a catalog client from configuration.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(cfg *config.CatalogConfig, logger zerolog.Logger) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("catalog client credentials are required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base url: %w", err)
	}

	// Token requests use their own client so a slow token endpoint is
	// bounded by the same timeout as API calls.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
	creds := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := creds.Client(tokenCtx)
	httpClient.Timeout = cfg.Timeout

	logger = logger.With().Str("component", "catalog").Logger()

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		market:     cfg.Market,
		http:       httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     logger,
	}
	c.breaker = newBreaker(breakerName, cfg.BreakerFailures, cfg.BreakerTimeout, logger)

	logger.Info().
		Str("base_url", c.baseURL).
		Str("market", c.market).
		Float64("rate_limit", cfg.RateLimit).
		Msg("External catalog client configured")
	return c, nil
}

// BreakerState returns the current circuit breaker state name.
func (c *Client) BreakerState() string {
	return stateToString(c.breaker.State())
}

// get performs a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, out interface{}) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, reqURL)
	})
	recordBreakerResult(c.breaker, breakerName, err)
	metrics.RecordCatalogRequest(op, time.Since(start), err)

	if err != nil {
		return fmt.Errorf("catalog %s: %w: %w", op, recommend.ErrExternalService, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("catalog %s: %w: decode response: %w", op, recommend.ErrExternalService, err)
	}
	return nil
}

// fetch runs the retry loop for one logical request. Transport errors,
// 429 and 5xx are retried with exponential backoff, honoring Retry-After.
func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("request failed: %w", err)
			metrics.CatalogRetries.WithLabelValues("transport").Inc()
			if err := c.wait(ctx, attempt, 0); err != nil {
				return nil, err
			}
			continue
		}

		body, retryAfter, retry, err := c.handleResponse(resp)
		if !retry {
			return body, err
		}
		lastErr = err
		metrics.CatalogRetries.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

		if attempt == c.maxRetries {
			break
		}
		c.logger.Debug().
			Int("attempt", attempt+1).
			Int("status", resp.StatusCode).
			Dur("retry_after", retryAfter).
			Msg("Catalog request will be retried")
		if err := c.wait(ctx, attempt, retryAfter); err != nil {
			return nil, err
		}
	}

	return nil, fmt.Errorf("giving up after %d attempts: %w", c.maxRetries+1, lastErr)
}

// handleResponse reads resp and classifies it.
func (c *Client) handleResponse(resp *http.Response) (body []byte, retryAfter time.Duration, retry bool, err error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return nil, 0, false, fmt.Errorf("read response: %w", err)
		}
		return body, 0, false, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, 0, false, errNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, parseRetryAfter(resp, time.Now()), true, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	default:
		return nil, 0, false, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(readBodyForError(resp.Body)),
		}
	}
}

// wait sleeps before the next attempt: retryAfter if the server sent one,
// otherwise backoff doubled per attempt.
func (c *Client) wait(ctx context.Context, attempt int, retryAfter time.Duration) error {
	delay := c.backoff * time.Duration(1<<uint(attempt))
	if retryAfter > 0 {
		delay = retryAfter
	}
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(resp *http.Response, now time.Time) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}

	var d time.Duration
	if seconds, err := strconv.Atoi(v); err == nil && seconds > 0 {
		d = time.Duration(seconds) * time.Second
	} else if when, err := http.ParseTime(v); err == nil {
		d = when.Sub(now)
	}
	if d < 0 {
		return 0
	}
	if d > maxRetryAfter {
		return maxRetryAfter
	}
	return d
}

// readBodyForError reads at most maxErrorBodySize bytes of r.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}
