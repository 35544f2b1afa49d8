// Cadence - Context-Aware Music Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/cadence/internal/config"
	"github.com/tomtom215/cadence/internal/metrics"
	"github.com/tomtom215/cadence/internal/middleware"
)

// RouterConfig holds HTTP surface settings.
type RouterConfig struct {
	CORSOrigins       []string
	RateLimitReqs     int
	RateLimitWindow   time.Duration
	RateLimitDisabled bool
	SlowRequest       time.Duration

	// MetricsHandler serves /metrics. Defaults to promhttp.Handler().
	MetricsHandler http.Handler
}

// RouterConfigFromServer derives the router settings from server config.
func RouterConfigFromServer(s *config.ServerConfig) RouterConfig {
	return RouterConfig{
		CORSOrigins:       s.CORSOrigins,
		RateLimitReqs:     s.RateLimitReqs,
		RateLimitWindow:   s.RateLimitWindow,
		RateLimitDisabled: s.RateLimitDisabled,
		SlowRequest:       middleware.DefaultSlowRequestThreshold,
	}
}

// NewRouter wires the handler into a chi router.
//
//nolint:gocritic // hugeParam: cfg is read once at startup
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))
	r.Use(chimiddleware.Compress(5, "application/json"))
	r.Use(middleware.AccessLog(cfg.SlowRequest))
	r.Use(middleware.PrometheusMetrics)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondErrorBody(w, r, http.StatusNotFound, &APIError{Code: ErrCodeNotFound, Message: "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondErrorBody(w, r, http.StatusMethodNotAllowed, &APIError{Code: ErrCodeMethodNotAllowed, Message: "Method not allowed"})
	})

	metricsHandler := cfg.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Get("/health", h.Health)
	r.Get("/health/live", h.HealthLive)
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		if !cfg.RateLimitDisabled && cfg.RateLimitReqs > 0 {
			r.Use(rateLimiter(cfg.RateLimitReqs, cfg.RateLimitWindow))
		}

		r.Get("/recommendations", h.Recommendations)
		r.Get("/recommendations/context/{context}", h.ContextRecommendations)
		r.Get("/trending", h.Trending)

		r.Get("/playlists/themes", h.PlaylistThemes)
		r.Get("/tracks/search", h.SearchTracks)
		r.Route("/tracks/{trackID}", func(r chi.Router) {
			r.Get("/similar", h.SimilarTracks)
			r.Get("/matches/{context}", h.MatchesContext)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Put("/", h.CreateUser)
			r.Post("/ratings", h.RateTrack)
			r.Get("/insights", h.Insights)
			r.Get("/history", h.History)
			r.Post("/playlists", h.GeneratePlaylist)
		})
	})

	return r
}

// rateLimiter limits requests per client IP. chimiddleware.RealIP runs
// first, so proxied clients are keyed by their forwarded address.
func rateLimiter(reqs int, window time.Duration) func(http.Handler) http.Handler {
	if window <= 0 {
		window = time.Minute
	}
	return httprate.Limit(reqs, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(middleware.RoutePattern(r)).Inc()
			respondErrorBody(w, r, http.StatusTooManyRequests, &APIError{
				Code:    ErrCodeTooManyRequests,
				Message: "Rate limit exceeded, retry later",
			})
		}),
	)
}

// NewServer builds the *http.Server for the configured address.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
