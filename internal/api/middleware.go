// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/metrics"
)

// requestIDHeader is honored on ingress and echoed on every response so
// callers can correlate bridge logs with their own.
const requestIDHeader = "X-Request-ID"

// RequestID attaches a request ID to the context and response. An
// incoming X-Request-ID is reused, otherwise one is generated.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = logging.GenerateRequestID()
		}
		ctx := logging.ContextWithRequestID(r.Context(), id)
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Metrics records request counts, durations and in-flight gauge per
// route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		// The route pattern is known once routing has completed.
		pattern := chi.RouteContext(r.Context()).RoutePattern()
		if pattern == "" {
			pattern = r.URL.Path
		}
		metrics.RecordAPIRequest(r.Method, pattern, strconv.Itoa(ww.Status()), time.Since(start))
	})
}

// CORS builds the CORS middleware from the security configuration.
func CORS(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", requestIDHeader},
		MaxAge:         86400,
	})
}

// RateLimit limits requests per client IP within the configured window.
func RateLimit(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled || cfg.RateLimitReqs <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	window := cfg.RateLimitWindow
	if window <= 0 {
		window = time.Minute
	}
	return httprate.LimitByIP(cfg.RateLimitReqs, window)
}
