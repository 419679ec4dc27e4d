// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
router.go - HTTP Route Configuration

Builds the chi router with the middleware chain (request ID, real IP,
panic recovery, metrics, CORS, rate limiting) and mounts the bridge
endpoints plus health and Prometheus metrics.
*/

//nolint:staticcheck // File documentation, not package doc
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/studiopipe/kitsubridge/internal/config"
	syncengine "github.com/studiopipe/kitsubridge/internal/sync"
)

// NewRouter assembles the HTTP handler tree. health is passed through
// to the health endpoint; pass the storage ping.
func NewRouter(cfg *config.Config, svc *syncengine.Service, health func() error) http.Handler {
	h := NewHandler(svc, health)

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics)
	r.Use(CORS(&cfg.Security))
	r.Use(RateLimit(&cfg.Security))

	r.Get("/health", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/push", h.HandlePush)
	r.Post("/remove", h.HandleRemove)
	r.Get("/pairing", h.HandlePairingList)
	r.Post("/pair", h.HandleInitPairing)

	return r
}
