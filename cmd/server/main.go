// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

// Package main is the entry point for the Kitsubridge server.
//
// Kitsubridge receives entity change batches from a Kitsu production
// tracker and reconciles them into an AYON-compatible project store:
// folders, tasks, users and project anatomy. It exposes a small JSON
// API (push, remove, pairing) and publishes a domain event after every
// entity mutation.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables and config file via Koanf v2
//  2. Storage: DuckDB-backed entity store with correlation indexes
//  3. Tracker client: rate-limited Kitsu API client with circuit breaker
//  4. Event bus: Watermill over GoChannel or NATS JetStream, with a
//     Badger-backed spool for transport outages
//  5. Sync service: the reconciliation engine behind every endpoint
//  6. HTTP server: chi router with request IDs, metrics and rate limits
//
// Everything long-running is supervised by a suture tree so a crash in
// event delivery never takes the HTTP endpoints down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config file, built-in
// defaults. The tracker connection requires KITSU_URL, KITSU_EMAIL and
// KITSU_PASSWORD; everything else has workable defaults.
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests (10s timeout), then
// closes the event bus and the database.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studiopipe/kitsubridge/internal/api"
	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/kitsu"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/storage"
	"github.com/studiopipe/kitsubridge/internal/supervisor"
	syncengine "github.com/studiopipe/kitsubridge/internal/sync"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("kitsu_url", cfg.Kitsu.URL).
		Str("db_path", cfg.Database.Path).
		Bool("nats_enabled", cfg.Events.NATSEnabled).
		Msg("Starting Kitsubridge")

	db, err := storage.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing storage")
		}
	}()
	logging.Info().Msg("Storage initialized")

	// The tracker client logs in lazily; a failed probe here is not
	// fatal since Kitsu may come up after the bridge.
	tracker := kitsu.NewClient(&cfg.Kitsu)
	if err := tracker.Login(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("Failed to connect to Kitsu (will retry on demand)")
	} else {
		logging.Info().Msg("Connected to Kitsu")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog compatibility.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	// The embedded NATS server must accept connections before the bus
	// dials it, so it starts here and the tree only supervises it.
	var embedded supervisor.EventServer
	if cfg.Events.NATSEnabled && cfg.Events.EmbeddedServer {
		srv, err := events.StartEmbeddedServer(&cfg.Events)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to start embedded NATS server")
		}
		embedded = srv
	}

	bus, err := events.New(&cfg.Events)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing event bus")
		}
	}()

	svc := syncengine.NewService(db, bus, tracker, cfg.Sync)

	health := func() error {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pingCancel()
		return db.Ping(pingCtx)
	}
	router := api.NewRouter(cfg, svc, health)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	if embedded != nil {
		tree.AddEventsService(supervisor.NewEventServerService(embedded))
		logging.Info().Msg("Embedded NATS server added to supervisor tree")
	}
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	// Wait for the error channel to close (supervisor finished).
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, s := range unstopped {
		logging.Warn().Str("service", s.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Kitsubridge stopped gracefully")
}
