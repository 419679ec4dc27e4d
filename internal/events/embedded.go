// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package events

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"

	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/logging"
)

// embeddedStartTimeout bounds how long we wait for the in-process NATS
// server to accept connections.
const embeddedStartTimeout = 10 * time.Second

// StartEmbeddedServer runs an in-process NATS server with JetStream
// enabled, for single-binary deployments that still want a durable
// stream. The listen port is taken from cfg.NATSURL.
func StartEmbeddedServer(cfg *config.EventsConfig) (*natsserver.Server, error) {
	port := 4222
	if u, err := url.Parse(cfg.NATSURL); err == nil && u.Port() != "" {
		if p, err := strconv.Atoi(u.Port()); err == nil {
			port = p
		}
	}

	opts := &natsserver.Options{
		Host:      "127.0.0.1",
		Port:      port,
		JetStream: true,
		StoreDir:  cfg.StoreDir,
		NoSigs:    true,
		NoLog:     true,
	}

	srv, err := natsserver.NewServer(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(embeddedStartTimeout) {
		srv.Shutdown()
		return nil, fmt.Errorf("embedded NATS server did not become ready within %s", embeddedStartTimeout)
	}

	logging.Info().Int("port", port).Str("store_dir", cfg.StoreDir).Msg("embedded NATS server started")
	return srv, nil
}
