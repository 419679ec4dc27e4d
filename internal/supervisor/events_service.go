// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package supervisor

import (
	"context"
	"errors"
	"time"
)

// EventServer is the subset of the embedded NATS server lifecycle the
// monitor needs. Satisfied by *natsserver.Server.
type EventServer interface {
	Running() bool
	Shutdown()
	WaitForShutdown()
}

// ErrEventServerStopped is returned when the embedded event server
// stops outside of a requested shutdown. Suture treats it as a service
// failure and applies its backoff policy.
var ErrEventServerStopped = errors.New("embedded event server stopped")

// EventServerService supervises an already-running embedded NATS
// server. The server starts eagerly during wiring (the bus needs it
// reachable before the tree serves), so this service only monitors
// liveness and owns the graceful shutdown.
type EventServerService struct {
	server        EventServer
	checkInterval time.Duration
	name          string
}

// NewEventServerService creates the embedded event server monitor.
func NewEventServerService(server EventServer) *EventServerService {
	return &EventServerService{
		server:        server,
		checkInterval: 5 * time.Second,
		name:          "event-server",
	}
}

// Serve implements suture.Service.
func (s *EventServerService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.server.Shutdown()
			s.server.WaitForShutdown()
			return ctx.Err()

		case <-ticker.C:
			if !s.server.Running() {
				return ErrEventServerStopped
			}
		}
	}
}

// String implements fmt.Stringer; suture uses it in log messages.
func (s *EventServerService) String() string {
	return s.name
}
