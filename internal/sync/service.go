// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
service.go - Reconciliation Service

Service is the entry point for everything the HTTP layer asks of the
sync engine: batch pushes, removals, pairing queries and pairing
initialization. It owns the storage handle, the event bus and the
tracker client; nothing in this package reads ambient configuration.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"

	"github.com/studiopipe/kitsubridge/internal/config"
	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/kitsu"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/storage"
)

// Sentinel errors surfaced to the HTTP layer, which maps them to
// response statuses. Everything else is an internal failure.
var (
	// ErrProjectNotFound means the named hub project does not exist.
	ErrProjectNotFound = errors.New("project not found")

	// ErrPairingConflict means the requested hub project name or code
	// is already taken, or the Kitsu project is already paired.
	ErrPairingConflict = errors.New("pairing conflict")
)

// TrackerClient is the subset of the Kitsu API the sync engine needs.
// *kitsu.Client satisfies it; tests substitute a stub.
type TrackerClient interface {
	ListProjects(ctx context.Context) ([]kitsu.Project, error)
	GetProjectRaw(ctx context.Context, projectID string) (map[string]interface{}, error)
	GetProjectTaskTypes(ctx context.Context, projectID string) ([]kitsu.TaskType, error)
	ListTaskStatuses(ctx context.Context) ([]kitsu.TaskStatus, error)
}

// Service is the reconciliation engine. One Service handles all
// projects; per-call state lives in a BatchContext, never on the
// Service itself, so concurrent calls for different projects cannot
// observe each other's caches.
type Service struct {
	db      *storage.DB
	bus     events.Bus
	tracker TrackerClient
	cfg     config.SyncConfig
}

// NewService wires the reconciliation engine to its collaborators.
func NewService(db *storage.DB, bus events.Bus, tracker TrackerClient, cfg config.SyncConfig) *Service {
	return &Service{
		db:      db,
		bus:     bus,
		tracker: tracker,
		cfg:     cfg,
	}
}

// emit publishes a domain event. Publish failures are logged and
// swallowed: the storage write already happened and event delivery is
// best-effort from the sync engine's point of view (the spooling bus
// handles durability when configured).
func (s *Service) emit(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		logging.Ctx(ctx).Warn().
			Err(err).
			Str("topic", e.Topic).
			Msg("Failed to publish domain event")
	}
}
