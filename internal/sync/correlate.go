// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
correlate.go - Correlation Lookup

The only link between a Kitsu entity and its hub counterpart is the
kitsuId recorded on the hub entity at creation time; there is no
separate mapping table to keep consistent. Lookups check the batch
cache first, then storage, and write storage hits back into the cache
so one push call never queries the same ID twice.

An empty result with a nil error means "needs creation", not failure.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"

	"github.com/studiopipe/kitsubridge/internal/storage"
)

// resolveFolder returns the hub folder ID correlated with kitsuID, or
// "" when no folder carries it yet.
func (s *Service) resolveFolder(ctx context.Context, projectName, kitsuID string, bc *BatchContext) (string, error) {
	if id, ok := bc.Folders[kitsuID]; ok {
		return id, nil
	}
	f, err := s.db.FindFolderByKitsuID(ctx, projectName, kitsuID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	bc.Folders[kitsuID] = f.ID
	return f.ID, nil
}

// resolveTask returns the hub task ID correlated with kitsuID, or ""
// when no task carries it yet.
func (s *Service) resolveTask(ctx context.Context, projectName, kitsuID string, bc *BatchContext) (string, error) {
	if id, ok := bc.Tasks[kitsuID]; ok {
		return id, nil
	}
	t, err := s.db.FindTaskByKitsuID(ctx, projectName, kitsuID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	bc.Tasks[kitsuID] = t.ID
	return t.ID, nil
}

// resolveUser returns the hub user name correlated with kitsuID, or ""
// when no user carries it yet. User names are global, not per-project.
func (s *Service) resolveUser(ctx context.Context, kitsuID string, bc *BatchContext) (string, error) {
	if name, ok := bc.Users[kitsuID]; ok {
		return name, nil
	}
	u, err := s.db.FindUserByKitsuID(ctx, kitsuID)
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	bc.Users[kitsuID] = u.Name
	return u.Name, nil
}
