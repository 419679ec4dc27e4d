// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
push.go - Batch Push Orchestrator

Push and Remove each process one project's batch start to finish on the
caller's goroutine. Entities of kind Task are deferred until every
non-Task entity in the same call has been handled, so folders created
earlier in the batch are resolvable as task parents regardless of input
order. Within each group, input order is preserved.

Per-entity problems become outcomes (skipped, ignored, failed), never
batch aborts; only a missing project is a call-level error. The result
maps carry only entities actually created or updated, so callers can
discover the hub IDs minted for new Kitsu IDs.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/metrics"
	"github.com/studiopipe/kitsubridge/internal/models"
	"github.com/studiopipe/kitsubridge/internal/storage"
)

// Push reconciles a batch of tracker entities against the named hub
// project.
func (s *Service) Push(ctx context.Context, req models.PushRequest) (models.SyncResult, error) {
	start := time.Now()
	result := models.NewSyncResult()

	project, err := s.db.GetProject(ctx, req.ProjectName)
	if errors.Is(err, storage.ErrNotFound) {
		return result, fmt.Errorf("%w: %s", ErrProjectNotFound, req.ProjectName)
	}
	if err != nil {
		return result, err
	}

	bc := NewBatchContext()

	// Folders first, then tasks, preserving input order within each
	// group.
	for _, deferred := range []bool{false, true} {
		for i := range req.Entities {
			entity := &req.Entities[i]
			if (entity.Kind == models.KindTask) != deferred {
				continue
			}
			s.pushEntity(ctx, project, entity, bc, &result)
		}
	}

	metrics.RecordPushBatch(time.Since(start), len(req.Entities))
	return result, nil
}

// pushEntity dispatches one entity to its upsert routine and folds the
// outcome into the result maps and metrics.
func (s *Service) pushEntity(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext, result *models.SyncResult) {
	log := logging.Ctx(ctx)

	if err := entity.Validate(); err != nil {
		log.Warn().Err(err).Msg("Malformed entity in push batch, ignoring")
		metrics.RecordPushEntity(entity.RawType, string(OutcomeIgnored))
		return
	}

	var (
		outcome Outcome
		localID string
		err     error
	)

	switch {
	case entity.Kind == models.KindUnsupported:
		log.Warn().
			Str("type", entity.RawType).
			Str("kitsu_id", entity.ID).
			Msg("Unsupported entity type, ignoring")
		outcome = OutcomeIgnored

	case entity.Kind == models.KindProject:
		outcome, localID, err = s.syncProject(ctx, project, entity)

	case entity.Kind == models.KindPerson:
		outcome, localID, err = s.syncPerson(ctx, entity, bc)

	case entity.Kind == models.KindTask:
		outcome, localID, err = s.syncTask(ctx, project, entity, bc)

	default:
		outcome, localID, err = s.syncFolder(ctx, project, entity, bc)
	}

	if err != nil {
		log.Error().Err(err).
			Str("type", entity.RawType).
			Str("kitsu_id", entity.ID).
			Msg("Entity sync failed")
		outcome = OutcomeFailed
	}

	if outcome == OutcomeCreated || outcome == OutcomeUpdated {
		switch {
		case entity.Kind.IsFolderKind():
			result.Folders[entity.ID] = localID
		case entity.Kind == models.KindTask:
			result.Tasks[entity.ID] = localID
		}
	}

	metrics.RecordPushEntity(entity.RawType, string(outcome))
}

// Remove deletes the hub counterparts of the given tracker entities.
// Unknown IDs are silent no-ops: already absent is the desired state.
func (s *Service) Remove(ctx context.Context, req models.RemoveRequest) (models.SyncResult, error) {
	result := models.NewSyncResult()

	project, err := s.db.GetProject(ctx, req.ProjectName)
	if errors.Is(err, storage.ErrNotFound) {
		return result, fmt.Errorf("%w: %s", ErrProjectNotFound, req.ProjectName)
	}
	if err != nil {
		return result, err
	}

	bc := NewBatchContext()

	for _, ref := range req.Entities {
		outcome, localID, rerr := s.removeEntity(ctx, project, ref, bc)
		if rerr != nil {
			logging.Ctx(ctx).Error().Err(rerr).
				Str("type", ref.Type).
				Str("kitsu_id", ref.ID).
				Msg("Entity removal failed")
			outcome = OutcomeFailed
		}
		if localID != "" {
			switch {
			case ref.Kind().IsFolderKind():
				result.Folders[ref.ID] = localID
			case ref.Kind() == models.KindTask:
				result.Tasks[ref.ID] = localID
			}
		}
		metrics.RecordRemoveEntity(ref.Type, string(outcome))
	}

	return result, nil
}

// removeEntity deletes one entity. localID is non-empty only when a
// row was actually removed.
func (s *Service) removeEntity(ctx context.Context, project *models.Project, ref models.EntityRef, bc *BatchContext) (Outcome, string, error) {
	log := logging.Ctx(ctx)

	switch kind := ref.Kind(); {
	case kind == models.KindTask:
		id, err := s.resolveTask(ctx, project.Name, ref.ID, bc)
		if err != nil {
			return OutcomeFailed, "", err
		}
		if id == "" {
			return OutcomeUnchanged, "", nil
		}
		task, err := s.db.GetTask(ctx, id)
		if err != nil {
			return OutcomeFailed, "", err
		}
		deleted, err := s.db.DeleteTask(ctx, id)
		if err != nil {
			return OutcomeFailed, "", err
		}
		if !deleted {
			return OutcomeUnchanged, "", nil
		}
		log.Info().Str("project", project.Name).Str("name", task.Name).Msg("Deleted task")
		s.emit(ctx, events.NewEntityEvent("task", events.ActionDeleted,
			fmt.Sprintf("Task %s deleted", task.Name), task.ID, task.FolderID, project.Name))
		return OutcomeUpdated, id, nil

	case kind.IsFolderKind():
		id, err := s.resolveFolder(ctx, project.Name, ref.ID, bc)
		if err != nil {
			return OutcomeFailed, "", err
		}
		if id == "" {
			return OutcomeUnchanged, "", nil
		}
		folder, err := s.db.GetFolder(ctx, id)
		if err != nil {
			return OutcomeFailed, "", err
		}
		// Descendant folders and tasks go with it.
		if err := s.db.DeleteFolder(ctx, id); err != nil {
			return OutcomeFailed, "", err
		}
		log.Info().Str("project", project.Name).Str("name", folder.Name).Msg("Deleted folder")
		s.emit(ctx, events.NewEntityEvent("folder", events.ActionDeleted,
			fmt.Sprintf("Folder %s deleted", folder.Name), folder.ID, folder.ParentID, project.Name))
		return OutcomeUpdated, id, nil

	case kind == models.KindPerson:
		name, err := s.resolveUser(ctx, ref.ID, bc)
		if err != nil {
			return OutcomeFailed, "", err
		}
		if name == "" {
			return OutcomeUnchanged, "", nil
		}
		deleted, err := s.db.DeleteUser(ctx, name)
		if err != nil {
			return OutcomeFailed, "", err
		}
		if !deleted {
			return OutcomeUnchanged, "", nil
		}
		log.Info().Str("user", name).Msg("Deleted user")
		s.emit(ctx, events.NewUserEvent(events.ActionDeleted,
			fmt.Sprintf("User %s deleted", name), name))
		// Users are not part of the folder/task result maps.
		return OutcomeUpdated, "", nil

	default:
		log.Warn().
			Str("type", ref.Type).
			Str("kitsu_id", ref.ID).
			Msg("Unsupported entity type in remove request, ignoring")
		return OutcomeIgnored, "", nil
	}
}
