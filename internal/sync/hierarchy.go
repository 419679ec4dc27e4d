// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
hierarchy.go - Hierarchy Resolver

Root-level tracker entities have no hub parent of their own, so they
are grouped under synthetic bucket folders ("Episodes", "Assets", ...)
created on demand, once per project. Buckets correlate on a fixed
sentinel string instead of a real Kitsu ID, which makes them findable
and reusable forever without a dedicated table.

Assets get a second level: a subfolder per asset category under the
"Assets" bucket, correlated on the Kitsu entity_type_id.

Entities that declare a real parent resolve it through the correlation
lookup; an unresolvable parent means the entity is skipped, never that
the batch fails.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"

	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/models"
	"github.com/studiopipe/kitsubridge/internal/storage"
)

// bucketFolderType is the hub folder type used for synthetic grouping
// folders; it carries no tracker meaning.
const bucketFolderType = "Folder"

// bucketSpec names the root bucket for one entity kind and the
// sentinel recorded as its correlation key.
type bucketSpec struct {
	name     string
	sentinel string
}

var rootBuckets = map[models.EntityKind]bucketSpec{
	models.KindEpisode:  {name: "Episodes", sentinel: "episode"},
	models.KindSequence: {name: "Sequences", sentinel: "sequence"},
	models.KindShot:     {name: "Shots", sentinel: "shot"},
	models.KindEdit:     {name: "Edits", sentinel: "edits"},
	models.KindConcept:  {name: "Concepts", sentinel: "concepts"},
}

const (
	assetBucketName     = "Assets"
	assetBucketSentinel = "asset"
)

// resolveParent determines the hub parent folder for a folder-kind
// entity, creating bucket folders as needed. ok is false when a
// declared parent cannot be resolved; the caller skips the entity.
func (s *Service) resolveParent(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext) (parentID string, ok bool, err error) {
	if entity.Kind == models.KindAsset {
		id, err := s.resolveAssetParent(ctx, project, entity, bc)
		return id, err == nil, err
	}

	spec, found := rootBuckets[entity.Kind]
	if !found {
		return "", false, fmt.Errorf("no hierarchy rule for entity kind %q", entity.Kind)
	}

	if entity.ParentID == "" {
		id, err := s.ensureBucket(ctx, project, bc, spec.name, spec.sentinel)
		return id, err == nil, err
	}

	id, err := s.resolveFolder(ctx, project.Name, entity.ParentID, bc)
	if err != nil {
		return "", false, err
	}
	if id == "" {
		logging.Ctx(ctx).Warn().
			Str("project", project.Name).
			Str("kind", string(entity.Kind)).
			Str("name", entity.Name).
			Str("parent_kitsu_id", entity.ParentID).
			Msg("Parent folder not found, skipping entity")
		return "", false, nil
	}
	return id, true, nil
}

// resolveAssetParent returns the category subfolder under the Assets
// bucket, creating both levels on demand. The subfolder correlates on
// the asset's entity_type_id so every asset of one category shares it.
func (s *Service) resolveAssetParent(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext) (string, error) {
	if id, cached := bc.Folders[entity.EntityTypeID]; cached {
		return id, nil
	}

	rootID, err := s.ensureBucket(ctx, project, bc, assetBucketName, assetBucketSentinel)
	if err != nil {
		return "", err
	}

	if entity.EntityTypeID == "" {
		// Asset without a category goes straight under the bucket.
		return rootID, nil
	}

	id, err := s.resolveFolder(ctx, project.Name, entity.EntityTypeID, bc)
	if err != nil {
		return "", err
	}
	if id == "" {
		subName := entity.AssetTypeName
		if subName == "" {
			subName = entity.EntityTypeID
		}
		id, err = s.createBucketFolder(ctx, project, subName, entity.EntityTypeID, rootID)
		if err != nil {
			return "", err
		}
	}
	bc.Folders[entity.EntityTypeID] = id
	return id, nil
}

// ensureBucket returns the hub ID of a root bucket folder, creating it
// on first use. The result is memoized in the batch context under the
// sentinel key.
func (s *Service) ensureBucket(ctx context.Context, project *models.Project, bc *BatchContext, name, sentinel string) (string, error) {
	if id, cached := bc.Folders[sentinel]; cached {
		return id, nil
	}

	id, err := s.resolveFolder(ctx, project.Name, sentinel, bc)
	if err != nil {
		return "", err
	}
	if id == "" {
		id, err = s.createBucketFolder(ctx, project, name, sentinel, "")
		if err != nil {
			return "", err
		}
	}
	bc.Folders[sentinel] = id
	return id, nil
}

// createBucketFolder persists a synthetic grouping folder and emits
// its creation event.
func (s *Service) createBucketFolder(ctx context.Context, project *models.Project, displayName, kitsuID, parentID string) (string, error) {
	if _, err := s.ensureFolderType(ctx, project, bucketFolderType); err != nil {
		return "", err
	}

	name, label := NameAndLabel(displayName)
	folder := &models.Folder{
		ID:          storage.NewEntityID(),
		ProjectName: project.Name,
		Name:        name,
		Label:       label,
		FolderType:  bucketFolderType,
		ParentID:    parentID,
		Data:        map[string]string{models.DataKitsuID: kitsuID},
	}
	if err := s.db.CreateFolder(ctx, folder); err != nil {
		return "", err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("folder", name).
		Msg("Created grouping folder")
	s.emit(ctx, events.NewEntityEvent("folder", events.ActionCreated,
		fmt.Sprintf("Folder %s created", folder.Name), folder.ID, folder.ParentID, project.Name))
	return folder.ID, nil
}
