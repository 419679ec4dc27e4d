// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
provision.go - Status/Type Auto-Provisioner

Folder and task creation is referentially validated against the
project's anatomy enumerations, so any folder type, task type or status
an incoming entity references must exist before the dependent create
runs. Matching is exact and case-sensitive. Each ensure call mutates
the in-memory project record and persists it, so later entities in the
same batch see the extended enumeration without a reload.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"

	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/metrics"
	"github.com/studiopipe/kitsubridge/internal/models"
)

// constantFolderTypes carries fixed short names and icons for folder
// types Kitsu has but the hub's default anatomy does not.
var constantFolderTypes = map[string]models.FolderType{
	"Edit":    {Name: "Edit", ShortName: "ed", Icon: "cut"},
	"Concept": {Name: "Concept", ShortName: "co", Icon: "image"},
}

// ensureFolderType guarantees the project's folder-type enumeration
// contains name, appending and persisting it when missing. Reports
// whether a new entry was created.
func (s *Service) ensureFolderType(ctx context.Context, project *models.Project, name string) (bool, error) {
	if project.HasFolderType(name) {
		return false, nil
	}

	ft, ok := constantFolderTypes[name]
	if !ok {
		ft = models.FolderType{Name: name}
	}
	project.FolderTypes = append(project.FolderTypes, ft)
	if err := s.db.UpdateProject(ctx, project); err != nil {
		return false, err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("folder_type", name).
		Msg("Provisioned missing folder type")
	metrics.RecordProvisioned("folder_type")
	return true, nil
}

// ensureTaskType guarantees the project's task-type enumeration
// contains name. The short name is derived from the display name since
// Kitsu task types carry no usable short form at push time.
func (s *Service) ensureTaskType(ctx context.Context, project *models.Project, name string) (bool, error) {
	if project.HasTaskType(name) {
		return false, nil
	}

	project.TaskTypes = append(project.TaskTypes, models.TaskType{
		Name:      name,
		ShortName: CreateShortName(name),
	})
	if err := s.db.UpdateProject(ctx, project); err != nil {
		return false, err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("task_type", name).
		Msg("Provisioned missing task type")
	metrics.RecordProvisioned("task_type")
	return true, nil
}

// ensureStatus guarantees the project's status enumeration contains
// name. Newly provisioned statuses default to the in_progress state;
// a later pairing refresh can correct the state from Kitsu's flags.
func (s *Service) ensureStatus(ctx context.Context, project *models.Project, name string) (bool, error) {
	if project.HasStatus(name) {
		return false, nil
	}

	project.Statuses = append(project.Statuses, models.Status{
		Name:      name,
		ShortName: CreateShortName(name),
		State:     "in_progress",
	})
	if err := s.db.UpdateProject(ctx, project); err != nil {
		return false, err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("status", name).
		Msg("Provisioned missing task status")
	metrics.RecordProvisioned("status")
	return true, nil
}
