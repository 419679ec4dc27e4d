// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
pairing.go - Project Pairing

A pairing links one Kitsu project to one hub project through the
kitsuProjectId recorded on the hub project. PairingList reports the
correlation state of every Kitsu project; InitPairing creates the hub
project seeded with the Kitsu project's current anatomy and emits a
sync request event so a full import can follow.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/models"
	"github.com/studiopipe/kitsubridge/internal/storage"
)

// PairingList correlates every Kitsu project with its paired hub
// project, nil for unpaired ones.
func (s *Service) PairingList(ctx context.Context) ([]models.PairingItem, error) {
	kitsuProjects, err := s.tracker.ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Kitsu projects: %w", err)
	}

	hubProjects, err := s.db.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	paired := make(map[string]string, len(hubProjects))
	for _, p := range hubProjects {
		if kid := p.KitsuProjectID(); kid != "" {
			paired[kid] = p.Name
		}
	}

	result := make([]models.PairingItem, 0, len(kitsuProjects))
	for _, kp := range kitsuProjects {
		item := models.PairingItem{
			KitsuProjectID:   kp.ID,
			KitsuProjectName: kp.Name,
		}
		if kp.Code != "" {
			code := kp.Code
			item.KitsuProjectCode = &code
		}
		if name, ok := paired[kp.ID]; ok {
			hubName := name
			item.AyonProjectName = &hubName
		}
		result = append(result, item)
	}
	return result, nil
}

// InitPairing creates a hub project seeded from the Kitsu project's
// anatomy, records the pairing on the project record and emits a sync
// request event. Name, code and Kitsu-side collisions are conflicts;
// no partial state is left behind on any failure before the create.
func (s *Service) InitPairing(ctx context.Context, req models.PairRequest) (*models.Project, error) {
	name := ToProjectName(req.AyonProjectName)
	if name == "" {
		return nil, fmt.Errorf("project name %q is empty after normalization", req.AyonProjectName)
	}
	code := ToProjectCode(req.AyonProjectCode)
	if len(code) < 2 {
		return nil, fmt.Errorf("project code %q is too short after normalization", req.AyonProjectCode)
	}

	if err := s.ensureUnpaired(ctx, name, code, req.KitsuProjectID); err != nil {
		return nil, err
	}

	raw, err := s.tracker.GetProjectRaw(ctx, req.KitsuProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Kitsu project %s: %w", req.KitsuProjectID, err)
	}
	kitsuTaskTypes, err := s.tracker.GetProjectTaskTypes(ctx, req.KitsuProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Kitsu task types: %w", err)
	}
	kitsuStatuses, err := s.tracker.ListTaskStatuses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch Kitsu statuses: %w", err)
	}

	project := &models.Project{
		Name:        name,
		Code:        code,
		FolderTypes: defaultFolderTypes(),
		TaskTypes:   buildTaskTypes(kitsuTaskTypes),
		Statuses:    buildStatuses(kitsuStatuses),
		Attrib:      ParseAttrib(raw),
		Data:        map[string]string{models.DataKitsuProjectID: req.KitsuProjectID},
	}
	if err := s.db.CreateProject(ctx, project); err != nil {
		return nil, err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("kitsu_project_id", req.KitsuProjectID).
		Msg("Paired project")

	s.emit(ctx, events.NewSyncRequestEvent(
		project.Name,
		req.KitsuProjectID,
		"",
		pairingHash(project.Name, req.KitsuProjectID),
	))
	return project, nil
}

// ensureUnpaired rejects the pairing when the hub name or code is
// taken, or when the Kitsu project is already paired.
func (s *Service) ensureUnpaired(ctx context.Context, name, code, kitsuProjectID string) error {
	if _, err := s.db.GetProject(ctx, name); err == nil {
		return fmt.Errorf("%w: project %s already exists", ErrPairingConflict, name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if existing, err := s.db.GetProjectByKitsuID(ctx, kitsuProjectID); err == nil {
		return fmt.Errorf("%w: Kitsu project already paired with %s", ErrPairingConflict, existing.Name)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	projects, err := s.db.ListProjects(ctx)
	if err != nil {
		return err
	}
	for _, p := range projects {
		if p.Code == code {
			return fmt.Errorf("%w: project code %s already exists", ErrPairingConflict, code)
		}
	}
	return nil
}

// pairingHash deduplicates sync request events for one pairing.
func pairingHash(projectName, kitsuProjectID string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("kitsu_sync_%s_%s", projectName, kitsuProjectID)))
	return hex.EncodeToString(sum[:])
}
