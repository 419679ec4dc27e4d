// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
upsert.go - Entity Upsert Engine

One function per hub representation: folders, tasks, users and the
project record itself. Each takes one entity snapshot, decides between
create and update through the correlation lookup, and reports the
outcome. Updates are field-by-field so an unchanged entity is a
guaranteed no-op with no storage write and no event.

End-frame derivation is asymmetric on purpose: a brand-new folder
borrows its parent's frameStart as the fallback basis, an existing
folder uses its own observed frameStart.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/studiopipe/kitsubridge/internal/events"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/models"
	"github.com/studiopipe/kitsubridge/internal/storage"
)

// syncFolder upserts one folder-kind entity. localID is set for the
// created and updated outcomes only.
func (s *Service) syncFolder(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext) (Outcome, string, error) {
	existingID, err := s.resolveFolder(ctx, project.Name, entity.ID, bc)
	if err != nil {
		return OutcomeFailed, "", err
	}

	if existingID == "" {
		return s.createFolder(ctx, project, entity, bc)
	}
	return s.updateFolder(ctx, project, entity, existingID)
}

func (s *Service) createFolder(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext) (Outcome, string, error) {
	parentID, ok, err := s.resolveParent(ctx, project, entity, bc)
	if err != nil {
		return OutcomeFailed, "", err
	}
	if !ok {
		return OutcomeSkipped, "", nil
	}

	if _, err := s.ensureFolderType(ctx, project, string(entity.Kind)); err != nil {
		return OutcomeFailed, "", err
	}

	attrib := ParseAttrib(entity.Data)
	if attrib.FrameEnd == nil {
		// A new folder has no frame data of its own yet; borrow the
		// parent's start frame as the derivation basis.
		var fallback *int
		if parent, perr := s.db.GetFolder(ctx, parentID); perr == nil {
			fallback = parent.Attrib.FrameStart
		}
		attrib.FrameEnd = CalculateEndFrame(entity, fallback)
	}

	name, label := NameAndLabel(entity.Name)
	folder := &models.Folder{
		ID:          storage.NewEntityID(),
		ProjectName: project.Name,
		Name:        name,
		Label:       label,
		FolderType:  string(entity.Kind),
		ParentID:    parentID,
		Attrib:      attrib,
		Data:        map[string]string{models.DataKitsuID: entity.ID},
	}
	if err := s.db.CreateFolder(ctx, folder); err != nil {
		return OutcomeFailed, "", err
	}
	bc.Folders[entity.ID] = folder.ID

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("kind", string(entity.Kind)).
		Str("name", folder.Name).
		Msg("Created folder")
	s.emit(ctx, events.NewEntityEvent("folder", events.ActionCreated,
		fmt.Sprintf("Folder %s created", folder.Name), folder.ID, folder.ParentID, project.Name))
	return OutcomeCreated, folder.ID, nil
}

func (s *Service) updateFolder(ctx context.Context, project *models.Project, entity *models.ExternalEntity, folderID string) (Outcome, string, error) {
	folder, err := s.db.GetFolder(ctx, folderID)
	if err != nil {
		return OutcomeFailed, "", err
	}

	attrib := ParseAttrib(entity.Data)
	if attrib.FrameEnd == nil {
		// The folder already has observed frame data; its own start
		// frame is the derivation basis.
		attrib.FrameEnd = CalculateEndFrame(entity, folder.Attrib.FrameStart)
	}

	changed := folder.Attrib.Apply(attrib)

	name, label := NameAndLabel(entity.Name)
	if folder.Name != name {
		folder.Name = name
		changed = append(changed, "name")
	}
	if folder.Label != label {
		folder.Label = label
		changed = append(changed, "label")
	}
	if folder.FolderType != string(entity.Kind) {
		if _, err := s.ensureFolderType(ctx, project, string(entity.Kind)); err != nil {
			return OutcomeFailed, "", err
		}
		folder.FolderType = string(entity.Kind)
		changed = append(changed, "folderType")
	}

	if len(changed) == 0 {
		return OutcomeUnchanged, "", nil
	}

	if err := s.db.UpdateFolder(ctx, folder); err != nil {
		return OutcomeFailed, "", err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("name", folder.Name).
		Strs("changed", changed).
		Msg("Updated folder")
	s.emit(ctx, events.NewEntityEvent("folder", events.ActionUpdated,
		fmt.Sprintf("Folder %s updated", folder.Name), folder.ID, folder.ParentID, project.Name))
	return OutcomeUpdated, folder.ID, nil
}

// syncTask upserts one task entity. The parent must be a folder that
// already resolved through correlation; tasks never get synthetic
// bucket parents.
func (s *Service) syncTask(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext) (Outcome, string, error) {
	if entity.TaskTypeName != "" {
		if _, err := s.ensureTaskType(ctx, project, entity.TaskTypeName); err != nil {
			return OutcomeFailed, "", err
		}
	}
	if entity.TaskStatusName != "" {
		if _, err := s.ensureStatus(ctx, project, entity.TaskStatusName); err != nil {
			return OutcomeFailed, "", err
		}
	}

	existingID, err := s.resolveTask(ctx, project.Name, entity.ID, bc)
	if err != nil {
		return OutcomeFailed, "", err
	}

	if existingID == "" {
		return s.createTask(ctx, project, entity, bc)
	}
	return s.updateTask(ctx, project, entity, existingID)
}

func (s *Service) createTask(ctx context.Context, project *models.Project, entity *models.ExternalEntity, bc *BatchContext) (Outcome, string, error) {
	parentID, err := s.resolveFolder(ctx, project.Name, entity.EntityID, bc)
	if err != nil {
		return OutcomeFailed, "", err
	}
	if parentID == "" {
		logging.Ctx(ctx).Warn().
			Str("project", project.Name).
			Str("name", entity.Name).
			Str("folder_kitsu_id", entity.EntityID).
			Msg("Parent folder for task not found, skipping entity")
		return OutcomeSkipped, "", nil
	}

	name, label := NameAndLabel(entity.Name)
	task := &models.Task{
		ID:          storage.NewEntityID(),
		ProjectName: project.Name,
		Name:        name,
		Label:       label,
		TaskType:    entity.TaskTypeName,
		Status:      entity.TaskStatusName,
		Assignees:   entity.Assignees,
		FolderID:    parentID,
		Attrib:      ParseAttrib(entity.Data),
		Data:        map[string]string{models.DataKitsuID: entity.ID},
	}
	if err := s.db.CreateTask(ctx, task); err != nil {
		return OutcomeFailed, "", err
	}
	bc.Tasks[entity.ID] = task.ID

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("name", task.Name).
		Msg("Created task")
	s.emit(ctx, events.NewEntityEvent("task", events.ActionCreated,
		fmt.Sprintf("Task %s created", task.Name), task.ID, task.FolderID, project.Name))
	return OutcomeCreated, task.ID, nil
}

func (s *Service) updateTask(ctx context.Context, project *models.Project, entity *models.ExternalEntity, taskID string) (Outcome, string, error) {
	task, err := s.db.GetTask(ctx, taskID)
	if err != nil {
		return OutcomeFailed, "", err
	}

	changed := task.Attrib.Apply(ParseAttrib(entity.Data))

	name, label := NameAndLabel(entity.Name)
	if task.Name != name {
		task.Name = name
		changed = append(changed, "name")
	}
	if task.Label != label {
		task.Label = label
		changed = append(changed, "label")
	}
	if entity.TaskTypeName != "" && task.TaskType != entity.TaskTypeName {
		task.TaskType = entity.TaskTypeName
		changed = append(changed, "taskType")
	}
	if entity.TaskStatusName != "" && task.Status != entity.TaskStatusName {
		task.Status = entity.TaskStatusName
		changed = append(changed, "status")
	}
	if entity.Assignees != nil && !equalStrings(task.Assignees, entity.Assignees) {
		task.Assignees = entity.Assignees
		changed = append(changed, "assignees")
	}

	if len(changed) == 0 {
		return OutcomeUnchanged, "", nil
	}

	if err := s.db.UpdateTask(ctx, task); err != nil {
		return OutcomeFailed, "", err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Str("name", task.Name).
		Strs("changed", changed).
		Msg("Updated task")
	s.emit(ctx, events.NewEntityEvent("task", events.ActionUpdated,
		fmt.Sprintf("Task %s updated", task.Name), task.ID, task.FolderID, project.Name))
	return OutcomeUpdated, task.ID, nil
}

// syncPerson upserts a hub user from a Kitsu person. The hub user name
// is derived once at creation and stays stable afterwards, so profile
// renames in Kitsu never break references from task assignees.
func (s *Service) syncPerson(ctx context.Context, entity *models.ExternalEntity, bc *BatchContext) (Outcome, string, error) {
	existingName, err := s.resolveUser(ctx, entity.ID, bc)
	if err != nil {
		return OutcomeFailed, "", err
	}

	isAdmin, isManager := matchRole(entity.Role)
	fullName := strings.TrimSpace(entity.FirstName + " " + entity.LastName)

	if existingName == "" {
		username := ToUsername(entity.FirstName, entity.LastName)
		if username == "" {
			logging.Ctx(ctx).Warn().
				Str("kitsu_id", entity.ID).
				Msg("Person has no usable name, skipping entity")
			return OutcomeSkipped, "", nil
		}

		user := &models.User{
			Name:      username,
			FullName:  fullName,
			Email:     entity.Email,
			IsAdmin:   isAdmin,
			IsManager: isManager,
			Data:      map[string]string{models.DataKitsuID: entity.ID},
		}
		if s.cfg.DefaultUserPassword != "" {
			hash, herr := bcrypt.GenerateFromPassword([]byte(s.cfg.DefaultUserPassword), bcrypt.DefaultCost)
			if herr != nil {
				return OutcomeFailed, "", herr
			}
			user.PasswordHash = string(hash)
		}
		if err := s.db.CreateUser(ctx, user); err != nil {
			return OutcomeFailed, "", err
		}
		bc.Users[entity.ID] = user.Name

		logging.Ctx(ctx).Info().
			Str("user", user.Name).
			Msg("Created user")
		s.emit(ctx, events.NewUserEvent(events.ActionCreated,
			fmt.Sprintf("User %s created", user.Name), user.Name))
		return OutcomeCreated, user.Name, nil
	}

	user, err := s.db.GetUser(ctx, existingName)
	if err != nil {
		return OutcomeFailed, "", err
	}

	var changed []string
	if fullName != "" && user.FullName != fullName {
		user.FullName = fullName
		changed = append(changed, "fullName")
	}
	if entity.Email != "" && user.Email != entity.Email {
		user.Email = entity.Email
		changed = append(changed, "email")
	}
	if user.IsAdmin != isAdmin {
		user.IsAdmin = isAdmin
		changed = append(changed, "isAdmin")
	}
	if user.IsManager != isManager {
		user.IsManager = isManager
		changed = append(changed, "isManager")
	}

	if len(changed) == 0 {
		return OutcomeUnchanged, "", nil
	}

	if err := s.db.UpdateUser(ctx, user); err != nil {
		return OutcomeFailed, "", err
	}

	logging.Ctx(ctx).Info().
		Str("user", user.Name).
		Strs("changed", changed).
		Msg("Updated user")
	s.emit(ctx, events.NewUserEvent(events.ActionUpdated,
		fmt.Sprintf("User %s updated", user.Name), user.Name))
	return OutcomeUpdated, user.Name, nil
}

// syncProject applies tracker-side project attribute changes (fps,
// resolution, frame range, dates) to the paired hub project.
func (s *Service) syncProject(ctx context.Context, project *models.Project, entity *models.ExternalEntity) (Outcome, string, error) {
	changed := project.Attrib.Apply(ParseAttrib(entity.Raw))
	if len(changed) == 0 {
		return OutcomeUnchanged, "", nil
	}

	if err := s.db.UpdateProject(ctx, project); err != nil {
		return OutcomeFailed, "", err
	}

	logging.Ctx(ctx).Info().
		Str("project", project.Name).
		Strs("changed", changed).
		Msg("Updated project attributes")
	s.emit(ctx, events.NewProjectEvent(events.ActionUpdated,
		fmt.Sprintf("Project %s updated", project.Name), project.Name))
	return OutcomeUpdated, project.Name, nil
}

// matchRole maps a Kitsu role to the hub's access flags. Anything that
// is not admin or manager is a regular artist account.
func matchRole(role string) (isAdmin, isManager bool) {
	switch role {
	case "admin":
		return true, false
	case "manager":
		return false, true
	default:
		return false, false
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
