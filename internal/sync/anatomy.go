// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
anatomy.go - Project Anatomy Seeding

Converts a Kitsu project's current task types and statuses into the
hub's anatomy enumerations when a pairing is initialized. Statuses are
ordered default-first because the hub treats the first status as the
default for new entities.
*/

//nolint:staticcheck // File documentation, not package doc
package sync

import (
	"sort"
	"strings"

	"github.com/studiopipe/kitsubridge/internal/kitsu"
	"github.com/studiopipe/kitsubridge/internal/models"
)

// defaultFolderTypes is the baseline folder-type enumeration every
// paired project starts with; the auto-provisioner extends it on
// demand (Edit, Concept).
func defaultFolderTypes() []models.FolderType {
	return []models.FolderType{
		{Name: "Folder", Icon: "folder"},
		{Name: "Library", ShortName: "lib", Icon: "category"},
		{Name: "Asset", Icon: "smart_toy"},
		{Name: "Episode", ShortName: "ep", Icon: "live_tv"},
		{Name: "Sequence", ShortName: "sq", Icon: "theaters"},
		{Name: "Shot", ShortName: "sh", Icon: "movie"},
	}
}

// buildTaskTypes converts Kitsu task types to hub task types. A missing
// short name falls back to the first three characters of the lowercase
// name with underscores removed.
func buildTaskTypes(taskTypes []kitsu.TaskType) []models.TaskType {
	result := make([]models.TaskType, 0, len(taskTypes))
	for _, tt := range taskTypes {
		shortName := tt.ShortName
		if shortName == "" {
			slug := strings.ReplaceAll(strings.ToLower(tt.Name), "_", "")
			if r := []rune(slug); len(r) > 3 {
				slug = string(r[:3])
			}
			shortName = slug
		}
		result = append(result, models.TaskType{
			Name:      tt.Name,
			ShortName: shortName,
		})
	}
	return result
}

// buildStatuses converts Kitsu task statuses to hub statuses, ordered
// default-first.
func buildStatuses(statuses []kitsu.TaskStatus) []models.Status {
	ordered := make([]kitsu.TaskStatus, len(statuses))
	copy(ordered, statuses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].IsDefault && !ordered[j].IsDefault
	})

	result := make([]models.Status, 0, len(ordered))
	for _, st := range ordered {
		result = append(result, models.Status{
			Name:      st.Name,
			ShortName: st.ShortName,
			State:     statusState(st),
			Color:     st.Color,
		})
	}
	return result
}

// statusState maps Kitsu status flags to the hub's state enumeration.
func statusState(st kitsu.TaskStatus) string {
	switch {
	case st.IsDone:
		return "done"
	case st.ShortName == "ready":
		return "not_started"
	default:
		return "in_progress"
	}
}
