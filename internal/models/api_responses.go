// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package models

// PushRequest is the body of POST /push: one project's batch of entities.
// Entities keep input order; the orchestrator defers tasks internally.
type PushRequest struct {
	ProjectName string           `json:"project_name" validate:"required"`
	Entities    []ExternalEntity `json:"entities" validate:"required,min=1"`
}

// RemoveRequest is the body of POST /remove. Only {id, type} pairs are
// required; removal of an already absent entity is a silent no-op.
type RemoveRequest struct {
	ProjectName string      `json:"project_name" validate:"required"`
	Entities    []EntityRef `json:"entities" validate:"required,min=1"`
}

// SyncResult maps the Kitsu IDs actually created or updated by a push or
// remove call to their hub IDs. No-op updates and skips are excluded so
// callers can discover the hub IDs minted for brand-new Kitsu IDs.
type SyncResult struct {
	Folders map[string]string `json:"folders"`
	Tasks   map[string]string `json:"tasks"`
}

// NewSyncResult returns a result with both maps allocated, so an empty
// outcome serializes as {} rather than null.
func NewSyncResult() SyncResult {
	return SyncResult{
		Folders: map[string]string{},
		Tasks:   map[string]string{},
	}
}

// PairingItem correlates one Kitsu project with its paired hub project,
// or null when unpaired. Returned by GET /pairing.
type PairingItem struct {
	KitsuProjectID   string  `json:"kitsuProjectId"`
	KitsuProjectName string  `json:"kitsuProjectName"`
	KitsuProjectCode *string `json:"kitsuProjectCode"`
	AyonProjectName  *string `json:"ayonProjectName"`
}

/// PairRequest is the body of POST /pair: create a hub project seeded from
// the Kitsu project's current anatomy and record the pairing.
type PairRequest struct {
	KitsuProjectID  string `json:"kitsu_project_id" validate:"required"`
	AyonProjectName string `json:"ayon_project_name" validate:"required,min=1"`
	AyonProjectCode string `json:"ayon_project_code" validate:"required,min=2,max=10"`
}

