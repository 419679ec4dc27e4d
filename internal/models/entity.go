// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

// Package models defines the data types shared across Kitsubridge:
// the tracker-side entity payloads received on /push, the hub-side
// entities persisted by the storage layer, and the HTTP API envelopes.
package models

import (
	"fmt"

	"github.com/goccy/go-json"
)

// EntityKind is the closed enumeration of Kitsu entity types the bridge
// understands. Each kind maps to exactly one hub representation: folders
// for the grouping kinds, tasks for Task, users for Person and the
// project record itself for Project. Anything else is KindUnsupported and
// is ignored with a warning rather than failing a batch, so newer Kitsu
// schema additions do not break older bridges.
type EntityKind string

const (
	KindProject     EntityKind = "Project"
	KindEpisode     EntityKind = "Episode"
	KindSequence    EntityKind = "Sequence"
	KindShot        EntityKind = "Shot"
	KindAsset       EntityKind = "Asset"
	KindEdit        EntityKind = "Edit"
	KindConcept     EntityKind = "Concept"
	KindTask        EntityKind = "Task"
	KindPerson      EntityKind = "Person"
	KindUnsupported EntityKind = ""
)

// ParseEntityKind maps a Kitsu type string to an EntityKind.
// Unknown strings map to KindUnsupported, never an error.
func ParseEntityKind(s string) EntityKind {
	switch EntityKind(s) {
	case KindProject, KindEpisode, KindSequence, KindShot, KindAsset,
		KindEdit, KindConcept, KindTask, KindPerson:
		return EntityKind(s)
	default:
		return KindUnsupported
	}
}

// IsFolderKind reports whether the kind is stored as a hub folder.
func (k EntityKind) IsFolderKind() bool {
	switch k {
	case KindEpisode, KindSequence, KindShot, KindAsset, KindEdit, KindConcept:
		return true
	default:
		return false
	}
}

// ExternalEntity is one tracker entity as delivered by a push batch.
// Identity is (Kind, ID); the payload is a snapshot and is never mutated
// after parsing. Raw preserves the full decoded object so kind-specific
// consumers (project attribute sync, custom metadata merge) can reach
// fields the typed view does not model.
type ExternalEntity struct {
	ID       string
	Kind     EntityKind
	RawType  string
	Name     string
	ParentID string

	// Asset categorization.
	EntityTypeID  string
	AssetTypeName string

	// Task linkage and classification.
	EntityID       string
	TaskTypeName   string
	TaskStatusName string
	Assignees      []string

	// Frame count reported at the entity top level by Kitsu; used for
	// end-frame derivation when frame_out is absent.
	NbFrames *int

	// Person fields.
	FirstName string
	LastName  string
	Email     string
	Role      string

	// Data is the tracker's loosely typed attribute bag. It is nil for
	// some kinds (concepts in particular).
	Data map[string]interface{}

	// Raw is the complete decoded payload.
	Raw map[string]interface{}
}

// externalEntityJSON is the wire shape of an ExternalEntity.
type externalEntityJSON struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Name           string                 `json:"name"`
	ParentID       *string                `json:"parent_id"`
	EntityTypeID   string                 `json:"entity_type_id"`
	AssetTypeName  string                 `json:"asset_type_name"`
	EntityID       string                 `json:"entity_id"`
	TaskTypeName   string                 `json:"task_type_name"`
	TaskStatusName string                 `json:"task_status_name"`
	Assignees      []string               `json:"assignees"`
	NbFrames       *int                   `json:"nb_frames"`
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name"`
	Email          string                 `json:"email"`
	Role           string                 `json:"role"`
	Data           map[string]interface{} `json:"data"`
}

// UnmarshalJSON decodes the typed view and retains the raw object.
func (e *ExternalEntity) UnmarshalJSON(data []byte) error {
	var wire externalEntityJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	e.ID = wire.ID
	e.RawType = wire.Type
	e.Kind = ParseEntityKind(wire.Type)
	e.Name = wire.Name
	if wire.ParentID != nil {
		e.ParentID = *wire.ParentID
	}
	e.EntityTypeID = wire.EntityTypeID
	e.AssetTypeName = wire.AssetTypeName
	e.EntityID = wire.EntityID
	e.TaskTypeName = wire.TaskTypeName
	e.TaskStatusName = wire.TaskStatusName
	e.Assignees = wire.Assignees
	e.NbFrames = wire.NbFrames
	e.FirstName = wire.FirstName
	e.LastName = wire.LastName
	e.Email = wire.Email
	e.Role = wire.Role
	e.Data = wire.Data
	e.Raw = raw
	return nil
}

// Validate checks the fields every entity must carry regardless of kind.
// Kind validity is deliberately not checked here; unsupported kinds are a
// per-entity sync outcome, not a request-level failure.
func (e *ExternalEntity) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("entity is missing required field %q", "id")
	}
	if e.RawType == "" {
		return fmt.Errorf("entity %s is missing required field %q", e.ID, "type")
	}
	return nil
}

// EntityRef identifies an entity for removal requests, which carry only
// {id, type} rather than a full payload.
type EntityRef struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type" validate:"required"`
}

// Kind returns the parsed kind of the reference.
func (r EntityRef) Kind() EntityKind {
	return ParseEntityKind(r.Type)
}
