// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package events

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Topic constants for events the bridge emits. Entity lifecycle topics
// follow the entity.{type}.{action} scheme.
const (
	TopicSyncRequest = "kitsu.sync_request"
)

// Entity event actions.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// EntityTopic builds an entity lifecycle topic, e.g.
// EntityTopic("folder", ActionCreated) == "entity.folder.created".
func EntityTopic(entityType, action string) string {
	return fmt.Sprintf("entity.%s.%s", entityType, action)
}

// Event is a domain event emitted after a state change. Summary carries
// the minimal identifiers a consumer needs to react without refetching.
type Event struct {
	ID          string                 `json:"id"`
	Topic       string                 `json:"topic"`
	Description string                 `json:"description,omitempty"`
	Summary     map[string]interface{} `json:"summary,omitempty"`
	Project     string                 `json:"project,omitempty"`
	User        string                 `json:"user,omitempty"`
	Hash        string                 `json:"hash,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// NewEntityEvent builds a lifecycle event for a folder or task mutation.
func NewEntityEvent(entityType, action, description, entityID, parentID, project string) Event {
	return Event{
		ID:          uuid.NewString(),
		Topic:       EntityTopic(entityType, action),
		Description: description,
		Summary: map[string]interface{}{
			"entityId": entityID,
			"parentId": parentID,
		},
		Project:   project,
		CreatedAt: time.Now().UTC(),
	}
}

// NewUserEvent builds a lifecycle event for a user mutation. User
// events carry the user name rather than entity/parent IDs.
func NewUserEvent(action, description, userName string) Event {
	return Event{
		ID:          uuid.NewString(),
		Topic:       EntityTopic("user", action),
		Description: description,
		Summary: map[string]interface{}{
			"userName": userName,
		},
		CreatedAt: time.Now().UTC(),
	}
}

// NewProjectEvent builds a lifecycle event for a project mutation.
func NewProjectEvent(action, description, projectName string) Event {
	return Event{
		ID:          uuid.NewString(),
		Topic:       EntityTopic("project", action),
		Description: description,
		Summary: map[string]interface{}{
			"projectName": projectName,
		},
		Project:   projectName,
		CreatedAt: time.Now().UTC(),
	}
}

// NewSyncRequestEvent builds the event that asks the sync service to run
// a full import for a freshly paired project. Hash deduplicates repeated
// requests for the same pairing.
func NewSyncRequestEvent(project, kitsuProjectID, user, hash string) Event {
	return Event{
		ID:          uuid.NewString(),
		Topic:       TopicSyncRequest,
		Description: "Sync request from Kitsu",
		Summary: map[string]interface{}{
			"kitsuProjectId": kitsuProjectID,
		},
		Project:   project,
		User:      user,
		Hash:      hash,
		CreatedAt: time.Now().UTC(),
	}
}

// Marshal serializes the event for the wire.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal deserializes an event payload.
func Unmarshal(data []byte) (Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return e, nil
}
