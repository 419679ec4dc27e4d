// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package kitsu

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

func unmarshalJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

// ListProjects returns all productions visible to the bridge account.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	data, err := c.Get(ctx, "data/projects")
	if err != nil {
		return nil, err
	}
	var projects []Project
	if err := unmarshalJSON(data, &projects); err != nil {
		return nil, fmt.Errorf("failed to parse projects response: %w", err)
	}
	return projects, nil
}

// GetProject returns a single production by its Kitsu ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	data, err := c.Get(ctx, "data/projects/"+projectID)
	if err != nil {
		return nil, err
	}
	var project Project
	if err := unmarshalJSON(data, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project response: %w", err)
	}
	return &project, nil
}

// GetProjectRaw returns the full project document as a map for attribute
// extraction. Kitsu projects carry many loosely typed fields (fps,
// resolution, dates) that are parsed tolerantly downstream.
func (c *Client) GetProjectRaw(ctx context.Context, projectID string) (map[string]interface{}, error) {
	data, err := c.Get(ctx, "data/projects/"+projectID)
	if err != nil {
		return nil, err
	}
	var project map[string]interface{}
	if err := unmarshalJSON(data, &project); err != nil {
		return nil, fmt.Errorf("failed to parse project response: %w", err)
	}
	return project, nil
}

// GetProjectTaskTypes returns the task types attached to a production.
func (c *Client) GetProjectTaskTypes(ctx context.Context, projectID string) ([]TaskType, error) {
	data, err := c.Get(ctx, "data/projects/"+projectID+"/task-types")
	if err != nil {
		return nil, err
	}
	var taskTypes []TaskType
	if err := unmarshalJSON(data, &taskTypes); err != nil {
		return nil, fmt.Errorf("failed to parse task types response: %w", err)
	}
	return taskTypes, nil
}

// ListTaskStatuses returns the instance-wide task statuses.
func (c *Client) ListTaskStatuses(ctx context.Context) ([]TaskStatus, error) {
	data, err := c.Get(ctx, "data/task-status")
	if err != nil {
		return nil, err
	}
	var statuses []TaskStatus
	if err := unmarshalJSON(data, &statuses); err != nil {
		return nil, fmt.Errorf("failed to parse task statuses response: %w", err)
	}
	return statuses, nil
}
