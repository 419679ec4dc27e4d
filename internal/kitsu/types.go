// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package kitsu

// Wire types for the Kitsu REST API (Zou). Only the fields the bridge
// reads are declared; the API returns many more.

// Project is a Kitsu production as returned by GET /api/data/projects.
type Project struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Code            string `json:"code"`
	Resolution      string `json:"resolution"`
	FPS             string `json:"fps"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	ProjectStatusID string `json:"project_status_id"`
}

// TaskType is a Kitsu task type as returned by
// GET /api/data/projects/{id}/task-types.
type TaskType struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Color     string `json:"color"`
	Priority  int    `json:"priority"`
	ForEntity string `json:"for_entity"`
	Archived  bool   `json:"archived"`
}

// TaskStatus is a Kitsu task status as returned by GET /api/data/task-status.
type TaskStatus struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
	Color     string `json:"color"`
	IsDone    bool   `json:"is_done"`
	IsRetake  bool   `json:"is_retake"`
	IsDefault bool   `json:"is_default"`
	Archived  bool   `json:"archived"`
}

// loginResponse is the body of POST /api/auth/login.
type loginResponse struct {
	AccessToken string `json:"access_token"`
}
