// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package models

// DataKitsuID is the key under which every synced hub entity records the
// Kitsu ID that produced it. It is the only correlation key between the
// two systems; there is no separate mapping table.
const DataKitsuID = "kitsuId"

// DataKitsuProjectID is the project-record key pairing a hub project with
// its Kitsu counterpart.
const DataKitsuProjectID = "kitsuProjectId"

// Folder is a hub folder. Name is the validated slug, Label preserves the
// tracker's display name verbatim.
type Folder struct {
	ID          string            `json:"id"`
	ProjectName string            `json:"projectName"`
	Name        string            `json:"name"`
	Label       string            `json:"label,omitempty"`
	FolderType  string            `json:"folderType"`
	ParentID    string            `json:"parentId,omitempty"`
	Status      string            `json:"status,omitempty"`
	Attrib      Attributes        `json:"attrib"`
	Data        map[string]string `json:"data"`
}

// KitsuID returns the folder's correlation key, empty for folders the
// bridge did not create.
func (f *Folder) KitsuID() string {
	return f.Data[DataKitsuID]
}

// Task is a hub task. Its parent is always a Folder, never another task
// and never a synthetic bucket.
type Task struct {
	ID          string            `json:"id"`
	ProjectName string            `json:"projectName"`
	Name        string            `json:"name"`
	Label       string            `json:"label,omitempty"`
	TaskType    string            `json:"taskType"`
	Status      string            `json:"status,omitempty"`
	Assignees   []string          `json:"assignees,omitempty"`
	FolderID    string            `json:"folderId"`
	Attrib      Attributes        `json:"attrib"`
	Data        map[string]string `json:"data"`
}

// KitsuID returns the task's correlation key.
func (t *Task) KitsuID() string {
	return t.Data[DataKitsuID]
}

// FolderType is one entry in a project's folder type enumeration.
type FolderType struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
	Icon      string `json:"icon,omitempty"`
}

// TaskType is one entry in a project's task type enumeration.
type TaskType struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
}

// Status is one entry in a project's status enumeration.
// State is one of not_started, in_progress, done, blocked.
type Status struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName,omitempty"`
	State     string `json:"state,omitempty"`
	Color     string `json:"color,omitempty"`
}

// Project is a hub project record including its anatomy enumerations.
// Folder and task creation is referentially validated against the
// enumerations, which is why the auto-provisioner must extend them before
// the dependent create runs.
type Project struct {
	Name        string            `json:"name"`
	Code        string            `json:"code"`
	Library     bool              `json:"library"`
	FolderTypes []FolderType      `json:"folderTypes"`
	TaskTypes   []TaskType        `json:"taskTypes"`
	Statuses    []Status          `json:"statuses"`
	Attrib      Attributes        `json:"attrib"`
	Data        map[string]string `json:"data"`
}

// KitsuProjectID returns the paired Kitsu project ID, empty if unpaired.
func (p *Project) KitsuProjectID() string {
	return p.Data[DataKitsuProjectID]
}

// HasFolderType reports whether the enumeration contains the named type.
// Matching is case-sensitive and exact, mirroring the hub's validation.
func (p *Project) HasFolderType(name string) bool {
	for _, ft := range p.FolderTypes {
		if ft.Name == name {
			return true
		}
	}
	return false
}

// HasTaskType reports whether the enumeration contains the named type.
func (p *Project) HasTaskType(name string) bool {
	for _, tt := range p.TaskTypes {
		if tt.Name == name {
			return true
		}
	}
	return false
}

// HasStatus reports whether the enumeration contains the named status.
func (p *Project) HasStatus(name string) bool {
	for _, s := range p.Statuses {
		if s.Name == name {
			return true
		}
	}
	return false
}

// User is a hub user account synced from a Kitsu person.
type User struct {
	Name         string            `json:"name"`
	FullName     string            `json:"fullName,omitempty"`
	Email        string            `json:"email,omitempty"`
	IsAdmin      bool              `json:"isAdmin"`
	IsManager    bool              `json:"isManager"`
	PasswordHash string            `json:"-"`
	Data         map[string]string `json:"data"`
}

// KitsuID returns the user's correlation key.
func (u *User) KitsuID() string {
	return u.Data[DataKitsuID]
}
