// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
schema.go - Entity Store Schema Management

Tables:
  - projects: paired productions with their configurable schema
    (folder types, task types, statuses) and anatomy attributes
  - folders: hierarchy entities (episodes, sequences, shots, assets,
    edits, concepts and grouping folders)
  - tasks: work units attached to folders
  - users: synchronized tracker persons

Correlation Strategy:
The tracker identifier of synchronized rows is stored twice: inside the
entity's data JSON (kitsuId) where API consumers read it, and in a
dedicated kitsu_id column used for indexed lookups during push batches.
Both are written together and never diverge.
*/

//nolint:staticcheck // File documentation, not package doc
package storage

import "fmt"

// createTables creates the core tables and indexes.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS projects (
			name         TEXT PRIMARY KEY,
			code         TEXT NOT NULL,
			library      BOOLEAN NOT NULL DEFAULT FALSE,
			kitsu_id     TEXT,
			folder_types TEXT NOT NULL DEFAULT '[]',
			task_types   TEXT NOT NULL DEFAULT '[]',
			statuses     TEXT NOT NULL DEFAULT '[]',
			attrib       TEXT NOT NULL DEFAULT '{}',
			data         TEXT NOT NULL DEFAULT '{}',
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS folders (
			id           TEXT PRIMARY KEY,
			project_name TEXT NOT NULL,
			name         TEXT NOT NULL,
			label        TEXT,
			folder_type  TEXT NOT NULL,
			parent_id    TEXT,
			status       TEXT,
			kitsu_id     TEXT,
			attrib       TEXT NOT NULL DEFAULT '{}',
			data         TEXT NOT NULL DEFAULT '{}',
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id           TEXT PRIMARY KEY,
			project_name TEXT NOT NULL,
			name         TEXT NOT NULL,
			label        TEXT,
			task_type    TEXT NOT NULL,
			status       TEXT,
			folder_id    TEXT NOT NULL,
			assignees    TEXT NOT NULL DEFAULT '[]',
			kitsu_id     TEXT,
			attrib       TEXT NOT NULL DEFAULT '{}',
			data         TEXT NOT NULL DEFAULT '{}',
			created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			name          TEXT PRIMARY KEY,
			full_name     TEXT,
			email         TEXT,
			is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
			is_manager    BOOLEAN NOT NULL DEFAULT FALSE,
			password_hash TEXT,
			kitsu_id      TEXT,
			data          TEXT NOT NULL DEFAULT '{}',
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_projects_kitsu_id ON projects(kitsu_id)`,
		`CREATE INDEX IF NOT EXISTS idx_folders_project_kitsu ON folders(project_name, kitsu_id)`,
		`CREATE INDEX IF NOT EXISTS idx_folders_parent ON folders(parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_project_kitsu ON tasks(project_name, kitsu_id)`,
		`CREATE INDEX IF NOT EXISTS idx_tasks_folder ON tasks(folder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_users_kitsu_id ON users(kitsu_id)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
