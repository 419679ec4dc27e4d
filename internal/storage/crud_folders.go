// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/studiopipe/kitsubridge/internal/metrics"
	"github.com/studiopipe/kitsubridge/internal/models"
)

// CreateFolder inserts a folder row. The caller assigns the ID.
func (db *DB) CreateFolder(ctx context.Context, f *models.Folder) error {
	attrib, err := marshalJSON(f.Attrib, "{}")
	if err != nil {
		return err
	}
	data, err := marshalJSON(f.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO folders (id, project_name, name, label, folder_type, parent_id, status, kitsu_id, attrib, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.ProjectName, f.Name, f.Label, f.FolderType,
		nullable(f.ParentID), f.Status, nullable(f.KitsuID()), attrib, data)
	metrics.RecordDBQuery("insert", "folders", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert folder %s: %w", f.Name, err)
	}
	return nil
}

// UpdateFolder replaces the stored row for f.ID.
func (db *DB) UpdateFolder(ctx context.Context, f *models.Folder) error {
	attrib, err := marshalJSON(f.Attrib, "{}")
	if err != nil {
		return err
	}
	data, err := marshalJSON(f.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE folders
		SET name = ?, label = ?, folder_type = ?, parent_id = ?, status = ?,
		    kitsu_id = ?, attrib = ?, data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		f.Name, f.Label, f.FolderType, nullable(f.ParentID), f.Status,
		nullable(f.KitsuID()), attrib, data, f.ID)
	metrics.RecordDBQuery("update", "folders", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update folder %s: %w", f.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("folder %s: %w", f.ID, ErrNotFound)
	}
	return nil
}

// GetFolder returns a folder by ID.
func (db *DB) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_name, name, label, folder_type, parent_id, status, attrib, data
		FROM folders WHERE id = ?`, id)
	f, err := scanFolder(row)
	metrics.RecordDBQuery("select", "folders", time.Since(start), ignoreNotFound(err))
	return f, err
}

// FindFolderByKitsuID returns the project's folder correlated with the
// given Kitsu entity ID, ErrNotFound on a miss.
func (db *DB) FindFolderByKitsuID(ctx context.Context, projectName, kitsuID string) (*models.Folder, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_name, name, label, folder_type, parent_id, status, attrib, data
		FROM folders WHERE project_name = ? AND kitsu_id = ?`, projectName, kitsuID)
	f, err := scanFolder(row)
	metrics.RecordDBQuery("select", "folders", time.Since(start), ignoreNotFound(err))
	return f, err
}

// FindFolderByTypeAndName returns a folder matched by type and exact name
// under the given parent ("" for project roots). Used to locate and reuse
// grouping folders.
func (db *DB) FindFolderByTypeAndName(ctx context.Context, projectName, folderType, name, parentID string) (*models.Folder, error) {
	start := time.Now()
	var row *sql.Row
	if parentID == "" {
		row = db.conn.QueryRowContext(ctx, `
			SELECT id, project_name, name, label, folder_type, parent_id, status, attrib, data
			FROM folders
			WHERE project_name = ? AND folder_type = ? AND name = ? AND parent_id IS NULL`,
			projectName, folderType, name)
	} else {
		row = db.conn.QueryRowContext(ctx, `
			SELECT id, project_name, name, label, folder_type, parent_id, status, attrib, data
			FROM folders
			WHERE project_name = ? AND folder_type = ? AND name = ? AND parent_id = ?`,
			projectName, folderType, name, parentID)
	}
	f, err := scanFolder(row)
	metrics.RecordDBQuery("select", "folders", time.Since(start), ignoreNotFound(err))
	return f, err
}

// DeleteFolder removes a folder together with its entire subtree: all
// descendant folders and every task attached to any of them.
func (db *DB) DeleteFolder(ctx context.Context, id string) error {
	start := time.Now()
	// Recursive CTE gathers the subtree in one round trip.
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM tasks WHERE folder_id IN (
			WITH RECURSIVE subtree(id) AS (
				SELECT id FROM folders WHERE id = ?
				UNION ALL
				SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
			)
			SELECT id FROM subtree
		)`, id)
	if err == nil {
		_, err = db.conn.ExecContext(ctx, `
			DELETE FROM folders WHERE id IN (
				WITH RECURSIVE subtree(id) AS (
					SELECT id FROM folders WHERE id = ?
					UNION ALL
					SELECT f.id FROM folders f JOIN subtree s ON f.parent_id = s.id
				)
				SELECT id FROM subtree
			)`, id)
	}
	metrics.RecordDBQuery("delete", "folders", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to delete folder %s: %w", id, err)
	}
	return nil
}

func scanFolder(r rowScanner) (*models.Folder, error) {
	var f models.Folder
	var label, parentID, status sql.NullString
	var attrib, data string
	err := r.Scan(&f.ID, &f.ProjectName, &f.Name, &label, &f.FolderType, &parentID, &status, &attrib, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder row: %w", err)
	}
	f.Label = label.String
	f.ParentID = parentID.String
	f.Status = status.String
	if err := unmarshalColumn(attrib, &f.Attrib); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(data, &f.Data); err != nil {
		return nil, err
	}
	if f.Data == nil {
		f.Data = map[string]string{}
	}
	return &f, nil
}

// nullable converts "" to NULL for optional text columns.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
