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

// CreateTask inserts a task row. The caller assigns the ID.
func (db *DB) CreateTask(ctx context.Context, t *models.Task) error {
	assignees, err := marshalJSON(t.Assignees, "[]")
	if err != nil {
		return err
	}
	attrib, err := marshalJSON(t.Attrib, "{}")
	if err != nil {
		return err
	}
	data, err := marshalJSON(t.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO tasks (id, project_name, name, label, task_type, status, folder_id, assignees, kitsu_id, attrib, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectName, t.Name, t.Label, t.TaskType, t.Status,
		t.FolderID, assignees, nullable(t.KitsuID()), attrib, data)
	metrics.RecordDBQuery("insert", "tasks", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", t.Name, err)
	}
	return nil
}

// UpdateTask replaces the stored row for t.ID.
func (db *DB) UpdateTask(ctx context.Context, t *models.Task) error {
	assignees, err := marshalJSON(t.Assignees, "[]")
	if err != nil {
		return err
	}
	attrib, err := marshalJSON(t.Attrib, "{}")
	if err != nil {
		return err
	}
	data, err := marshalJSON(t.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE tasks
		SET name = ?, label = ?, task_type = ?, status = ?, folder_id = ?,
		    assignees = ?, kitsu_id = ?, attrib = ?, data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		t.Name, t.Label, t.TaskType, t.Status, t.FolderID,
		assignees, nullable(t.KitsuID()), attrib, data, t.ID)
	metrics.RecordDBQuery("update", "tasks", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", t.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// GetTask returns a task by ID.
func (db *DB) GetTask(ctx context.Context, id string) (*models.Task, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_name, name, label, task_type, status, folder_id, assignees, attrib, data
		FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	metrics.RecordDBQuery("select", "tasks", time.Since(start), ignoreNotFound(err))
	return t, err
}

// FindTaskByKitsuID returns the project's task correlated with the given
// Kitsu entity ID, ErrNotFound on a miss.
func (db *DB) FindTaskByKitsuID(ctx context.Context, projectName, kitsuID string) (*models.Task, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT id, project_name, name, label, task_type, status, folder_id, assignees, attrib, data
		FROM tasks WHERE project_name = ? AND kitsu_id = ?`, projectName, kitsuID)
	t, err := scanTask(row)
	metrics.RecordDBQuery("select", "tasks", time.Since(start), ignoreNotFound(err))
	return t, err
}

// DeleteTask removes a task row. Deleting a missing task is not an error;
// the caller distinguishes via the returned row count.
func (db *DB) DeleteTask(ctx context.Context, id string) (bool, error) {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	metrics.RecordDBQuery("delete", "tasks", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanTask(r rowScanner) (*models.Task, error) {
	var t models.Task
	var label, status sql.NullString
	var assignees, attrib, data string
	err := r.Scan(&t.ID, &t.ProjectName, &t.Name, &label, &t.TaskType, &status, &t.FolderID, &assignees, &attrib, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan task row: %w", err)
	}
	t.Label = label.String
	t.Status = status.String
	if err := unmarshalColumn(assignees, &t.Assignees); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(attrib, &t.Attrib); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(data, &t.Data); err != nil {
		return nil, err
	}
	if t.Data == nil {
		t.Data = map[string]string{}
	}
	return &t, nil
}
