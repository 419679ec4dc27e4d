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

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("not found")

// CreateProject inserts a new project record.
func (db *DB) CreateProject(ctx context.Context, p *models.Project) error {
	folderTypes, err := marshalJSON(p.FolderTypes, "[]")
	if err != nil {
		return err
	}
	taskTypes, err := marshalJSON(p.TaskTypes, "[]")
	if err != nil {
		return err
	}
	statuses, err := marshalJSON(p.Statuses, "[]")
	if err != nil {
		return err
	}
	attrib, err := marshalJSON(p.Attrib, "{}")
	if err != nil {
		return err
	}
	data, err := marshalJSON(p.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO projects (name, code, library, kitsu_id, folder_types, task_types, statuses, attrib, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Code, p.Library, p.KitsuProjectID(), folderTypes, taskTypes, statuses, attrib, data)
	metrics.RecordDBQuery("insert", "projects", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert project %s: %w", p.Name, err)
	}
	return nil
}

// UpdateProject replaces the stored record for p.Name.
func (db *DB) UpdateProject(ctx context.Context, p *models.Project) error {
	folderTypes, err := marshalJSON(p.FolderTypes, "[]")
	if err != nil {
		return err
	}
	taskTypes, err := marshalJSON(p.TaskTypes, "[]")
	if err != nil {
		return err
	}
	statuses, err := marshalJSON(p.Statuses, "[]")
	if err != nil {
		return err
	}
	attrib, err := marshalJSON(p.Attrib, "{}")
	if err != nil {
		return err
	}
	data, err := marshalJSON(p.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `
		UPDATE projects
		SET code = ?, library = ?, kitsu_id = ?, folder_types = ?, task_types = ?,
		    statuses = ?, attrib = ?, data = ?, updated_at = CURRENT_TIMESTAMP
		WHERE name = ?`,
		p.Code, p.Library, p.KitsuProjectID(), folderTypes, taskTypes, statuses, attrib, data, p.Name)
	metrics.RecordDBQuery("update", "projects", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update project %s: %w", p.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("project %s: %w", p.Name, ErrNotFound)
	}
	return nil
}

// GetProject returns a project by name, ErrNotFound when missing.
func (db *DB) GetProject(ctx context.Context, name string) (*models.Project, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT name, code, library, folder_types, task_types, statuses, attrib, data
		FROM projects WHERE name = ?`, name)
	p, err := scanProject(row)
	metrics.RecordDBQuery("select", "projects", time.Since(start), ignoreNotFound(err))
	return p, err
}

// GetProjectByKitsuID returns the project paired with the given Kitsu
// project ID, ErrNotFound when no pairing exists.
func (db *DB) GetProjectByKitsuID(ctx context.Context, kitsuProjectID string) (*models.Project, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT name, code, library, folder_types, task_types, statuses, attrib, data
		FROM projects WHERE kitsu_id = ?`, kitsuProjectID)
	p, err := scanProject(row)
	metrics.RecordDBQuery("select", "projects", time.Since(start), ignoreNotFound(err))
	return p, err
}

// ListProjects returns all project records.
func (db *DB) ListProjects(ctx context.Context) ([]*models.Project, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, code, library, folder_types, task_types, statuses, attrib, data
		FROM projects ORDER BY name`)
	metrics.RecordDBQuery("select", "projects", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(r rowScanner) (*models.Project, error) {
	var p models.Project
	var folderTypes, taskTypes, statuses, attrib, data string
	err := r.Scan(&p.Name, &p.Code, &p.Library, &folderTypes, &taskTypes, &statuses, &attrib, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project row: %w", err)
	}
	if err := unmarshalColumn(folderTypes, &p.FolderTypes); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(taskTypes, &p.TaskTypes); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(statuses, &p.Statuses); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(attrib, &p.Attrib); err != nil {
		return nil, err
	}
	if err := unmarshalColumn(data, &p.Data); err != nil {
		return nil, err
	}
	if p.Data == nil {
		p.Data = map[string]string{}
	}
	return &p, nil
}

// ignoreNotFound keeps ErrNotFound out of the query error metric; a miss
// is a normal outcome for correlation lookups.
func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
