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

// CreateUser inserts a user row keyed by username.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	data, err := marshalJSON(u.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO users (name, full_name, email, is_admin, is_manager, password_hash, kitsu_id, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Name, u.FullName, u.Email, u.IsAdmin, u.IsManager,
		nullable(u.PasswordHash), nullable(u.KitsuID()), data)
	metrics.RecordDBQuery("insert", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert user %s: %w", u.Name, err)
	}
	return nil
}

// UpdateUser replaces the stored row for u.Name. The password hash is
// only overwritten when the model carries one.
func (db *DB) UpdateUser(ctx context.Context, u *models.User) error {
	data, err := marshalJSON(u.Data, "{}")
	if err != nil {
		return err
	}

	start := time.Now()
	var res sql.Result
	if u.PasswordHash != "" {
		res, err = db.conn.ExecContext(ctx, `
			UPDATE users
			SET full_name = ?, email = ?, is_admin = ?, is_manager = ?,
			    password_hash = ?, kitsu_id = ?, data = ?, updated_at = CURRENT_TIMESTAMP
			WHERE name = ?`,
			u.FullName, u.Email, u.IsAdmin, u.IsManager,
			u.PasswordHash, nullable(u.KitsuID()), data, u.Name)
	} else {
		res, err = db.conn.ExecContext(ctx, `
			UPDATE users
			SET full_name = ?, email = ?, is_admin = ?, is_manager = ?,
			    kitsu_id = ?, data = ?, updated_at = CURRENT_TIMESTAMP
			WHERE name = ?`,
			u.FullName, u.Email, u.IsAdmin, u.IsManager,
			nullable(u.KitsuID()), data, u.Name)
	}
	metrics.RecordDBQuery("update", "users", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", u.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %s: %w", u.Name, ErrNotFound)
	}
	return nil
}

// GetUser returns a user by name.
func (db *DB) GetUser(ctx context.Context, name string) (*models.User, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT name, full_name, email, is_admin, is_manager, password_hash, data
		FROM users WHERE name = ?`, name)
	u, err := scanUser(row)
	metrics.RecordDBQuery("select", "users", time.Since(start), ignoreNotFound(err))
	return u, err
}

// FindUserByKitsuID returns the user correlated with a Kitsu person ID.
func (db *DB) FindUserByKitsuID(ctx context.Context, kitsuID string) (*models.User, error) {
	start := time.Now()
	row := db.conn.QueryRowContext(ctx, `
		SELECT name, full_name, email, is_admin, is_manager, password_hash, data
		FROM users WHERE kitsu_id = ?`, kitsuID)
	u, err := scanUser(row)
	metrics.RecordDBQuery("select", "users", time.Since(start), ignoreNotFound(err))
	return u, err
}

// DeleteUser removes a user row, reporting whether it existed.
func (db *DB) DeleteUser(ctx context.Context, name string) (bool, error) {
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM users WHERE name = ?`, name)
	metrics.RecordDBQuery("delete", "users", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to delete user %s: %w", name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanUser(r rowScanner) (*models.User, error) {
	var u models.User
	var fullName, email, passwordHash sql.NullString
	var data string
	err := r.Scan(&u.Name, &fullName, &email, &u.IsAdmin, &u.IsManager, &passwordHash, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	u.FullName = fullName.String
	u.Email = email.String
	u.PasswordHash = passwordHash.String
	if err := unmarshalColumn(data, &u.Data); err != nil {
		return nil, err
	}
	if u.Data == nil {
		u.Data = map[string]string{}
	}
	return &u, nil
}
