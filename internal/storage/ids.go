// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package storage

import (
	"strings"

	"github.com/google/uuid"
)

// NewEntityID returns a fresh 32-character lowercase hex entity ID.
// Hub entity IDs are UUIDs without dashes.
func NewEntityID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
