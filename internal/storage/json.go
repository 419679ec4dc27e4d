// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package storage

import (
	"fmt"

	"github.com/goccy/go-json"
)

// marshalJSON serializes v for a JSON text column, falling back to the
// given zero literal for nil values.
func marshalJSON(v interface{}, zero string) (string, error) {
	if v == nil {
		return zero, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal column value: %w", err)
	}
	return string(data), nil
}

// unmarshalColumn deserializes a JSON text column into v. Empty columns
// leave v untouched.
func unmarshalColumn(data string, v interface{}) error {
	if data == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return fmt.Errorf("failed to unmarshal column value: %w", err)
	}
	return nil
}
