// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package sync

// Outcome is the terminal state of one entity within one push call.
type Outcome string

const (
	// OutcomeCreated: the entity did not exist and was created.
	OutcomeCreated Outcome = "created"
	// OutcomeUpdated: the entity existed and at least one field changed.
	OutcomeUpdated Outcome = "updated"
	// OutcomeUnchanged: the entity existed and nothing differed.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeSkipped: a declared parent could not be resolved.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeIgnored: the entity kind is not supported.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeFailed: an unexpected storage or bus error; logged and
	// counted but never aborts the rest of the batch.
	OutcomeFailed Outcome = "failed"
)

// BatchContext carries the correlation caches for exactly one push or
// remove call. Later entities in a batch may name earlier ones as
// parents before storage has been re-queried, so every create writes
// its new hub ID back into the context immediately. The context is
// owned by the orchestrator and must never outlive the call.
type BatchContext struct {
	// Folders maps Kitsu entity IDs (and bucket sentinels) to hub
	// folder IDs.
	Folders map[string]string
	// Tasks maps Kitsu task IDs to hub task IDs.
	Tasks map[string]string
	// Users maps Kitsu person IDs to hub user names.
	Users map[string]string
}

// NewBatchContext returns an empty context for one call.
func NewBatchContext() *BatchContext {
	return &BatchContext{
		Folders: map[string]string{},
		Tasks:   map[string]string{},
		Users:   map[string]string{},
	}
}
