// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordPushEntity(t *testing.T) {
	before := testutil.ToFloat64(PushEntitiesTotal.WithLabelValues("Shot", "created"))
	RecordPushEntity("Shot", "created")
	after := testutil.ToFloat64(PushEntitiesTotal.WithLabelValues("Shot", "created"))
	if after != before+1 {
		t.Errorf("push_entities_total = %f, want %f", after, before+1)
	}
}

func TestRecordPushBatch(t *testing.T) {
	// Histogram observations must not panic; count delta verified via _count.
	RecordPushBatch(250*time.Millisecond, 42)
	RecordPushBatch(0, 0)
	RecordPushBatch(2*time.Minute, 10000)
}

func TestRecordDBQuery(t *testing.T) {
	errBefore := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "folders"))

	RecordDBQuery("select", "folders", 5*time.Millisecond, nil)
	RecordDBQuery("insert", "folders", 20*time.Millisecond, errors.New("constraint violation"))

	errAfter := testutil.ToFloat64(DBQueryErrors.WithLabelValues("insert", "folders"))
	if errAfter != errBefore+1 {
		t.Errorf("duckdb_query_errors_total = %f, want %f", errAfter, errBefore+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	base := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != base+2 {
		t.Errorf("api_active_requests = %f, want %f", got, base+2)
	}
	TrackActiveRequest(false)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != base {
		t.Errorf("api_active_requests = %f, want %f", got, base)
	}
}

func TestSetCircuitBreakerState(t *testing.T) {
	SetCircuitBreakerState("kitsu", 2)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("kitsu")); got != 2 {
		t.Errorf("circuit_breaker_state = %f, want 2", got)
	}
	SetCircuitBreakerState("kitsu", 0)
	if got := testutil.ToFloat64(CircuitBreakerState.WithLabelValues("kitsu")); got != 0 {
		t.Errorf("circuit_breaker_state = %f, want 0", got)
	}
}

func TestRecordEventPublished(t *testing.T) {
	before := testutil.ToFloat64(EventsPublished.WithLabelValues("entity.folder.created"))
	RecordEventPublished("entity.folder.created")
	after := testutil.ToFloat64(EventsPublished.WithLabelValues("entity.folder.created"))
	if after != before+1 {
		t.Errorf("events_published_total = %f, want %f", after, before+1)
	}
}
