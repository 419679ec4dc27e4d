// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package events

import (
	"context"
	"testing"
	"time"
)

func TestEntityTopic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		entityType string
		action     string
		want       string
	}{
		{"folder", ActionCreated, "entity.folder.created"},
		{"folder", ActionDeleted, "entity.folder.deleted"},
		{"task", ActionUpdated, "entity.task.updated"},
	}
	for _, tt := range tests {
		if got := EntityTopic(tt.entityType, tt.action); got != tt.want {
			t.Errorf("EntityTopic(%q, %q) = %q, want %q", tt.entityType, tt.action, got, tt.want)
		}
	}
}

func TestEventRoundTrip(t *testing.T) {
	t.Parallel()

	e := NewEntityEvent("folder", ActionCreated, "Folder sh010 created", "hub-1", "hub-parent", "demo")
	if e.ID == "" {
		t.Error("event ID not assigned")
	}

	data, err := e.Marshal()
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Topic != "entity.folder.created" || got.Project != "demo" {
		t.Errorf("round trip = %+v", got)
	}
	if got.Summary["entityId"] != "hub-1" || got.Summary["parentId"] != "hub-parent" {
		t.Errorf("Summary = %v", got.Summary)
	}
}

func TestSyncRequestEvent(t *testing.T) {
	t.Parallel()

	e := NewSyncRequestEvent("demo", "kp-1", "admin", "abc123")
	if e.Topic != TopicSyncRequest {
		t.Errorf("Topic = %q", e.Topic)
	}
	if e.Hash != "abc123" || e.User != "admin" {
		t.Errorf("event = %+v", e)
	}
	if e.Summary["kitsuProjectId"] != "kp-1" {
		t.Errorf("Summary = %v", e.Summary)
	}
}

func TestGoChannelBusPublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := NewGoChannelBus()
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx, "entity.task.created")
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	e := NewEntityEvent("task", ActionCreated, "Task animation created", "hub-t1", "hub-f1", "demo")
	if err := bus.Publish(ctx, e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case msg := <-msgs:
		got, err := Unmarshal(msg.Payload)
		if err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if got.ID != e.ID {
			t.Errorf("received event ID = %q, want %q", got.ID, e.ID)
		}
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("timed out waiting for published event")
	}
}

// failingBus rejects publishes until unblocked, for spool tests.
type failingBus struct {
	fail    bool
	entries []Event
}

func (f *failingBus) Publish(ctx context.Context, e Event) error {
	if f.fail {
		return context.DeadlineExceeded
	}
	f.entries = append(f.entries, e)
	return nil
}

func (f *failingBus) Close() error { return nil }

func TestSpoolingBusBuffersAndReplays(t *testing.T) {
	inner := &failingBus{fail: true}
	sb, err := NewSpoolingBus(inner, t.TempDir())
	if err != nil {
		t.Fatalf("NewSpoolingBus() error = %v", err)
	}
	defer sb.Close()

	ctx := context.Background()
	e1 := NewEntityEvent("folder", ActionCreated, "Folder a created", "id-1", "", "demo")
	e2 := NewEntityEvent("folder", ActionCreated, "Folder b created", "id-2", "", "demo")

	// Transport down: publishes succeed from the caller's view, events land
	// in the spool.
	if err := sb.Publish(ctx, e1); err != nil {
		t.Fatalf("Publish(e1) error = %v", err)
	}
	if err := sb.Publish(ctx, e2); err != nil {
		t.Fatalf("Publish(e2) error = %v", err)
	}
	if got := sb.Depth(); got != 2 {
		t.Fatalf("Depth() = %d, want 2", got)
	}

	// Transport back up: replay drains the spool in order.
	inner.fail = false
	sb.replayOnce()

	if got := sb.Depth(); got != 0 {
		t.Errorf("Depth() after replay = %d, want 0", got)
	}
	if len(inner.entries) != 2 {
		t.Fatalf("replayed entries = %d, want 2", len(inner.entries))
	}
	if inner.entries[0].ID != e1.ID || inner.entries[1].ID != e2.ID {
		t.Error("replay did not preserve spool order")
	}
}

func TestSpoolingBusPassthrough(t *testing.T) {
	inner := &failingBus{}
	sb, err := NewSpoolingBus(inner, t.TempDir())
	if err != nil {
		t.Fatalf("NewSpoolingBus() error = %v", err)
	}
	defer sb.Close()

	e := NewEntityEvent("task", ActionDeleted, "Task gone", "id-3", "", "demo")
	if err := sb.Publish(context.Background(), e); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if sb.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0 for healthy transport", sb.Depth())
	}
	if len(inner.entries) != 1 {
		t.Errorf("delivered entries = %d, want 1", len(inner.entries))
	}
}
