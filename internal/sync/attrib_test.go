// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package sync

import (
	"testing"
	"time"

	"github.com/studiopipe/kitsubridge/internal/models"
)

func TestParseAttribConversions(t *testing.T) {
	t.Parallel()

	attrib := ParseAttrib(map[string]interface{}{
		"fps":         "25",
		"frame_in":    "1001",
		"frame_out":   float64(1101),
		"nb_frames":   100,
		"resolution":  "1920x1080",
		"description": "opening shot",
		"start_date":  "2026-03-01",
		"end_date":    "2026-04-15",
		"unknown":     "dropped",
	})

	if attrib.FPS == nil || *attrib.FPS != 25.0 {
		t.Errorf("FPS = %v, want 25", attrib.FPS)
	}
	if attrib.FrameStart == nil || *attrib.FrameStart != 1001 {
		t.Errorf("FrameStart = %v, want 1001", attrib.FrameStart)
	}
	if attrib.FrameEnd == nil || *attrib.FrameEnd != 1101 {
		t.Errorf("FrameEnd = %v, want 1101", attrib.FrameEnd)
	}
	if attrib.Frames == nil || *attrib.Frames != 100 {
		t.Errorf("Frames = %v, want 100", attrib.Frames)
	}
	if attrib.ResolutionWidth == nil || *attrib.ResolutionWidth != 1920 {
		t.Errorf("ResolutionWidth = %v, want 1920", attrib.ResolutionWidth)
	}
	if attrib.ResolutionHeight == nil || *attrib.ResolutionHeight != 1080 {
		t.Errorf("ResolutionHeight = %v, want 1080", attrib.ResolutionHeight)
	}
	if attrib.Description == nil || *attrib.Description != "opening shot" {
		t.Errorf("Description = %v, want opening shot", attrib.Description)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if attrib.StartDate == nil || !attrib.StartDate.Equal(want) {
		t.Errorf("StartDate = %v, want %v", attrib.StartDate, want)
	}
}

func TestParseAttribTolerance(t *testing.T) {
	t.Parallel()

	// Malformed keys are dropped, valid ones kept.
	attrib := ParseAttrib(map[string]interface{}{
		"resolution": "invalid",
		"fps":        "25",
	})

	if attrib.ResolutionWidth != nil || attrib.ResolutionHeight != nil {
		t.Error("malformed resolution should be dropped")
	}
	if attrib.FPS == nil || *attrib.FPS != 25.0 {
		t.Errorf("FPS = %v, want 25", attrib.FPS)
	}

	empty := ParseAttrib(nil)
	if empty.FPS != nil || empty.FrameStart != nil {
		t.Error("nil source should yield empty attributes")
	}
}

func TestParseAttribNestedData(t *testing.T) {
	t.Parallel()

	attrib := ParseAttrib(map[string]interface{}{
		"fps": "24",
		"data": map[string]interface{}{
			"fps":      "30",
			"frame_in": 1,
		},
	})

	// Top-level keys win over nested custom metadata.
	if attrib.FPS == nil || *attrib.FPS != 24.0 {
		t.Errorf("FPS = %v, want 24", attrib.FPS)
	}
	if attrib.FrameStart == nil || *attrib.FrameStart != 1 {
		t.Errorf("FrameStart = %v, want 1", attrib.FrameStart)
	}
}

func TestCalculateEndFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		entity   *models.ExternalEntity
		fallback *int
		want     *int
	}{
		{
			name:   "no data yields nil",
			entity: &models.ExternalEntity{},
		},
		{
			name: "explicit frame_out wins",
			entity: &models.ExternalEntity{
				NbFrames: intPtr(50),
				Data:     map[string]interface{}{"frame_out": 120, "frame_in": 1},
			},
			want: intPtr(120),
		},
		{
			name: "derived from frame_in plus nb_frames",
			entity: &models.ExternalEntity{
				NbFrames: intPtr(100),
				Data:     map[string]interface{}{"frame_in": "0"},
			},
			want: intPtr(100),
		},
		{
			name: "fallback start when entity has none",
			entity: &models.ExternalEntity{
				NbFrames: intPtr(24),
				Data:     map[string]interface{}{},
			},
			fallback: intPtr(1001),
			want:     intPtr(1025),
		},
		{
			name: "no start anywhere yields nil",
			entity: &models.ExternalEntity{
				NbFrames: intPtr(24),
				Data:     map[string]interface{}{},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := CalculateEndFrame(tt.entity, tt.fallback)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("got nil, want %d", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("got %d, want %d", *got, *tt.want)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
