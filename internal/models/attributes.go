// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package models

import "time"

// Attributes is the hub's typed attribute schema for folders, tasks and
// projects. Pointer fields distinguish "not set" from zero values so that
// partial updates from the tracker only touch the fields they carry.
type Attributes struct {
	FPS              *float64   `json:"fps,omitempty"`
	FrameStart       *int       `json:"frameStart,omitempty"`
	FrameEnd         *int       `json:"frameEnd,omitempty"`
	Frames           *int       `json:"frames,omitempty"`
	ResolutionWidth  *int       `json:"resolutionWidth,omitempty"`
	ResolutionHeight *int       `json:"resolutionHeight,omitempty"`
	Description      *string    `json:"description,omitempty"`
	StartDate        *time.Time `json:"startDate,omitempty"`
	EndDate          *time.Time `json:"endDate,omitempty"`
}

// Apply copies every set field of src onto a and returns the names of the
// fields whose values actually changed. Change detection is field by field
// rather than deep map equality so each changed field can be logged and
// audited individually.
func (a *Attributes) Apply(src Attributes) []string {
	var changed []string

	if src.FPS != nil && (a.FPS == nil || *a.FPS != *src.FPS) {
		a.FPS = src.FPS
		changed = append(changed, "fps")
	}
	if src.FrameStart != nil && (a.FrameStart == nil || *a.FrameStart != *src.FrameStart) {
		a.FrameStart = src.FrameStart
		changed = append(changed, "frameStart")
	}
	if src.FrameEnd != nil && (a.FrameEnd == nil || *a.FrameEnd != *src.FrameEnd) {
		a.FrameEnd = src.FrameEnd
		changed = append(changed, "frameEnd")
	}
	if src.Frames != nil && (a.Frames == nil || *a.Frames != *src.Frames) {
		a.Frames = src.Frames
		changed = append(changed, "frames")
	}
	if src.ResolutionWidth != nil && (a.ResolutionWidth == nil || *a.ResolutionWidth != *src.ResolutionWidth) {
		a.ResolutionWidth = src.ResolutionWidth
		changed = append(changed, "resolutionWidth")
	}
	if src.ResolutionHeight != nil && (a.ResolutionHeight == nil || *a.ResolutionHeight != *src.ResolutionHeight) {
		a.ResolutionHeight = src.ResolutionHeight
		changed = append(changed, "resolutionHeight")
	}
	if src.Description != nil && (a.Description == nil || *a.Description != *src.Description) {
		a.Description = src.Description
		changed = append(changed, "description")
	}
	if src.StartDate != nil && (a.StartDate == nil || !a.StartDate.Equal(*src.StartDate)) {
		a.StartDate = src.StartDate
		changed = append(changed, "startDate")
	}
	if src.EndDate != nil && (a.EndDate == nil || !a.EndDate.Equal(*src.EndDate)) {
		a.EndDate = src.EndDate
		changed = append(changed, "endDate")
	}

	return changed
}

// Clone returns a deep copy of the attributes.
func (a Attributes) Clone() Attributes {
	out := Attributes{}
	if a.FPS != nil {
		v := *a.FPS
		out.FPS = &v
	}
	if a.FrameStart != nil {
		v := *a.FrameStart
		out.FrameStart = &v
	}
	if a.FrameEnd != nil {
		v := *a.FrameEnd
		out.FrameEnd = &v
	}
	if a.Frames != nil {
		v := *a.Frames
		out.Frames = &v
	}
	if a.ResolutionWidth != nil {
		v := *a.ResolutionWidth
		out.ResolutionWidth = &v
	}
	if a.ResolutionHeight != nil {
		v := *a.ResolutionHeight
		out.ResolutionHeight = &v
	}
	if a.Description != nil {
		v := *a.Description
		out.Description = &v
	}
	if a.StartDate != nil {
		v := *a.StartDate
		out.StartDate = &v
	}
	if a.EndDate != nil {
		v := *a.EndDate
		out.EndDate = &v
	}
	return out
}
