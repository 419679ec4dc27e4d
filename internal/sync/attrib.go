// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

package sync

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/studiopipe/kitsubridge/internal/models"
)

// ParseAttrib translates the tracker's loosely typed attribute bag into
// typed hub attributes. Tolerant by design: unrecognized keys are
// dropped and per-key parse failures are ignored without failing the
// rest of the mapping, because tracker data is inconsistently typed
// (fps arrives as "25", 25 or "29.97" depending on the producer).
//
// A nested "data" sub-mapping is merged first, so top-level keys win
// over custom metadata with the same name.
func ParseAttrib(source map[string]interface{}) models.Attributes {
	var result models.Attributes
	if source == nil {
		return result
	}

	if nested, ok := source["data"].(map[string]interface{}); ok {
		result = ParseAttrib(nested)
	}

	for key, value := range source {
		switch key {
		case "fps":
			if f, ok := toFloat(value); ok {
				result.FPS = &f
			}
		case "frame_in":
			if n, ok := toInt(value); ok {
				result.FrameStart = &n
			}
		case "frame_out":
			if n, ok := toInt(value); ok {
				result.FrameEnd = &n
			}
		case "nb_frames":
			if n, ok := toInt(value); ok {
				result.Frames = &n
			}
		case "resolution":
			if w, h, ok := parseResolution(value); ok {
				result.ResolutionWidth = &w
				result.ResolutionHeight = &h
			}
		case "description":
			if s, ok := value.(string); ok {
				result.Description = &s
			}
		case "start_date":
			if ts, ok := parseDate(value); ok {
				result.StartDate = &ts
			}
		case "end_date":
			if ts, ok := parseDate(value); ok {
				result.EndDate = &ts
			}
		}
	}
	return result
}

// CalculateEndFrame derives frameEnd for an entity. An explicit
// frame_out always wins. Otherwise nb_frames is added to the entity's
// frame_in, falling back to fallbackStart (the target folder's own
// frameStart on update, the parent's on create) when the entity carries
// no frame_in. Entities with no data at all (concepts) yield nil.
func CalculateEndFrame(entity *models.ExternalEntity, fallbackStart *int) *int {
	if entity == nil || entity.Data == nil {
		return nil
	}

	if out, ok := toInt(entity.Data["frame_out"]); ok && out != 0 {
		return &out
	}

	nbFrames := 0
	if entity.NbFrames != nil {
		nbFrames = *entity.NbFrames
	} else if n, ok := toInt(entity.Data["nb_frames"]); ok {
		nbFrames = n
	}
	if nbFrames == 0 {
		return nil
	}

	var frameStart *int
	if start, ok := toInt(entity.Data["frame_in"]); ok {
		frameStart = &start
	} else {
		frameStart = fallbackStart
	}
	if frameStart == nil {
		return nil
	}

	end := *frameStart + nbFrames
	return &end
}

// toFloat accepts float64, int and numeric strings.
func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toInt accepts integers, float64 holding a whole number (the JSON
// decoder's default for numbers), and numeric strings.
func toInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// parseResolution parses "WxH" strings, e.g. "1920x1080".
func parseResolution(value interface{}) (w, h int, ok bool) {
	s, isStr := value.(string)
	if !isStr {
		return 0, 0, false
	}
	parts := strings.SplitN(s, "x", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	h, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// parseDate converts a date-only tracker string into a timestamp at
// midnight UTC.
func parseDate(value interface{}) (time.Time, bool) {
	s, ok := value.(string)
	if !ok || s == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, fmt.Sprintf("%sT00:00:00Z", s))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
