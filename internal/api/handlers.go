// Kitsubridge - Kitsu to AYON Production Tracking Sync Bridge
// Copyright 2026 Studiopipe
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/studiopipe/kitsubridge

/*
handlers.go - HTTP Handlers

One handler per endpoint. Handlers decode and validate the payload,
delegate to the sync service and translate its sentinel errors to
response statuses. Batch endpoints return 200 with a result map even
when individual entities were skipped; only structural failures (bad
project, tracker auth, conflicts) produce non-200 responses.
*/

//nolint:staticcheck // File documentation, not package doc
package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/studiopipe/kitsubridge/internal/kitsu"
	"github.com/studiopipe/kitsubridge/internal/logging"
	"github.com/studiopipe/kitsubridge/internal/models"
	syncengine "github.com/studiopipe/kitsubridge/internal/sync"
)

// maxRequestBodySize caps push payloads; batches beyond this should be
// split by the caller.
const maxRequestBodySize = 32 << 20 // 32 MB

// Handler serves the bridge's JSON endpoints.
type Handler struct {
	svc      *syncengine.Service
	health   func() error
	validate *validator.Validate
}

// NewHandler creates the endpoint handler set. health is called by the
// health endpoint and should ping the storage layer.
func NewHandler(svc *syncengine.Service, health func() error) *Handler {
	return &Handler{
		svc:      svc,
		health:   health,
		validate: validator.New(),
	}
}

// HandleHealth reports liveness and storage reachability.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.health != nil {
		if err := h.health(); err != nil {
			rw.Error(http.StatusServiceUnavailable, ErrCodeInternalError, "storage unavailable")
			return
		}
	}
	rw.Success(map[string]string{"status": "ok"})
}

// HandlePush accepts a batch of tracker entities and reconciles them
// against the named project.
func (h *Handler) HandlePush(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.PushRequest
	if !h.decode(rw, r, &req) {
		return
	}

	result, err := h.svc.Push(r.Context(), req)
	if err != nil {
		h.writeServiceError(rw, r, err)
		return
	}
	rw.Success(result)
}

// HandleRemove deletes the hub counterparts of the given entities.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.RemoveRequest
	if !h.decode(rw, r, &req) {
		return
	}

	result, err := h.svc.Remove(r.Context(), req)
	if err != nil {
		h.writeServiceError(rw, r, err)
		return
	}
	rw.Success(result)
}

// HandlePairingList correlates Kitsu projects with hub projects.
func (h *Handler) HandlePairingList(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	items, err := h.svc.PairingList(r.Context())
	if err != nil {
		h.writeServiceError(rw, r, err)
		return
	}
	rw.Success(items)
}

// HandleInitPairing creates a hub project paired with a Kitsu project.
func (h *Handler) HandleInitPairing(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.PairRequest
	if !h.decode(rw, r, &req) {
		return
	}

	project, err := h.svc.InitPairing(r.Context(), req)
	if err != nil {
		h.writeServiceError(rw, r, err)
		return
	}
	rw.Created(project)
}

// decode reads, unmarshals and validates a JSON request body. It
// writes the error response itself and reports success.
func (h *Handler) decode(rw *ResponseWriter, r *http.Request, v interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize))
	if err != nil {
		rw.BadRequest("failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		rw.BadRequest(fmt.Sprintf("invalid JSON: %v", err))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidationFailed,
			"request validation failed", validationDetails(err))
		return false
	}
	return true
}

// validationDetails flattens validator errors into field -> constraint.
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
	}
	return details
}

// writeServiceError maps sync service errors to response statuses.
func (h *Handler) writeServiceError(rw *ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, syncengine.ErrProjectNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, syncengine.ErrPairingConflict):
		rw.Conflict(err.Error())
	case errors.Is(err, kitsu.ErrLogin):
		rw.BadGateway("tracker authentication failed")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
		rw.InternalError("internal error")
	}
}
