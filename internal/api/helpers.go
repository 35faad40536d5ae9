// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package api implements the HTTP surface: router, middleware wiring, and the
// authentication and notes handlers. Every response uses the APIResponse
// envelope.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/models"
	"github.com/jotstack/jotstack/internal/validation"
)

// maxBodySize caps request bodies. Largest legitimate payload is a note with
// full content and tags, well under this.
const maxBodySize = 64 * 1024

// respondJSON writes a success envelope.
func respondJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	writeEnvelope(w, status, models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondError writes a failure envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	writeEnvelope(w, status, models.APIResponse{
		Success: false,
		Message: message,
	})
}

// respondValidation writes a 400 with field-level errors.
func respondValidation(w http.ResponseWriter, verr *validation.RequestValidationError) {
	writeEnvelope(w, http.StatusBadRequest, models.APIResponse{
		Success: false,
		Message: "Validation failed",
		Errors:  verr.FieldErrors(),
	})
}

func writeEnvelope(w http.ResponseWriter, status int, body models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error().Err(err).Msg("api: write response")
	}
}

// decodeJSON parses and validates a request body into req. On failure it
// writes the error response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodySize)
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		respondError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return false
	}

	if verr := validation.ValidateStruct(req); verr != nil {
		respondValidation(w, verr)
		return false
	}
	return true
}
