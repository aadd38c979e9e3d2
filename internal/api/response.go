// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package api is the HTTP surface: the chi router, the JSON handlers
// under /api/v1 and the shared response helpers.
package api

import (
	"fmt"
	"hash/fnv"
	"io"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/validation"
)

// Error codes used in the response envelope.
const (
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeAuthentication = "AUTHENTICATION_ERROR"
	ErrCodeAuthorization  = "AUTHORIZATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeRateLimit      = "RATE_LIMIT_EXCEEDED"
	ErrCodeDatabase       = "DATABASE_ERROR"
	ErrCodeUpstream       = "UPSTREAM_UNAVAILABLE"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeInternal       = "INTERNAL_ERROR"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20

// respondJSON writes the envelope. GET responses carry a weak FNV-1a
// ETag; a matching If-None-Match short-circuits to 304 with no body.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, resp models.APIResponse) {
	body, err := json.Marshal(resp)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("response marshal failed")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"INTERNAL_ERROR","message":"encoding failure"}}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if r.Method == http.MethodGet && status == http.StatusOK {
		etag := computeETag(resp.Data, body)
		w.Header().Set("ETag", etag)
		if match := r.Header.Get("If-None-Match"); match != "" && match == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// computeETag hashes the data payload with FNV-1a, marked weak.
// Metadata stamps a fresh timestamp into every envelope, so hashing
// the whole body would never produce a repeat tag; only the payload
// participates. Falls back to the encoded envelope when there is no
// payload or it fails to encode.
func computeETag(data interface{}, body []byte) string {
	input := body
	if data != nil {
		if encoded, err := json.Marshal(data); err == nil {
			input = encoded
		}
	}
	h := fnv.New64a()
	_, _ = h.Write(input)
	return fmt.Sprintf(`W/"%x"`, h.Sum64())
}

// respondSuccess writes a 200 success envelope.
func respondSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	respondJSON(w, r, http.StatusOK, models.NewSuccessResponse(data))
}

// respondError writes an error envelope.
func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, models.NewErrorResponse(code, message))
}

// respondValidationError writes a 400 with per-field details.
func respondValidationError(w http.ResponseWriter, r *http.Request, ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	resp := models.NewErrorResponse(apiErr.Code, apiErr.Message)
	resp.Error.Details = apiErr.Details
	respondJSON(w, r, http.StatusBadRequest, resp)
}

// decodeJSON reads a bounded JSON body into out.
func decodeJSON(r *http.Request, out interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		return fmt.Errorf("reading request body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding request body: %w", err)
	}
	return nil
}
