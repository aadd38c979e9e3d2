// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/borninthedark/starbase/internal/database"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/validation"
)

// markdown renders log content. Raw HTML stays escaped so entries
// cannot inject script into the pages that embed them.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
)

// logEntryDetail is the single-entry response shape: the stored entry
// plus its rendered HTML.
type logEntryDetail struct {
	*models.LogEntry
	ContentHTML string `json:"content_html"`
}

func renderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		return ""
	}
	return buf.String()
}

// handleListLogEntries lists published entries, optionally filtered by
// ?category= and ?tag=, bounded by ?limit= (default 50).
func (rt *Router) handleListLogEntries(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !models.ValidLogCategory(category) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
		return
	}
	tag := r.URL.Query().Get("tag")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 200 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be 1-200")
			return
		}
		limit = n
	}

	entries, err := rt.deps.DB.ListPublishedLogEntries(r.Context(), category, tag, limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "listing failed")
		return
	}
	respondSuccess(w, r, entries)
}

// handleGetLogEntry returns one published entry with rendered HTML and
// bumps its view counter. The counter update is a single SQL UPDATE so
// concurrent reads never lose increments.
func (rt *Router) handleGetLogEntry(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	entry, err := rt.deps.DB.GetLogEntryBySlug(r.Context(), slug)
	if err != nil {
		rt.respondLogError(w, r, err)
		return
	}
	if entry.Status != models.LogStatusPublished {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "log entry not found")
		return
	}

	if err := rt.deps.DB.IncrementViewCount(r.Context(), slug); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("slug", slug).Msg("view count update failed")
	} else {
		entry.ViewCount++
		metrics.LogEntryViews.Inc()
	}

	respondSuccess(w, r, logEntryDetail{
		LogEntry:    entry,
		ContentHTML: renderMarkdown(entry.Content),
	})
}

func (rt *Router) handleListAllLogEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.deps.DB.ListAllLogEntries(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "listing failed")
		return
	}
	respondSuccess(w, r, entries)
}

func (rt *Router) handleCreateLogEntry(w http.ResponseWriter, r *http.Request) {
	req, ok := rt.decodeLogEntryRequest(w, r)
	if !ok {
		return
	}

	entry := &models.LogEntry{
		Slug:     req.Slug,
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		Category: req.Category,
		Status:   req.Status,
		Tags:     req.Tags,
	}
	if err := rt.deps.DB.CreateLogEntry(r.Context(), entry); err != nil {
		if errors.Is(err, database.ErrLogEntrySlugConflict) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "slug already exists")
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "create failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, models.NewSuccessResponse(entry))
}

func (rt *Router) handleUpdateLogEntry(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	req, ok := rt.decodeLogEntryRequest(w, r)
	if !ok {
		return
	}

	entry := &models.LogEntry{
		Slug:     req.Slug,
		Title:    req.Title,
		Summary:  req.Summary,
		Content:  req.Content,
		Category: req.Category,
		Status:   req.Status,
		Tags:     req.Tags,
	}
	if err := rt.deps.DB.UpdateLogEntry(r.Context(), slug, entry); err != nil {
		rt.respondLogError(w, r, err)
		return
	}

	updated, err := rt.deps.DB.GetLogEntryBySlug(r.Context(), entry.Slug)
	if err != nil {
		rt.respondLogError(w, r, err)
		return
	}
	respondSuccess(w, r, updated)
}

func (rt *Router) handleDeleteLogEntry(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := rt.deps.DB.DeleteLogEntry(r.Context(), slug); err != nil {
		rt.respondLogError(w, r, err)
		return
	}
	respondSuccess(w, r, map[string]string{"deleted": slug})
}

func (rt *Router) decodeLogEntryRequest(w http.ResponseWriter, r *http.Request) (*models.CreateLogEntryRequest, bool) {
	var req models.CreateLogEntryRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return nil, false
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, r, ve)
		return nil, false
	}
	if !models.ValidLogCategory(req.Category) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
		return nil, false
	}
	if !models.ValidLogStatus(req.Status) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unknown status")
		return nil, false
	}
	return &req, true
}

func (rt *Router) respondLogError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrLogEntryNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "log entry not found")
	case errors.Is(err, database.ErrLogEntrySlugConflict):
		respondError(w, r, http.StatusConflict, ErrCodeConflict, "slug already exists")
	default:
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "log operation failed")
	}
}
