// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"net/http"
	"strconv"
)

// handleListContactMessages returns the most recent contact messages,
// newest first.
func (rt *Router) handleListContactMessages(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 500 {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}

	msgs, err := rt.deps.DB.ListRecentContactMessages(r.Context(), limit)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "listing messages failed")
		return
	}
	respondSuccess(w, r, msgs)
}

// handleListUsers returns every account. Password hashes are excluded
// at the model level.
func (rt *Router) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := rt.deps.DB.ListUsers(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "listing users failed")
		return
	}
	respondSuccess(w, r, users)
}
