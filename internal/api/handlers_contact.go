// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"net/http"

	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/validation"
)

// handleContact persists the message first, then attempts SMTP
// delivery. A failed send is logged but never surfaces to the sender;
// the stored row keeps delivered=false for later retry.
func (rt *Router) handleContact(w http.ResponseWriter, r *http.Request) {
	var req models.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, r, ve)
		return
	}

	msg := &models.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Body:    req.Body,
	}
	if err := rt.deps.DB.CreateContactMessage(r.Context(), msg); err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "storing message failed")
		return
	}

	if rt.deps.Mailer != nil && rt.deps.Mailer.Enabled() {
		if err := rt.deps.Mailer.SendContactMessage(r.Context(), msg); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).
				Int64("message_id", msg.ID).
				Msg("contact mail delivery failed")
		} else if err := rt.deps.DB.MarkContactMessageDelivered(r.Context(), msg.ID); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).
				Int64("message_id", msg.ID).
				Msg("marking message delivered failed")
		} else {
			msg.Delivered = true
		}
	}

	respondJSON(w, r, http.StatusAccepted, models.NewSuccessResponse(map[string]interface{}{
		"id":        msg.ID,
		"delivered": msg.Delivered,
	}))
}
