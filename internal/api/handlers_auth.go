// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/borninthedark/starbase/internal/auth"
	"github.com/borninthedark/starbase/internal/database"
	"github.com/borninthedark/starbase/internal/geoip"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/validation"
)

// handleLogin checks credentials and issues a JWT. Failures count
// toward the per-identifier lockout; the identifier combines email and
// client IP so one address cannot lock out another's account remotely
// while still throttling password sprays.
func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, r, ve)
		return
	}

	lockoutID := fmt.Sprintf("%s|%s", req.Email, geoip.ClientIP(r))
	if locked, remaining := rt.deps.Lockout.IsLocked(lockoutID); locked {
		metrics.LoginAttempts.WithLabelValues("locked").Inc()
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(remaining.Seconds())+1))
		respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimit,
			"account temporarily locked, try again later")
		return
	}

	user, err := rt.deps.DB.GetUserByEmail(r.Context(), req.Email)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "lookup failed")
		return
	}

	if user == nil || !user.Active || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		rt.deps.Lockout.RecordFailure(lockoutID)
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		logging.Ctx(r.Context()).Warn().Str("email", req.Email).Msg("login failed")
		respondError(w, r, http.StatusUnauthorized, ErrCodeAuthentication, "invalid credentials")
		return
	}

	token, err := rt.deps.JWT.GenerateToken(user.Email, user.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "token issue failed")
		return
	}

	rt.deps.Lockout.RecordSuccess(lockoutID)
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	expiresAt := time.Now().Add(rt.deps.JWT.SessionTimeout())
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   rt.deps.Config.Security.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	respondSuccess(w, r, models.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      user.Role,
	})
}

// handleCSRFToken issues a double-submit token. The cookie is set by
// GenerateToken; the body copy is what clients echo back in the
// X-CSRF-Token header.
func (rt *Router) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	token, err := rt.deps.CSRF.GenerateToken(w)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "token generation failed")
		return
	}
	respondSuccess(w, r, map[string]string{"csrf_token": token})
}

// handleMe returns the authenticated account.
func (rt *Router) handleMe(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, ErrCodeAuthentication, "not authenticated")
		return
	}

	user, err := rt.deps.DB.GetUserByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			respondError(w, r, http.StatusUnauthorized, ErrCodeAuthentication, "account no longer exists")
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "lookup failed")
		return
	}

	respondSuccess(w, r, user)
}
