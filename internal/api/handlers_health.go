// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"net/http"
	"time"

	"github.com/borninthedark/starbase/internal/models"
)

var startTime = time.Now()

// handleHealth is the liveness probe: the process is up and serving.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
	})
}

// handleReady is the readiness probe: dependencies answer too.
func (rt *Router) handleReady(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"database": "ok"}
	ready := true

	if err := rt.deps.DB.Ping(r.Context()); err != nil {
		checks["database"] = "unreachable"
		ready = false
	}
	if rt.deps.Payloads != nil {
		checks["payload_store"] = "ok"
		if !rt.deps.Payloads.Healthy() {
			checks["payload_store"] = "degraded"
		}
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, r, status, models.NewSuccessResponse(map[string]interface{}{
		"ready":  ready,
		"checks": checks,
	}))
}
