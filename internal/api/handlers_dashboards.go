// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"net/http"
	"strconv"

	"github.com/borninthedark/starbase/internal/geoip"
)

// Dashboard services never fail the request; sections whose upstream
// data is missing come back flagged degraded inside the report.

func (rt *Router) handleAdvisories(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, rt.deps.Advisories.Report(r.Context()))
}

func (rt *Router) handleAstro(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, rt.deps.Astro.Dashboard(r.Context()))
}

// handleSky builds the stargazing report. The observer site comes from
// ?lat= and ?lon= when both parse, otherwise the service falls back to
// geolocating the client IP.
func (rt *Router) handleSky(w http.ResponseWriter, r *http.Request) {
	lat, latErr := parseCoord(r.URL.Query().Get("lat"), 90)
	lon, lonErr := parseCoord(r.URL.Query().Get("lon"), 180)
	if latErr != nil || lonErr != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "lat/lon out of range")
		return
	}
	if (lat == nil) != (lon == nil) {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "lat and lon must be provided together")
		return
	}

	respondSuccess(w, r, rt.deps.Sky.Report(r.Context(), lat, lon, geoip.ClientIP(r)))
}

// parseCoord parses an optional coordinate query value, bounded at
// +/- max degrees. Empty input yields nil.
func parseCoord(raw string, max float64) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if v < -max || v > max {
		return nil, strconv.ErrRange
	}
	return &v, nil
}
