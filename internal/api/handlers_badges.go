// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
)

// Badge colors follow the shields.io palette names.
const (
	badgeColorOnline   = "green"
	badgeColorDegraded = "orange"
	badgeColorCount    = "blue"
)

// endpointBadge is the shields.io endpoint badge schema.
type endpointBadge struct {
	SchemaVersion int    `json:"schemaVersion"`
	Label         string `json:"label"`
	Message       string `json:"message"`
	Color         string `json:"color"`
}

// statusBadge probes the local dependencies and reports online when
// both the database and the payload store respond. Upstream APIs being
// down degrades dashboards but not the badge; the badge answers "is
// starbase itself serving".
func (rt *Router) statusBadge(r *http.Request) endpointBadge {
	healthy := rt.deps.DB.Ping(r.Context()) == nil
	if healthy && rt.deps.Payloads != nil {
		healthy = rt.deps.Payloads.Healthy()
	}

	badge := endpointBadge{SchemaVersion: 1, Label: "starbase"}
	if healthy {
		badge.Message = "online"
		badge.Color = badgeColorOnline
	} else {
		badge.Message = "degraded"
		badge.Color = badgeColorDegraded
	}
	return badge
}

func (rt *Router) handleBadgeJSON(w http.ResponseWriter, r *http.Request) {
	writeBadgeJSON(w, rt.statusBadge(r))
}

func (rt *Router) handleBadgeSVG(w http.ResponseWriter, r *http.Request) {
	badge := rt.statusBadge(r)
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache, max-age=30")
	_, _ = w.Write([]byte(renderBadgeSVG(badge.Label, badge.Message, svgColor(badge.Color))))
}

func (rt *Router) handleCertCountBadge(w http.ResponseWriter, r *http.Request) {
	count, err := rt.deps.DB.CountCertifications(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "count failed")
		return
	}
	writeBadgeJSON(w, endpointBadge{
		SchemaVersion: 1,
		Label:         "certifications",
		Message:       strconv.Itoa(count),
		Color:         badgeColorCount,
	})
}

func writeBadgeJSON(w http.ResponseWriter, badge endpointBadge) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, max-age=30")
	_ = json.NewEncoder(w).Encode(badge)
}

func svgColor(name string) string {
	switch name {
	case badgeColorOnline:
		return "#4c1"
	case badgeColorDegraded:
		return "#fe7d37"
	default:
		return "#007ec6"
	}
}

// renderBadgeSVG draws a flat-style two-segment badge. Widths are
// estimated from character count at the Verdana 11px metrics shields
// uses, which is close enough for the short strings we render.
func renderBadgeSVG(label, message, color string) string {
	const charWidth = 7
	labelW := len(label)*charWidth + 10
	msgW := len(message)*charWidth + 10
	total := labelW + msgW

	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="20" role="img" aria-label="%s: %s">
  <linearGradient id="s" x2="0" y2="100%%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="r"><rect width="%d" height="20" rx="3" fill="#fff"/></clipPath>
  <g clip-path="url(#r)">
    <rect width="%d" height="20" fill="#555"/>
    <rect x="%d" width="%d" height="20" fill="%s"/>
    <rect width="%d" height="20" fill="url(#s)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" font-size="11">
    <text x="%d" y="14">%s</text>
    <text x="%d" y="14">%s</text>
  </g>
</svg>`,
		total, label, message,
		total,
		labelW,
		labelW, msgW, color,
		total,
		labelW/2, label,
		labelW+msgW/2, message)
}
