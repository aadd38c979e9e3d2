// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package models

import "time"

// Log entry categories.
const (
	LogCategoryEngineering = "engineering"
	LogCategoryHomelab     = "homelab"
	LogCategorySecurity    = "security"
	LogCategoryStarlog     = "starlog"
)

// Log entry statuses.
const (
	LogStatusDraft     = "draft"
	LogStatusPublished = "published"
	LogStatusArchived  = "archived"
)

// ValidLogCategory reports whether c is a known category.
func ValidLogCategory(c string) bool {
	switch c {
	case LogCategoryEngineering, LogCategoryHomelab, LogCategorySecurity, LogCategoryStarlog:
		return true
	}
	return false
}

// ValidLogStatus reports whether s is a known status.
func ValidLogStatus(s string) bool {
	switch s {
	case LogStatusDraft, LogStatusPublished, LogStatusArchived:
		return true
	}
	return false
}

// LogEntry is a Captain's Log post. Content is markdown, rendered to
// HTML at serve time. Tags persist as a JSON-encoded TEXT column and
// round-trip through this slice.
type LogEntry struct {
	ID        int64     `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary,omitempty"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Status    string    `json:"status"`
	Tags      []string  `json:"tags"`
	ViewCount int64     `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateLogEntryRequest is the editor create/update payload.
type CreateLogEntryRequest struct {
	Slug     string   `json:"slug" validate:"required,slug,max=64"`
	Title    string   `json:"title" validate:"required,max=200"`
	Summary  string   `json:"summary" validate:"max=500"`
	Content  string   `json:"content" validate:"required"`
	Category string   `json:"category" validate:"required"`
	Status   string   `json:"status" validate:"required"`
	Tags     []string `json:"tags" validate:"max=10,dive,max=40"`
}
