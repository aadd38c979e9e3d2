// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package models

import "time"

// Certification statuses.
const (
	CertStatusActive     = "active"
	CertStatusDeprecated = "deprecated"
	CertStatusExpired    = "expired"
)

// ValidCertStatus reports whether s is a known certification status.
func ValidCertStatus(s string) bool {
	switch s {
	case CertStatusActive, CertStatusDeprecated, CertStatusExpired:
		return true
	}
	return false
}

// Certification is a professional certification listed on the site.
// SHA256 is the hex digest of the PDF computed at upload time; the PDF
// handler re-hashes on serve and flags mismatches. BadgeURL optionally
// points at an Open Badges assertion document.
type Certification struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Issuer      string    `json:"issuer"`
	Description string    `json:"description,omitempty"`
	IssuedOn    string    `json:"issued_on,omitempty"`
	PDFPath     string    `json:"-"`
	SHA256      string    `json:"sha256"`
	BadgeURL    string    `json:"badge_url,omitempty"`
	// BadgeVerified records the last Open Badges assertion check.
	// Nil means never checked.
	BadgeVerified *bool     `json:"badge_verified,omitempty"`
	Status        string    `json:"status"`
	Visible       bool      `json:"visible"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateCertificationRequest is the admin upload payload. The PDF itself
// arrives as multipart form data alongside this metadata.
type CreateCertificationRequest struct {
	Slug        string `json:"slug" validate:"required,slug,max=64"`
	Title       string `json:"title" validate:"required,max=200"`
	Issuer      string `json:"issuer" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	IssuedOn    string `json:"issued_on" validate:"omitempty,datetime=2006-01-02"`
	BadgeURL    string `json:"badge_url" validate:"omitempty,url,max=500"`
}
