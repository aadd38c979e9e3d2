// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/borninthedark/starbase/internal/database"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/validation"
)

// maxPDFSize bounds certification uploads.
const maxPDFSize = 20 << 20

// handleListCertifications returns the public listing, visible
// entries only.
func (rt *Router) handleListCertifications(w http.ResponseWriter, r *http.Request) {
	certs, err := rt.deps.DB.ListCertifications(r.Context(), true)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "listing failed")
		return
	}
	respondSuccess(w, r, certs)
}

// handleListAllCertifications includes hidden entries. Reached only
// through the authenticated editor group.
func (rt *Router) handleListAllCertifications(w http.ResponseWriter, r *http.Request) {
	certs, err := rt.deps.DB.ListCertifications(r.Context(), false)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "listing failed")
		return
	}
	respondSuccess(w, r, certs)
}

func (rt *Router) handleGetCertification(w http.ResponseWriter, r *http.Request) {
	cert, ok := rt.loadCertification(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, cert)
}

// handleCertificationPDF streams the stored PDF after re-hashing it
// against the recorded digest. A mismatch means the file on disk is not
// the file that was uploaded, so the bytes are withheld.
func (rt *Router) handleCertificationPDF(w http.ResponseWriter, r *http.Request) {
	cert, ok := rt.loadCertification(w, r)
	if !ok {
		return
	}

	path := filepath.Join(rt.deps.Config.Server.PDFDir, filepath.Base(cert.PDFPath))
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("slug", cert.Slug).Msg("pdf read failed")
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "document not available")
		return
	}

	digest := sha256.Sum256(data)
	if hex.EncodeToString(digest[:]) != cert.SHA256 {
		logging.Ctx(r.Context()).Error().
			Str("slug", cert.Slug).
			Str("expected", cert.SHA256).
			Msg("pdf hash mismatch")
		w.Header().Set("X-Verification-Failed", "true")
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeInternal,
			"document failed integrity verification")
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") != "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`%s; filename="%s.pdf"`, disposition, cert.Slug))
	w.Header().Set("X-Content-SHA256", cert.SHA256)
	_, _ = w.Write(data)
}

// handleCreateCertification accepts a multipart upload: metadata fields
// plus a "pdf" file part. The digest is computed from the received
// bytes before anything touches disk.
func (rt *Router) handleCreateCertification(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPDFSize); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed multipart form")
		return
	}

	req := models.CreateCertificationRequest{
		Slug:        r.FormValue("slug"),
		Title:       r.FormValue("title"),
		Issuer:      r.FormValue("issuer"),
		Description: r.FormValue("description"),
		IssuedOn:    r.FormValue("issued_on"),
		BadgeURL:    r.FormValue("badge_url"),
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		respondValidationError(w, r, ve)
		return
	}

	file, _, err := r.FormFile("pdf")
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "missing pdf file")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(io.LimitReader(file, maxPDFSize))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "reading pdf failed")
		return
	}
	if len(data) == 0 || !strings.HasPrefix(string(data[:min(5, len(data))]), "%PDF-") {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "file is not a PDF")
		return
	}

	digest := sha256.Sum256(data)
	filename := req.Slug + ".pdf"
	path := filepath.Join(rt.deps.Config.Server.PDFDir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("pdf write failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternal, "storing pdf failed")
		return
	}

	cert := &models.Certification{
		Slug:        req.Slug,
		Title:       req.Title,
		Issuer:      req.Issuer,
		Description: req.Description,
		IssuedOn:    req.IssuedOn,
		PDFPath:     filename,
		SHA256:      hex.EncodeToString(digest[:]),
		BadgeURL:    req.BadgeURL,
		Status:      models.CertStatusActive,
		Visible:     true,
	}
	if err := rt.deps.DB.CreateCertification(r.Context(), cert); err != nil {
		if errors.Is(err, database.ErrCertSlugConflict) {
			respondError(w, r, http.StatusConflict, ErrCodeConflict, "slug already exists")
			return
		}
		respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "create failed")
		return
	}

	respondJSON(w, r, http.StatusCreated, models.NewSuccessResponse(cert))
}

// updateCertificationRequest is the PATCH payload; nil fields are
// left untouched.
type updateCertificationRequest struct {
	Status  *string `json:"status"`
	Visible *bool   `json:"visible"`
}

func (rt *Router) handleUpdateCertification(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var req updateCertificationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "malformed request body")
		return
	}
	if req.Status == nil && req.Visible == nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "nothing to update")
		return
	}

	if req.Status != nil {
		if !models.ValidCertStatus(*req.Status) {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "unknown status")
			return
		}
		if err := rt.deps.DB.SetCertificationStatus(r.Context(), slug, *req.Status); err != nil {
			rt.respondCertError(w, r, err)
			return
		}
	}
	if req.Visible != nil {
		if err := rt.deps.DB.SetCertificationVisibility(r.Context(), slug, *req.Visible); err != nil {
			rt.respondCertError(w, r, err)
			return
		}
	}

	cert, err := rt.deps.DB.GetCertificationBySlug(r.Context(), slug)
	if err != nil {
		rt.respondCertError(w, r, err)
		return
	}
	respondSuccess(w, r, cert)
}

func (rt *Router) handleDeleteCertification(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := rt.deps.DB.DeleteCertification(r.Context(), slug); err != nil {
		rt.respondCertError(w, r, err)
		return
	}
	respondSuccess(w, r, map[string]string{"deleted": slug})
}

// handleVerifyBadge fetches the Open Badges assertion behind badge_url
// and records whether it looks like one. The check is advisory; a dead
// badge host marks the certification unverified rather than erroring.
func (rt *Router) handleVerifyBadge(w http.ResponseWriter, r *http.Request) {
	cert, ok := rt.loadCertification(w, r)
	if !ok {
		return
	}
	if cert.BadgeURL == "" {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "certification has no badge url")
		return
	}

	verified := verifyBadgeAssertion(r, cert.BadgeURL)
	if err := rt.deps.DB.SetCertificationBadgeVerified(r.Context(), cert.Slug, verified); err != nil {
		rt.respondCertError(w, r, err)
		return
	}

	respondSuccess(w, r, map[string]interface{}{
		"slug":           cert.Slug,
		"badge_verified": verified,
	})
}

// verifyBadgeAssertion fetches the assertion document and requires a
// JSON body whose "type" contains "Assertion" (string or array form).
func verifyBadgeAssertion(r *http.Request, badgeURL string) bool {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, badgeURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("url", badgeURL).Msg("badge fetch failed")
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false
	}

	var doc struct {
		Type interface{} `json:"type"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return false
	}

	switch t := doc.Type.(type) {
	case string:
		return strings.Contains(t, "Assertion")
	case []interface{}:
		for _, v := range t {
			if s, ok := v.(string); ok && strings.Contains(s, "Assertion") {
				return true
			}
		}
	}
	return false
}

func (rt *Router) loadCertification(w http.ResponseWriter, r *http.Request) (*models.Certification, bool) {
	slug := chi.URLParam(r, "slug")
	cert, err := rt.deps.DB.GetCertificationBySlug(r.Context(), slug)
	if err != nil {
		rt.respondCertError(w, r, err)
		return nil, false
	}
	return cert, true
}

func (rt *Router) respondCertError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, database.ErrCertNotFound) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "certification not found")
		return
	}
	respondError(w, r, http.StatusInternalServerError, ErrCodeDatabase, "certification operation failed")
}
