// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/borninthedark/starbase/internal/models"
)

// pdfBytes is a minimal well-formed PDF header for upload tests.
var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

func certUploadBody(t *testing.T, fields map[string]string, pdf []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if pdf != nil {
		fw, err := mw.CreateFormFile("pdf", "cert.pdf")
		if err != nil {
			t.Fatalf("creating file part: %v", err)
		}
		if _, err := fw.Write(pdf); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func (env *testEnv) uploadCert(t *testing.T, token, slug string, badgeURL string) *http.Response {
	t.Helper()
	fields := map[string]string{
		"slug":   slug,
		"title":  "Certified Starship Engineer",
		"issuer": "Starfleet Academy",
	}
	if badgeURL != "" {
		fields["badge_url"] = badgeURL
	}
	body, contentType := certUploadBody(t, fields, pdfBytes)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/api/v1/certifications", body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	resp, err := env.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestCertificationLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	resp := env.uploadCert(t, token, "cka", "")
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		t.Fatalf("create status = %d: %s", resp.StatusCode, body)
	}
	var created struct {
		Data models.Certification `json:"data"`
	}
	decodeBody(t, resp.Body, &created)
	_ = resp.Body.Close()
	if created.Data.SHA256 == "" {
		t.Fatal("created certification has no digest")
	}

	// Duplicate slug conflicts.
	dup := env.uploadCert(t, token, "cka", "")
	if dup.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", dup.StatusCode)
	}
	_ = dup.Body.Close()

	// Public listing includes it.
	list := env.get(t, "/api/v1/certifications", "")
	var listed struct {
		Data []models.Certification `json:"data"`
	}
	decodeBody(t, list.Body, &listed)
	_ = list.Body.Close()
	if len(listed.Data) != 1 || listed.Data[0].Slug != "cka" {
		t.Fatalf("listing = %+v", listed.Data)
	}

	// PDF serves intact bytes with the digest header.
	pdf := env.get(t, "/api/v1/certifications/cka/pdf", "")
	if pdf.StatusCode != http.StatusOK {
		t.Fatalf("pdf status = %d", pdf.StatusCode)
	}
	if ct := pdf.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("pdf content type = %q", ct)
	}
	if got := pdf.Header.Get("X-Content-SHA256"); got != created.Data.SHA256 {
		t.Errorf("digest header = %q, want %q", got, created.Data.SHA256)
	}
	served, _ := io.ReadAll(pdf.Body)
	_ = pdf.Body.Close()
	if !bytes.Equal(served, pdfBytes) {
		t.Error("served pdf differs from uploaded bytes")
	}

	// Delete removes it from the listing.
	del := env.do(t, http.MethodDelete, "/api/v1/certifications/cka", token, "", "")
	if del.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", del.StatusCode)
	}
	_ = del.Body.Close()

	gone := env.get(t, "/api/v1/certifications/cka", "")
	if gone.StatusCode != http.StatusNotFound {
		t.Errorf("after delete status = %d, want 404", gone.StatusCode)
	}
	_ = gone.Body.Close()
}

func TestCertificationPDFTamperDetected(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	resp := env.uploadCert(t, token, "tampered", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	path := filepath.Join(env.cfg.Server.PDFDir, "tampered.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4 altered content"), 0o644); err != nil {
		t.Fatalf("tampering with pdf: %v", err)
	}

	pdf := env.get(t, "/api/v1/certifications/tampered/pdf", "")
	defer func() { _ = pdf.Body.Close() }()

	if pdf.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", pdf.StatusCode)
	}
	if pdf.Header.Get("X-Verification-Failed") != "true" {
		t.Error("missing X-Verification-Failed header")
	}
}

func TestCertificationRejectsNonPDF(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	body, contentType := certUploadBody(t, map[string]string{
		"slug":   "not-a-pdf",
		"title":  "Bogus",
		"issuer": "Nobody",
	}, []byte("just some text"))

	req, _ := http.NewRequest(http.MethodPost, env.srv.URL+"/api/v1/certifications", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	resp, err := env.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCertificationVisibilityPatch(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	resp := env.uploadCert(t, token, "hidden-cert", "")
	_ = resp.Body.Close()

	patch := env.do(t, http.MethodPatch, "/api/v1/certifications/hidden-cert", token,
		"application/json", `{"visible":false,"status":"deprecated"}`)
	if patch.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", patch.StatusCode)
	}
	var updated struct {
		Data models.Certification `json:"data"`
	}
	decodeBody(t, patch.Body, &updated)
	_ = patch.Body.Close()
	if updated.Data.Visible || updated.Data.Status != models.CertStatusDeprecated {
		t.Errorf("updated = %+v", updated.Data)
	}

	// Hidden certifications drop out of the public listing.
	list := env.get(t, "/api/v1/certifications", "")
	var listed struct {
		Data []models.Certification `json:"data"`
	}
	decodeBody(t, list.Body, &listed)
	_ = list.Body.Close()
	if len(listed.Data) != 0 {
		t.Errorf("public listing = %+v", listed.Data)
	}
}

func TestHiddenCertificationsNotLeakedToAnonymous(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	resp := env.uploadCert(t, token, "secret-cert", "")
	_ = resp.Body.Close()
	patch := env.do(t, http.MethodPatch, "/api/v1/certifications/secret-cert", token,
		"application/json", `{"visible":false}`)
	_ = patch.Body.Close()

	// Query toggles on the public route must not reveal hidden entries.
	for _, path := range []string{
		"/api/v1/certifications?all=1",
		"/api/v1/certifications?all=true",
	} {
		list := env.get(t, path, "")
		var listed struct {
			Data []models.Certification `json:"data"`
		}
		decodeBody(t, list.Body, &listed)
		_ = list.Body.Close()
		if len(listed.Data) != 0 {
			t.Errorf("GET %s leaked %+v", path, listed.Data)
		}
	}

	// The authenticated admin listing still shows it.
	all := env.get(t, "/api/v1/certifications/admin/all", token)
	var listed struct {
		Data []models.Certification `json:"data"`
	}
	decodeBody(t, all.Body, &listed)
	_ = all.Body.Close()
	if len(listed.Data) != 1 || listed.Data[0].Slug != "secret-cert" {
		t.Errorf("admin listing = %+v", listed.Data)
	}

	denied := env.get(t, "/api/v1/certifications/admin/all", "")
	_ = denied.Body.Close()
	if denied.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous admin listing status = %d, want 401", denied.StatusCode)
	}
}

func TestVerifyBadgeAssertion(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	badgeHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"type":"Assertion","verification":{"type":"hosted"}}`))
	}))
	defer badgeHost.Close()

	resp := env.uploadCert(t, token, "badged", badgeHost.URL+"/assertion.json")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", resp.StatusCode)
	}
	_ = resp.Body.Close()

	verify := env.postJSON(t, "/api/v1/certifications/badged/verify-badge", token, "")
	if verify.StatusCode != http.StatusOK {
		t.Fatalf("verify status = %d", verify.StatusCode)
	}
	var result struct {
		Data struct {
			BadgeVerified bool `json:"badge_verified"`
		} `json:"data"`
	}
	decodeBody(t, verify.Body, &result)
	_ = verify.Body.Close()
	if !result.Data.BadgeVerified {
		t.Error("badge not verified")
	}

	got := env.get(t, "/api/v1/certifications/badged", "")
	var cert struct {
		Data models.Certification `json:"data"`
	}
	decodeBody(t, got.Body, &cert)
	_ = got.Body.Close()
	if cert.Data.BadgeVerified == nil || !*cert.Data.BadgeVerified {
		t.Error("badge_verified not persisted")
	}
}

func TestVerifyBadgeRejectsNonAssertion(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "admin-password-1", models.RoleAdmin)
	token := env.login(t, "admin@example.com", "admin-password-1")

	badgeHost := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"type":"BadgeClass"}`))
	}))
	defer badgeHost.Close()

	resp := env.uploadCert(t, token, "unverified", badgeHost.URL+"/badge.json")
	_ = resp.Body.Close()

	verify := env.postJSON(t, "/api/v1/certifications/unverified/verify-badge", token, "")
	var result struct {
		Data struct {
			BadgeVerified bool `json:"badge_verified"`
		} `json:"data"`
	}
	decodeBody(t, verify.Body, &result)
	_ = verify.Body.Close()
	if result.Data.BadgeVerified {
		t.Error("non-assertion document verified")
	}
}

func (env *testEnv) createLogEntry(t *testing.T, token, slug, status string) {
	t.Helper()
	body := `{
		"slug": "` + slug + `",
		"title": "Warp Core Maintenance",
		"summary": "Quarterly notes",
		"content": "# Log\n\nRecalibrated the **warp core**.",
		"category": "engineering",
		"status": "` + status + `",
		"tags": ["warp", "maintenance"]
	}`
	resp := env.postJSON(t, "/api/v1/log", token, body)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("create log entry status = %d: %s", resp.StatusCode, raw)
	}
}

func TestLogEntryFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "editor@example.com", "editor-password-1", models.RoleEditor)
	token := env.login(t, "editor@example.com", "editor-password-1")

	env.createLogEntry(t, token, "warp-core", models.LogStatusPublished)
	env.createLogEntry(t, token, "draft-entry", models.LogStatusDraft)

	// Public listing shows only the published entry.
	list := env.get(t, "/api/v1/log", "")
	var listed struct {
		Data []models.LogEntry `json:"data"`
	}
	decodeBody(t, list.Body, &listed)
	_ = list.Body.Close()
	if len(listed.Data) != 1 || listed.Data[0].Slug != "warp-core" {
		t.Fatalf("listing = %+v", listed.Data)
	}

	// Reading renders markdown and counts the view.
	read := env.get(t, "/api/v1/log/warp-core", "")
	var detail struct {
		Data struct {
			models.LogEntry
			ContentHTML string `json:"content_html"`
		} `json:"data"`
	}
	decodeBody(t, read.Body, &detail)
	_ = read.Body.Close()
	if detail.Data.ViewCount != 1 {
		t.Errorf("view count = %d, want 1", detail.Data.ViewCount)
	}
	if !strings.Contains(detail.Data.ContentHTML, "<strong>warp core</strong>") {
		t.Errorf("content_html = %q", detail.Data.ContentHTML)
	}

	// Drafts are invisible publicly but listed for editors.
	draft := env.get(t, "/api/v1/log/draft-entry", "")
	if draft.StatusCode != http.StatusNotFound {
		t.Errorf("draft status = %d, want 404", draft.StatusCode)
	}
	_ = draft.Body.Close()

	all := env.get(t, "/api/v1/log/admin/all", token)
	var allListed struct {
		Data []models.LogEntry `json:"data"`
	}
	decodeBody(t, all.Body, &allListed)
	_ = all.Body.Close()
	if len(allListed.Data) != 2 {
		t.Errorf("admin listing length = %d, want 2", len(allListed.Data))
	}
}

func TestLogEntryDuplicateSlugConflicts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "editor@example.com", "editor-password-1", models.RoleEditor)
	token := env.login(t, "editor@example.com", "editor-password-1")

	env.createLogEntry(t, token, "dup", models.LogStatusPublished)

	resp := env.postJSON(t, "/api/v1/log", token, `{
		"slug":"dup","title":"Again","content":"x",
		"category":"starlog","status":"draft","tags":[]}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
	if code := errorCode(t, resp.Body); code != ErrCodeConflict {
		t.Errorf("error code = %q", code)
	}
}

func TestLogEntryCategoryFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "editor@example.com", "editor-password-1", models.RoleEditor)
	token := env.login(t, "editor@example.com", "editor-password-1")

	env.createLogEntry(t, token, "eng-entry", models.LogStatusPublished)

	resp := env.get(t, "/api/v1/log?category=homelab", "")
	var listed struct {
		Data []models.LogEntry `json:"data"`
	}
	decodeBody(t, resp.Body, &listed)
	_ = resp.Body.Close()
	if len(listed.Data) != 0 {
		t.Errorf("homelab listing = %+v", listed.Data)
	}

	bad := env.get(t, "/api/v1/log?category=bogus", "")
	if bad.StatusCode != http.StatusBadRequest {
		t.Errorf("bogus category status = %d, want 400", bad.StatusCode)
	}
	_ = bad.Body.Close()
}

func TestLogEntryTagFilter(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "editor@example.com", "editor-password-1", models.RoleEditor)
	token := env.login(t, "editor@example.com", "editor-password-1")

	env.createLogEntry(t, token, "tagged-entry", models.LogStatusPublished)

	matched := env.get(t, "/api/v1/log?tag=warp", "")
	var listed struct {
		Data []models.LogEntry `json:"data"`
	}
	decodeBody(t, matched.Body, &listed)
	_ = matched.Body.Close()
	if len(listed.Data) != 1 || listed.Data[0].Slug != "tagged-entry" {
		t.Errorf("tag=warp listing = %+v", listed.Data)
	}

	missed := env.get(t, "/api/v1/log?tag=holodeck", "")
	listed.Data = nil
	decodeBody(t, missed.Body, &listed)
	_ = missed.Body.Close()
	if len(listed.Data) != 0 {
		t.Errorf("tag=holodeck listing = %+v", listed.Data)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, path := range []string{"/api/v1/advisories", "/api/v1/astro", "/api/v1/sky"} {
		resp := env.get(t, path, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
		_ = resp.Body.Close()
	}
}

func TestSkyCoordinateValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		query string
		want  int
	}{
		{"lat=41.9&lon=-87.6", http.StatusOK},
		{"lat=91&lon=0", http.StatusBadRequest},
		{"lat=0&lon=181", http.StatusBadRequest},
		{"lat=41.9", http.StatusBadRequest},
		{"lat=abc&lon=0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp := env.get(t, "/api/v1/sky?"+tt.query, "")
		if resp.StatusCode != tt.want {
			t.Errorf("query %q: status = %d, want %d", tt.query, resp.StatusCode, tt.want)
		}
		_ = resp.Body.Close()
	}

	if env.sky.lastLat == nil || *env.sky.lastLat != 41.9 {
		t.Errorf("service saw lat = %v", env.sky.lastLat)
	}
}

func TestContactStoresAndDelivers(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.postJSON(t, "/api/v1/contact", "", `{
		"name": "Jean",
		"email": "jean@example.com",
		"subject": "Engage",
		"body": "Hello from the bridge."
	}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var result struct {
		Data struct {
			Delivered bool `json:"delivered"`
		} `json:"data"`
	}
	decodeBody(t, resp.Body, &result)
	if !result.Data.Delivered {
		t.Error("message not marked delivered")
	}
	if len(env.mailer.sent) != 1 || env.mailer.sent[0].Subject != "Engage" {
		t.Errorf("mailer saw %+v", env.mailer.sent)
	}
}

func TestContactDeliveryFailureStillAccepts(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mailer.sendErr = io.ErrUnexpectedEOF

	resp := env.postJSON(t, "/api/v1/contact", "", `{
		"name": "Jean",
		"email": "jean@example.com",
		"subject": "Engage",
		"body": "Hello."
	}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var result struct {
		Data struct {
			Delivered bool `json:"delivered"`
		} `json:"data"`
	}
	decodeBody(t, resp.Body, &result)
	if result.Data.Delivered {
		t.Error("failed delivery marked delivered")
	}
}

func TestContactValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.postJSON(t, "/api/v1/contact", "", `{
		"name": "Jean",
		"email": "not-an-email",
		"subject": "x",
		"body": "y"
	}`)
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if code := errorCode(t, resp.Body); code != ErrCodeValidation {
		t.Errorf("error code = %q", code)
	}
}

func TestAdminContactLogRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "warpspeed9", models.RoleAdmin)
	env.createUser(t, "editor@example.com", "warpspeed9", models.RoleEditor)
	adminToken := env.login(t, "admin@example.com", "warpspeed9")
	editorToken := env.login(t, "editor@example.com", "warpspeed9")

	sent := env.postJSON(t, "/api/v1/contact", "", `{
		"name": "Jean",
		"email": "jean@example.com",
		"subject": "Engage",
		"body": "Make it so."
	}`)
	_ = sent.Body.Close()
	if sent.StatusCode != http.StatusAccepted {
		t.Fatalf("contact status = %d", sent.StatusCode)
	}

	denied := env.get(t, "/api/v1/admin/contact", editorToken)
	_ = denied.Body.Close()
	if denied.StatusCode != http.StatusForbidden {
		t.Fatalf("editor status = %d, want 403", denied.StatusCode)
	}

	resp := env.get(t, "/api/v1/admin/contact", adminToken)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status = %d", resp.StatusCode)
	}
	var result struct {
		Data []models.ContactMessage `json:"data"`
	}
	decodeBody(t, resp.Body, &result)
	if len(result.Data) != 1 || result.Data[0].Subject != "Engage" {
		t.Errorf("messages = %+v", result.Data)
	}
}

func TestAdminUserListing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.createUser(t, "admin@example.com", "warpspeed9", models.RoleAdmin)
	env.createUser(t, "viewer@example.com", "warpspeed9", models.RoleViewer)
	token := env.login(t, "admin@example.com", "warpspeed9")

	resp := env.get(t, "/api/v1/admin/users", token)
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	if strings.Contains(string(raw), "password") {
		t.Error("user listing leaked password material")
	}
	var result struct {
		Data []models.User `json:"data"`
	}
	decodeBody(t, bytes.NewReader(raw), &result)
	if len(result.Data) != 2 {
		t.Errorf("users = %d, want 2", len(result.Data))
	}
}
