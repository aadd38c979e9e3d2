// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	cfg := &config.DatabaseConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout: 5 * time.Second,
	}
	db, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func TestSchemaVersion(t *testing.T) {
	db := newTestDB(t)
	v, err := db.GetCurrentSchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentSchemaVersion failed: %v", err)
	}
	if v < 1 {
		t.Errorf("expected schema version >= 1, got %d", v)
	}
}

func TestCertificationLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cert := &models.Certification{
		Slug:    "ckad",
		Title:   "Certified Kubernetes Application Developer",
		Issuer:  "CNCF",
		SHA256:  "abc123",
		Visible: true,
	}
	if err := db.CreateCertification(ctx, cert); err != nil {
		t.Fatalf("CreateCertification failed: %v", err)
	}
	if cert.ID == 0 {
		t.Error("expected certification ID to be set")
	}
	if cert.Status != models.CertStatusActive {
		t.Errorf("expected default status active, got %q", cert.Status)
	}

	// Duplicate slug conflicts.
	dup := &models.Certification{Slug: "ckad", Title: "x", Issuer: "y"}
	if err := db.CreateCertification(ctx, dup); !errors.Is(err, ErrCertSlugConflict) {
		t.Errorf("expected ErrCertSlugConflict, got %v", err)
	}

	got, err := db.GetCertificationBySlug(ctx, "ckad")
	if err != nil {
		t.Fatalf("GetCertificationBySlug failed: %v", err)
	}
	if got.Title != cert.Title {
		t.Errorf("expected title %q, got %q", cert.Title, got.Title)
	}

	if err := db.SetCertificationStatus(ctx, "ckad", models.CertStatusExpired); err != nil {
		t.Fatalf("SetCertificationStatus failed: %v", err)
	}
	if err := db.SetCertificationVisibility(ctx, "ckad", false); err != nil {
		t.Fatalf("SetCertificationVisibility failed: %v", err)
	}

	visible, err := db.ListCertifications(ctx, true)
	if err != nil {
		t.Fatalf("ListCertifications failed: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("expected no visible certifications, got %d", len(visible))
	}

	all, err := db.ListCertifications(ctx, false)
	if err != nil {
		t.Fatalf("ListCertifications(all) failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("expected 1 certification, got %d", len(all))
	}

	if err := db.DeleteCertification(ctx, "ckad"); err != nil {
		t.Fatalf("DeleteCertification failed: %v", err)
	}
	if err := db.DeleteCertification(ctx, "ckad"); !errors.Is(err, ErrCertNotFound) {
		t.Errorf("expected ErrCertNotFound, got %v", err)
	}
}

func TestBadgeVerifiedRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cert := &models.Certification{Slug: "rhcsa", Title: "RHCSA", Issuer: "Red Hat"}
	if err := db.CreateCertification(ctx, cert); err != nil {
		t.Fatalf("CreateCertification failed: %v", err)
	}

	got, err := db.GetCertificationBySlug(ctx, "rhcsa")
	if err != nil {
		t.Fatal(err)
	}
	if got.BadgeVerified != nil {
		t.Error("expected BadgeVerified nil before any check")
	}

	if err := db.SetCertificationBadgeVerified(ctx, "rhcsa", true); err != nil {
		t.Fatalf("SetCertificationBadgeVerified failed: %v", err)
	}
	got, err = db.GetCertificationBySlug(ctx, "rhcsa")
	if err != nil {
		t.Fatal(err)
	}
	if got.BadgeVerified == nil || !*got.BadgeVerified {
		t.Error("expected BadgeVerified true after check")
	}
}

func TestLogEntryTagsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &models.LogEntry{
		Slug:     "warp-core-maintenance",
		Title:    "Warp Core Maintenance",
		Content:  "# Notes\n\nRoutine diagnostics.",
		Category: models.LogCategoryHomelab,
		Status:   models.LogStatusPublished,
		Tags:     []string{"kubernetes", "proxmox"},
	}
	if err := db.CreateLogEntry(ctx, entry); err != nil {
		t.Fatalf("CreateLogEntry failed: %v", err)
	}

	got, err := db.GetLogEntryBySlug(ctx, "warp-core-maintenance")
	if err != nil {
		t.Fatalf("GetLogEntryBySlug failed: %v", err)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "kubernetes" || got.Tags[1] != "proxmox" {
		t.Errorf("tags did not round-trip, got %v", got.Tags)
	}
}

func TestLogEntryNilTagsBecomeEmpty(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &models.LogEntry{Slug: "no-tags", Title: "t", Content: "c", Category: models.LogCategoryStarlog}
	if err := db.CreateLogEntry(ctx, entry); err != nil {
		t.Fatalf("CreateLogEntry failed: %v", err)
	}
	got, err := db.GetLogEntryBySlug(ctx, "no-tags")
	if err != nil {
		t.Fatal(err)
	}
	if got.Tags == nil || len(got.Tags) != 0 {
		t.Errorf("expected empty non-nil tags, got %v", got.Tags)
	}
	if got.Status != models.LogStatusDraft {
		t.Errorf("expected default draft status, got %q", got.Status)
	}
}

func TestIncrementViewCountConcurrent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	entry := &models.LogEntry{
		Slug:     "popular",
		Title:    "Popular",
		Content:  "c",
		Category: models.LogCategoryEngineering,
		Status:   models.LogStatusPublished,
	}
	if err := db.CreateLogEntry(ctx, entry); err != nil {
		t.Fatal(err)
	}

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.IncrementViewCount(ctx, "popular")
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("IncrementViewCount failed: %v", err)
		}
	}

	got, err := db.GetLogEntryBySlug(ctx, "popular")
	if err != nil {
		t.Fatal(err)
	}
	if got.ViewCount != workers {
		t.Errorf("expected view count %d, got %d", workers, got.ViewCount)
	}
}

func TestListPublishedFiltersDrafts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, e := range []*models.LogEntry{
		{Slug: "a", Title: "a", Content: "c", Category: models.LogCategoryEngineering, Status: models.LogStatusPublished, Tags: []string{"kernel", "zfs"}},
		{Slug: "b", Title: "b", Content: "c", Category: models.LogCategorySecurity, Status: models.LogStatusDraft, Tags: []string{"zfs"}},
		{Slug: "c", Title: "c", Content: "c", Category: models.LogCategorySecurity, Status: models.LogStatusPublished},
	} {
		if err := db.CreateLogEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	published, err := db.ListPublishedLogEntries(ctx, "", "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(published) != 2 {
		t.Errorf("expected 2 published entries, got %d", len(published))
	}

	security, err := db.ListPublishedLogEntries(ctx, models.LogCategorySecurity, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(security) != 1 || security[0].Slug != "c" {
		t.Errorf("expected only slug c, got %v", security)
	}

	// Tag filtering matches exact JSON array elements and still
	// excludes drafts.
	tagged, err := db.ListPublishedLogEntries(ctx, "", "zfs", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(tagged) != 1 || tagged[0].Slug != "a" {
		t.Errorf("expected only slug a for tag zfs, got %v", tagged)
	}

	// Substrings of a tag must not match.
	if none, err := db.ListPublishedLogEntries(ctx, "", "zf", 0); err != nil || len(none) != 0 {
		t.Errorf("partial tag matched: %v (err %v)", none, err)
	}
}

func TestUserLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	u := &models.User{Email: "kira@example.org", PasswordHash: "hash", Active: true}
	if err := db.CreateUser(ctx, u); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if u.ID == "" {
		t.Error("expected user ID to be generated")
	}
	if u.Role != models.RoleViewer {
		t.Errorf("expected default viewer role, got %q", u.Role)
	}

	dup := &models.User{Email: "kira@example.org", PasswordHash: "hash2"}
	if err := db.CreateUser(ctx, dup); !errors.Is(err, ErrUserEmailConflict) {
		t.Errorf("expected ErrUserEmailConflict, got %v", err)
	}

	got, err := db.GetUserByEmail(ctx, "kira@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != u.ID {
		t.Errorf("expected ID %q, got %q", u.ID, got.ID)
	}

	if err := db.UpdateUserPassword(ctx, u.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword failed: %v", err)
	}
	got, err = db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.PasswordHash != "newhash" {
		t.Error("expected password hash to be updated")
	}
}

func TestEnsureAdminUserIdempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	if err := db.EnsureAdminUser(ctx, "admin@example.org", "hash"); err != nil {
		t.Fatalf("EnsureAdminUser failed: %v", err)
	}
	if err := db.EnsureAdminUser(ctx, "admin@example.org", "other"); err != nil {
		t.Fatalf("EnsureAdminUser second call failed: %v", err)
	}

	got, err := db.GetUserByEmail(ctx, "admin@example.org")
	if err != nil {
		t.Fatal(err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("expected admin role, got %q", got.Role)
	}
	if got.PasswordHash != "hash" {
		t.Error("expected original hash to be preserved")
	}
}

func TestContactMessages(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	m := &models.ContactMessage{Name: "Ben", Email: "ben@example.org", Subject: "hi", Body: "hello"}
	if err := db.CreateContactMessage(ctx, m); err != nil {
		t.Fatalf("CreateContactMessage failed: %v", err)
	}
	if err := db.MarkContactMessageDelivered(ctx, m.ID); err != nil {
		t.Fatalf("MarkContactMessageDelivered failed: %v", err)
	}

	msgs, err := db.ListRecentContactMessages(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || !msgs[0].Delivered {
		t.Errorf("expected 1 delivered message, got %+v", msgs)
	}
}
