// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package models

import "testing"

func TestValidCertStatus(t *testing.T) {
	for _, s := range []string{CertStatusActive, CertStatusDeprecated, CertStatusExpired} {
		if !ValidCertStatus(s) {
			t.Errorf("ValidCertStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "retired", "ACTIVE"} {
		if ValidCertStatus(s) {
			t.Errorf("ValidCertStatus(%q) = true", s)
		}
	}
}

func TestValidLogCategoryAndStatus(t *testing.T) {
	for _, c := range []string{LogCategoryEngineering, LogCategoryHomelab, LogCategorySecurity, LogCategoryStarlog} {
		if !ValidLogCategory(c) {
			t.Errorf("ValidLogCategory(%q) = false", c)
		}
	}
	if ValidLogCategory("ops") {
		t.Error("ValidLogCategory accepted unknown category")
	}
	for _, s := range []string{LogStatusDraft, LogStatusPublished, LogStatusArchived} {
		if !ValidLogStatus(s) {
			t.Errorf("ValidLogStatus(%q) = false", s)
		}
	}
	if ValidLogStatus("pending") {
		t.Error("ValidLogStatus accepted unknown status")
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{RoleAdmin, RoleEditor, RoleViewer} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false", r)
		}
	}
	if ValidRole("superuser") {
		t.Error("ValidRole accepted unknown role")
	}
}

func TestResponseEnvelopes(t *testing.T) {
	ok := NewSuccessResponse(map[string]int{"n": 1})
	if ok.Status != "success" || ok.Error != nil {
		t.Errorf("success envelope = %+v", ok)
	}
	if ok.Metadata.Timestamp.IsZero() {
		t.Error("success envelope missing timestamp")
	}

	bad := NewErrorResponse("not_found", "no such thing")
	if bad.Status != "error" || bad.Error == nil || bad.Error.Code != "not_found" {
		t.Errorf("error envelope = %+v", bad)
	}
}
