// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestMiddleware(t *testing.T) (*Middleware, *JWTManager) {
	t.Helper()
	mgr, err := NewJWTManager(testSecurityConfig())
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return NewMiddleware(mgr), mgr
}

func TestAuthenticateValidBearer(t *testing.T) {
	mw, mgr := newTestMiddleware(t)
	token, err := mgr.GenerateToken("captain@starbase.example", "editor")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	var gotClaims *Claims
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotClaims == nil || gotClaims.Email != "captain@starbase.example" || gotClaims.Role != "editor" {
		t.Errorf("claims = %+v, want captain@starbase.example/editor", gotClaims)
	}
}

func TestAuthenticateCookieFallback(t *testing.T) {
	mw, mgr := newTestMiddleware(t)
	token, err := mgr.GenerateToken("captain@starbase.example", "admin")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAuthenticateMissingToken(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthenticateMalformedHeader(t *testing.T) {
	mw, _ := newTestMiddleware(t)
	handler := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run")
	}))

	for _, header := range []string{"Basic abc123", "Bearer", "token-without-scheme"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("make-it-so", 10)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := CheckPassword(hash, "make-it-so"); err != nil {
		t.Errorf("CheckPassword correct: %v", err)
	}
	if err := CheckPassword(hash, "engage"); err != ErrPasswordMismatch {
		t.Errorf("CheckPassword wrong = %v, want ErrPasswordMismatch", err)
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword("", 10); err == nil {
		t.Error("expected error for empty password")
	}
}
