// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(`{"value":42}`))
	}))
	defer srv.Close()

	c := New("test-source", 5*time.Second, rate.Inf, 1)
	var out struct {
		Value int `json:"value"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("value = %d, want 42", out.Value)
	}
}

func TestGetNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New("test-source-502", 5*time.Second, rate.Inf, 1)
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestGetJSONWithHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apiKey") != "secret" {
			t.Errorf("apiKey header = %q", r.Header.Get("apiKey"))
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New("test-source-hdr", 5*time.Second, rate.Inf, 1)
	var out map[string]interface{}
	if err := c.GetJSONWithHeaders(context.Background(), srv.URL, map[string]string{"apiKey": "secret"}, &out); err != nil {
		t.Fatalf("GetJSONWithHeaders: %v", err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New("test-source-breaker", time.Second, rate.Inf, 1)
	for i := 0; i < 10; i++ {
		_, _ = c.Get(context.Background(), srv.URL)
	}

	// Breaker should now reject without hitting the server.
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error from open breaker")
	}
}
