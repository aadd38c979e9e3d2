// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package payloadstore

import (
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), time.Hour)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if err := s.Put("nasa-apod", []byte(`{"title":"M31"}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	snap, err := s.Get("nasa-apod")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if snap.Source != "nasa-apod" {
		t.Errorf("expected source %q, got %q", "nasa-apod", snap.Source)
	}
	if string(snap.Payload) != `{"title":"M31"}` {
		t.Errorf("payload mismatch: %s", snap.Payload)
	}
	if snap.FetchedAt.IsZero() {
		t.Error("expected FetchedAt to be stamped")
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Get("nist-nvd"); !errors.Is(err, ErrPayloadNotFound) {
		t.Errorf("expected ErrPayloadNotFound, got %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	s := newTestStore(t)

	type wx struct {
		KIndex float64 `json:"k_index"`
	}
	if err := s.PutJSON("noaa-swpc", wx{KIndex: 4.33}); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}

	var got wx
	fetchedAt, err := s.GetJSON("noaa-swpc", &got)
	if err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got.KIndex != 4.33 {
		t.Errorf("expected 4.33, got %f", got.KIndex)
	}
	if fetchedAt.IsZero() {
		t.Error("expected fetch time")
	}
}

func TestHealthy(t *testing.T) {
	s := newTestStore(t)
	if !s.Healthy() {
		t.Error("expected store to be healthy")
	}
}
