// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/log", "200"))
	RecordHTTPRequest("GET", "/api/v1/log", 200, 25*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/log", "200"))
	if after != before+1 {
		t.Errorf("counter = %f, want %f", after, before+1)
	}
}

func TestRecordDBQueryError(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "log_entries"))
	RecordDBQuery("select", "log_entries", time.Millisecond, errors.New("boom"))
	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("select", "log_entries"))
	if after != before+1 {
		t.Errorf("error counter = %f, want %f", after, before+1)
	}
}

func TestRecordUpstreamRequestOutcomes(t *testing.T) {
	okBefore := testutil.ToFloat64(UpstreamRequests.WithLabelValues("nasa-apod", "success"))
	failBefore := testutil.ToFloat64(UpstreamRequests.WithLabelValues("nasa-apod", "failure"))

	RecordUpstreamRequest("nasa-apod", time.Second, nil)
	RecordUpstreamRequest("nasa-apod", time.Second, errors.New("timeout"))

	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("nasa-apod", "success")); got != okBefore+1 {
		t.Errorf("success = %f, want %f", got, okBefore+1)
	}
	if got := testutil.ToFloat64(UpstreamRequests.WithLabelValues("nasa-apod", "failure")); got != failBefore+1 {
		t.Errorf("failure = %f, want %f", got, failBefore+1)
	}
}

func TestRecordIngestRun(t *testing.T) {
	before := testutil.ToFloat64(IngestRuns.WithLabelValues("swpc", "success"))
	RecordIngestRun("swpc", nil)
	if got := testutil.ToFloat64(IngestRuns.WithLabelValues("swpc", "success")); got != before+1 {
		t.Errorf("ingest success = %f, want %f", got, before+1)
	}
	if ts := testutil.ToFloat64(IngestLastSuccess.WithLabelValues("swpc")); ts <= 0 {
		t.Error("last success timestamp not set")
	}
}
