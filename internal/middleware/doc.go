// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package middleware holds the chi-compatible HTTP middleware shared by
// the API and page routes: request ID tagging, panic recovery, security
// headers, gzip compression and Prometheus instrumentation. CORS and
// rate limiting come straight from go-chi/cors and go-chi/httprate and
// are wired in the router.
package middleware
