// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/borninthedark/starbase/internal/auth"
	"github.com/borninthedark/starbase/internal/authz"
	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/database"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/middleware"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/payloadstore"
	"github.com/borninthedark/starbase/internal/websocket"
)

// AstroService serves the astrometrics dashboard.
type AstroService interface {
	Dashboard(ctx context.Context) *models.AstroDashboard
}

// SkyService serves the stargazing dashboard.
type SkyService interface {
	Report(ctx context.Context, lat, lon *float64, clientIP string) *models.SkyReport
}

// AdvisoryService serves the CVE dashboard.
type AdvisoryService interface {
	Report(ctx context.Context) *models.AdvisoryReport
}

// ContactMailer delivers contact messages.
type ContactMailer interface {
	Enabled() bool
	SendContactMessage(ctx context.Context, msg *models.ContactMessage) error
}

// Deps carries everything the router wires together.
type Deps struct {
	Config     *config.Config
	DB         *database.DB
	JWT        *auth.JWTManager
	CSRF       *auth.CSRFProtection
	Lockout    *auth.LockoutManager
	Enforcer   *authz.Enforcer
	Astro      AstroService
	Sky        SkyService
	Advisories AdvisoryService
	Mailer     ContactMailer
	Payloads   *payloadstore.Store
	Hub        *websocket.Hub

	// Pages serves the HTML routes; mounted at / when non-nil.
	Pages http.Handler
}

// Router is the assembled HTTP surface.
type Router struct {
	deps    Deps
	authMW  *auth.Middleware
	authzMW *authz.Middleware
}

// NewRouter builds the router from its dependencies.
func NewRouter(deps Deps) *Router {
	return &Router{
		deps:    deps,
		authMW:  auth.NewMiddleware(deps.JWT),
		authzMW: authz.NewMiddleware(deps.Enforcer),
	}
}

// Handler assembles the chi mux with the full middleware stack and
// route groups.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Instrument)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.deps.Config.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compression)

		r.Route("/auth", func(r chi.Router) {
			r.With(rt.limit(5, 5*time.Minute)).Post("/login", rt.handleLogin)
			r.With(rt.limit(20, time.Minute)).Get("/csrf", rt.handleCSRFToken)
			r.With(rt.authMW.Authenticate).Get("/me", rt.handleMe)
		})

		r.Route("/certifications", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rt.limit(100, time.Minute))
				r.Get("/", rt.handleListCertifications)
				r.Get("/{slug}", rt.handleGetCertification)
				r.Get("/{slug}/pdf", rt.handleCertificationPDF)
			})
			r.Group(func(r chi.Router) {
				r.Use(rt.limit(30, time.Minute))
				r.Use(rt.authMW.Authenticate)
				r.Use(rt.csrfProtect())
				r.With(rt.authzMW.Require("/api/v1/certifications", "write")).
					Get("/admin/all", rt.handleListAllCertifications)
				r.With(rt.authzMW.Require("/api/v1/certifications", "write")).
					Post("/", rt.handleCreateCertification)
				r.With(rt.authzMW.Require("/api/v1/certifications/:id", "write")).
					Patch("/{slug}", rt.handleUpdateCertification)
				r.With(rt.authzMW.Require("/api/v1/certifications/:id", "write")).
					Post("/{slug}/verify-badge", rt.handleVerifyBadge)
				r.With(rt.authzMW.Require("/api/v1/certifications/:id", "delete")).
					Delete("/{slug}", rt.handleDeleteCertification)
			})
		})

		r.Route("/log", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(rt.limit(100, time.Minute))
				r.Get("/", rt.handleListLogEntries)
				r.Get("/{slug}", rt.handleGetLogEntry)
			})
			r.Group(func(r chi.Router) {
				r.Use(rt.limit(30, time.Minute))
				r.Use(rt.authMW.Authenticate)
				r.Use(rt.csrfProtect())
				r.With(rt.authzMW.Require("/api/v1/log", "write")).
					Get("/admin/all", rt.handleListAllLogEntries)
				r.With(rt.authzMW.Require("/api/v1/log", "write")).
					Post("/", rt.handleCreateLogEntry)
				r.With(rt.authzMW.Require("/api/v1/log/:slug", "write")).
					Put("/{slug}", rt.handleUpdateLogEntry)
				r.With(rt.authzMW.Require("/api/v1/log/:slug", "delete")).
					Delete("/{slug}", rt.handleDeleteLogEntry)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.limit(60, time.Minute))
			r.Get("/advisories", rt.handleAdvisories)
			r.Get("/astro", rt.handleAstro)
			r.Get("/sky", rt.handleSky)
		})

		r.With(rt.limit(3, time.Hour), rt.csrfProtect()).
			Post("/contact", rt.handleContact)

		r.Route("/admin", func(r chi.Router) {
			r.Use(rt.limit(30, time.Minute))
			r.Use(rt.authMW.Authenticate)
			r.With(rt.authzMW.Require("/admin/contact", "read")).
				Get("/contact", rt.handleListContactMessages)
			r.With(rt.authzMW.Require("/admin/users", "read")).
				Get("/users", rt.handleListUsers)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.limit(300, time.Minute))
			r.Get("/badges/status.json", rt.handleBadgeJSON)
			r.Get("/badges/status.svg", rt.handleBadgeSVG)
			r.Get("/badges/certifications.json", rt.handleCertCountBadge)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(rt.limit(1000, time.Minute))
		r.Get("/health", rt.handleHealth)
		r.Get("/ready", rt.handleReady)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	if rt.deps.Hub != nil {
		r.With(rt.limit(30, time.Minute)).
			Get("/ws", websocket.Handler(rt.deps.Hub, rt.checkWSOrigin))
	}

	if rt.deps.Pages != nil {
		r.Group(func(r chi.Router) {
			r.Use(rt.limit(100, time.Minute))
			r.Use(middleware.PageSecurityHeaders)
			r.Use(middleware.Compression)
			r.Mount("/", rt.deps.Pages)
		})
	}

	return r
}

// limit builds a per-IP httprate limiter that records rejections.
func (rt *Router) limit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RateLimitRejections.WithLabelValues(r.URL.Path).Inc()
			respondError(w, r, http.StatusTooManyRequests, ErrCodeRateLimit, "rate limit exceeded")
		}),
	)
}

// csrfProtect returns the CSRF middleware, or a no-op when CSRF is not
// configured (tests exercising handlers directly).
func (rt *Router) csrfProtect() func(http.Handler) http.Handler {
	if rt.deps.CSRF == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rt.deps.CSRF.Middleware
}

// checkWSOrigin allows websocket upgrades from configured CORS origins
// and same-host requests.
func (rt *Router) checkWSOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range rt.deps.Config.Security.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}
