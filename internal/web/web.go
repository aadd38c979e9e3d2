// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package web renders the LCARS-themed HTML pages from embedded
// templates. API routes stay JSON; everything user-facing under /
// goes through this handler.
package web

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/borninthedark/starbase/internal/geoip"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// pageTemplates is every non-base template, each parsed together with
// the base layout.
var pageNames = []string{
	"home", "certifications", "certification_detail",
	"log", "log_detail",
	"advisories", "astro", "sky",
	"contact", "error",
}

// Store is the database surface the pages read from.
type Store interface {
	ListCertifications(ctx context.Context, visibleOnly bool) ([]models.Certification, error)
	GetCertificationBySlug(ctx context.Context, slug string) (*models.Certification, error)
	ListPublishedLogEntries(ctx context.Context, category, tag string, limit int) ([]models.LogEntry, error)
	GetLogEntryBySlug(ctx context.Context, slug string) (*models.LogEntry, error)
	IncrementViewCount(ctx context.Context, slug string) error
}

// AstroSource serves the astrometrics dashboard data.
type AstroSource interface {
	Dashboard(ctx context.Context) *models.AstroDashboard
}

// SkySource serves the stargazing dashboard data.
type SkySource interface {
	Report(ctx context.Context, lat, lon *float64, clientIP string) *models.SkyReport
}

// AdvisorySource serves the CVE dashboard data.
type AdvisorySource interface {
	Report(ctx context.Context) *models.AdvisoryReport
}

// Handler serves the HTML routes.
type Handler struct {
	store      Store
	astro      AstroSource
	sky        SkySource
	advisories AdvisorySource
	templates  map[string]*template.Template
	markdown   goldmark.Markdown
}

// NewHandler parses the embedded templates and builds the page handler.
func NewHandler(store Store, astro AstroSource, sky SkySource, advisories AdvisorySource) (*Handler, error) {
	funcs := template.FuncMap{
		"deref": func(b *bool) bool { return b != nil && *b },
	}

	templates := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New("base.html").Funcs(funcs).ParseFS(templateFS,
			"templates/base.html", "templates/"+name+".html")
		if err != nil {
			return nil, err
		}
		templates[name] = t
	}

	return &Handler{
		store:      store,
		astro:      astro,
		sky:        sky,
		advisories: advisories,
		templates:  templates,
		markdown:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Routes returns the page router. Mount it at /.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.handleHome)
	r.Get("/certifications", h.handleCertifications)
	r.Get("/certifications/{slug}", h.handleCertificationDetail)
	r.Get("/log", h.handleLog)
	r.Get("/log/{slug}", h.handleLogDetail)
	r.Get("/advisories", h.handleAdvisories)
	r.Get("/astrometrics", h.handleAstro)
	r.Get("/stargazing", h.handleSky)
	r.Get("/contact", h.handleContact)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/",
		http.FileServer(http.FS(static))))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.RenderError(w, r, http.StatusNotFound)
	})
	return r
}

// pageData is the payload every template receives.
type pageData struct {
	Title  string
	Active string
	Data   interface{}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, status int, data pageData) {
	tmpl, ok := h.templates[name]
	if !ok {
		logging.Ctx(r.Context()).Error().Str("template", name).Msg("unknown template")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	// Render to a buffer first so a template failure never emits a
	// half-written page.
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("template", name).Msg("template render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	metrics.PageRenders.WithLabelValues(name).Inc()
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	certs, err := h.store.ListCertifications(r.Context(), true)
	if err != nil {
		h.RenderError(w, r, http.StatusInternalServerError)
		return
	}
	entries, err := h.store.ListPublishedLogEntries(r.Context(), "", "", 5)
	if err != nil {
		h.RenderError(w, r, http.StatusInternalServerError)
		return
	}

	h.render(w, r, "home", http.StatusOK, pageData{
		Title:  "Starbase",
		Active: "home",
		Data: map[string]interface{}{
			"Certifications": certs,
			"RecentEntries":  entries,
		},
	})
}

func (h *Handler) handleCertifications(w http.ResponseWriter, r *http.Request) {
	certs, err := h.store.ListCertifications(r.Context(), true)
	if err != nil {
		h.RenderError(w, r, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "certifications", http.StatusOK, pageData{
		Title:  "Certifications",
		Active: "certifications",
		Data:   certs,
	})
}

func (h *Handler) handleCertificationDetail(w http.ResponseWriter, r *http.Request) {
	cert, err := h.store.GetCertificationBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.RenderError(w, r, http.StatusNotFound)
		return
	}
	h.render(w, r, "certification_detail", http.StatusOK, pageData{
		Title:  cert.Title,
		Active: "certifications",
		Data:   cert,
	})
}

func (h *Handler) handleLog(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !models.ValidLogCategory(category) {
		h.RenderError(w, r, http.StatusBadRequest)
		return
	}
	tag := r.URL.Query().Get("tag")
	entries, err := h.store.ListPublishedLogEntries(r.Context(), category, tag, 50)
	if err != nil {
		h.RenderError(w, r, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "log", http.StatusOK, pageData{
		Title:  "Captain's Log",
		Active: "log",
		Data: map[string]interface{}{
			"Entries":  entries,
			"Category": category,
			"Tag":      tag,
		},
	})
}

func (h *Handler) handleLogDetail(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	entry, err := h.store.GetLogEntryBySlug(r.Context(), slug)
	if err != nil || entry.Status != models.LogStatusPublished {
		h.RenderError(w, r, http.StatusNotFound)
		return
	}

	if err := h.store.IncrementViewCount(r.Context(), slug); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Str("slug", slug).Msg("view count update failed")
	} else {
		entry.ViewCount++
		metrics.LogEntryViews.Inc()
	}

	var rendered bytes.Buffer
	if err := h.markdown.Convert([]byte(entry.Content), &rendered); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("slug", slug).Msg("markdown render failed")
	}

	h.render(w, r, "log_detail", http.StatusOK, pageData{
		Title:  entry.Title,
		Active: "log",
		Data: map[string]interface{}{
			"Entry": entry,
			// goldmark escapes raw HTML in the source, so the
			// rendered fragment is safe to inline.
			"ContentHTML": template.HTML(rendered.String()),
		},
	})
}

func (h *Handler) handleAdvisories(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "advisories", http.StatusOK, pageData{
		Title:  "Security Advisories",
		Active: "advisories",
		Data:   h.advisories.Report(r.Context()),
	})
}

func (h *Handler) handleAstro(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "astro", http.StatusOK, pageData{
		Title:  "Astrometrics",
		Active: "astrometrics",
		Data:   h.astro.Dashboard(r.Context()),
	})
}

// handleSky honors the same ?lat= and ?lon= overrides as the JSON
// endpoint; bad coordinates render the 400 page.
func (h *Handler) handleSky(w http.ResponseWriter, r *http.Request) {
	lat, latErr := parseCoord(r.URL.Query().Get("lat"), 90)
	lon, lonErr := parseCoord(r.URL.Query().Get("lon"), 180)
	if latErr != nil || lonErr != nil || (lat == nil) != (lon == nil) {
		h.RenderError(w, r, http.StatusBadRequest)
		return
	}

	h.render(w, r, "sky", http.StatusOK, pageData{
		Title:  "Stargazing",
		Active: "stargazing",
		Data:   h.sky.Report(r.Context(), lat, lon, geoip.ClientIP(r)),
	})
}

// parseCoord parses an optional coordinate query value, bounded at
// +/- max degrees. Empty input yields nil.
func parseCoord(raw string, max float64) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if v < -max || v > max {
		return nil, strconv.ErrRange
	}
	return &v, nil
}

func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "contact", http.StatusOK, pageData{
		Title:  "Subspace Channel",
		Active: "contact",
	})
}

// errorTitles maps status codes to the LCARS error page headings.
var errorTitles = map[int]string{
	http.StatusBadRequest:          "Invalid Hail",
	http.StatusForbidden:           "Access Denied",
	http.StatusNotFound:            "Sector Not Charted",
	http.StatusTooManyRequests:     "Channel Congested",
	http.StatusInternalServerError: "Warp Core Breach",
	http.StatusServiceUnavailable:  "Systems Offline",
}

// RenderError writes an error page, negotiating the body format on the
// Accept header: browsers get the LCARS page, API clients get JSON.
func (h *Handler) RenderError(w http.ResponseWriter, r *http.Request, status int) {
	if !strings.Contains(r.Header.Get("Accept"), "text/html") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"status":"error","error":{"code":"` +
			http.StatusText(status) + `"}}`))
		return
	}

	title, ok := errorTitles[status]
	if !ok {
		title = http.StatusText(status)
	}
	h.render(w, r, "error", status, pageData{
		Title: title,
		Data: map[string]interface{}{
			"Status": status,
			"Title":  title,
		},
	})
}
