// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/borninthedark/starbase/internal/advisories"
	"github.com/borninthedark/starbase/internal/api"
	"github.com/borninthedark/starbase/internal/astro"
	"github.com/borninthedark/starbase/internal/auth"
	"github.com/borninthedark/starbase/internal/authz"
	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/database"
	"github.com/borninthedark/starbase/internal/events"
	"github.com/borninthedark/starbase/internal/geoip"
	"github.com/borninthedark/starbase/internal/ingest"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/mailer"
	"github.com/borninthedark/starbase/internal/payloadstore"
	"github.com/borninthedark/starbase/internal/sky"
	"github.com/borninthedark/starbase/internal/supervisor"
	"github.com/borninthedark/starbase/internal/web"
	"github.com/borninthedark/starbase/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	log := logging.WithComponent("server")
	log.Info().Str("addr", cfg.Server.Addr()).Msg("starting starbase")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Storage.
	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	payloads, err := payloadstore.Open(cfg.Payloads.Dir, cfg.Payloads.TTL)
	if err != nil {
		return err
	}
	defer func() { _ = payloads.Close() }()

	if err := os.MkdirAll(cfg.Server.PDFDir, 0o755); err != nil {
		return err
	}

	// Auth.
	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		return err
	}
	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		return err
	}
	defer enforcer.Close()

	csrf := auth.NewCSRFProtection(auth.CSRFConfig{
		CookieName:   cfg.Security.CSRFCookieName,
		TokenTTL:     cfg.Security.CSRFTokenTTL,
		CookieSecure: cfg.Security.CookieSecure,
	})
	csrf.StartCleanupRoutine(cfg.Security.CSRFTokenTTL / 4)
	defer csrf.Stop()

	if err := ensureAdminUser(ctx, db, cfg); err != nil {
		return err
	}

	// Upstream services.
	timeout := cfg.Upstream.Timeout
	astroSvc := astro.NewService(
		astro.NewNASAClient(cfg.Upstream.NASAAPIKey, timeout),
		astro.NewSWPCClient(timeout),
		payloads, cfg.Payloads.TTL,
	)
	locator := geoip.NewResolver(geoip.NewIPAPIProvider(), cfg.Payloads.TTL)
	skySvc := sky.NewService(
		sky.NewOWMClient(cfg.Upstream.OWMAPIKey, timeout),
		sky.NewCelesTrakClient(timeout),
		astroSvc, locator, cfg.Observer, payloads,
	)
	advisorySvc := advisories.NewService(
		advisories.NewNVDClient(cfg.Upstream.NVDAPIKey, timeout),
		cfg.Upstream.NVDKeywords, cfg.Upstream.NVDWindowDays, payloads,
	)

	// Messaging.
	bus := events.NewBus()
	defer func() { _ = bus.Close() }()
	hub := websocket.NewHub()
	bridge := websocket.NewBridge(bus, hub)

	// Pages.
	pages, err := web.NewHandler(db, astroSvc, skySvc, advisorySvc)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.Deps{
		Config:     cfg,
		DB:         db,
		JWT:        jwtMgr,
		CSRF:       csrf,
		Lockout:    auth.NewLockoutManager(&cfg.Security),
		Enforcer:   enforcer,
		Astro:      astroSvc,
		Sky:        skySvc,
		Advisories: advisorySvc,
		Mailer:     mailer.New(cfg.SMTP),
		Payloads:   payloads,
		Hub:        hub,
		Pages:      pages.Routes(),
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	// Supervision.
	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddMessagingService(supervisor.NewRunnerService("websocket-hub", hub.RunWithContext))
	tree.AddMessagingService(supervisor.NewRunnerService("event-bridge", bridge.Run))
	for _, worker := range ingest.Workers(cfg.Ingest, astroSvc, skySvc, advisorySvc, bus) {
		tree.AddMessagingService(worker)
	}
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.Timeout))

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info().Msg("starbase stopped")
	return nil
}

// ensureAdminUser seeds the configured admin account on first start.
func ensureAdminUser(ctx context.Context, db *database.DB, cfg *config.Config) error {
	if cfg.Security.AdminEmail == "" || cfg.Security.AdminPassword == "" {
		return nil
	}
	hash, err := auth.HashPassword(cfg.Security.AdminPassword, cfg.Security.BcryptCost)
	if err != nil {
		return err
	}
	return db.EnsureAdminUser(ctx, cfg.Security.AdminEmail, hash)
}
