// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package ingest

import (
	"context"
	"time"

	"github.com/borninthedark/starbase/internal/advisories"
	"github.com/borninthedark/starbase/internal/astro"
	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/events"
	"github.com/borninthedark/starbase/internal/sky"
)

// Default poll cadences, used when the config leaves an interval unset.
const (
	DefaultTLEInterval     = 12 * time.Hour
	DefaultCVEInterval     = 6 * time.Hour
	DefaultAPODInterval    = 12 * time.Hour
	DefaultSpaceWxInterval = 30 * time.Minute
)

// AstroRefresher is the slice of the astrometrics service the workers need.
type AstroRefresher interface {
	RefreshAstronomy(ctx context.Context) error
	RefreshSpaceWeather(ctx context.Context) error
}

// SkyRefresher refreshes the satellite catalog.
type SkyRefresher interface {
	RefreshTLEs(ctx context.Context) error
}

// AdvisoryRefresher refreshes the CVE feed.
type AdvisoryRefresher interface {
	Refresh(ctx context.Context) error
}

// Workers builds the full poller set from config. Returns nil when
// ingest is disabled.
func Workers(cfg config.IngestConfig, astroSvc AstroRefresher, skySvc SkyRefresher, advisorySvc AdvisoryRefresher, bus *events.Bus) []*Worker {
	if !cfg.Enabled {
		return nil
	}

	return []*Worker{
		NewWorker("tle", sky.SourceTLE,
			intervalOr(cfg.TLEInterval, DefaultTLEInterval),
			skySvc.RefreshTLEs, bus),
		NewWorker("cve", advisories.SourceNVD,
			intervalOr(cfg.CVEInterval, DefaultCVEInterval),
			advisorySvc.Refresh, bus),
		NewWorker("apod", astro.SourceAPOD,
			intervalOr(cfg.APODInterval, DefaultAPODInterval),
			astroSvc.RefreshAstronomy, bus),
		NewWorker("space-weather", astro.SourceSWPC,
			intervalOr(cfg.SpaceWxInterval, DefaultSpaceWxInterval),
			astroSvc.RefreshSpaceWeather, bus),
	}
}

func intervalOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
