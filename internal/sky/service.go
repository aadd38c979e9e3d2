// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package sky

import (
	"context"
	"time"

	"github.com/borninthedark/starbase/internal/cache"
	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/payloadstore"
)

// SpaceWeatherProvider supplies the current planetary K index reading.
type SpaceWeatherProvider interface {
	SpaceWeather(ctx context.Context) *models.SpaceWeather
}

// Locator resolves a client IP to a location.
type Locator interface {
	Resolve(ctx context.Context, ip string) (*models.Geolocation, error)
}

// Service assembles the stargazing report for an observer site.
type Service struct {
	owm       *OWMClient
	celestrak *CelesTrakClient
	space     SpaceWeatherProvider
	locator   Locator
	site      config.ObserverConfig
	payloads  *payloadstore.Store
	cache     *cache.Cache
	scanHours int
}

// NewService creates the stargazing service. locator and payloads may
// be nil, disabling geoip site resolution and the stale TLE fallback
// respectively.
func NewService(owm *OWMClient, celestrak *CelesTrakClient, space SpaceWeatherProvider, locator Locator, site config.ObserverConfig, payloads *payloadstore.Store) *Service {
	return &Service{
		owm:       owm,
		celestrak: celestrak,
		space:     space,
		locator:   locator,
		site:      site,
		payloads:  payloads,
		cache:     cache.New(10 * time.Minute),
		scanHours: DefaultScanHours,
	}
}

// ResolveSite picks the observer site: explicit coordinates win, then
// a geoip lookup of the client IP, then the configured default.
// Private addresses skip the lookup.
func (s *Service) ResolveSite(ctx context.Context, lat, lon *float64, clientIP string) models.ObserverSite {
	if lat != nil && lon != nil {
		return models.ObserverSite{
			Name:      "Requested coordinates",
			Latitude:  *lat,
			Longitude: *lon,
			Source:    "query",
		}
	}

	if s.locator != nil && clientIP != "" {
		if geo, err := s.locator.Resolve(ctx, clientIP); err == nil && !geo.Local {
			name := geo.City
			if name == "" {
				name = geo.Country
			}
			return models.ObserverSite{
				Name:      name,
				Latitude:  geo.Latitude,
				Longitude: geo.Longitude,
				Source:    "geoip",
			}
		}
	}

	return models.ObserverSite{
		Name:      s.site.Name,
		Latitude:  s.site.Latitude,
		Longitude: s.site.Longitude,
		Source:    "default",
	}
}

// Report builds the stargazing report for the resolved site. Upstream
// failures degrade individual sections, never the report itself.
func (s *Service) Report(ctx context.Context, lat, lon *float64, clientIP string) *models.SkyReport {
	site := s.ResolveSite(ctx, lat, lon, clientIP)
	now := time.Now().UTC()

	key := cache.GenerateKey("sky-report", site)
	if cached, ok := s.cache.Get(key); ok {
		if report, ok := cached.(*models.SkyReport); ok {
			metrics.CacheHits.WithLabelValues("sky").Inc()
			return report
		}
	}
	metrics.CacheMisses.WithLabelValues("sky").Inc()

	report := &models.SkyReport{
		Site:             site,
		MoonIllumination: MoonIllumination(now),
		GeneratedAt:      now,
		Passes:           []models.SatellitePass{},
	}

	weather, err := s.owm.Current(ctx, site.Latitude, site.Longitude)
	if err != nil {
		logging.Warn().Err(err).Msg("Weather fetch failed")
		report.Degraded = append(report.Degraded, SourceWeather)
	}
	report.Weather = weather

	var kp float64
	if space := s.space.SpaceWeather(ctx); space != nil {
		kp = space.KIndex
	} else {
		report.Degraded = append(report.Degraded, "noaa-swpc")
	}
	report.AuroraProbability = AuroraProbability(site.Latitude, kp)

	if tles := s.fetchTLEs(ctx); len(tles) > 0 {
		report.Passes = PredictPasses(tles, site.Latitude, site.Longitude, now, s.scanHours)
	} else {
		report.Degraded = append(report.Degraded, SourceTLE)
	}

	report.Score = Score(weather, report.MoonIllumination, kp)
	report.Verdict = Verdict(report.Score)

	s.cache.Set(key, report)
	return report
}

// RefreshTLEs force-fetches the catalog and persists it. The ingest
// poller calls this on its cadence.
func (s *Service) RefreshTLEs(ctx context.Context) error {
	tles, err := s.celestrak.VisualGroup(ctx)
	metrics.RecordIngestRun(SourceTLE, err)
	if err != nil {
		return err
	}
	if s.payloads != nil {
		if err := s.payloads.PutJSON(SourceTLE, tles); err != nil {
			logging.Warn().Err(err).Msg("Failed to persist TLE catalog")
		}
	}
	return nil
}

// Close releases the service's cache resources.
func (s *Service) Close() {
	s.cache.Clear()
}

// fetchTLEs returns the catalog, falling back to the last persisted
// snapshot when the live fetch fails.
func (s *Service) fetchTLEs(ctx context.Context) []TLE {
	tles, err := s.celestrak.VisualGroup(ctx)
	if err == nil {
		if s.payloads != nil {
			if err := s.payloads.PutJSON(SourceTLE, tles); err != nil {
				logging.Warn().Err(err).Msg("Failed to persist TLE catalog")
			}
		}
		return tles
	}
	logging.Warn().Err(err).Msg("TLE fetch failed, trying stale catalog")

	if s.payloads != nil {
		var stale []TLE
		if fetchedAt, err := s.payloads.GetJSON(SourceTLE, &stale); err == nil {
			metrics.PayloadFallbacks.WithLabelValues(SourceTLE).Inc()
			logging.Info().Time("fetched_at", fetchedAt).Msg("Serving stale TLE catalog")
			return stale
		}
	}
	return nil
}
