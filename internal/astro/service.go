// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package astro aggregates the astrometrics dashboard from NASA and
// NOAA upstreams. Each upstream sits behind a circuit breaker, and the
// last good payload is persisted so the dashboard degrades to stale
// data instead of failing when an upstream is down.
package astro

import (
	"context"
	"errors"
	"time"

	"github.com/borninthedark/starbase/internal/cache"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/payloadstore"
)

// Service assembles the astrometrics dashboard. Each section resolves
// through the memory cache first, then a live fetch, then the stale
// payload store. A section with no data at any layer is reported in
// the Degraded list instead of failing the dashboard.
type Service struct {
	nasa     *NASAClient
	swpc     *SWPCClient
	cache    *cache.Cache
	payloads *payloadstore.Store
}

// NewService creates the astrometrics service. payloads may be nil,
// which disables the stale-data fallback layer.
func NewService(nasa *NASAClient, swpc *SWPCClient, payloads *payloadstore.Store, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &Service{
		nasa:     nasa,
		swpc:     swpc,
		cache:    cache.New(cacheTTL),
		payloads: payloads,
	}
}

// Dashboard returns the combined astrometrics payload. It never fails;
// unavailable sections are listed in Degraded.
func (s *Service) Dashboard(ctx context.Context) *models.AstroDashboard {
	dashboard := &models.AstroDashboard{GeneratedAt: time.Now().UTC()}

	apod := resolve(ctx, s, SourceAPOD, func(ctx context.Context) (*models.APOD, error) {
		return s.nasa.APOD(ctx)
	})
	if apod == nil {
		dashboard.Degraded = append(dashboard.Degraded, SourceAPOD)
	}
	dashboard.APOD = apod

	neo := resolve(ctx, s, SourceNEO, func(ctx context.Context) (*models.NEOSummary, error) {
		return s.nasa.NEOSummary(ctx, time.Now())
	})
	if neo == nil {
		dashboard.Degraded = append(dashboard.Degraded, SourceNEO)
	}
	dashboard.NEO = neo

	weather := resolve(ctx, s, SourceSWPC, func(ctx context.Context) (*models.SpaceWeather, error) {
		return s.swpc.SpaceWeather(ctx)
	})
	if weather == nil {
		dashboard.Degraded = append(dashboard.Degraded, SourceSWPC)
	}
	dashboard.SpaceWeather = weather

	return dashboard
}

// SpaceWeather returns the current space weather reading through the
// same fallback layering. The stargazing score consumes this.
func (s *Service) SpaceWeather(ctx context.Context) *models.SpaceWeather {
	return resolve(ctx, s, SourceSWPC, func(ctx context.Context) (*models.SpaceWeather, error) {
		return s.swpc.SpaceWeather(ctx)
	})
}

// RefreshAstronomy force-fetches the NASA sources and persists the
// results. The background ingest pollers call this on their cadence.
func (s *Service) RefreshAstronomy(ctx context.Context) error {
	var errs []error

	if apod, err := s.nasa.APOD(ctx); err != nil {
		errs = append(errs, err)
		metrics.RecordIngestRun(SourceAPOD, err)
	} else {
		s.store(SourceAPOD, apod)
		metrics.RecordIngestRun(SourceAPOD, nil)
	}

	if neo, err := s.nasa.NEOSummary(ctx, time.Now()); err != nil {
		errs = append(errs, err)
		metrics.RecordIngestRun(SourceNEO, err)
	} else {
		s.store(SourceNEO, neo)
		metrics.RecordIngestRun(SourceNEO, nil)
	}

	return errors.Join(errs...)
}

// RefreshSpaceWeather force-fetches the NOAA SWPC reading. It runs on a
// much shorter cadence than the NASA sources because Kp changes quickly.
func (s *Service) RefreshSpaceWeather(ctx context.Context) error {
	weather, err := s.swpc.SpaceWeather(ctx)
	metrics.RecordIngestRun(SourceSWPC, err)
	if err != nil {
		return err
	}
	s.store(SourceSWPC, weather)
	return nil
}

// Refresh force-fetches every source.
func (s *Service) Refresh(ctx context.Context) error {
	return errors.Join(s.RefreshAstronomy(ctx), s.RefreshSpaceWeather(ctx))
}

// Close releases the service's cache resources.
func (s *Service) Close() {
	s.cache.Clear()
}

// resolve walks the fallback layers for one source.
func resolve[T any](ctx context.Context, s *Service, source string, fetch func(context.Context) (*T, error)) *T {
	key := cache.GenerateKey("astro", source)
	if cached, ok := s.cache.Get(key); ok {
		if value, ok := cached.(*T); ok {
			metrics.CacheHits.WithLabelValues("astro").Inc()
			return value
		}
	}
	metrics.CacheMisses.WithLabelValues("astro").Inc()

	value, err := fetch(ctx)
	if err == nil {
		s.cache.Set(key, value)
		s.store(source, value)
		return value
	}
	logging.Warn().Err(err).Str("source", source).Msg("Live fetch failed, trying stale payload")

	if s.payloads != nil {
		var stale T
		if fetchedAt, err := s.payloads.GetJSON(source, &stale); err == nil {
			metrics.PayloadFallbacks.WithLabelValues(source).Inc()
			logging.Info().
				Str("source", source).
				Time("fetched_at", fetchedAt).
				Msg("Serving stale payload")
			return &stale
		}
	}

	return nil
}

// store caches the value in the payload store, logging but otherwise
// ignoring persistence failures.
func (s *Service) store(source string, v interface{}) {
	if s.payloads == nil {
		return
	}
	if err := s.payloads.PutJSON(source, v); err != nil {
		logging.Warn().Err(err).Str("source", source).Msg("Failed to persist payload")
	}
}
