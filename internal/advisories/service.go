// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package advisories

import (
	"context"
	"sort"
	"time"

	"github.com/borninthedark/starbase/internal/cache"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/metrics"
	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/payloadstore"
)

// maxAdvisories caps the listing after the severity rollup.
const maxAdvisories = 50

// Service aggregates CVE records across the configured keywords.
type Service struct {
	client     *NVDClient
	keywords   []string
	windowDays int
	cache      *cache.Cache
	payloads   *payloadstore.Store
}

// NewService creates the advisories service. payloads may be nil,
// disabling the stale-data fallback.
func NewService(client *NVDClient, keywords []string, windowDays int, payloads *payloadstore.Store) *Service {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Service{
		client:     client,
		keywords:   keywords,
		windowDays: windowDays,
		cache:      cache.New(time.Hour),
		payloads:   payloads,
	}
}

// Report returns the aggregated advisory report. When every keyword
// fetch fails, the last persisted report is served with the Degraded
// flag set; with no fallback either, the report is empty and degraded.
func (s *Service) Report(ctx context.Context) *models.AdvisoryReport {
	key := cache.GenerateKey("advisories", s.keywords)
	if cached, ok := s.cache.Get(key); ok {
		if report, ok := cached.(*models.AdvisoryReport); ok {
			metrics.CacheHits.WithLabelValues("advisories").Inc()
			return report
		}
	}
	metrics.CacheMisses.WithLabelValues("advisories").Inc()

	report, err := s.aggregate(ctx)
	if err == nil {
		s.cache.Set(key, report)
		if s.payloads != nil {
			if putErr := s.payloads.PutJSON(SourceNVD, report); putErr != nil {
				logging.Warn().Err(putErr).Msg("Failed to persist advisory report")
			}
		}
		return report
	}
	logging.Warn().Err(err).Msg("Advisory aggregation failed, trying stale report")

	if s.payloads != nil {
		var stale models.AdvisoryReport
		if fetchedAt, err := s.payloads.GetJSON(SourceNVD, &stale); err == nil {
			metrics.PayloadFallbacks.WithLabelValues(SourceNVD).Inc()
			logging.Info().Time("fetched_at", fetchedAt).Msg("Serving stale advisory report")
			stale.Degraded = true
			return &stale
		}
	}

	return &models.AdvisoryReport{
		Advisories:  []models.Advisory{},
		BySeverity:  map[string]int{},
		WindowDays:  s.windowDays,
		GeneratedAt: time.Now().UTC(),
		Degraded:    true,
	}
}

// Refresh force-aggregates and persists the report. The ingest poller
// calls this on its cadence.
func (s *Service) Refresh(ctx context.Context) error {
	report, err := s.aggregate(ctx)
	metrics.RecordIngestRun(SourceNVD, err)
	if err != nil {
		return err
	}
	if s.payloads != nil {
		if err := s.payloads.PutJSON(SourceNVD, report); err != nil {
			logging.Warn().Err(err).Msg("Failed to persist advisory report")
		}
	}
	return nil
}

// Close releases the service's cache resources.
func (s *Service) Close() {
	s.cache.Clear()
}

// aggregate fetches every keyword, dedups by CVE ID, and rolls up the
// severity counts. A partial failure degrades to the keywords that
// succeeded; aggregate only errors when every keyword fails.
func (s *Service) aggregate(ctx context.Context) (*models.AdvisoryReport, error) {
	until := time.Now().UTC()
	since := until.AddDate(0, 0, -s.windowDays)

	seen := make(map[string]bool)
	var advisories []models.Advisory
	var lastErr error
	succeeded := 0

	for _, keyword := range s.keywords {
		results, err := s.client.Search(ctx, keyword, since, until)
		if err != nil {
			logging.Warn().Err(err).Str("keyword", keyword).Msg("CVE keyword search failed")
			lastErr = err
			continue
		}
		succeeded++
		for _, advisory := range results {
			if seen[advisory.ID] {
				continue
			}
			seen[advisory.ID] = true
			advisories = append(advisories, advisory)
		}
	}

	if succeeded == 0 && lastErr != nil {
		return nil, lastErr
	}

	sort.Slice(advisories, func(i, j int) bool {
		if advisories[i].Score != advisories[j].Score {
			return advisories[i].Score > advisories[j].Score
		}
		return advisories[i].Published.After(advisories[j].Published)
	})
	if advisories == nil {
		advisories = []models.Advisory{}
	}

	// Severity rollup covers the full window; the listing is cut to
	// the highest-scoring entries.
	bySeverity := make(map[string]int)
	for _, advisory := range advisories {
		bySeverity[advisory.Severity]++
	}
	if len(advisories) > maxAdvisories {
		advisories = advisories[:maxAdvisories]
	}

	return &models.AdvisoryReport{
		Advisories:  advisories,
		BySeverity:  bySeverity,
		WindowDays:  s.windowDays,
		GeneratedAt: until,
	}, nil
}
