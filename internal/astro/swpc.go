// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package astro

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/upstream"
)

// SourceSWPC is the payload store key for NOAA space weather data.
const SourceSWPC = "noaa-swpc"

const swpcBaseURL = "https://services.swpc.noaa.gov"

// SWPCClient queries NOAA SWPC for the planetary K index and solar
// wind speed. SWPC publishes unauthenticated JSON products.
type SWPCClient struct {
	baseURL string
	client  *upstream.Client
}

// NewSWPCClient creates a NOAA SWPC client.
func NewSWPCClient(timeout time.Duration) *SWPCClient {
	return &SWPCClient{
		baseURL: swpcBaseURL,
		client:  upstream.New(SourceSWPC, timeout, rate.Every(time.Second), 2),
	}
}

// SpaceWeather fetches the current planetary K index, the 24 hour
// maximum, and the solar wind speed.
func (c *SWPCClient) SpaceWeather(ctx context.Context) (*models.SpaceWeather, error) {
	kIndex, kMax, observedAt, err := c.planetaryKIndex(ctx)
	if err != nil {
		return nil, err
	}

	weather := &models.SpaceWeather{
		KIndex:       kIndex,
		KIndexMax24H: kMax,
		ObservedAt:   observedAt,
	}

	// Solar wind is supplementary. A failure here does not sink the
	// whole reading.
	if speed, err := c.solarWindSpeed(ctx); err == nil {
		weather.SolarWindKmS = speed
	}

	return weather, nil
}

// planetaryKIndex parses the SWPC product, a JSON table whose first
// row is the header: [["time_tag","Kp","a_running","station_count"], ...].
func (c *SWPCClient) planetaryKIndex(ctx context.Context) (current, max24h float64, observedAt time.Time, err error) {
	var rows [][]string
	if err = c.client.GetJSON(ctx, c.baseURL+"/products/noaa-planetary-k-index.json", &rows); err != nil {
		return 0, 0, time.Time{}, err
	}
	if len(rows) < 2 {
		return 0, 0, time.Time{}, fmt.Errorf("swpc k-index product has no data rows")
	}

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	for _, row := range rows[1:] {
		if len(row) < 2 {
			continue
		}
		ts, tsErr := time.Parse("2006-01-02 15:04:05.000", row[0])
		if tsErr != nil {
			continue
		}
		kp, kpErr := strconv.ParseFloat(row[1], 64)
		if kpErr != nil {
			continue
		}
		current = kp
		observedAt = ts.UTC()
		if ts.After(cutoff) && kp > max24h {
			max24h = kp
		}
	}
	if observedAt.IsZero() {
		return 0, 0, time.Time{}, fmt.Errorf("swpc k-index product had no parsable rows")
	}
	return current, max24h, observedAt, nil
}

type solarWindSummary struct {
	WindSpeed string `json:"WindSpeed"`
}

func (c *SWPCClient) solarWindSpeed(ctx context.Context) (float64, error) {
	var summary solarWindSummary
	if err := c.client.GetJSON(ctx, c.baseURL+"/products/summary/solar-wind-speed.json", &summary); err != nil {
		return 0, err
	}
	speed, err := strconv.ParseFloat(summary.WindSpeed, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing solar wind speed %q: %w", summary.WindSpeed, err)
	}
	return speed, nil
}
