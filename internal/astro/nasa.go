// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package astro

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/upstream"
)

// Payload store keys for the NASA sources.
const (
	SourceAPOD = "nasa-apod"
	SourceNEO  = "nasa-neo"
)

const nasaBaseURL = "https://api.nasa.gov"

// NASAClient queries the NASA APOD and NeoWs APIs.
type NASAClient struct {
	apiKey  string
	baseURL string
	apod    *upstream.Client
	neo     *upstream.Client
}

// NewNASAClient creates a NASA API client. An empty key falls back to
// DEMO_KEY, which NASA throttles to 30 requests per hour.
func NewNASAClient(apiKey string, timeout time.Duration) *NASAClient {
	if apiKey == "" {
		apiKey = "DEMO_KEY"
	}
	return &NASAClient{
		apiKey:  apiKey,
		baseURL: nasaBaseURL,
		apod:    upstream.New(SourceAPOD, timeout, rate.Every(2*time.Second), 2),
		neo:     upstream.New(SourceNEO, timeout, rate.Every(2*time.Second), 2),
	}
}

type apodResponse struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright"`
}

// APOD fetches the Astronomy Picture of the Day.
func (c *NASAClient) APOD(ctx context.Context) (*models.APOD, error) {
	u := fmt.Sprintf("%s/planetary/apod?api_key=%s", c.baseURL, url.QueryEscape(c.apiKey))

	var resp apodResponse
	if err := c.apod.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &models.APOD{
		Date:        resp.Date,
		Title:       resp.Title,
		Explanation: resp.Explanation,
		URL:         resp.URL,
		MediaType:   resp.MediaType,
		Copyright:   resp.Copyright,
	}, nil
}

type neoFeedResponse struct {
	ElementCount int                        `json:"element_count"`
	NearObjects  map[string][]neoFeedObject `json:"near_earth_objects"`
}

type neoFeedObject struct {
	Name              string `json:"name"`
	Hazardous         bool   `json:"is_potentially_hazardous_asteroid"`
	EstimatedDiameter struct {
		Meters struct {
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	CloseApproachData []struct {
		MissDistance struct {
			Kilometers string `json:"kilometers"`
		} `json:"miss_distance"`
	} `json:"close_approach_data"`
}

// NEOSummary fetches today's near-earth objects and reduces them to
// the dashboard summary.
func (c *NASAClient) NEOSummary(ctx context.Context, date time.Time) (*models.NEOSummary, error) {
	day := date.UTC().Format("2006-01-02")
	u := fmt.Sprintf("%s/neo/rest/v1/feed?start_date=%s&end_date=%s&api_key=%s",
		c.baseURL, day, day, url.QueryEscape(c.apiKey))

	var resp neoFeedResponse
	if err := c.neo.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	summary := &models.NEOSummary{Date: day}
	for _, objects := range resp.NearObjects {
		for _, obj := range objects {
			summary.Count++
			if obj.Hazardous {
				summary.AnyHazardous = true
			}
			if obj.EstimatedDiameter.Meters.Max > summary.MaxDiameterM {
				summary.MaxDiameterM = obj.EstimatedDiameter.Meters.Max
			}
			for _, approach := range obj.CloseApproachData {
				km, err := strconv.ParseFloat(approach.MissDistance.Kilometers, 64)
				if err != nil {
					continue
				}
				if summary.ClosestApproachKM == 0 || km < summary.ClosestApproachKM {
					summary.ClosestApproachKM = km
				}
			}
		}
	}
	return summary, nil
}
