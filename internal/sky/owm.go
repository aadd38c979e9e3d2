// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package sky

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/upstream"
)

// SourceWeather is the payload store key for OpenWeatherMap data.
const SourceWeather = "owm-weather"

const owmBaseURL = "https://api.openweathermap.org"

// ErrNoWeatherKey is returned when no OpenWeatherMap API key is
// configured.
var ErrNoWeatherKey = errors.New("openweathermap api key not configured")

// OWMClient fetches current conditions from OpenWeatherMap.
type OWMClient struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

// NewOWMClient creates an OpenWeatherMap client.
func NewOWMClient(apiKey string, timeout time.Duration) *OWMClient {
	return &OWMClient{
		apiKey:  apiKey,
		baseURL: owmBaseURL,
		client:  upstream.New(SourceWeather, timeout, rate.Every(time.Second), 2),
	}
}

type owmResponse struct {
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Visibility int `json:"visibility"`
	Clouds     struct {
		All int `json:"all"`
	} `json:"clouds"`
}

// Current fetches current conditions for the coordinates.
func (c *OWMClient) Current(ctx context.Context, lat, lon float64) (*models.SkyWeather, error) {
	if c.apiKey == "" {
		return nil, ErrNoWeatherKey
	}

	u := fmt.Sprintf("%s/data/2.5/weather?lat=%.4f&lon=%.4f&units=metric&appid=%s",
		c.baseURL, lat, lon, url.QueryEscape(c.apiKey))

	var resp owmResponse
	if err := c.client.GetJSON(ctx, u, &resp); err != nil {
		return nil, err
	}

	weather := &models.SkyWeather{
		CloudCoverPct: resp.Clouds.All,
		VisibilityM:   resp.Visibility,
		HumidityPct:   resp.Main.Humidity,
		TempC:         resp.Main.Temp,
	}
	if len(resp.Weather) > 0 {
		weather.Conditions = resp.Weather[0].Description
	}
	return weather, nil
}
