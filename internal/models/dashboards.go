// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package models

import "time"

// APOD is the NASA Astronomy Picture of the Day, reduced to the fields
// the astrometrics page renders.
type APOD struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	Explanation string `json:"explanation"`
	URL         string `json:"url"`
	MediaType   string `json:"media_type"`
	Copyright   string `json:"copyright,omitempty"`
}

// NEOSummary summarizes today's near-earth objects from NASA NeoWs.
type NEOSummary struct {
	Date              string  `json:"date"`
	Count             int     `json:"count"`
	ClosestApproachKM float64 `json:"closest_approach_km"`
	MaxDiameterM      float64 `json:"max_diameter_m"`
	AnyHazardous      bool    `json:"any_hazardous"`
}

// SpaceWeather carries NOAA SWPC readings.
type SpaceWeather struct {
	KIndex       float64   `json:"k_index"`
	KIndexMax24H float64   `json:"k_index_max_24h"`
	SolarWindKmS float64   `json:"solar_wind_km_s"`
	ObservedAt   time.Time `json:"observed_at"`
}

// AstroDashboard is the combined astrometrics payload. Each section may
// be nil when its upstream is unavailable; Degraded lists which.
type AstroDashboard struct {
	APOD         *APOD         `json:"apod,omitempty"`
	NEO          *NEOSummary   `json:"neo,omitempty"`
	SpaceWeather *SpaceWeather `json:"space_weather,omitempty"`
	Degraded     []string      `json:"degraded,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// ObserverSite is the location a sky report is computed for.
type ObserverSite struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Source is "query", "geoip" or "default".
	Source string `json:"source"`
}

// SkyWeather carries the OpenWeatherMap readings the score uses.
type SkyWeather struct {
	CloudCoverPct int     `json:"cloud_cover_pct"`
	VisibilityM   int     `json:"visibility_m"`
	HumidityPct   int     `json:"humidity_pct"`
	TempC         float64 `json:"temp_c"`
	Conditions    string  `json:"conditions"`
}

// SatellitePass is one visibility window over the observer.
type SatellitePass struct {
	Satellite     string    `json:"satellite"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	PeakElevation float64   `json:"peak_elevation_deg"`
}

// SkyReport is the stargazing dashboard payload.
type SkyReport struct {
	Site              ObserverSite    `json:"site"`
	Weather           *SkyWeather     `json:"weather,omitempty"`
	Passes            []SatellitePass `json:"passes"`
	MoonIllumination  float64         `json:"moon_illumination_pct"`
	AuroraProbability float64         `json:"aurora_probability_pct"`
	Score             int             `json:"score"`
	Verdict           string          `json:"verdict"`
	Degraded          []string        `json:"degraded,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// Advisory is one aggregated CVE record.
type Advisory struct {
	ID        string    `json:"id"`
	Summary   string    `json:"summary"`
	Severity  string    `json:"severity"`
	Score     float64   `json:"score"`
	Published time.Time `json:"published"`
	Reference string    `json:"reference,omitempty"`
}

// AdvisoryReport is the security dashboard payload.
type AdvisoryReport struct {
	Advisories  []Advisory     `json:"advisories"`
	BySeverity  map[string]int `json:"by_severity"`
	WindowDays  int            `json:"window_days"`
	GeneratedAt time.Time      `json:"generated_at"`
	Degraded    bool           `json:"degraded,omitempty"`
}

// Geolocation is a resolved client location.
type Geolocation struct {
	IP        string  `json:"ip"`
	City      string  `json:"city,omitempty"`
	Region    string  `json:"region,omitempty"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	// Local marks private and loopback addresses mapped to the
	// configured observer site.
	Local bool `json:"local,omitempty"`
}
