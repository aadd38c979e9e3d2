// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package sky

import (
	"math"
	"time"

	"github.com/borninthedark/starbase/internal/models"
)

// Composite score weights. They sum to 1.0.
const (
	weightClouds     = 0.40
	weightMoon       = 0.20
	weightKp         = 0.15
	weightVisibility = 0.15
	weightHumidity   = 0.10
)

// A reference new moon, used to place any instant in the synodic cycle.
var newMoonEpoch = time.Date(2000, time.January, 6, 18, 14, 0, 0, time.UTC)

const synodicMonthDays = 29.530588853

// MoonIllumination approximates the illuminated fraction of the moon
// at t, as a percentage. The cosine model over the synodic cycle is
// accurate to a few percent, which is plenty for a stargazing verdict.
func MoonIllumination(t time.Time) float64 {
	days := t.Sub(newMoonEpoch).Hours() / 24
	phase := days / synodicMonthDays
	phase -= math.Floor(phase)
	return (1 - math.Cos(2*math.Pi*phase)) / 2 * 100
}

// AuroraProbability estimates the chance of visible aurora at the
// latitude for the given planetary K index. Zero below 50 degrees.
func AuroraProbability(lat, kp float64) float64 {
	latFactor := (math.Abs(lat) - 50) / 2.5
	if latFactor < 0 {
		latFactor = 0
	}
	if latFactor > 1 {
		latFactor = 1
	}
	if kp < 0 {
		kp = 0
	}
	if kp > 9 {
		kp = 9
	}
	return latFactor * kp / 9 * 100
}

// Score computes the 0-100 composite stargazing score. A nil weather
// reading contributes nothing for its components, dragging the score
// down rather than inflating it.
func Score(weather *models.SkyWeather, moonPct, kp float64) int {
	var score float64

	if weather != nil {
		score += weightClouds * (100 - float64(weather.CloudCoverPct))

		// OWM caps visibility at 10km.
		visibility := float64(weather.VisibilityM) / 10000 * 100
		if visibility > 100 {
			visibility = 100
		}
		score += weightVisibility * visibility

		score += weightHumidity * (100 - float64(weather.HumidityPct))
	}

	score += weightMoon * (100 - moonPct)

	// Low Kp means stable skies; high Kp only helps aurora chasers.
	if kp > 9 {
		kp = 9
	}
	score += weightKp * (100 - kp/9*100)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(math.Round(score))
}

// Verdict maps a score onto the dashboard's verdict strings.
func Verdict(score int) string {
	switch {
	case score >= 80:
		return "Excellent viewing conditions"
	case score >= 60:
		return "Good viewing conditions"
	case score >= 40:
		return "Fair viewing conditions"
	case score >= 20:
		return "Poor viewing conditions"
	default:
		return "Unfavorable viewing conditions"
	}
}
