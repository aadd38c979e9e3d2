// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package sky

import (
	"sort"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/borninthedark/starbase/internal/models"
)

// Pass prediction bounds. The scan is a fixed-step elevation sweep, so
// these cap its cost.
const (
	// MinElevationDeg is the elevation threshold for a visible pass.
	MinElevationDeg = 10.0

	// DefaultScanHours is how far ahead the sweep looks.
	DefaultScanHours = 6

	// scanStep is the sweep resolution.
	scanStep = time.Minute

	// maxSatellites bounds how many catalog entries are propagated.
	maxSatellites = 30

	// maxPasses bounds the report size.
	maxPasses = 10
)

// PredictPasses sweeps the next scanHours for windows where a
// satellite sits at least MinElevationDeg above the observer's
// horizon. TLE sets that fail SGP4 initialization are skipped.
func PredictPasses(tles []TLE, lat, lon float64, from time.Time, scanHours int) []models.SatellitePass {
	if scanHours <= 0 {
		scanHours = DefaultScanHours
	}
	if len(tles) > maxSatellites {
		tles = tles[:maxSatellites]
	}

	observer := satellite.LatLong{
		Latitude:  lat * satellite.DEG2RAD,
		Longitude: lon * satellite.DEG2RAD,
	}

	var passes []models.SatellitePass
	end := from.Add(time.Duration(scanHours) * time.Hour)

	for _, tle := range tles {
		sat := satellite.TLEToSat(tle.Line1, tle.Line2, satellite.GravityWGS84)
		if sat.Error != 0 {
			continue
		}
		passes = append(passes, scanSatellite(sat, tle.Name, observer, from, end)...)
	}

	sort.Slice(passes, func(i, j int) bool {
		return passes[i].Start.Before(passes[j].Start)
	})
	if len(passes) > maxPasses {
		passes = passes[:maxPasses]
	}
	return passes
}

// scanSatellite finds the maximal above-threshold windows for one
// satellite.
func scanSatellite(sat satellite.Satellite, name string, observer satellite.LatLong, from, end time.Time) []models.SatellitePass {
	var passes []models.SatellitePass
	var current *models.SatellitePass
	var prev time.Time

	for t := from; !t.After(end); t = t.Add(scanStep) {
		elevation := elevationAt(sat, observer, t)

		if elevation >= MinElevationDeg {
			if current == nil {
				current = &models.SatellitePass{
					Satellite: name,
					Start:     t,
				}
			}
			if elevation > current.PeakElevation {
				current.PeakElevation = elevation
			}
			prev = t
			continue
		}
		if current != nil {
			current.End = prev
			passes = append(passes, *current)
			current = nil
		}
	}
	if current != nil {
		current.End = prev
		passes = append(passes, *current)
	}
	return passes
}

// elevationAt computes the satellite's elevation in degrees above the
// observer at time t.
func elevationAt(sat satellite.Satellite, observer satellite.LatLong, t time.Time) float64 {
	utc := t.UTC()
	year, month, day := utc.Date()
	hour, minute, second := utc.Clock()

	position, _ := satellite.Propagate(sat, year, int(month), day, hour, minute, second)
	jday := satellite.JDay(year, int(month), day, hour, minute, second)
	angles := satellite.ECIToLookAngles(position, observer, 0, jday)
	return angles.El / satellite.DEG2RAD
}
