// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package sky computes the stargazing report: current weather, visible
// satellite passes from SGP4 propagation, moon illumination, aurora
// probability, and a weighted composite score.
package sky

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/borninthedark/starbase/internal/upstream"
)

// SourceTLE is the payload store key for the CelesTrak catalog.
const SourceTLE = "celestrak-tle"

const celestrakBaseURL = "https://celestrak.org"

// TLE is one two-line element set from the catalog.
type TLE struct {
	Name  string `json:"name"`
	Line1 string `json:"line1"`
	Line2 string `json:"line2"`
}

// CelesTrakClient fetches the visual-magnitude satellite group.
type CelesTrakClient struct {
	baseURL string
	client  *upstream.Client
}

// NewCelesTrakClient creates a CelesTrak TLE client.
func NewCelesTrakClient(timeout time.Duration) *CelesTrakClient {
	return &CelesTrakClient{
		baseURL: celestrakBaseURL,
		client:  upstream.New(SourceTLE, timeout, rate.Every(5*time.Second), 1),
	}
}

// VisualGroup fetches the "visual" group, the ~150 brightest
// satellites, as parsed TLE sets.
func (c *CelesTrakClient) VisualGroup(ctx context.Context) ([]TLE, error) {
	body, err := c.client.Get(ctx, c.baseURL+"/NORAD/elements/gp.php?GROUP=visual&FORMAT=tle")
	if err != nil {
		return nil, err
	}
	tles := ParseTLEs(string(body))
	if len(tles) == 0 {
		return nil, fmt.Errorf("celestrak catalog had no parsable TLE sets")
	}
	return tles, nil
}

// ParseTLEs splits catalog text into TLE sets. The format is strict
// groups of three lines: name, line 1, line 2.
func ParseTLEs(text string) []TLE {
	var tles []TLE
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r ")
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	for i := 0; i+2 < len(lines); {
		name, l1, l2 := lines[i], lines[i+1], lines[i+2]
		if !strings.HasPrefix(l1, "1 ") || !strings.HasPrefix(l2, "2 ") {
			i++
			continue
		}
		tles = append(tles, TLE{
			Name:  strings.TrimSpace(name),
			Line1: l1,
			Line2: l2,
		})
		i += 3
	}
	return tles
}
