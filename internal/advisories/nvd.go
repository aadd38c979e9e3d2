// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package advisories aggregates recent CVE records from the NIST NVD
// into the security dashboard.
package advisories

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/borninthedark/starbase/internal/models"
	"github.com/borninthedark/starbase/internal/upstream"
)

// SourceNVD is the payload store key for the CVE feed.
const SourceNVD = "nist-nvd"

const nvdBaseURL = "https://services.nvd.nist.gov"

// NVD rate limits: 5 requests per 30s without a key, 50 with one.
const (
	publicRatePer30s  = 5
	keyedRatePer30s   = 50
	maxResultsPerPage = 100
)

// NVDClient queries the NVD CVE API 2.0.
type NVDClient struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

// NewNVDClient creates an NVD client. The API key is optional; without
// one NVD applies a much lower rate limit.
func NewNVDClient(apiKey string, timeout time.Duration) *NVDClient {
	per30s := publicRatePer30s
	if apiKey != "" {
		per30s = keyedRatePer30s
	}
	return &NVDClient{
		apiKey:  apiKey,
		baseURL: nvdBaseURL,
		client:  upstream.New(SourceNVD, timeout, rate.Every(30*time.Second/time.Duration(per30s)), 2),
	}
}

type nvdResponse struct {
	TotalResults    int `json:"totalResults"`
	Vulnerabilities []struct {
		CVE nvdCVE `json:"cve"`
	} `json:"vulnerabilities"`
}

type nvdCVE struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics struct {
		CVSSMetricV31 []nvdCVSSv3 `json:"cvssMetricV31"`
		CVSSMetricV30 []nvdCVSSv3 `json:"cvssMetricV30"`
		CVSSMetricV2  []nvdCVSSv2 `json:"cvssMetricV2"`
	} `json:"metrics"`
	References []struct {
		URL string `json:"url"`
	} `json:"references"`
}

type nvdCVSSv3 struct {
	CVSSData struct {
		BaseScore    float64 `json:"baseScore"`
		BaseSeverity string  `json:"baseSeverity"`
	} `json:"cvssData"`
}

type nvdCVSSv2 struct {
	CVSSData struct {
		BaseScore float64 `json:"baseScore"`
	} `json:"cvssData"`
	BaseSeverity string `json:"baseSeverity"`
}

// Search fetches CVEs matching the keyword published in the window.
func (c *NVDClient) Search(ctx context.Context, keyword string, since, until time.Time) ([]models.Advisory, error) {
	params := url.Values{}
	params.Set("keywordSearch", keyword)
	params.Set("pubStartDate", since.UTC().Format("2006-01-02T15:04:05.000"))
	params.Set("pubEndDate", until.UTC().Format("2006-01-02T15:04:05.000"))
	params.Set("resultsPerPage", fmt.Sprintf("%d", maxResultsPerPage))

	u := c.baseURL + "/rest/json/cves/2.0?" + params.Encode()

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["apiKey"] = c.apiKey
	}

	var resp nvdResponse
	if err := c.client.GetJSONWithHeaders(ctx, u, headers, &resp); err != nil {
		return nil, err
	}

	advisories := make([]models.Advisory, 0, len(resp.Vulnerabilities))
	for _, vuln := range resp.Vulnerabilities {
		advisories = append(advisories, convertCVE(vuln.CVE))
	}
	return advisories, nil
}

// convertCVE reduces an NVD record to the dashboard shape. CVSS scores
// fall back v3.1, then v3.0, then v2.
func convertCVE(cve nvdCVE) models.Advisory {
	advisory := models.Advisory{
		ID:       cve.ID,
		Summary:  "Data unavailable",
		Severity: "UNKNOWN",
	}

	if published, err := time.Parse("2006-01-02T15:04:05.000", cve.Published); err == nil {
		advisory.Published = published.UTC()
	}

	for _, desc := range cve.Descriptions {
		if desc.Lang == "en" && desc.Value != "" {
			advisory.Summary = desc.Value
			break
		}
	}

	switch {
	case len(cve.Metrics.CVSSMetricV31) > 0:
		advisory.Score = cve.Metrics.CVSSMetricV31[0].CVSSData.BaseScore
		advisory.Severity = strings.ToUpper(cve.Metrics.CVSSMetricV31[0].CVSSData.BaseSeverity)
	case len(cve.Metrics.CVSSMetricV30) > 0:
		advisory.Score = cve.Metrics.CVSSMetricV30[0].CVSSData.BaseScore
		advisory.Severity = strings.ToUpper(cve.Metrics.CVSSMetricV30[0].CVSSData.BaseSeverity)
	case len(cve.Metrics.CVSSMetricV2) > 0:
		advisory.Score = cve.Metrics.CVSSMetricV2[0].CVSSData.BaseScore
		advisory.Severity = strings.ToUpper(cve.Metrics.CVSSMetricV2[0].BaseSeverity)
	}

	if len(cve.References) > 0 {
		advisory.Reference = cve.References[0].URL
	}
	return advisory
}
