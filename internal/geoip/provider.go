// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package geoip resolves visitor IP addresses to approximate
// coordinates using the free ip-api.com service.
package geoip

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/borninthedark/starbase/internal/cache"
	"github.com/borninthedark/starbase/internal/logging"
	"github.com/borninthedark/starbase/internal/models"
)

// Provider defines the interface for geolocation lookup services.
type Provider interface {
	// Lookup returns geolocation data for the given IP address.
	Lookup(ctx context.Context, ipAddress string) (*models.Geolocation, error)

	// Name returns the provider name for logging.
	Name() string

	// IsAvailable reports whether a Lookup is likely to succeed right
	// now. Callers can skip the call instead of burning the error path.
	IsAvailable() bool
}

// ip-api.com free tier allows 45 requests per minute.
const ipAPIRequestsPerMinute = 45

// IPAPIProvider implements Provider using the free ip-api.com service.
// No API key is required on the free tier.
type IPAPIProvider struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

type ipAPIResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Query      string  `json:"query"`
}

// NewIPAPIProvider creates an ip-api.com provider with the free-tier
// rate limit applied client-side.
func NewIPAPIProvider() *IPAPIProvider {
	return &IPAPIProvider{
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Minute/ipAPIRequestsPerMinute), ipAPIRequestsPerMinute),
		baseURL: "http://ip-api.com/json",
	}
}

// Name returns the provider name.
func (p *IPAPIProvider) Name() string {
	return "ip-api.com"
}

// IsAvailable reports whether the free-tier budget has a token left.
// The service needs no API key, so the limiter is the only gate.
func (p *IPAPIProvider) IsAvailable() bool {
	return p.limiter.Tokens() >= 1
}

// Lookup queries ip-api.com for geolocation data.
func (p *IPAPIProvider) Lookup(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	if !p.limiter.Allow() {
		return nil, fmt.Errorf("rate limit exceeded for ip-api.com (%d req/min)", ipAPIRequestsPerMinute)
	}
	if ip := net.ParseIP(ipAddress); ip == nil {
		return nil, fmt.Errorf("invalid IP address: %s", ipAddress)
	}

	url := fmt.Sprintf("%s/%s?fields=status,message,country,regionName,city,lat,lon,query", p.baseURL, ipAddress)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying ip-api.com: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip-api.com returned status %d", resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding ip-api.com response: %w", err)
	}
	if result.Status != "success" {
		return nil, fmt.Errorf("ip-api.com lookup failed: %s", result.Message)
	}

	return &models.Geolocation{
		IP:        ipAddress,
		City:      result.City,
		Region:    result.RegionName,
		Country:   result.Country,
		Latitude:  result.Lat,
		Longitude: result.Lon,
	}, nil
}

// IsPrivateIP reports whether the address is private, loopback, or
// link-local. Such addresses cannot be geolocated.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// Resolver resolves IPs through a provider with a TTL cache in front.
// Private addresses short-circuit to a local marker without consuming
// provider quota.
type Resolver struct {
	provider Provider
	cache    *cache.Cache
}

// NewResolver creates a caching resolver around the given provider.
func NewResolver(provider Provider, cacheTTL time.Duration) *Resolver {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Resolver{
		provider: provider,
		cache:    cache.New(cacheTTL),
	}
}

// Resolve returns geolocation for the IP, consulting the cache first.
func (r *Resolver) Resolve(ctx context.Context, ipAddress string) (*models.Geolocation, error) {
	ipAddress = NormalizeIP(ipAddress)

	if IsPrivateIP(ipAddress) {
		return &models.Geolocation{IP: ipAddress, Local: true}, nil
	}

	key := cache.GenerateKey("geoip", ipAddress)
	if cached, ok := r.cache.Get(key); ok {
		if geo, ok := cached.(*models.Geolocation); ok {
			return geo, nil
		}
	}

	if !r.provider.IsAvailable() {
		return nil, fmt.Errorf("geolocation provider %s unavailable", r.provider.Name())
	}

	geo, err := r.provider.Lookup(ctx, ipAddress)
	if err != nil {
		logging.Debug().Err(err).Str("ip", ipAddress).Str("provider", r.provider.Name()).Msg("Geolocation lookup failed")
		return nil, err
	}

	r.cache.Set(key, geo)
	return geo, nil
}

// Close releases the resolver's cache resources.
func (r *Resolver) Close() {
	r.cache.Clear()
}

// NormalizeIP strips a port suffix and IPv6 brackets from an address.
func NormalizeIP(addr string) string {
	if strings.HasPrefix(addr, "[") {
		if idx := strings.LastIndex(addr, "]:"); idx != -1 {
			return addr[1:idx]
		}
		return strings.Trim(addr, "[]")
	}
	if strings.Count(addr, ":") == 1 {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			return host
		}
	}
	return addr
}

// ClientIP extracts the originating client address from a request,
// honoring X-Forwarded-For and X-Real-IP set by a reverse proxy.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	return NormalizeIP(r.RemoteAddr)
}
