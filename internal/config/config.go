// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package config defines the Starbase configuration tree and its layered
// loader (defaults, then an optional YAML file, then environment
// variables).
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Payloads PayloadsConfig `koanf:"payloads"`
	Security SecurityConfig `koanf:"security"`
	Upstream UpstreamConfig `koanf:"upstream"`
	Observer ObserverConfig `koanf:"observer"`
	SMTP     SMTPConfig     `koanf:"smtp"`
	Ingest   IngestConfig   `koanf:"ingest"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	BaseURL     string        `koanf:"base_url"`
	Environment string        `koanf:"environment"`
	// PDFDir is the directory holding certification PDFs.
	PDFDir string `koanf:"pdf_dir"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig holds SQLite settings.
type DatabaseConfig struct {
	Path        string        `koanf:"path"`
	BusyTimeout time.Duration `koanf:"busy_timeout"`
}

// PayloadsConfig holds the Badger payload store settings.
type PayloadsConfig struct {
	Dir string        `koanf:"dir"`
	TTL time.Duration `koanf:"ttl"`
}

// SecurityConfig holds authentication and request-protection settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	SessionTimeout  time.Duration `koanf:"session_timeout"`
	BcryptCost      int           `koanf:"bcrypt_cost"`
	AdminEmail      string        `koanf:"admin_email"`
	AdminPassword   string        `koanf:"admin_password"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	CSRFCookieName  string        `koanf:"csrf_cookie_name"`
	CSRFTokenTTL    time.Duration `koanf:"csrf_token_ttl"`
	CookieSecure    bool          `koanf:"cookie_secure"`
	LockoutAttempts int           `koanf:"lockout_attempts"`
	LockoutWindow   time.Duration `koanf:"lockout_window"`
	LockoutCooldown time.Duration `koanf:"lockout_cooldown"`
}

// UpstreamConfig holds third-party API settings.
type UpstreamConfig struct {
	NASAAPIKey    string        `koanf:"nasa_api_key"`
	OWMAPIKey     string        `koanf:"owm_api_key"`
	NVDAPIKey     string        `koanf:"nvd_api_key"`
	NVDKeywords   []string      `koanf:"nvd_keywords"`
	NVDWindowDays int           `koanf:"nvd_window_days"`
	Timeout       time.Duration `koanf:"timeout"`
}

// ObserverConfig is the default stargazing site, used when a request
// carries neither coordinates nor a resolvable public IP.
type ObserverConfig struct {
	Name      string  `koanf:"name"`
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
}

// SMTPConfig holds contact-form delivery settings.
type SMTPConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	To       string `koanf:"to"`
}

// IngestConfig holds background poller cadences.
type IngestConfig struct {
	Enabled         bool          `koanf:"enabled"`
	TLEInterval     time.Duration `koanf:"tle_interval"`
	CVEInterval     time.Duration `koanf:"cve_interval"`
	APODInterval    time.Duration `koanf:"apod_interval"`
	SpaceWxInterval time.Duration `koanf:"space_wx_interval"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for unusable or unsafe values.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Payloads.Dir == "" {
		return fmt.Errorf("payloads.dir is required")
	}
	if c.Security.BcryptCost < 10 || c.Security.BcryptCost > 16 {
		return fmt.Errorf("security.bcrypt_cost %d outside [10,16]", c.Security.BcryptCost)
	}
	if c.Security.SessionTimeout <= 0 {
		return fmt.Errorf("security.session_timeout must be positive")
	}
	if c.Security.LockoutAttempts < 1 {
		return fmt.Errorf("security.lockout_attempts must be at least 1")
	}
	if c.Observer.Latitude < -90 || c.Observer.Latitude > 90 {
		return fmt.Errorf("observer.latitude %f out of range", c.Observer.Latitude)
	}
	if c.Observer.Longitude < -180 || c.Observer.Longitude > 180 {
		return fmt.Errorf("observer.longitude %f out of range", c.Observer.Longitude)
	}
	if c.SMTP.Enabled {
		if c.SMTP.Host == "" || c.SMTP.From == "" || c.SMTP.To == "" {
			return fmt.Errorf("smtp.host, smtp.from and smtp.to are required when smtp.enabled")
		}
	}

	if c.IsProduction() {
		if len(c.Security.JWTSecret) < 32 {
			return fmt.Errorf("security.jwt_secret must be at least 32 bytes in production")
		}
		if !c.Security.CookieSecure {
			return fmt.Errorf("security.cookie_secure must be true in production")
		}
		for _, origin := range c.Security.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("security.cors_origins must not contain * in production")
			}
		}
	}

	return nil
}
