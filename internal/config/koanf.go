// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/starbase/config.yaml",
	"/etc/starbase/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "STARBASE_CONFIG"

// defaultConfig returns a Config with all defaults applied. Defaults
// load first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			BaseURL:     "http://localhost:8080",
			Environment: "development",
			PDFDir:      "/data/certifications",
		},
		Database: DatabaseConfig{
			Path:        "/data/starbase.db",
			BusyTimeout: 5 * time.Second,
		},
		Payloads: PayloadsConfig{
			Dir: "/data/payloads",
			TTL: 24 * time.Hour,
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			SessionTimeout:  24 * time.Hour,
			BcryptCost:      12,
			AdminEmail:      "",
			AdminPassword:   "",
			CORSOrigins:     []string{"*"},
			CSRFCookieName:  "_csrf",
			CSRFTokenTTL:    2 * time.Hour,
			CookieSecure:    false,
			LockoutAttempts: 5,
			LockoutWindow:   5 * time.Minute,
			LockoutCooldown: 15 * time.Minute,
		},
		Upstream: UpstreamConfig{
			NASAAPIKey:    "DEMO_KEY",
			OWMAPIKey:     "",
			NVDAPIKey:     "",
			NVDKeywords:   []string{"kubernetes", "openssh", "sqlite"},
			NVDWindowDays: 7,
			Timeout:       15 * time.Second,
		},
		Observer: ObserverConfig{
			Name:      "Starbase Actual",
			Latitude:  41.88,
			Longitude: -87.63,
		},
		SMTP: SMTPConfig{
			Enabled: false,
			Port:    587,
		},
		Ingest: IngestConfig{
			Enabled:         true,
			TLEInterval:     12 * time.Hour,
			CVEInterval:     6 * time.Hour,
			APODInterval:    12 * time.Hour,
			SpaceWxInterval: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load loads configuration using Koanf v2 with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables (highest priority)
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// STARBASE_HTTP_PORT -> server.port, STARBASE_JWT_SECRET -> security.jwt_secret
	if err := k.Load(env.Provider("STARBASE_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths parse as comma-separated slices.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"upstream.nvd_keywords",
}

// processSliceFields converts comma-separated env strings to slices for
// known slice fields. YAML-sourced slices pass through untouched.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps STARBASE_* environment variable names to koanf
// config paths. Unmapped variables are skipped so that unrelated
// environment noise never reaches the config tree.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "STARBASE_"))

	envMappings := map[string]string{
		// Server
		"http_host":   "server.host",
		"http_port":   "server.port",
		"http_timeout": "server.timeout",
		"base_url":    "server.base_url",
		"environment": "server.environment",
		"pdf_dir":     "server.pdf_dir",

		// Database and payload store
		"db_path":         "database.path",
		"db_busy_timeout": "database.busy_timeout",
		"payloads_dir":    "payloads.dir",
		"payloads_ttl":    "payloads.ttl",

		// Security
		"jwt_secret":       "security.jwt_secret",
		"session_timeout":  "security.session_timeout",
		"bcrypt_cost":      "security.bcrypt_cost",
		"admin_email":      "security.admin_email",
		"admin_password":   "security.admin_password",
		"cors_origins":     "security.cors_origins",
		"csrf_cookie_name": "security.csrf_cookie_name",
		"csrf_token_ttl":   "security.csrf_token_ttl",
		"cookie_secure":    "security.cookie_secure",
		"lockout_attempts": "security.lockout_attempts",
		"lockout_window":   "security.lockout_window",
		"lockout_cooldown": "security.lockout_cooldown",

		// Upstream APIs
		"nasa_api_key":     "upstream.nasa_api_key",
		"owm_api_key":      "upstream.owm_api_key",
		"nvd_api_key":      "upstream.nvd_api_key",
		"nvd_keywords":     "upstream.nvd_keywords",
		"nvd_window_days":  "upstream.nvd_window_days",
		"upstream_timeout": "upstream.timeout",

		// Observer site
		"observer_name":      "observer.name",
		"observer_latitude":  "observer.latitude",
		"observer_longitude": "observer.longitude",

		// SMTP
		"smtp_enabled":  "smtp.enabled",
		"smtp_host":     "smtp.host",
		"smtp_port":     "smtp.port",
		"smtp_username": "smtp.username",
		"smtp_password": "smtp.password",
		"smtp_from":     "smtp.from",
		"smtp_to":       "smtp.to",

		// Ingest
		"ingest_enabled":           "ingest.enabled",
		"ingest_tle_interval":      "ingest.tle_interval",
		"ingest_cve_interval":      "ingest.cve_interval",
		"ingest_apod_interval":     "ingest.apod_interval",
		"ingest_space_wx_interval": "ingest.space_wx_interval",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
