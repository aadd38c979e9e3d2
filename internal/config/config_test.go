// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package config

import (
	"os"
	"strings"
	"testing"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 0")
	}
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for port 70000")
	}
}

func TestValidateRejectsBadObserver(t *testing.T) {
	cfg := defaultConfig()
	cfg.Observer.Latitude = 91
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for latitude 91")
	}

	cfg = defaultConfig()
	cfg.Observer.Longitude = -181
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for longitude -181")
	}
}

func TestValidateProductionRequiresSecret(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Environment = "production"
	cfg.Security.CookieSecure = true
	cfg.Security.CORSOrigins = []string{"https://example.org"}

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "jwt_secret") {
		t.Errorf("expected jwt_secret error, got %v", err)
	}

	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid production config, got %v", err)
	}
}

func TestValidateProductionRejectsWildcardCORS(t *testing.T) {
	cfg := defaultConfig()
	cfg.Server.Environment = "production"
	cfg.Security.JWTSecret = strings.Repeat("s", 32)
	cfg.Security.CookieSecure = true

	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "cors_origins") {
		t.Errorf("expected cors_origins error, got %v", err)
	}
}

func TestValidateSMTPRequiresHost(t *testing.T) {
	cfg := defaultConfig()
	cfg.SMTP.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when smtp enabled without host")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"STARBASE_HTTP_PORT", "server.port"},
		{"STARBASE_JWT_SECRET", "security.jwt_secret"},
		{"STARBASE_NASA_API_KEY", "upstream.nasa_api_key"},
		{"STARBASE_OBSERVER_LATITUDE", "observer.latitude"},
		{"STARBASE_LOG_LEVEL", "logging.level"},
		{"STARBASE_UNKNOWN_KEY", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("STARBASE_HTTP_PORT", "9090")
	t.Setenv("STARBASE_NVD_KEYWORDS", "nginx, redis ,postgres")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Server.Port)
	}
	want := []string{"nginx", "redis", "postgres"}
	if len(cfg.Upstream.NVDKeywords) != len(want) {
		t.Fatalf("expected %d keywords, got %v", len(want), cfg.Upstream.NVDKeywords)
	}
	for i, kw := range want {
		if cfg.Upstream.NVDKeywords[i] != kw {
			t.Errorf("keyword[%d] = %q, want %q", i, cfg.Upstream.NVDKeywords[i], kw)
		}
	}
}

func TestFindConfigFileEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/starbase.yaml"
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if got := findConfigFile(); got != path {
		t.Errorf("findConfigFile() = %q, want %q", got, path)
	}
}
