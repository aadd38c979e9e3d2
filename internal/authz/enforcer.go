// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package authz provides role-based authorization using Casbin.
// Roles are hierarchical: admin inherits editor, editor inherits
// viewer. Permissions are path-based with keyMatch2 patterns.
package authz

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// EnforcerConfig holds configuration for the Casbin enforcer.
type EnforcerConfig struct {
	// ModelPath overrides the embedded model when set and the file exists.
	ModelPath string

	// PolicyPath overrides the embedded policy when set and the file exists.
	PolicyPath string

	// AutoReload enables periodic policy reload from PolicyPath.
	AutoReload bool

	// ReloadInterval is how often to check for policy changes.
	ReloadInterval time.Duration

	// DefaultRole is assumed for subjects with no known role.
	DefaultRole string
}

// DefaultEnforcerConfig returns default configuration.
func DefaultEnforcerConfig() *EnforcerConfig {
	return &EnforcerConfig{
		AutoReload:     false,
		ReloadInterval: 30 * time.Second,
		DefaultRole:    "viewer",
	}
}

// Enforcer wraps the Casbin enforcer with decision caching.
type Enforcer struct {
	config   *EnforcerConfig
	enforcer *casbin.SyncedEnforcer

	mu    sync.RWMutex
	cache map[string]bool
}

// NewEnforcer creates an authorization enforcer.
func NewEnforcer(config *EnforcerConfig) (*Enforcer, error) {
	if config == nil {
		config = DefaultEnforcerConfig()
	}

	var m model.Model
	var err error
	if config.ModelPath != "" && fileExists(config.ModelPath) {
		m, err = model.NewModelFromFile(config.ModelPath)
	} else {
		m, err = model.NewModelFromString(embeddedModel)
	}
	if err != nil {
		return nil, fmt.Errorf("loading casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if config.PolicyPath != "" && fileExists(config.PolicyPath) {
		adapter := fileadapter.NewAdapter(config.PolicyPath)
		enforcer, err = casbin.NewSyncedEnforcer(m, adapter)
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadEmbeddedPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("creating casbin enforcer: %w", err)
	}

	if config.AutoReload && config.PolicyPath != "" {
		enforcer.StartAutoLoadPolicy(config.ReloadInterval)
	}

	return &Enforcer{
		config:   config,
		enforcer: enforcer,
		cache:    make(map[string]bool),
	}, nil
}

// loadEmbeddedPolicy parses and loads the embedded policy CSV.
func loadEmbeddedPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch parts[0] {
		case "p":
			if len(parts) >= 4 {
				if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
					return fmt.Errorf("adding policy %v: %w", parts[1:], err)
				}
			}
		case "g":
			if len(parts) >= 3 {
				if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
					return fmt.Errorf("adding grouping policy %v: %w", parts[1:], err)
				}
			}
		}
	}
	return nil
}

// Enforce checks whether the subject can perform the action on the object.
func (e *Enforcer) Enforce(subject, object, action string) (bool, error) {
	if subject == "" {
		subject = e.config.DefaultRole
	}
	key := subject + "\x00" + object + "\x00" + action

	e.mu.RLock()
	if allowed, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return allowed, nil
	}
	e.mu.RUnlock()

	allowed, err := e.enforcer.Enforce(subject, object, action)
	if err != nil {
		return false, fmt.Errorf("enforcement: %w", err)
	}

	e.mu.Lock()
	e.cache[key] = allowed
	e.mu.Unlock()

	return allowed, nil
}

// AddPolicy adds a policy rule and invalidates the decision cache.
func (e *Enforcer) AddPolicy(subject, object, action string) error {
	if _, err := e.enforcer.AddPolicy(subject, object, action); err != nil {
		return fmt.Errorf("adding policy: %w", err)
	}
	e.clearCache()
	return nil
}

// RemovePolicy removes a policy rule and invalidates the decision cache.
func (e *Enforcer) RemovePolicy(subject, object, action string) error {
	if _, err := e.enforcer.RemovePolicy(subject, object, action); err != nil {
		return fmt.Errorf("removing policy: %w", err)
	}
	e.clearCache()
	return nil
}

// GetRolesForUser returns the roles granted to a subject.
func (e *Enforcer) GetRolesForUser(user string) ([]string, error) {
	return e.enforcer.GetRolesForUser(user)
}

// Close stops background policy reloading.
func (e *Enforcer) Close() {
	e.enforcer.StopAutoLoadPolicy()
}

func (e *Enforcer) clearCache() {
	e.mu.Lock()
	e.cache = make(map[string]bool)
	e.mu.Unlock()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
