// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package auth

import (
	"sync"
	"time"

	"github.com/borninthedark/starbase/internal/config"
)

// maxLockoutEntries bounds the tracking map so an attacker rotating
// identifiers cannot grow it without limit.
const maxLockoutEntries = 10000

type lockoutEntry struct {
	failures    int
	windowStart time.Time
	lockedUntil time.Time
}

// LockoutManager tracks failed login attempts per identifier and
// locks out identifiers that exceed the configured threshold within
// the tracking window.
type LockoutManager struct {
	mu       sync.Mutex
	entries  map[string]*lockoutEntry
	attempts int
	window   time.Duration
	cooldown time.Duration
}

// NewLockoutManager creates a lockout tracker from the security config.
func NewLockoutManager(cfg *config.SecurityConfig) *LockoutManager {
	attempts := cfg.LockoutAttempts
	if attempts <= 0 {
		attempts = 5
	}
	window := cfg.LockoutWindow
	if window <= 0 {
		window = 15 * time.Minute
	}
	cooldown := cfg.LockoutCooldown
	if cooldown <= 0 {
		cooldown = 15 * time.Minute
	}
	return &LockoutManager{
		entries:  make(map[string]*lockoutEntry),
		attempts: attempts,
		window:   window,
		cooldown: cooldown,
	}
}

// IsLocked reports whether the identifier is currently locked out and,
// if so, how long until the lock expires.
func (l *LockoutManager) IsLocked(id string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[id]
	if !ok {
		return false, 0
	}
	now := time.Now()
	if now.Before(entry.lockedUntil) {
		return true, entry.lockedUntil.Sub(now)
	}
	return false, 0
}

// RecordFailure registers a failed attempt for the identifier. It
// returns true if the failure triggered a lockout.
func (l *LockoutManager) RecordFailure(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.entries[id]
	if !ok {
		if len(l.entries) >= maxLockoutEntries {
			l.evictStaleLocked(now)
			if len(l.entries) >= maxLockoutEntries {
				// Still full of live entries. Refuse to track rather
				// than grow without bound.
				return false
			}
		}
		entry = &lockoutEntry{windowStart: now}
		l.entries[id] = entry
	}

	if now.Sub(entry.windowStart) > l.window {
		entry.failures = 0
		entry.windowStart = now
	}

	entry.failures++
	if entry.failures >= l.attempts {
		entry.lockedUntil = now.Add(l.cooldown)
		return true
	}
	return false
}

// RecordSuccess clears tracking for the identifier after a successful login.
func (l *LockoutManager) RecordSuccess(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, id)
}

// evictStaleLocked removes entries whose window and lock have both
// expired. Caller must hold the mutex.
func (l *LockoutManager) evictStaleLocked(now time.Time) {
	for id, entry := range l.entries {
		if now.Sub(entry.windowStart) > l.window && now.After(entry.lockedUntil) {
			delete(l.entries, id)
		}
	}
}

// Len reports the number of tracked identifiers.
func (l *LockoutManager) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
