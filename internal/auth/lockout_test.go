// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package auth

import (
	"fmt"
	"testing"
	"time"

	"github.com/borninthedark/starbase/internal/config"
)

func newTestLockout(attempts int, window, cooldown time.Duration) *LockoutManager {
	return NewLockoutManager(&config.SecurityConfig{
		LockoutAttempts: attempts,
		LockoutWindow:   window,
		LockoutCooldown: cooldown,
	})
}

func TestLockoutAfterThreshold(t *testing.T) {
	l := newTestLockout(3, time.Minute, time.Minute)

	for i := 0; i < 2; i++ {
		if locked := l.RecordFailure("captain@starbase.example"); locked {
			t.Fatalf("locked after %d failures", i+1)
		}
	}
	if locked := l.RecordFailure("captain@starbase.example"); !locked {
		t.Fatal("expected lockout on third failure")
	}

	locked, remaining := l.IsLocked("captain@starbase.example")
	if !locked {
		t.Fatal("expected IsLocked true")
	}
	if remaining <= 0 || remaining > time.Minute {
		t.Errorf("remaining = %v, want (0, 1m]", remaining)
	}
}

func TestLockoutSuccessClearsTracking(t *testing.T) {
	l := newTestLockout(3, time.Minute, time.Minute)

	l.RecordFailure("captain@starbase.example")
	l.RecordFailure("captain@starbase.example")
	l.RecordSuccess("captain@starbase.example")

	// Counter restarts, so two more failures do not lock.
	l.RecordFailure("captain@starbase.example")
	if locked := l.RecordFailure("captain@starbase.example"); locked {
		t.Fatal("locked despite counter reset")
	}
}

func TestLockoutExpiresAfterCooldown(t *testing.T) {
	l := newTestLockout(1, time.Minute, 5*time.Millisecond)

	l.RecordFailure("captain@starbase.example")
	time.Sleep(10 * time.Millisecond)

	if locked, _ := l.IsLocked("captain@starbase.example"); locked {
		t.Fatal("still locked after cooldown")
	}
}

func TestLockoutWindowResetsCounter(t *testing.T) {
	l := newTestLockout(3, 5*time.Millisecond, time.Minute)

	l.RecordFailure("captain@starbase.example")
	l.RecordFailure("captain@starbase.example")
	time.Sleep(10 * time.Millisecond)

	// Old failures fall outside the window.
	if locked := l.RecordFailure("captain@starbase.example"); locked {
		t.Fatal("locked despite window expiry")
	}
}

func TestLockoutBoundedCapacity(t *testing.T) {
	l := newTestLockout(100, time.Hour, time.Hour)

	for i := 0; i < maxLockoutEntries+500; i++ {
		l.RecordFailure(fmt.Sprintf("user-%d@starbase.example", i))
	}
	if l.Len() > maxLockoutEntries {
		t.Errorf("entries = %d, want <= %d", l.Len(), maxLockoutEntries)
	}
}

func TestLockoutSeparateIdentifiers(t *testing.T) {
	l := newTestLockout(2, time.Minute, time.Minute)

	l.RecordFailure("a@starbase.example")
	l.RecordFailure("a@starbase.example")

	if locked, _ := l.IsLocked("b@starbase.example"); locked {
		t.Fatal("unrelated identifier locked")
	}
}
