// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/borninthedark/starbase/internal/logging"
)

// CSRF defaults, overridable through the security config.
const (
	DefaultCSRFCookieName = "_csrf"
	DefaultCSRFHeaderName = "X-CSRF-Token"
	DefaultCSRFFormField  = "csrf_token"
	DefaultCSRFTokenTTL   = 4 * time.Hour

	csrfTokenBytes = 32
)

// csrfSafeMethods are exempt from CSRF validation per RFC 9110
// semantics for safe methods.
var csrfSafeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
	http.MethodTrace:   true,
}

// CSRFConfig controls the double-submit cookie middleware.
type CSRFConfig struct {
	CookieName   string
	HeaderName   string
	FormField    string
	TokenTTL     time.Duration
	CookieSecure bool
}

// DefaultCSRFConfig returns the standard CSRF settings.
func DefaultCSRFConfig() CSRFConfig {
	return CSRFConfig{
		CookieName: DefaultCSRFCookieName,
		HeaderName: DefaultCSRFHeaderName,
		FormField:  DefaultCSRFFormField,
		TokenTTL:   DefaultCSRFTokenTTL,
	}
}

type csrfToken struct {
	expiresAt time.Time
}

// CSRFProtection implements double-submit cookie CSRF protection.
// Issued tokens are tracked server-side with a TTL so a stolen cookie
// alone cannot be replayed indefinitely.
type CSRFProtection struct {
	config CSRFConfig

	mu     sync.RWMutex
	tokens map[string]csrfToken

	done     chan struct{}
	stopOnce sync.Once
}

// NewCSRFProtection creates CSRF middleware with the given config.
// Zero-valued fields fall back to defaults.
func NewCSRFProtection(cfg CSRFConfig) *CSRFProtection {
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCSRFCookieName
	}
	if cfg.HeaderName == "" {
		cfg.HeaderName = DefaultCSRFHeaderName
	}
	if cfg.FormField == "" {
		cfg.FormField = DefaultCSRFFormField
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultCSRFTokenTTL
	}
	return &CSRFProtection{
		config: cfg,
		tokens: make(map[string]csrfToken),
		done:   make(chan struct{}),
	}
}

// GenerateToken mints a new token, records it, and sets the cookie on
// the response. The token is returned so handlers can expose it to
// clients that submit it via header or form field.
func (c *CSRFProtection) GenerateToken(w http.ResponseWriter) (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating csrf token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf)

	c.mu.Lock()
	c.tokens[token] = csrfToken{expiresAt: time.Now().Add(c.config.TokenTTL)}
	c.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     c.config.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.config.TokenTTL.Seconds()),
		HttpOnly: false, // double-submit requires the client to read it
		Secure:   c.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}

// Middleware validates CSRF tokens on all unsafe methods. The cookie
// value must match the header or form field value, and the token must
// be one this server issued and not yet expired.
func (c *CSRFProtection) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if csrfSafeMethods[r.Method] {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(c.config.CookieName)
		if err != nil || cookie.Value == "" {
			c.reject(w, r, "missing csrf cookie")
			return
		}

		submitted := r.Header.Get(c.config.HeaderName)
		if submitted == "" {
			submitted = r.PostFormValue(c.config.FormField)
		}
		if submitted == "" {
			c.reject(w, r, "missing csrf token")
			return
		}

		if subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(submitted)) != 1 {
			c.reject(w, r, "csrf token mismatch")
			return
		}

		if !c.isValid(submitted) {
			c.reject(w, r, "unknown or expired csrf token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (c *CSRFProtection) reject(w http.ResponseWriter, r *http.Request, reason string) {
	logging.Warn().
		Str("component", "csrf").
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("reason", reason).
		Msg("Rejected request")
	http.Error(w, "Forbidden: CSRF validation failed", http.StatusForbidden)
}

func (c *CSRFProtection) isValid(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.tokens[token]
	if !ok {
		return false
	}
	return time.Now().Before(entry.expiresAt)
}

// CleanupExpired removes expired tokens and returns how many were removed.
func (c *CSRFProtection) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	removed := 0
	for token, entry := range c.tokens {
		if now.After(entry.expiresAt) {
			delete(c.tokens, token)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine launches a background goroutine that periodically
// drops expired tokens. Call Stop to terminate it.
func (c *CSRFProtection) StartCleanupRoutine(interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := c.CleanupExpired(); removed > 0 {
					logging.Debug().
						Str("component", "csrf").
						Int("removed", removed).
						Msg("Cleaned up expired tokens")
				}
			case <-c.done:
				return
			}
		}
	}()
}

// Stop terminates the cleanup routine.
func (c *CSRFProtection) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
}
