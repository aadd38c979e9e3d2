// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package mailer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/models"
)

func TestEnabledRequiresFullConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.SMTPConfig
		want bool
	}{
		{"disabled flag", config.SMTPConfig{Enabled: false, Host: "mail.example.com", From: "a@x", To: "b@x"}, false},
		{"missing host", config.SMTPConfig{Enabled: true, From: "a@x", To: "b@x"}, false},
		{"missing from", config.SMTPConfig{Enabled: true, Host: "mail.example.com", To: "b@x"}, false},
		{"missing to", config.SMTPConfig{Enabled: true, Host: "mail.example.com", From: "a@x"}, false},
		{"complete", config.SMTPConfig{Enabled: true, Host: "mail.example.com", From: "a@x", To: "b@x"}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := New(tc.cfg).Enabled(); got != tc.want {
				t.Errorf("Enabled() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSendDisabledReturnsSentinel(t *testing.T) {
	m := New(config.SMTPConfig{Enabled: false})
	err := m.SendContactMessage(context.Background(), &models.ContactMessage{})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}

func TestBuildMessage(t *testing.T) {
	m := New(config.SMTPConfig{
		Enabled: true,
		Host:    "mail.example.com",
		From:    "noreply@starbase.example",
		To:      "captain@starbase.example",
	})
	msg := m.buildMessage(&models.ContactMessage{
		Name:    "Jean Picard",
		Email:   "jp@example.com",
		Subject: "Shore leave",
		Body:    "Requesting two days.",
	})

	for _, want := range []string{
		"From: Starbase Contact <noreply@starbase.example>\r\n",
		"To: captain@starbase.example\r\n",
		"Reply-To: Jean Picard <jp@example.com>\r\n",
		"Subject: [contact] Shore leave\r\n",
		"Content-Type: text/plain; charset=UTF-8\r\n",
		"Requesting two days.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	headers, _, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatal("message has no header/body separator")
	}
	if strings.Contains(headers, "\n") && !strings.Contains(headers, "\r\n") {
		t.Error("headers use bare LF line endings")
	}
}

func TestBuildMessageStripsHeaderInjection(t *testing.T) {
	m := New(config.SMTPConfig{Enabled: true, Host: "h", From: "f@x", To: "t@x"})
	msg := m.buildMessage(&models.ContactMessage{
		Name:    "Eve\r\nBcc: everyone@example.com",
		Email:   "eve@example.com",
		Subject: "hi\r\nX-Injected: 1",
		Body:    "body",
	})

	headers, _, _ := strings.Cut(msg, "\r\n\r\n")
	if strings.Contains(headers, "Bcc:") {
		t.Error("injected Bcc header survived sanitization")
	}
	if strings.Contains(headers, "X-Injected:") {
		t.Error("injected custom header survived sanitization")
	}
	if strings.Contains(headers, "everyone@example.com") {
		t.Error("injected address survived sanitization")
	}
	if !strings.Contains(headers, "Reply-To: Eve <eve@example.com>") {
		t.Errorf("expected truncated Reply-To, headers:\n%s", headers)
	}
	if !strings.Contains(headers, "Subject: [contact] hi\r\n") {
		t.Errorf("expected truncated Subject, headers:\n%s", headers)
	}
}

func TestBuildMessageSanitizesBodyFromLine(t *testing.T) {
	m := New(config.SMTPConfig{Enabled: true, Host: "h", From: "f@x", To: "t@x"})
	msg := m.buildMessage(&models.ContactMessage{
		Name:    "Eve\r\nTrusted: yes",
		Email:   "eve@example.com\r\nAlso: fake",
		Subject: "hi",
		Body:    "body",
	})

	_, body, ok := strings.Cut(msg, "\r\n\r\n")
	if !ok {
		t.Fatal("message has no header/body separator")
	}
	if !strings.HasPrefix(body, "From: Eve <eve@example.com>\r\n") {
		t.Errorf("body From line not sanitized:\n%s", body)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		err  string
		want bool
	}{
		{"smtp authentication failed: 535 bad credentials", false},
		{"setting recipient: 550 no such mailbox", false},
		{"connecting to smtp server: connection refused", true},
		{"i/o timeout", true},
		{"451 rate limit exceeded", true},
		{"starting message: 421 service not available", true},
		{"554 transaction failed", false},
	}

	for _, tc := range cases {
		if got := isTransient(errors.New(tc.err)); got != tc.want {
			t.Errorf("isTransient(%q) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
