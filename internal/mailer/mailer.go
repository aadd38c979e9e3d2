// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

// Package mailer delivers contact-form submissions over SMTP.
package mailer

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/borninthedark/starbase/internal/config"
	"github.com/borninthedark/starbase/internal/models"
)

// ErrDisabled is returned when SMTP delivery is not configured.
var ErrDisabled = errors.New("smtp delivery disabled")

// DeliveryError wraps an SMTP failure with a transient/permanent
// classification. Transient failures are worth retrying.
type DeliveryError struct {
	Err       error
	Transient bool
}

func (e *DeliveryError) Error() string { return e.Err.Error() }
func (e *DeliveryError) Unwrap() error { return e.Err }

// Mailer sends contact messages to the configured recipient.
type Mailer struct {
	cfg     config.SMTPConfig
	timeout time.Duration
}

// New creates a mailer from the SMTP config.
func New(cfg config.SMTPConfig) *Mailer {
	return &Mailer{
		cfg:     cfg,
		timeout: 30 * time.Second,
	}
}

// Enabled reports whether delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Enabled && m.cfg.Host != "" && m.cfg.From != "" && m.cfg.To != ""
}

// SendContactMessage delivers a contact-form submission. The visitor's
// address goes into Reply-To, never the envelope sender.
func (m *Mailer) SendContactMessage(ctx context.Context, msg *models.ContactMessage) error {
	if !m.Enabled() {
		return ErrDisabled
	}

	body := m.buildMessage(msg)
	if err := m.sendSMTP(ctx, body); err != nil {
		return &DeliveryError{Err: err, Transient: isTransient(err)}
	}
	return nil
}

func (m *Mailer) buildMessage(msg *models.ContactMessage) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: Starbase Contact <%s>\r\n", m.cfg.From))
	b.WriteString(fmt.Sprintf("To: %s\r\n", m.cfg.To))
	b.WriteString(fmt.Sprintf("Reply-To: %s <%s>\r\n", sanitizeHeader(msg.Name), sanitizeHeader(msg.Email)))
	b.WriteString(fmt.Sprintf("Subject: [contact] %s\r\n", sanitizeHeader(msg.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(fmt.Sprintf("From: %s <%s>\r\n\r\n", sanitizeHeader(msg.Name), sanitizeHeader(msg.Email)))
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return b.String()
}

// sanitizeHeader truncates at the first CR or LF. Deleting the line
// breaks instead would fold an injected header into the value, where
// "Eve\r\nBcc: x" becomes "EveBcc: x" and still reads as a header.
func sanitizeHeader(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

func (m *Mailer) sendSMTP(ctx context.Context, msg string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	dialer := &net.Dialer{Timeout: m.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to smtp server: %w", err)
	}
	defer func() { _ = conn.Close() }()

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsConfig := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("starting tls: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := client.Rcpt(m.cfg.To); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("starting message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	// Quit failing after a successful DATA is not a delivery failure.
	_ = client.Quit()
	return nil
}

// isTransient classifies SMTP failures. Connection, timeout and rate
// problems are retryable; auth and recipient problems are not.
func isTransient(err error) bool {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "auth"):
		return false
	case strings.Contains(msg, "recipient"), strings.Contains(msg, "mailbox"):
		return false
	case strings.Contains(msg, "connect"), strings.Contains(msg, "connection"):
		return true
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return true
	case strings.Contains(msg, "rate"), strings.Contains(msg, "limit"):
		return true
	// 4xx SMTP codes are transient by definition.
	case strings.Contains(msg, " 4"):
		return true
	default:
		return false
	}
}
