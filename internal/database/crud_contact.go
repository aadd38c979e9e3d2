// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/borninthedark/starbase/internal/models"
)

// ErrContactMessageNotFound is returned for unknown message IDs.
var ErrContactMessageNotFound = errors.New("contact message not found")

// CreateContactMessage stores a contact-form submission.
func (db *DB) CreateContactMessage(ctx context.Context, m *models.ContactMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO contact_messages (name, email, subject, body, delivered, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.Name, m.Email, m.Subject, m.Body, m.Delivered, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact message: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read contact message id: %w", err)
	}
	m.ID = id
	return nil
}

// MarkContactMessageDelivered records successful SMTP delivery.
func (db *DB) MarkContactMessageDelivered(ctx context.Context, id int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE contact_messages SET delivered = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark contact message delivered: %w", err)
	}
	return requireOneRow(res, ErrContactMessageNotFound)
}

// ListRecentContactMessages returns the newest messages for the admin view.
func (db *DB) ListRecentContactMessages(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, email, subject, body, delivered, created_at
		 FROM contact_messages ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list contact messages: %w", err)
	}
	defer closeRowsQuietly(rows)

	msgs := make([]models.ContactMessage, 0)
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.Delivered, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan contact message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
