// Starbase - Personal Portfolio and Dashboard Server
// Copyright 2026 borninthedark
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/borninthedark/starbase

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/borninthedark/starbase/internal/models"
)

// Log entry errors.
var (
	ErrLogEntryNotFound     = errors.New("log entry not found")
	ErrLogEntrySlugConflict = errors.New("log entry with this slug already exists")
)

const logEntryColumns = `id, slug, title, summary, content, category, status,
	tags, view_count, created_at, updated_at`

// CreateLogEntry inserts a new log entry. Tags are JSON-encoded into
// the tags TEXT column.
func (db *DB) CreateLogEntry(ctx context.Context, e *models.LogEntry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	e.UpdatedAt = e.CreatedAt
	if e.Status == "" {
		e.Status = models.LogStatusDraft
	}

	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	query := `INSERT INTO log_entries (
		slug, title, summary, content, category, status, tags, view_count, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query,
		e.Slug, e.Title, e.Summary, e.Content, e.Category, e.Status, tags, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrLogEntrySlugConflict
		}
		return fmt.Errorf("failed to create log entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read log entry id: %w", err)
	}
	e.ID = id
	return nil
}

// UpdateLogEntry replaces the mutable fields of an entry addressed by slug.
func (db *DB) UpdateLogEntry(ctx context.Context, slug string, e *models.LogEntry) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}

	res, err := db.conn.ExecContext(ctx,
		`UPDATE log_entries SET title = ?, summary = ?, content = ?, category = ?,
			status = ?, tags = ?, updated_at = ? WHERE slug = ?`,
		e.Title, e.Summary, e.Content, e.Category, e.Status, tags, time.Now().UTC(), slug)
	if err != nil {
		return fmt.Errorf("failed to update log entry: %w", err)
	}
	return requireOneRow(res, ErrLogEntryNotFound)
}

// GetLogEntryBySlug retrieves one entry by slug.
func (db *DB) GetLogEntryBySlug(ctx context.Context, slug string) (*models.LogEntry, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+logEntryColumns+` FROM log_entries WHERE slug = ?`, slug)

	e, err := scanLogEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLogEntryNotFound
	}
	return e, err
}

// ListPublishedLogEntries returns published entries newest first,
// optionally filtered by category and tag. The tag predicate unpacks
// the JSON tags column with json_each for an exact element match.
func (db *DB) ListPublishedLogEntries(ctx context.Context, category, tag string, limit int) ([]models.LogEntry, error) {
	query := `SELECT ` + logEntryColumns + ` FROM log_entries WHERE status = ?`
	args := []any{models.LogStatusPublished}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if tag != "" {
		query += ` AND EXISTS (SELECT 1 FROM json_each(log_entries.tags) WHERE json_each.value = ?)`
		args = append(args, tag)
	}
	query += ` ORDER BY created_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return db.queryLogEntries(ctx, query, args...)
}

// ListAllLogEntries returns every entry for the editor dashboard.
func (db *DB) ListAllLogEntries(ctx context.Context) ([]models.LogEntry, error) {
	return db.queryLogEntries(ctx,
		`SELECT `+logEntryColumns+` FROM log_entries ORDER BY created_at DESC`)
}

// IncrementViewCount bumps the view counter in a single UPDATE, so
// concurrent detail-page hits cannot lose increments.
func (db *DB) IncrementViewCount(ctx context.Context, slug string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE log_entries SET view_count = view_count + 1 WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}
	return requireOneRow(res, ErrLogEntryNotFound)
}

// DeleteLogEntry removes an entry.
func (db *DB) DeleteLogEntry(ctx context.Context, slug string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM log_entries WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete log entry: %w", err)
	}
	return requireOneRow(res, ErrLogEntryNotFound)
}

func (db *DB) queryLogEntries(ctx context.Context, query string, args ...any) ([]models.LogEntry, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer closeRowsQuietly(rows)

	entries := make([]models.LogEntry, 0)
	for rows.Next() {
		e, err := scanLogEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanLogEntry(s rowScanner) (*models.LogEntry, error) {
	var e models.LogEntry
	var tags string
	if err := s.Scan(
		&e.ID, &e.Slug, &e.Title, &e.Summary, &e.Content, &e.Category, &e.Status,
		&tags, &e.ViewCount, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags for %s: %w", e.Slug, err)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return &e, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(b), nil
}
