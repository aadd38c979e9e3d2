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
	"strings"
	"time"

	"github.com/borninthedark/starbase/internal/models"
)

// Certification errors.
var (
	ErrCertNotFound     = errors.New("certification not found")
	ErrCertSlugConflict = errors.New("certification with this slug already exists")
)

const certColumns = `id, slug, title, issuer, description, issued_on, pdf_path,
	sha256, badge_url, badge_verified, status, visible, created_at, updated_at`

// CreateCertification inserts a new certification record.
func (db *DB) CreateCertification(ctx context.Context, c *models.Certification) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.UpdatedAt = c.CreatedAt
	if c.Status == "" {
		c.Status = models.CertStatusActive
	}

	query := `INSERT INTO certifications (
		slug, title, issuer, description, issued_on, pdf_path,
		sha256, badge_url, badge_verified, status, visible, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	res, err := db.conn.ExecContext(ctx, query,
		c.Slug, c.Title, c.Issuer, c.Description, c.IssuedOn, c.PDFPath,
		c.SHA256, c.BadgeURL, c.BadgeVerified, c.Status, c.Visible, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrCertSlugConflict
		}
		return fmt.Errorf("failed to create certification: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read certification id: %w", err)
	}
	c.ID = id
	return nil
}

// GetCertificationBySlug retrieves one certification by slug.
func (db *DB) GetCertificationBySlug(ctx context.Context, slug string) (*models.Certification, error) {
	query := `SELECT ` + certColumns + ` FROM certifications WHERE slug = ?`
	row := db.conn.QueryRowContext(ctx, query, slug)
	return scanCertification(row)
}

// ListCertifications returns certifications, newest first. When
// visibleOnly is set, hidden records are excluded.
func (db *DB) ListCertifications(ctx context.Context, visibleOnly bool) ([]models.Certification, error) {
	query := `SELECT ` + certColumns + ` FROM certifications`
	if visibleOnly {
		query += ` WHERE visible = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	defer closeRowsQuietly(rows)

	certs := make([]models.Certification, 0)
	for rows.Next() {
		c, err := scanCertificationRows(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certification: %w", err)
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}

// SetCertificationStatus updates the lifecycle status of a certification.
func (db *DB) SetCertificationStatus(ctx context.Context, slug, status string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE certifications SET status = ?, updated_at = ? WHERE slug = ?`,
		status, time.Now().UTC(), slug)
	if err != nil {
		return fmt.Errorf("failed to update certification status: %w", err)
	}
	return requireOneRow(res, ErrCertNotFound)
}

// SetCertificationVisibility toggles public visibility.
func (db *DB) SetCertificationVisibility(ctx context.Context, slug string, visible bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE certifications SET visible = ?, updated_at = ? WHERE slug = ?`,
		visible, time.Now().UTC(), slug)
	if err != nil {
		return fmt.Errorf("failed to update certification visibility: %w", err)
	}
	return requireOneRow(res, ErrCertNotFound)
}

// SetCertificationBadgeVerified records the outcome of an Open Badges
// assertion check.
func (db *DB) SetCertificationBadgeVerified(ctx context.Context, slug string, verified bool) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE certifications SET badge_verified = ?, updated_at = ? WHERE slug = ?`,
		verified, time.Now().UTC(), slug)
	if err != nil {
		return fmt.Errorf("failed to update badge verification: %w", err)
	}
	return requireOneRow(res, ErrCertNotFound)
}

// DeleteCertification removes a certification record.
func (db *DB) DeleteCertification(ctx context.Context, slug string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM certifications WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete certification: %w", err)
	}
	return requireOneRow(res, ErrCertNotFound)
}

// CountCertifications returns the number of visible active certifications,
// used by the status badge.
func (db *DB) CountCertifications(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM certifications WHERE visible = 1 AND status = 'active'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count certifications: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCertification(row *sql.Row) (*models.Certification, error) {
	c, err := scanCertificationFrom(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCertNotFound
	}
	return c, err
}

func scanCertificationRows(rows *sql.Rows) (*models.Certification, error) {
	return scanCertificationFrom(rows)
}

func scanCertificationFrom(s rowScanner) (*models.Certification, error) {
	var c models.Certification
	var badgeVerified sql.NullBool
	if err := s.Scan(
		&c.ID, &c.Slug, &c.Title, &c.Issuer, &c.Description, &c.IssuedOn, &c.PDFPath,
		&c.SHA256, &c.BadgeURL, &badgeVerified, &c.Status, &c.Visible, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if badgeVerified.Valid {
		v := badgeVerified.Bool
		c.BadgeVerified = &v
	}
	return &c, nil
}

// requireOneRow maps zero affected rows to the given sentinel error.
func requireOneRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// isUniqueConstraintError detects SQLite unique constraint violations.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	return strings.Contains(errMsg, "unique constraint")
}
