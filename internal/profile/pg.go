// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tutorlink/tutorlink/internal/models"
)

const pgUniqueViolation = "23505"

// Schema bootstraps the relational tables on first start. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	password_hash  BYTEA NOT NULL,
	email_verified BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY REFERENCES users(id),
	role       TEXT NOT NULL,
	full_name  TEXT NOT NULL DEFAULT '',
	avatar_url TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tutor_verifications (
	user_id          TEXT PRIMARY KEY REFERENCES profiles(user_id),
	status           TEXT NOT NULL DEFAULT 'not_submitted',
	documents        TEXT[] NOT NULL DEFAULT '{}',
	rejection_reason TEXT NOT NULL DEFAULT '',
	reviewed_by      TEXT NOT NULL DEFAULT '',
	reviewed_at      TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id),
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	read_at    TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_verifications_status ON tutor_verifications (status);
CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id, created_at DESC);
`

// PGStore persists records in PostgreSQL via a pgx pool.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to dsn and verifies the connection.
func NewPGStore(ctx context.Context, dsn string, maxConns int32) (*PGStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

// Pool exposes the underlying pool so other stores can share it.
func (s *PGStore) Pool() *pgxpool.Pool {
	return s.pool
}

// EnsureSchema creates missing tables.
func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

func (s *PGStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	const q = `
		INSERT INTO profiles (user_id, role, full_name, avatar_url, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := s.pool.Exec(ctx, q, p.UserID, p.Role.String(), p.FullName, p.AvatarURL, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrConflict
		}
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func (s *PGStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	const q = `
		SELECT user_id, role, full_name, avatar_url, created_at
		FROM profiles WHERE user_id = $1`

	var (
		p    models.Profile
		role string
	)
	err := s.pool.QueryRow(ctx, q, userID).Scan(&p.UserID, &role, &p.FullName, &p.AvatarURL, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning profile: %w", err)
	}
	p.Role = models.Role(role)
	return &p, nil
}

func (s *PGStore) GetVerification(ctx context.Context, userID string) (*models.TutorVerification, error) {
	const q = `
		SELECT user_id, status, documents, rejection_reason, reviewed_by, reviewed_at
		FROM tutor_verifications WHERE user_id = $1`

	v, err := scanVerification(s.pool.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning verification: %w", err)
	}
	return v, nil
}

func (s *PGStore) SubmitVerification(ctx context.Context, userID string, documents []string) error {
	const q = `
		INSERT INTO tutor_verifications (user_id, status, documents)
		VALUES ($1, 'pending', $2)
		ON CONFLICT (user_id) DO UPDATE
		SET status = 'pending', documents = $2
		WHERE tutor_verifications.status = 'not_submitted'`

	tag, err := s.pool.Exec(ctx, q, userID, documents)
	if err != nil {
		return fmt.Errorf("submitting verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PGStore) DecideVerification(ctx context.Context, d Decision) error {
	const q = `
		UPDATE tutor_verifications
		SET status = $2, rejection_reason = $3, reviewed_by = $4, reviewed_at = now()
		WHERE user_id = $1 AND status = 'pending'`

	status := models.VerificationRejected
	reason := d.Reason
	if d.Approved {
		status = models.VerificationApproved
		reason = ""
	}

	tag, err := s.pool.Exec(ctx, q, d.UserID, status.String(), reason, d.ReviewedBy)
	if err != nil {
		return fmt.Errorf("deciding verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PGStore) ResubmitVerification(ctx context.Context, userID string) error {
	const q = `
		UPDATE tutor_verifications
		SET status = 'not_submitted', documents = '{}',
		    rejection_reason = '', reviewed_by = '', reviewed_at = NULL
		WHERE user_id = $1 AND status = 'rejected'`

	tag, err := s.pool.Exec(ctx, q, userID)
	if err != nil {
		return fmt.Errorf("resubmitting verification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (s *PGStore) ListTutorsByStatus(ctx context.Context, status models.VerificationStatus) ([]models.TutorListing, error) {
	const q = `
		SELECT p.user_id, p.role, p.full_name, p.avatar_url, p.created_at,
		       COALESCE(v.status, 'not_submitted'),
		       COALESCE(v.documents, '{}'),
		       COALESCE(v.rejection_reason, ''),
		       COALESCE(v.reviewed_by, ''),
		       v.reviewed_at
		FROM profiles p
		LEFT JOIN tutor_verifications v ON v.user_id = p.user_id
		WHERE p.role = 'tutor'
		  AND ($1 = '' OR COALESCE(v.status, 'not_submitted') = $1)
		ORDER BY p.user_id`

	rows, err := s.pool.Query(ctx, q, status.String())
	if err != nil {
		return nil, fmt.Errorf("listing tutors: %w", err)
	}
	defer rows.Close()

	var out []models.TutorListing
	for rows.Next() {
		var (
			l    models.TutorListing
			role string
		)
		err := rows.Scan(
			&l.Profile.UserID, &role, &l.Profile.FullName, &l.Profile.AvatarURL, &l.Profile.CreatedAt,
			&l.Verification.Status, &l.Verification.Documents,
			&l.Verification.RejectionReason, &l.Verification.ReviewedBy, &l.Verification.ReviewedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning tutor listing: %w", err)
		}
		l.Profile.Role = models.Role(role)
		l.Verification.UserID = l.Profile.UserID
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *PGStore) VerificationStats(ctx context.Context) (models.VerificationStats, error) {
	const q = `
		SELECT COALESCE(v.status, 'not_submitted'), COUNT(*)
		FROM profiles p
		LEFT JOIN tutor_verifications v ON v.user_id = p.user_id
		WHERE p.role = 'tutor'
		GROUP BY 1`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return models.VerificationStats{}, fmt.Errorf("counting verifications: %w", err)
	}
	defer rows.Close()

	var stats models.VerificationStats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return models.VerificationStats{}, fmt.Errorf("scanning stats: %w", err)
		}
		switch models.VerificationStatus(status) {
		case models.VerificationPending:
			stats.Pending = count
		case models.VerificationApproved:
			stats.Approved = count
		case models.VerificationRejected:
			stats.Rejected = count
		default:
			stats.NotSubmitted += count
		}
	}
	return stats, rows.Err()
}

func (s *PGStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	const q = `
		INSERT INTO notifications (id, user_id, kind, title, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, q, n.ID, n.UserID, n.Kind, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}
	return nil
}

func (s *PGStore) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	const q = `
		SELECT id, user_id, kind, title, message, created_at, read_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &n.Title, &n.Message, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

func scanVerification(row pgx.Row) (*models.TutorVerification, error) {
	var v models.TutorVerification
	err := row.Scan(&v.UserID, &v.Status, &v.Documents, &v.RejectionReason, &v.ReviewedBy, &v.ReviewedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
