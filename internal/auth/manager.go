// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tutorlink/tutorlink/internal/config"
	"github.com/tutorlink/tutorlink/internal/metrics"
	"github.com/tutorlink/tutorlink/internal/models"
)

// Manager issues, validates, and refreshes cookie-backed sessions.
type Manager struct {
	store SessionStore
	cfg   config.SecurityConfig
}

// NewManager wires a session store with the cookie configuration.
func NewManager(store SessionStore, cfg config.SecurityConfig) *Manager {
	return &Manager{store: store, cfg: cfg}
}

// Store exposes the underlying session store for maintenance jobs.
func (m *Manager) Store() SessionStore {
	return m.store
}

// Issue creates a session for user and persists it. The caller stamps
// the cookie with SetCookie.
func (m *Manager) Issue(ctx context.Context, user *User, role models.Role) (*Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		ID:            id,
		UserID:        user.ID,
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		RoleClaim:     role,
		CreatedAt:     now,
		ExpiresAt:     now.Add(m.cfg.SessionTTL),
		LastSeen:      now,
	}
	if err := m.store.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("persisting session: %w", err)
	}
	return s, nil
}

// ValidateRequest resolves the session cookie on r to a live session.
// Missing cookies, unknown IDs, and expired sessions all return
// ErrSessionNotFound; expired sessions are deleted on sight.
func (m *Manager) ValidateRequest(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}

	s, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if s.Expired() {
		_ = m.store.Delete(ctx, s.ID)
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Refresh slides the session expiry forward and re-stamps the cookie.
// No-op when sliding sessions are disabled.
func (m *Manager) Refresh(ctx context.Context, w http.ResponseWriter, s *Session) error {
	if !m.cfg.SlidingSession {
		return nil
	}
	s.ExpiresAt = time.Now().Add(m.cfg.SessionTTL)
	if err := m.store.Touch(ctx, s.ID, s.ExpiresAt); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("touching session: %w", err)
	}
	m.SetCookie(w, s)
	metrics.SessionRefreshes.Inc()
	return nil
}

// SetCookie writes the session cookie for s.
func (m *Manager) SetCookie(w http.ResponseWriter, s *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    s.ID,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(time.Until(s.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie immediately.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Revoke deletes one session.
func (m *Manager) Revoke(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// RevokeUser deletes every session belonging to userID, for use after
// password changes or account suspension.
func (m *Manager) RevokeUser(ctx context.Context, userID string) error {
	return m.store.DeleteByUser(ctx, userID)
}
