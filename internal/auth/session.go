// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package auth provides credential handling, opaque cookie sessions,
// and email verification tokens. Session state lives server-side; the
// browser only ever holds a random session ID.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tutorlink/tutorlink/internal/models"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session IDs.
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one authenticated browser session.
type Session struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Email         string      `json:"email"`
	EmailVerified bool        `json:"email_verified"`
	RoleClaim     models.Role `json:"role_claim"`
	CreatedAt     time.Time   `json:"created_at"`
	ExpiresAt     time.Time   `json:"expires_at"`
	LastSeen      time.Time   `json:"last_seen"`
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Identity projects the session onto the principal it authenticates.
func (s *Session) Identity() *Identity {
	return &Identity{
		UserID:        s.UserID,
		Email:         s.Email,
		EmailVerified: s.EmailVerified,
		RoleClaim:     s.RoleClaim,
	}
}

// NewSessionID returns a 256-bit random hex session ID.
func NewSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SessionStore persists sessions. Implementations must be safe for
// concurrent use.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, s *Session) error

	// Get returns the session for id, or ErrSessionNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Touch extends a live session and records activity.
	Touch(ctx context.Context, id string, expiresAt time.Time) error

	// Delete removes one session. Unknown IDs are not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every session belonging to userID.
	DeleteByUser(ctx context.Context, userID string) error

	// CleanupExpired reaps expired sessions and returns how many.
	CleanupExpired(ctx context.Context) (int, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)

	// Close releases store resources.
	Close() error
}

// MemorySessionStore keeps sessions in process memory. Suitable for
// tests and single-node development; production uses the Badger store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemorySessionStore returns an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*Session)}
}

func (m *MemorySessionStore) Create(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemorySessionStore) Touch(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.ExpiresAt = expiresAt
	s.LastSeen = time.Now()
	return nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func (m *MemorySessionStore) DeleteByUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

func (m *MemorySessionStore) CleanupExpired(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	reaped := 0
	for id, s := range m.sessions {
		if now.After(s.ExpiresAt) {
			delete(m.sessions, id)
			reaped++
		}
	}
	return reaped, nil
}

func (m *MemorySessionStore) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions), nil
}

func (m *MemorySessionStore) Close() error { return nil }

// Len returns the number of stored sessions. Test helper.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
