// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tutorlink/tutorlink/internal/models"
)

func testSession(t *testing.T, ttl time.Duration) *Session {
	t.Helper()
	id, err := NewSessionID()
	if err != nil {
		t.Fatalf("NewSessionID() error = %v", err)
	}
	now := time.Now()
	return &Session{
		ID:            id,
		UserID:        "user-1",
		Email:         "user@example.com",
		EmailVerified: true,
		RoleClaim:     models.RoleStudent,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
		LastSeen:      now,
	}
}

func TestMemorySessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	s := testSession(t, time.Hour)
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != s.UserID || got.Email != s.Email {
		t.Errorf("Get() = %+v, want %+v", got, s)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemorySessionStoreTouch(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	s := testSession(t, time.Hour)
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	later := time.Now().Add(2 * time.Hour)
	if err := store.Touch(ctx, s.ID, later); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.ExpiresAt.Equal(later) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, later)
	}

	if err := store.Touch(ctx, "missing", later); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Touch(missing) error = %v, want ErrSessionNotFound", err)
	}
}

func TestMemorySessionStoreDeleteByUser(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	for i := 0; i < 3; i++ {
		s := testSession(t, time.Hour)
		if i == 2 {
			s.UserID = "user-2"
		}
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := store.DeleteByUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteByUser() error = %v", err)
	}
	if got := store.Len(); got != 1 {
		t.Errorf("Len() = %d after DeleteByUser, want 1", got)
	}
}

func TestMemorySessionStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySessionStore()

	live := testSession(t, time.Hour)
	expired := testSession(t, -time.Minute)
	for _, s := range []*Session{live, expired} {
		if err := store.Create(ctx, s); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	reaped, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired() error = %v", err)
	}
	if reaped != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", reaped)
	}
	if _, err := store.Get(ctx, live.ID); err != nil {
		t.Errorf("live session gone after cleanup: %v", err)
	}
	if got, err := store.Count(ctx); err != nil || got != 1 {
		t.Errorf("Count() = %d, %v, want 1, nil", got, err)
	}
}

func TestBadgerSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewBadgerSessionStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerSessionStore() error = %v", err)
	}
	defer store.Close()

	s := testSession(t, time.Hour)
	if err := store.Create(ctx, s); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.UserID != s.UserID || got.RoleClaim != s.RoleClaim {
		t.Errorf("Get() = %+v, want %+v", got, s)
	}

	later := time.Now().Add(2 * time.Hour)
	if err := store.Touch(ctx, s.ID, later); err != nil {
		t.Fatalf("Touch() error = %v", err)
	}

	if got, err := store.Count(ctx); err != nil || got != 1 {
		t.Errorf("Count() = %d, %v, want 1, nil", got, err)
	}

	if err := store.DeleteByUser(ctx, s.UserID); err != nil {
		t.Fatalf("DeleteByUser() error = %v", err)
	}
	if _, err := store.Get(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after DeleteByUser error = %v, want ErrSessionNotFound", err)
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewSessionID()
		if err != nil {
			t.Fatalf("NewSessionID() error = %v", err)
		}
		if len(id) != 64 {
			t.Fatalf("len(id) = %d, want 64", len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate session id %s", id)
		}
		seen[id] = true
	}
}
