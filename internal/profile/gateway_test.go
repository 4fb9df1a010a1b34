// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tutorlink/tutorlink/internal/models"
)

// failingStore wraps a Store and fails reads until healthy.
type failingStore struct {
	Store
	failures int
	calls    int
}

func (f *failingStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.Store.GetProfile(ctx, userID)
}

func (f *failingStore) GetVerification(ctx context.Context, userID string) (*models.TutorVerification, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection refused")
	}
	return f.Store.GetVerification(ctx, userID)
}

func fastGatewayConfig() GatewayConfig {
	return GatewayConfig{
		LookupTimeout: time.Second,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	}
}

func TestGatewayProfileDegradesToAbsent(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryStore()
	seedTutor(t, mem, "tutor-1")

	broken := &failingStore{Store: mem, failures: 1000}
	g := NewGateway(broken, fastGatewayConfig())

	p, authoritative := g.Profile(ctx, "tutor-1")
	if p != nil {
		t.Errorf("Profile() = %+v, want nil on store failure", p)
	}
	if authoritative {
		t.Error("authoritative = true for a degraded read")
	}
}

func TestGatewayProfilePassesThrough(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryStore()
	seedTutor(t, mem, "tutor-1")
	g := NewGateway(mem, fastGatewayConfig())

	p, authoritative := g.Profile(ctx, "tutor-1")
	if p == nil || p.UserID != "tutor-1" {
		t.Fatalf("Profile() = %+v, want tutor-1", p)
	}
	if !authoritative {
		t.Error("authoritative = false for a healthy read")
	}

	// Absence is authoritative, not degraded.
	p, authoritative = g.Profile(ctx, "missing")
	if p != nil || !authoritative {
		t.Errorf("Profile(missing) = (%+v, %v), want (nil, true)", p, authoritative)
	}
}

func TestGatewayVerificationAbsent(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemoryStore(), fastGatewayConfig())

	v, authoritative := g.Verification(ctx, "tutor-1")
	if v != nil || !authoritative {
		t.Errorf("Verification() = (%+v, %v), want (nil, true)", v, authoritative)
	}
}

func TestEnsureProfileRetriesThenReads(t *testing.T) {
	ctx := context.Background()

	mem := NewMemoryStore()
	seedTutor(t, mem, "tutor-1")

	flaky := &failingStore{Store: mem, failures: 2}
	g := NewGateway(flaky, fastGatewayConfig())

	p, err := g.EnsureProfile(ctx, "tutor-1", models.RoleTutor, "Tutor One")
	if err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if p.UserID != "tutor-1" {
		t.Errorf("UserID = %q, want tutor-1", p.UserID)
	}
	if flaky.calls != 3 {
		t.Errorf("store calls = %d, want 3", flaky.calls)
	}
}

func TestEnsureProfileCreatesFallback(t *testing.T) {
	ctx := context.Background()
	mem := NewMemoryStore()
	g := NewGateway(mem, fastGatewayConfig())

	p, err := g.EnsureProfile(ctx, "user-9", models.RoleTutor, "New Tutor")
	if err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if p.Role != models.RoleTutor || p.FullName != "New Tutor" {
		t.Errorf("fallback profile = %+v", p)
	}

	stored, err := mem.GetProfile(ctx, "user-9")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if stored.Role != models.RoleTutor {
		t.Errorf("stored role = %q, want tutor", stored.Role)
	}
}

func TestEnsureProfileInvalidHintDefaultsToStudent(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(NewMemoryStore(), fastGatewayConfig())

	p, err := g.EnsureProfile(ctx, "user-9", models.Role("superuser"), "")
	if err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if p.Role != models.RoleStudent {
		t.Errorf("Role = %q, want student fallback", p.Role)
	}
}

func TestGatewayBreakerOpensUnderSustainedFailure(t *testing.T) {
	ctx := context.Background()

	broken := &failingStore{Store: NewMemoryStore(), failures: 1 << 30}
	g := NewGateway(broken, fastGatewayConfig())

	for i := 0; i < 20; i++ {
		g.Profile(ctx, "tutor-1")
	}
	callsBefore := broken.calls
	// Once open, the breaker answers without touching the store.
	g.Profile(ctx, "tutor-1")
	if broken.calls != callsBefore {
		t.Errorf("store calls grew from %d to %d with breaker open", callsBefore, broken.calls)
	}
}
