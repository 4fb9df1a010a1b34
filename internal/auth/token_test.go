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

	"github.com/golang-jwt/jwt/v5"

	"github.com/tutorlink/tutorlink/internal/config"
	"github.com/tutorlink/tutorlink/internal/models"
)

func TestTokenIssuerRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	token, err := issuer.IssueEmailToken("user-1", "user@example.com", models.RoleTutor)
	if err != nil {
		t.Fatalf("IssueEmailToken() error = %v", err)
	}

	claims, err := issuer.VerifyEmailToken(token)
	if err != nil {
		t.Fatalf("VerifyEmailToken() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Role != "tutor" {
		t.Errorf("Role = %q, want %q", claims.Role, "tutor")
	}
}

func TestTokenIssuerRejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)

	expired := NewTokenIssuer("secret", -time.Minute)
	expiredToken, err := expired.IssueEmailToken("user-1", "user@example.com", models.RoleStudent)
	if err != nil {
		t.Fatalf("IssueEmailToken() error = %v", err)
	}

	otherSecret := NewTokenIssuer("other", time.Hour)
	forged, err := otherSecret.IssueEmailToken("user-1", "user@example.com", models.RoleStudent)
	if err != nil {
		t.Fatalf("IssueEmailToken() error = %v", err)
	}

	wrongPurpose := jwt.NewWithClaims(jwt.SigningMethodHS256, EmailTokenClaims{
		Purpose: "password_reset",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	wrongPurposeToken, err := wrongPurpose.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "expired", token: expiredToken},
		{name: "wrong secret", token: forged},
		{name: "wrong purpose", token: wrongPurposeToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.VerifyEmailToken(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("VerifyEmailToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2hunter2", 4)
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if err := CheckPassword(hash, "hunter2hunter2"); err != nil {
		t.Errorf("CheckPassword() error = %v, want nil", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("CheckPassword(wrong) error = %v, want ErrInvalidCredentials", err)
	}
}

func TestMemoryUserStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryUserStore()

	u := &User{ID: "user-1", Email: "User@Example.com", CreatedAt: time.Now()}
	if err := store.Create(ctx, u); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Create(ctx, &User{ID: "user-2", Email: "user@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Create(duplicate) error = %v, want ErrEmailTaken", err)
	}

	got, err := store.GetByEmail(ctx, "user@example.COM")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != "user-1" {
		t.Errorf("ID = %q, want %q", got.ID, "user-1")
	}

	if err := store.MarkEmailVerified(ctx, "user-1"); err != nil {
		t.Fatalf("MarkEmailVerified() error = %v", err)
	}
	got, err = store.GetByID(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if !got.EmailVerified {
		t.Error("EmailVerified = false after MarkEmailVerified")
	}
}

func TestLoginLimiter(t *testing.T) {
	l := NewLoginLimiter(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("user@example.com") {
			t.Fatalf("Allow() = false on attempt %d within burst", i+1)
		}
	}
	if l.Allow("user@example.com") {
		t.Error("Allow() = true after burst exhausted")
	}
	// Other accounts are unaffected.
	if !l.Allow("other@example.com") {
		t.Error("Allow() = false for independent key")
	}
}

func TestLoginLimiterFromSecurityConfig(t *testing.T) {
	// The limiter is built straight from the security settings; the
	// field types must feed the constructor without conversion.
	sec := config.SecurityConfig{LoginAttemptsPerMinute: 1, LoginBurst: 2}
	l := NewLoginLimiter(sec.LoginAttemptsPerMinute, sec.LoginBurst)

	for i := 0; i < 2; i++ {
		if !l.Allow("user@example.com") {
			t.Fatalf("Allow() = false on attempt %d within burst", i+1)
		}
	}
	if l.Allow("user@example.com") {
		t.Error("Allow() = true after burst exhausted")
	}
}
