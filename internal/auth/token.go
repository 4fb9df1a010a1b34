// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tutorlink/tutorlink/internal/models"
)

const purposeEmailVerification = "email_verification"

var (
	// ErrInvalidToken is returned for malformed, forged, expired, or
	// wrong-purpose tokens.
	ErrInvalidToken = errors.New("invalid token")
)

// EmailTokenClaims are carried in an email verification link. The role
// claim lets the callback handler pick a role home without a second
// round trip; the profile record stays authoritative.
type EmailTokenClaims struct {
	Purpose string `json:"purpose"`
	Role    string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies email verification tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer builds an issuer with the shared HMAC secret.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// IssueEmailToken signs a verification token for the given account.
func (i *TokenIssuer) IssueEmailToken(userID, email string, role models.Role) (string, error) {
	now := time.Now()
	claims := EmailTokenClaims{
		Purpose: purposeEmailVerification,
		Role:    role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Audience:  jwt.ClaimStrings{email},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// VerifyEmailToken validates signature, expiry, and purpose.
func (i *TokenIssuer) VerifyEmailToken(tokenString string) (*EmailTokenClaims, error) {
	claims := &EmailTokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purposeEmailVerification {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
