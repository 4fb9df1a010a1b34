// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package auth

import "github.com/tutorlink/tutorlink/internal/models"

// Identity is the normalized view of an authenticated principal after
// session validation. RoleClaim is a hint carried in the session; the
// profile record remains the authoritative role source.
type Identity struct {
	UserID        string      `json:"user_id"`
	Email         string      `json:"email"`
	EmailVerified bool        `json:"email_verified"`
	RoleClaim     models.Role `json:"role_claim"`
}
