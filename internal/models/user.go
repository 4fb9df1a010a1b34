// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package models defines the domain types shared across the platform core:
// roles, profiles, and the tutor verification record.
package models

import (
	"errors"
	"time"
)

// Role is the durable role a user holds. Roles are assigned at signup and
// immutable afterwards; there is no role-change flow.
type Role string

const (
	// RoleStudent is a learner booking sessions with tutors.
	RoleStudent Role = "student"

	// RoleTutor is a teaching account, gated by document verification.
	RoleTutor Role = "tutor"

	// RoleAdmin is a platform operator. Admins bypass the verification gate.
	RoleAdmin Role = "admin"
)

// ErrInvalidRole is returned when parsing an unknown role string.
var ErrInvalidRole = errors.New("invalid role")

// ParseRole converts a string to a Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case string(RoleStudent):
		return RoleStudent, nil
	case string(RoleTutor):
		return RoleTutor, nil
	case string(RoleAdmin):
		return RoleAdmin, nil
	default:
		return "", ErrInvalidRole
	}
}

// Valid reports whether the role is one of the three known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTutor || r == RoleAdmin
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// Profile is the durable record of a user's role and display attributes.
// Exactly one profile exists per authenticated user; it is created by a
// signup side effect and never deleted. An absent profile is a transient
// inconsistency, not a valid state.
type Profile struct {
	// UserID is the opaque identifier binding the profile to an identity.
	UserID string `json:"user_id"`

	// Role is immutable after creation.
	Role Role `json:"role"`

	// FullName is the display name shown on dashboards.
	FullName string `json:"full_name"`

	// AvatarURL is an optional display avatar.
	AvatarURL string `json:"avatar_url,omitempty"`

	// CreatedAt is when the profile was materialized.
	CreatedAt time.Time `json:"created_at"`
}

// AuthUser is the identity snapshot handed to clients: the merged view of
// a validated session and the freshly read profile.
type AuthUser struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}
