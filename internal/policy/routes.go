// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package policy

import (
	"strings"

	"github.com/tutorlink/tutorlink/internal/models"
)

// Well-known paths referenced by redirect decisions.
const (
	PathLanding         = "/"
	PathVerifyEmail     = "/auth/verify"
	PathAuthError       = "/auth/error"
	PathStudentHome     = "/student"
	PathTutorHome       = "/tutor"
	PathAdminHome       = "/admin"
	PathTutorOnboarding = "/tutor/onboarding"
	PathTutorPending    = "/tutor/pending"
	PathTutorRejected   = "/tutor/rejected"
)

// Class describes the access rules for one route subtree. A path belongs
// to the class with the longest matching prefix, where a prefix matches
// only at segment boundaries ("/tutor" matches "/tutor/sessions" but not
// "/tutoring").
type Class struct {
	// Prefix is the route subtree root. "/" matches the landing page only.
	Prefix string

	// Public routes skip session validation entirely.
	Public bool

	// Landing marks the public landing page, which redirects
	// authenticated visitors to their role home.
	Landing bool

	// Roles that may enter this subtree. Empty for public routes.
	Roles []models.Role

	// RequireApproved gates the subtree on an approved tutor
	// verification. Only meaningful for tutor-accessible classes.
	RequireApproved bool

	// Workflow marks verification workflow pages that stay reachable
	// for tutors regardless of verification status.
	Workflow bool
}

// DefaultRoutes is the route classification table for the platform.
// Order is irrelevant; classification always picks the longest match.
func DefaultRoutes() []Class {
	return []Class{
		{Prefix: PathLanding, Public: true, Landing: true},
		{Prefix: "/auth", Public: true},
		{Prefix: PathStudentHome, Roles: []models.Role{models.RoleStudent, models.RoleAdmin}},
		{Prefix: PathTutorOnboarding, Roles: []models.Role{models.RoleTutor, models.RoleAdmin}, Workflow: true},
		{Prefix: PathTutorPending, Roles: []models.Role{models.RoleTutor, models.RoleAdmin}, Workflow: true},
		{Prefix: PathTutorRejected, Roles: []models.Role{models.RoleTutor, models.RoleAdmin}, Workflow: true},
		{Prefix: PathTutorHome, Roles: []models.Role{models.RoleTutor, models.RoleAdmin}, RequireApproved: true},
		{Prefix: PathAdminHome, Roles: []models.Role{models.RoleAdmin}},
	}
}

// Table resolves request paths to route classes.
type Table struct {
	classes []Class
}

// NewTable builds a classification table from the given classes.
func NewTable(classes []Class) *Table {
	return &Table{classes: classes}
}

// Classify returns the class with the longest prefix matching path.
// The second return value is false when no class matches; callers must
// treat unclassified paths as protected with an empty role set.
func (t *Table) Classify(path string) (Class, bool) {
	path = NormalizePath(path)

	var (
		best    Class
		bestLen = -1
	)
	for _, c := range t.classes {
		if !prefixMatches(c.Prefix, path) {
			continue
		}
		if len(c.Prefix) > bestLen {
			best = c
			bestLen = len(c.Prefix)
		}
	}
	if bestLen < 0 {
		return Class{}, false
	}
	return best, true
}

// NormalizePath strips a trailing slash so "/tutor/" and "/tutor"
// classify identically. The root path is left untouched.
func NormalizePath(path string) string {
	if path == "" {
		return PathLanding
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

func prefixMatches(prefix, path string) bool {
	if prefix == PathLanding {
		return path == PathLanding
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
