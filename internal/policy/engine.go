// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package policy implements the access decision engine shared by the
// edge gate and the client-side guard. Decide is a pure function of its
// input; it performs no I/O, so two calls with equal inputs always
// produce equal decisions.
package policy

import (
	"net/url"
	"strings"

	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/models"
)

// Reason explains a decision. Every deny carries exactly one reason;
// ReasonAuthenticated is the only reason attached to a redirect that is
// not an access failure (the landing page bouncing signed-in visitors
// to their role home).
type Reason string

const (
	ReasonNone                     Reason = ""
	ReasonAuthenticated            Reason = "authenticated"
	ReasonUnauthenticated          Reason = "unauthenticated"
	ReasonEmailUnverified          Reason = "email_unverified"
	ReasonProfileMissing           Reason = "profile_missing"
	ReasonRoleForbidden            Reason = "role_forbidden"
	ReasonVerificationNotSubmitted Reason = "verification_not_submitted"
	ReasonVerificationPending      Reason = "verification_pending"
	ReasonVerificationRejected     Reason = "verification_rejected"
)

// Decision is the outcome of evaluating one request path.
type Decision struct {
	// Allowed grants access to the requested path as-is.
	Allowed bool

	// RedirectTarget is the path to send the caller to when access is
	// not granted. Empty when Allowed.
	RedirectTarget string

	// Reason explains a redirect. ReasonNone when Allowed.
	Reason Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func redirect(target string, reason Reason) Decision {
	return Decision{RedirectTarget: target, Reason: reason}
}

// Input carries everything Decide needs. Identity is nil for anonymous
// requests; Profile and Verification are nil when the respective record
// is absent or could not be fetched.
type Input struct {
	Path         string
	Identity     *auth.Identity
	Profile      *models.Profile
	Verification *models.TutorVerification
}

// Engine evaluates access decisions against a fixed route table.
type Engine struct {
	table *Table
	enf   *enforcer
}

// NewEngine builds an engine over the default route table.
func NewEngine() (*Engine, error) {
	return NewEngineWithRoutes(DefaultRoutes())
}

// NewEngineWithRoutes builds an engine over a custom route table.
func NewEngineWithRoutes(classes []Class) (*Engine, error) {
	enf, err := newEnforcer(classes)
	if err != nil {
		return nil, err
	}
	return &Engine{table: NewTable(classes), enf: enf}, nil
}

// Decide evaluates one request. Rules apply in a fixed order and the
// first matching rule wins:
//
//  1. Public routes are allowed; the landing page redirects
//     authenticated visitors to their role home instead.
//  2. Anonymous requests to protected routes go to the landing page
//     with the requested path preserved in redirectTo.
//  3. Unverified email addresses go to the verification prompt.
//  4. A missing profile goes to the landing page.
//  5. Roles outside the route's role set go to their own role home.
//  6. Tutors on gated tutor routes are held on the workflow page
//     matching their verification status until approved.
//  7. Everything else is allowed.
func (e *Engine) Decide(in Input) Decision {
	path := NormalizePath(in.Path)
	class, matched := e.table.Classify(path)

	if matched && class.Public {
		if class.Landing && in.Identity != nil {
			return redirect(e.landingHome(in), ReasonAuthenticated)
		}
		return allow()
	}

	if in.Identity == nil {
		return redirect(PathLanding+"?redirectTo="+escapeRedirectTo(path), ReasonUnauthenticated)
	}

	if !in.Identity.EmailVerified {
		return redirect(PathVerifyEmail, ReasonEmailUnverified)
	}

	if in.Profile == nil {
		return redirect(PathLanding, ReasonProfileMissing)
	}
	role := in.Profile.Role

	if !matched || !e.enf.allowed(role, class.Prefix) {
		return redirect(RoleHome(role), ReasonRoleForbidden)
	}

	if class.RequireApproved && role == models.RoleTutor {
		switch in.Verification.EffectiveStatus() {
		case models.VerificationNotSubmitted:
			return redirect(PathTutorOnboarding, ReasonVerificationNotSubmitted)
		case models.VerificationPending:
			return redirect(PathTutorPending, ReasonVerificationPending)
		case models.VerificationRejected:
			return redirect(PathTutorRejected, ReasonVerificationRejected)
		}
	}

	return allow()
}

// escapeRedirectTo query-escapes a path for the redirectTo parameter
// while keeping slashes literal, so "/tutor" survives as "/tutor" and
// a path containing "&" or "?" cannot break out of the parameter.
func escapeRedirectTo(path string) string {
	return strings.ReplaceAll(url.QueryEscape(path), "%2F", "/")
}

// NeedsVerification reports whether deciding path for the given role
// will consult the verification record. Callers use it to skip the
// lookup entirely for students, admins, and workflow pages.
func (e *Engine) NeedsVerification(role models.Role, path string) bool {
	if role != models.RoleTutor {
		return false
	}
	path = NormalizePath(path)
	if path == PathLanding {
		return true
	}
	class, ok := e.table.Classify(path)
	return ok && class.RequireApproved
}

// AllowedRoles returns the role set a path requires. Nil for public
// routes; empty (but non-nil) for paths no class covers, which deny
// every role.
func (e *Engine) AllowedRoles(path string) []models.Role {
	class, ok := e.table.Classify(NormalizePath(path))
	if !ok {
		return []models.Role{}
	}
	if class.Public {
		return nil
	}
	return append([]models.Role(nil), class.Roles...)
}

// RoleHome returns the home path for a role. Unknown roles fall back
// to the student home.
func RoleHome(role models.Role) string {
	switch role {
	case models.RoleTutor:
		return PathTutorHome
	case models.RoleAdmin:
		return PathAdminHome
	default:
		return PathStudentHome
	}
}

// TutorHome resolves the landing destination for a tutor from the
// verification record: the workflow page for an incomplete status, the
// tutor dashboard once approved.
func TutorHome(v *models.TutorVerification) string {
	switch v.EffectiveStatus() {
	case models.VerificationNotSubmitted:
		return PathTutorOnboarding
	case models.VerificationPending:
		return PathTutorPending
	case models.VerificationRejected:
		return PathTutorRejected
	default:
		return PathTutorHome
	}
}

// landingHome picks the role home for an authenticated visitor on the
// landing page. The profile role is authoritative; the session role
// claim only breaks ties when the profile is absent.
func (e *Engine) landingHome(in Input) string {
	role := in.Identity.RoleClaim
	if in.Profile != nil {
		role = in.Profile.Role
	}
	if role == models.RoleTutor {
		return TutorHome(in.Verification)
	}
	return RoleHome(role)
}
