// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package gate is the edge authorization middleware. Every page request
// passes through it before a handler runs: it resolves the session,
// gathers the profile and verification inputs, asks the policy engine,
// and either forwards the request or issues a redirect.
package gate

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/metrics"
	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/policy"
	"github.com/tutorlink/tutorlink/internal/profile"
)

// Gate wires the collaborators the middleware consults per request.
type Gate struct {
	sessions *auth.Manager
	profiles *profile.Gateway
	engine   *policy.Engine

	// timeout bounds each collaborator call so one slow dependency
	// cannot stall page loads.
	timeout time.Duration
}

// New builds the edge gate.
func New(sessions *auth.Manager, profiles *profile.Gateway, engine *policy.Engine, timeout time.Duration) *Gate {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Gate{sessions: sessions, profiles: profiles, engine: engine, timeout: timeout}
}

// Middleware evaluates the request path and either passes the request
// through or redirects. Live sessions are refreshed exactly once per
// request, on every outcome except an unauthenticated deny.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		in, session := g.gather(r)
		decision := g.engine.Decide(in)

		metrics.RecordDecision(decision.Allowed, string(decision.Reason))
		g.logDecision(r, in, decision)

		if session != nil {
			refreshCtx, cancel := context.WithTimeout(r.Context(), g.timeout)
			if err := g.sessions.Refresh(refreshCtx, w, session); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("Session refresh failed")
			}
			cancel()
		}

		if decision.Allowed {
			r = r.WithContext(contextWithInput(r.Context(), in))
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, decision.RedirectTarget, http.StatusFound)
	})
}

// gather resolves the decision inputs. Session store failures are
// downgraded to "no session" so the engine produces a conservative
// redirect instead of an error page.
func (g *Gate) gather(r *http.Request) (policy.Input, *auth.Session) {
	in := policy.Input{Path: r.URL.Path}

	ctx, cancel := context.WithTimeout(r.Context(), g.timeout)
	session, err := g.sessions.ValidateRequest(ctx, r)
	cancel()
	if err != nil {
		if !errors.Is(err, auth.ErrSessionNotFound) {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Session lookup degraded to anonymous")
		}
		return in, nil
	}

	in.Identity = session.Identity()
	in.Profile, _ = g.profiles.Profile(r.Context(), session.UserID)

	role := session.RoleClaim
	if in.Profile != nil {
		role = in.Profile.Role
	}
	if g.engine.NeedsVerification(role, r.URL.Path) {
		in.Verification, _ = g.profiles.Verification(r.Context(), session.UserID)
	}

	return in, session
}

func (g *Gate) logDecision(r *http.Request, in policy.Input, d policy.Decision) {
	ev := logging.Ctx(r.Context()).Debug()
	if !d.Allowed && d.Reason != policy.ReasonAuthenticated {
		ev = logging.Ctx(r.Context()).Info()
	}
	if in.Identity != nil {
		ev = ev.Str("user_id", in.Identity.UserID)
	}
	ev.Str("path", r.URL.Path).
		Bool("allowed", d.Allowed).
		Str("reason", string(d.Reason)).
		Str("redirect", d.RedirectTarget).
		Msg("Gate decision")
}

type inputKey struct{}

func contextWithInput(ctx context.Context, in policy.Input) context.Context {
	return context.WithValue(ctx, inputKey{}, in)
}

// InputFromContext returns the decision inputs the gate resolved for
// this request, so downstream handlers can reuse the identity and
// profile without re-reading the stores.
func InputFromContext(ctx context.Context) (policy.Input, bool) {
	in, ok := ctx.Value(inputKey{}).(policy.Input)
	return in, ok
}

// IdentityFromContext is a convenience accessor for the authenticated
// principal, nil for anonymous requests on public pages.
func IdentityFromContext(ctx context.Context) *auth.Identity {
	in, ok := InputFromContext(ctx)
	if !ok {
		return nil
	}
	return in.Identity
}

// RoleFromContext returns the effective role for the request.
func RoleFromContext(ctx context.Context) (models.Role, bool) {
	in, ok := InputFromContext(ctx)
	if !ok || in.Profile == nil {
		return "", false
	}
	return in.Profile.Role, true
}
