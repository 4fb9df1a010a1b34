// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/tutorlink/tutorlink/internal/guard"
	"github.com/tutorlink/tutorlink/internal/policy"
)

// PageShell serves the HTML shell for an app page. The edge gate has
// already authorized the request; the shell's script calls the guard
// endpoint after hydration for the client-side re-check.
func (h *Handler) PageShell(title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>TutorLink - %s</title></head>
<body data-page=%q><div id="app"></div></body>
</html>
`, title, r.URL.Path)
	}
}

// GuardDecisionResponse is what the client-side guard acts on.
type GuardDecisionResponse struct {
	Allowed      bool          `json:"allowed"`
	RedirectTo   string        `json:"redirect_to,omitempty"`
	Reason       policy.Reason `json:"reason,omitempty"`
	AllowedRoles interface{}   `json:"allowed_roles"`
}

// GuardDecision evaluates access to ?path= for the calling browser.
// Auth state is re-read on each snapshot, so a session established
// between page load and this call is picked up, and a decision against
// the older state is never returned.
func (h *Handler) GuardDecision(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		respondError(w, http.StatusBadRequest, "missing_path", "path query parameter is required", nil)
		return
	}

	snapshot := h.snapshotFunc(r)
	decision, err := h.guard.Evaluate(r.Context(), path, snapshot)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, GuardDecisionResponse{
		Allowed:      decision.Allowed,
		RedirectTo:   decision.RedirectTarget,
		Reason:       decision.Reason,
		AllowedRoles: h.guard.AllowedRoles(path),
	})
}

// snapshotFunc builds a fresh-state reader for the guard: every call
// re-resolves the session cookie and the backing records.
func (h *Handler) snapshotFunc(r *http.Request) guard.SnapshotFunc {
	return func(ctx context.Context) guard.Snapshot {
		session, err := h.sessions.ValidateRequest(ctx, r)
		if err != nil {
			return guard.Snapshot{}
		}

		in := policy.Input{Identity: session.Identity()}
		in.Profile, _ = h.gateway.Profile(ctx, session.UserID)

		role := session.RoleClaim
		if in.Profile != nil {
			role = in.Profile.Role
		}
		if h.engine.NeedsVerification(role, r.URL.Query().Get("path")) {
			in.Verification, _ = h.gateway.Verification(ctx, session.UserID)
		}
		return guard.Snapshot{Input: in}
	}
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "up",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Readyz reports readiness: the profile store must answer.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.gateway.Profile(r.Context(), "readiness-probe"); !ok {
		respondError(w, http.StatusServiceUnavailable, "store_unavailable", "profile store is not answering", nil)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
