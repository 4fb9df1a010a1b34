// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package guard evaluates access for page shells after they load. The
// edge gate has already run by then, but client-side navigation and
// slow auth hydration can leave a page rendered for a principal the
// server never saw; the guard re-checks and tells the shell where to
// send the user.
package guard

import (
	"context"
	"time"

	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/policy"
)

// Snapshot is one observation of the caller's auth state. Loading
// marks a snapshot taken before hydration finished; its fields may
// lag reality.
type Snapshot struct {
	Input   policy.Input
	Loading bool
}

// SnapshotFunc produces the current auth snapshot for a request. It is
// called again after the grace period, so it must reflect fresh state
// on every call.
type SnapshotFunc func(ctx context.Context) Snapshot

// Guard re-evaluates access decisions with a short grace period.
type Guard struct {
	engine *policy.Engine
	grace  time.Duration
}

// New builds a guard. grace is how long a deny is held back to let auth
// state settle; zero disables the delay.
func New(engine *policy.Engine, grace time.Duration) *Guard {
	return &Guard{engine: engine, grace: grace}
}

// AllowedRoles reports which roles the page at path admits, so shells
// can render role-appropriate chrome before evaluation finishes. Nil
// means the page is public.
func (g *Guard) AllowedRoles(path string) []models.Role {
	return g.engine.AllowedRoles(path)
}

// Evaluate decides access for path using snapshots from snap. A deny
// produced while state may still be settling is not acted on
// immediately: the guard waits out the grace period, takes a fresh
// snapshot, and decides again. The first decision is discarded, never
// merged, so a flip from loading to signed-in cannot bounce the user
// through a redirect computed from the stale state.
func (g *Guard) Evaluate(ctx context.Context, path string, snap SnapshotFunc) (policy.Decision, error) {
	first := snap(ctx)
	decision := g.engine.Decide(withPath(first.Input, path))
	if decision.Allowed && !first.Loading {
		return decision, nil
	}

	if g.grace > 0 {
		select {
		case <-ctx.Done():
			return policy.Decision{}, ctx.Err()
		case <-time.After(g.grace):
		}
	}

	fresh := snap(ctx)
	return g.engine.Decide(withPath(fresh.Input, path)), nil
}

func withPath(in policy.Input, path string) policy.Input {
	in.Path = path
	return in
}
