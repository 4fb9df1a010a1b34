// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package policy

import (
	_ "embed"
	"fmt"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"

	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/models"
)

//go:embed model.conf
var rbacModel string

// enforcer answers role-membership questions for protected route
// classes. Policies are derived from the route table at construction,
// one (role, prefix) pair per allowed role.
type enforcer struct {
	e *casbin.SyncedEnforcer
}

func newEnforcer(classes []Class) (*enforcer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("parsing rbac model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("creating enforcer: %w", err)
	}

	for _, c := range classes {
		if c.Public {
			continue
		}
		for _, role := range c.Roles {
			if _, err := e.AddPolicy(role.String(), c.Prefix); err != nil {
				return nil, fmt.Errorf("adding policy %s %s: %w", role, c.Prefix, err)
			}
		}
	}

	return &enforcer{e: e}, nil
}

// allowed reports whether role may enter the route class rooted at
// prefix. Enforcement errors deny access.
func (f *enforcer) allowed(role models.Role, prefix string) bool {
	ok, err := f.e.Enforce(role.String(), prefix)
	if err != nil {
		logging.Error().Err(err).
			Str("role", role.String()).
			Str("prefix", prefix).
			Msg("Enforcement error, denying access")
		return false
	}
	return ok
}
