// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package api provides HTTP routing and handlers using the chi router.
//
// Handler methods are split across files:
//   - handlers.go: Handler struct and constructor (this file)
//   - respond.go: JSON envelope helpers
//   - handlers_auth.go: signup, login, logout, me, email callback
//   - handlers_verification.go: tutor submission workflow and SSE stream
//   - handlers_admin.go: review queue and decisions
//   - handlers_pages.go: gated page shells and the guard endpoint
package api

import (
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/config"
	"github.com/tutorlink/tutorlink/internal/guard"
	"github.com/tutorlink/tutorlink/internal/policy"
	"github.com/tutorlink/tutorlink/internal/profile"
	"github.com/tutorlink/tutorlink/internal/verification"
)

// Handler carries the dependencies every endpoint draws on.
type Handler struct {
	cfg           *config.Config
	sessions      *auth.Manager
	users         auth.UserStore
	tokens        *auth.TokenIssuer
	loginLimiter  *auth.LoginLimiter
	gateway       *profile.Gateway
	store         profile.Store
	verifications *verification.Service
	engine        *policy.Engine
	guard         *guard.Guard
	subscriber    message.Subscriber
	startTime     time.Time
}

// Deps bundles the collaborators for NewHandler.
type Deps struct {
	Config        *config.Config
	Sessions      *auth.Manager
	Users         auth.UserStore
	Tokens        *auth.TokenIssuer
	Gateway       *profile.Gateway
	Store         profile.Store
	Verifications *verification.Service
	Engine        *policy.Engine
	Guard         *guard.Guard
	Subscriber    message.Subscriber
}

// NewHandler wires the handler set.
func NewHandler(d Deps) *Handler {
	return &Handler{
		cfg:           d.Config,
		sessions:      d.Sessions,
		users:         d.Users,
		tokens:        d.Tokens,
		loginLimiter:  auth.NewLoginLimiter(d.Config.Security.LoginAttemptsPerMinute, d.Config.Security.LoginBurst),
		gateway:       d.Gateway,
		store:         d.Store,
		verifications: d.Verifications,
		engine:        d.Engine,
		guard:         d.Guard,
		subscriber:    d.Subscriber,
		startTime:     time.Now(),
	}
}
