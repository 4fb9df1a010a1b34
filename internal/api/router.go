// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tutorlink/tutorlink/internal/gate"
	"github.com/tutorlink/tutorlink/internal/middleware"
)

// NewRouter assembles the full route tree: health and metrics, the
// JSON API, and the gated page shells.
func NewRouter(h *Handler, g *gate.Gate) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(h.cfg.Security.RateLimitReqs, h.cfg.Security.RateLimitWindow))

		r.Route("/auth", func(r chi.Router) {
			// Login gets its own tight bucket on top of the per-account
			// limiter inside the handler.
			r.With(httprate.LimitByIP(10, time.Minute)).Post("/login", h.Login)
			r.Post("/signup", h.Signup)
			r.Post("/logout", h.Logout)
			r.With(h.requireSession).Get("/me", h.Me)

			// Serves anonymous callers too: a public page's shell asks it
			// where a signed-out visitor belongs.
			r.Get("/guard", h.GuardDecision)
		})

		r.Route("/verification", func(r chi.Router) {
			r.Use(h.requireSession)
			r.Post("/documents", h.SubmitVerification)
			r.Get("/status", h.VerificationStatus)
			r.Post("/resubmit", h.ResubmitVerification)
			r.Get("/events", h.VerificationEvents)
		})

		r.With(h.requireSession).Get("/notifications", h.Notifications)

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireSession)
			r.Use(h.requireAdmin)
			r.Get("/tutors", h.AdminListTutors)
			r.Post("/tutors/{userID}/decision", h.AdminDecideVerification)
			r.Get("/stats", h.AdminStats)
		})
	})

	// Every page goes through the edge gate, public ones included: the
	// landing page needs it for the signed-in redirect.
	r.Group(func(r chi.Router) {
		r.Use(g.Middleware)

		r.Get("/", h.PageShell("Find your tutor"))
		r.Get("/auth/login", h.PageShell("Sign in"))
		r.Get("/auth/signup", h.PageShell("Create an account"))
		r.Get("/auth/verify", h.PageShell("Verify your email"))
		r.Get("/auth/error", h.PageShell("Verification link invalid"))
		r.Get("/auth/callback", h.AuthCallback)

		r.Get("/student", h.PageShell("Student dashboard"))
		r.Get("/student/*", h.PageShell("Student dashboard"))

		r.Get("/tutor", h.PageShell("Tutor dashboard"))
		r.Get("/tutor/*", h.PageShell("Tutor dashboard"))
		r.Get("/tutor/onboarding", h.PageShell("Tutor onboarding"))
		r.Get("/tutor/pending", h.PageShell("Verification pending"))
		r.Get("/tutor/rejected", h.PageShell("Verification rejected"))

		r.Get("/admin", h.PageShell("Admin"))
		r.Get("/admin/*", h.PageShell("Admin"))
	})

	return r
}
