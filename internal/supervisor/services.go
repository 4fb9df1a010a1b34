// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/metrics"
)

// HTTPService runs an http.Server as a suture service.
type HTTPService struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps srv for supervision.
func NewHTTPService(srv *http.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: srv, shutdownTimeout: shutdownTimeout}
}

// Serve listens until ctx is canceled, then drains connections.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.ListenAndServe()
	}()

	logging.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP shutdown did not drain cleanly")
		}
		return ctx.Err()
	}
}

func (s *HTTPService) String() string { return "http-server" }

// SessionJanitor periodically reaps expired sessions.
type SessionJanitor struct {
	store    auth.SessionStore
	interval time.Duration
}

// NewSessionJanitor builds the reaper. interval defaults to 5 minutes.
func NewSessionJanitor(store auth.SessionStore, interval time.Duration) *SessionJanitor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &SessionJanitor{store: store, interval: interval}
}

// Serve loops until ctx is canceled.
func (j *SessionJanitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			reaped, err := j.store.CleanupExpired(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("Session cleanup failed")
				continue
			}
			if reaped > 0 {
				metrics.SessionsReaped.Add(float64(reaped))
				logging.Debug().Int("reaped", reaped).Msg("Expired sessions removed")
			}
			if live, err := j.store.Count(ctx); err == nil {
				metrics.SessionsActive.Set(float64(live))
			}
		}
	}
}

func (j *SessionJanitor) String() string { return "session-janitor" }

// RouterService runs a watermill router under supervision.
type RouterService struct {
	router *message.Router
}

// NewRouterService wraps router.
func NewRouterService(router *message.Router) *RouterService {
	return &RouterService{router: router}
}

// Serve runs the router until ctx is canceled.
func (r *RouterService) Serve(ctx context.Context) error {
	return r.router.Run(ctx)
}

func (r *RouterService) String() string { return "decision-router" }
