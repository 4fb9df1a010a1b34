// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/metrics"
	"github.com/tutorlink/tutorlink/internal/models"
)

// GatewayConfig tunes the protective wrapper around the store.
type GatewayConfig struct {
	// LookupTimeout bounds each read issued on the request path.
	LookupTimeout time.Duration

	// RetryAttempts is how many times EnsureProfile retries a read
	// before falling back to creating a profile.
	RetryAttempts int

	// RetryBackoff is the pause between EnsureProfile attempts.
	RetryBackoff time.Duration
}

func (c GatewayConfig) withDefaults() GatewayConfig {
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = 2 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 400 * time.Millisecond
	}
	return c
}

// Gateway wraps a Store with a circuit breaker and per-call timeouts
// for the request path. Read failures degrade to "record absent" so a
// slow or broken store produces a conservative redirect rather than a
// hung request.
type Gateway struct {
	store Store
	cfg   GatewayConfig
	cb    *gobreaker.CircuitBreaker[any]
}

// NewGateway wraps store.
func NewGateway(store Store, cfg GatewayConfig) *Gateway {
	g := &Gateway{store: store, cfg: cfg.withDefaults()}
	g.cb = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "profile-store",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
	return g
}

// Store returns the wrapped store for write paths that must see real
// errors instead of degraded reads.
func (g *Gateway) Store() Store {
	return g.store
}

func (g *Gateway) execute(ctx context.Context, op string, fn func(ctx context.Context) (any, error)) (any, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.LookupTimeout)
	defer cancel()

	out, err := g.cb.Execute(func() (any, error) {
		v, err := fn(ctx)
		// Absence is a domain answer, not a store failure; it must
		// not count against the breaker.
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return v, err
	})
	if err != nil {
		metrics.StoreLookupErrors.WithLabelValues(op).Inc()
		logging.Ctx(ctx).Warn().Err(err).Str("operation", op).Msg("Store lookup degraded to absent")
		return nil, err
	}
	return out, nil
}

// Profile returns the profile for userID, nil when absent, and nil on
// store failure. The second return reports whether the answer is
// authoritative (false when degraded).
func (g *Gateway) Profile(ctx context.Context, userID string) (*models.Profile, bool) {
	out, err := g.execute(ctx, "get_profile", func(ctx context.Context) (any, error) {
		return g.store.GetProfile(ctx, userID)
	})
	if err != nil {
		return nil, false
	}
	if out == nil {
		return nil, true
	}
	return out.(*models.Profile), true
}

// Verification returns the verification record for userID, nil when
// absent or on store failure.
func (g *Gateway) Verification(ctx context.Context, userID string) (*models.TutorVerification, bool) {
	metrics.VerificationLookups.Inc()
	out, err := g.execute(ctx, "get_verification", func(ctx context.Context) (any, error) {
		return g.store.GetVerification(ctx, userID)
	})
	if err != nil {
		return nil, false
	}
	if out == nil {
		return nil, true
	}
	return out.(*models.TutorVerification), true
}

// EnsureProfile returns the profile for the user, retrying transient
// read failures, and creates one from the role hint when no profile
// exists after the retries. Used on the post-verification callback
// where a missing profile must not strand the user on the landing page.
func (g *Gateway) EnsureProfile(ctx context.Context, userID string, roleHint models.Role, fullName string) (*models.Profile, error) {
	// A missing row is retried too: profile creation can lag account
	// creation by a beat when signup and callback race.
	var lastErr error
	for attempt := 0; attempt < g.cfg.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(g.cfg.RetryBackoff):
			}
		}

		p, err := g.store.GetProfile(ctx, userID)
		if err == nil {
			return p, nil
		}
		lastErr = err
	}

	if !errors.Is(lastErr, ErrNotFound) {
		return nil, fmt.Errorf("reading profile for %s: %w", userID, lastErr)
	}

	role := roleHint
	if !role.Valid() {
		role = models.RoleStudent
	}
	p := &models.Profile{
		UserID:    userID,
		Role:      role,
		FullName:  fullName,
		CreatedAt: time.Now(),
	}
	if err := g.store.CreateProfile(ctx, p); err != nil {
		// Lost a create race; the winner's row is the profile.
		if errors.Is(err, ErrConflict) {
			return g.store.GetProfile(ctx, userID)
		}
		return nil, fmt.Errorf("creating fallback profile for %s: %w", userID, err)
	}
	logging.Ctx(ctx).Info().
		Str("user_id", userID).
		Str("role", role.String()).
		Msg("Created fallback profile")
	return p, nil
}
