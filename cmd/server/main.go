// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Command server runs the TutorLink authorization gateway: the HTTP API,
// the route gate, and the verification decision pipeline under a single
// supervision tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tutorlink/tutorlink/internal/api"
	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/config"
	"github.com/tutorlink/tutorlink/internal/gate"
	"github.com/tutorlink/tutorlink/internal/guard"
	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/notify"
	"github.com/tutorlink/tutorlink/internal/policy"
	"github.com/tutorlink/tutorlink/internal/profile"
	"github.com/tutorlink/tutorlink/internal/supervisor"
	"github.com/tutorlink/tutorlink/internal/verification"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("session_store", cfg.Security.SessionStore).
		Bool("postgres", cfg.Database.DSN != "").
		Msg("Starting TutorLink server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}

	logging.Info().Msg("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	store, users, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sessionStore, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer sessionStore.Close()

	engine, err := policy.NewEngine()
	if err != nil {
		return fmt.Errorf("build policy engine: %w", err)
	}

	gateway := profile.NewGateway(store, profile.GatewayConfig{
		LookupTimeout: cfg.Gate.CollaboratorTimeout,
		RetryAttempts: cfg.Gate.ProfileRetryAttempts,
		RetryBackoff:  cfg.Gate.ProfileRetryBackoff,
	})

	sessions := auth.NewManager(sessionStore, cfg.Security)
	tokens := auth.NewTokenIssuer(cfg.Security.TokenSecret, cfg.Security.TokenTTL)

	pubsub := notify.NewPubSub()
	defer pubsub.Close()

	verifications := verification.NewService(store, pubsub)

	decisionRouter, err := notify.NewDecisionRouter(pubsub, store)
	if err != nil {
		return fmt.Errorf("build decision router: %w", err)
	}

	handler := api.NewHandler(api.Deps{
		Config:        cfg,
		Sessions:      sessions,
		Users:         users,
		Tokens:        tokens,
		Gateway:       gateway,
		Store:         store,
		Verifications: verifications,
		Engine:        engine,
		Guard:         guard.New(engine, cfg.Gate.GuardGrace),
		Subscriber:    pubsub,
	})

	pageGate := gate.New(sessions, gateway, engine, cfg.Gate.CollaboratorTimeout)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(handler, pageGate),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddWorker(supervisor.NewSessionJanitor(sessionStore, 0))
	tree.AddWorker(supervisor.NewRouterService(decisionRouter))
	tree.AddAPIService(supervisor.NewHTTPService(srv, shutdownTimeout))

	logging.Info().Str("addr", srv.Addr).Msg("Listening")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStores selects the profile and user stores. PostgreSQL when a DSN is
// configured, in-memory otherwise.
func openStores(ctx context.Context, cfg *config.Config) (profile.Store, auth.UserStore, error) {
	if cfg.Database.DSN == "" {
		logging.Warn().Msg("No database DSN configured, using in-memory stores")
		return profile.NewMemoryStore(), auth.NewMemoryUserStore(), nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pg, err := profile.NewPGStore(initCtx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pg.EnsureSchema(initCtx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return pg, auth.NewPGUserStore(pg.Pool()), nil
}

func openSessionStore(cfg *config.Config) (auth.SessionStore, error) {
	if cfg.Security.SessionStore == "memory" {
		return auth.NewMemorySessionStore(), nil
	}
	if err := os.MkdirAll(cfg.Security.SessionStorePath, 0o750); err != nil {
		return nil, fmt.Errorf("create session store directory: %w", err)
	}
	bs, err := auth.NewBadgerSessionStore(cfg.Security.SessionStorePath)
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}
	return bs, nil
}
