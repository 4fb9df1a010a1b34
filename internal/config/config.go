// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package config provides layered configuration loading for TutorLink using
// Koanf v2: struct defaults, then an optional YAML file, then environment
// variables. Validation fails fast so a misconfigured deployment never
// serves traffic with a broken route table (fail closed).
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config is the root configuration for the server.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Gate     GateConfig     `koanf:"gate"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// Timeout bounds request read/write at the listener.
	Timeout time.Duration `koanf:"timeout"`

	// Environment is "development" or "production"; production tightens
	// validation (secrets required, secure cookies enforced).
	Environment string `koanf:"environment"`

	// CORSOrigins lists allowed origins for the API surface.
	CORSOrigins []string `koanf:"cors_origins"`
}

// DatabaseConfig holds the profile store connection settings.
type DatabaseConfig struct {
	// DSN is the PostgreSQL connection string. Empty selects the in-memory
	// store (development and tests only).
	DSN string `koanf:"dsn"`

	// MaxConns caps the pgx connection pool.
	MaxConns int32 `koanf:"max_conns"`
}

// SecurityConfig holds session and credential settings.
type SecurityConfig struct {
	// CookieName is the session cookie name.
	CookieName string `koanf:"cookie_name"`

	// SessionTTL is the session lifetime; sliding renewal extends expiry by
	// this amount on every pass-through.
	SessionTTL time.Duration `koanf:"session_ttl"`

	// SlidingSession enables expiry extension on each request.
	SlidingSession bool `koanf:"sliding_session"`

	// CookieSecure sets the Secure flag on the session cookie.
	CookieSecure bool `koanf:"cookie_secure"`

	// TokenSecret signs email-verification tokens (HS256). Required in
	// production.
	TokenSecret string `koanf:"token_secret"`

	// TokenTTL bounds the email-verification token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `koanf:"bcrypt_cost"`

	// SessionStore selects "badger" (durable) or "memory".
	SessionStore string `koanf:"session_store"`

	// SessionStorePath is the BadgerDB directory when SessionStore is "badger".
	SessionStorePath string `koanf:"session_store_path"`

	// LoginAttemptsPerMinute throttles credential checks per account.
	LoginAttemptsPerMinute int `koanf:"login_attempts_per_minute"`

	// LoginBurst is the login throttle burst size.
	LoginBurst int `koanf:"login_burst"`

	// RateLimitReqs and RateLimitWindow bound general API traffic per IP.
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// GateConfig tunes the edge gate's collaborator calls.
type GateConfig struct {
	// CollaboratorTimeout bounds each profile/verification lookup. On
	// timeout the input is treated as absent and the policy engine's
	// restrictive defaults apply.
	CollaboratorTimeout time.Duration `koanf:"collaborator_timeout"`

	// ProfileRetryAttempts bounds the wait for a trigger-materialized
	// profile row after signup.
	ProfileRetryAttempts int `koanf:"profile_retry_attempts"`

	// ProfileRetryBackoff is the fixed delay between profile retries.
	ProfileRetryBackoff time.Duration `koanf:"profile_retry_backoff"`

	// GuardGrace is the client-guard settle delay before acting on a
	// redirect decision.
	GuardGrace time.Duration `koanf:"guard_grace"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validation errors.
var (
	ErrMissingTokenSecret = errors.New("security.token_secret is required in production")
	ErrInvalidPort        = errors.New("server.port must be between 1 and 65535")
)

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// Validate checks the configuration for values that would make the server
// unsafe to run. Any error here must abort startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}

	switch c.Security.SessionStore {
	case "memory":
	case "badger":
		if c.Security.SessionStorePath == "" {
			return errors.New("security.session_store_path is required for the badger session store")
		}
	default:
		return fmt.Errorf("unknown session store %q (want badger or memory)", c.Security.SessionStore)
	}

	if c.Security.SessionTTL <= 0 {
		return errors.New("security.session_ttl must be positive")
	}
	if c.Security.TokenTTL <= 0 {
		return errors.New("security.token_ttl must be positive")
	}
	if c.Gate.CollaboratorTimeout <= 0 {
		return errors.New("gate.collaborator_timeout must be positive")
	}
	if c.Gate.ProfileRetryAttempts < 1 {
		return errors.New("gate.profile_retry_attempts must be at least 1")
	}

	if c.IsProduction() {
		if c.Security.TokenSecret == "" {
			return ErrMissingTokenSecret
		}
		if !c.Security.CookieSecure {
			return errors.New("security.cookie_secure must be enabled in production")
		}
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required in production")
		}
	}

	return nil
}
