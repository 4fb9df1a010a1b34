// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package config

import (
	"errors"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.SessionStore = "memory"
	return cfg
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_Port(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		cfg := validConfig()
		cfg.Server.Port = port
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("Validate() with port %d error = %v, want ErrInvalidPort", port, err)
		}
	}
}

func TestValidate_SessionStore(t *testing.T) {
	cfg := validConfig()
	cfg.Security.SessionStore = "redis"
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for unknown session store, want error")
	}

	cfg = validConfig()
	cfg.Security.SessionStore = "badger"
	cfg.Security.SessionStorePath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil for badger store without path, want error")
	}
}

func TestValidate_ProductionRequiresSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "production"
	cfg.Database.DSN = "postgres://localhost/tutorlink"
	cfg.Security.TokenSecret = ""
	if err := cfg.Validate(); !errors.Is(err, ErrMissingTokenSecret) {
		t.Errorf("Validate() error = %v, want ErrMissingTokenSecret", err)
	}

	cfg.Security.TokenSecret = "0123456789abcdef"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestValidate_ProductionRequiresSecureCookies(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Environment = "production"
	cfg.Database.DSN = "postgres://localhost/tutorlink"
	cfg.Security.TokenSecret = "0123456789abcdef"
	cfg.Security.CookieSecure = false
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil with insecure cookies in production, want error")
	}
}

func TestValidate_GateTimeouts(t *testing.T) {
	cfg := validConfig()
	cfg.Gate.CollaboratorTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil with zero collaborator timeout, want error")
	}

	cfg = validConfig()
	cfg.Gate.ProfileRetryAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil with zero retry attempts, want error")
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"DATABASE_DSN", "database.dsn"},
		{"SESSION_TTL", "security.session_ttl"},
		{"COLLABORATOR_TIMEOUT", "gate.collaborator_timeout"},
		{"LOG_LEVEL", "logging.level"},
		{"RANDOM_UNRELATED_VAR", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestDefaults_SlidingSessionEnabled(t *testing.T) {
	cfg := defaultConfig()
	if !cfg.Security.SlidingSession {
		t.Error("SlidingSession default = false, want true")
	}
	if cfg.Security.SessionTTL != 24*time.Hour {
		t.Errorf("SessionTTL default = %v, want 24h", cfg.Security.SessionTTL)
	}
}
