// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/policy"
	"github.com/tutorlink/tutorlink/internal/profile"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type sessionCtxKey struct{}

// requireSession rejects requests without a live session and stores the
// session on the context for handlers downstream.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, err := h.sessions.ValidateRequest(r.Context(), r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "sign in to continue", nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionCtxKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin additionally checks the stored profile role. The role
// claim on the session is not trusted for admin surfaces.
func (h *Handler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFrom(r.Context())
		p, err := h.store.GetProfile(r.Context(), session.UserID)
		if err != nil || p.Role != models.RoleAdmin {
			respondError(w, http.StatusForbidden, "forbidden", "admin access required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sessionFrom(ctx context.Context) *auth.Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*auth.Session)
	return s
}

// SignupRequest creates an account plus its profile.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"required,max=120"`
	Role     string `json:"role" validate:"required,oneof=student tutor"`
}

// Signup registers a new student or tutor account. Admin accounts are
// provisioned out of band. The email verification link is logged; the
// token also comes back in the response so clients without a mail
// pipeline can complete the flow.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_role", "role must be student or tutor", nil)
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.Security.BcryptCost)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	user := &auth.User{
		ID:           uuid.NewString(),
		Email:        auth.NormalizeEmail(req.Email),
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		respondDomainError(w, err)
		return
	}

	p := &models.Profile{
		UserID:    user.ID,
		Role:      role,
		FullName:  req.FullName,
		CreatedAt: user.CreatedAt,
	}
	if err := h.store.CreateProfile(r.Context(), p); err != nil && !errors.Is(err, profile.ErrConflict) {
		respondDomainError(w, err)
		return
	}

	token, err := h.tokens.IssueEmailToken(user.ID, user.Email, role)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	logging.Ctx(r.Context()).Info().
		Str("user_id", user.ID).
		Str("role", role.String()).
		Msg("Account created, verification link issued")

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"user_id":            user.ID,
		"verification_token": token,
	})
}

// LoginRequest carries credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	if !h.loginLimiter.Allow(req.Email) {
		respondError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts, try again shortly", nil)
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		respondDomainError(w, auth.ErrInvalidCredentials)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		respondDomainError(w, err)
		return
	}

	role := models.RoleStudent
	if p, err := h.store.GetProfile(r.Context(), user.ID); err == nil {
		role = p.Role
	}

	session, err := h.sessions.Issue(r.Context(), user, role)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.sessions.SetCookie(w, session)

	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("Login")
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":        user.ID,
		"email":          user.Email,
		"email_verified": user.EmailVerified,
		"role":           role,
	})
}

// Logout revokes the current session and clears the cookie. Always
// succeeds, even without a session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if session, err := h.sessions.ValidateRequest(r.Context(), r); err == nil {
		if err := h.sessions.Revoke(r.Context(), session.ID); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("Session revoke failed")
		}
	}
	h.sessions.ClearCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{"message": "signed out"})
}

// Me returns the caller's account, profile, and, for tutors, the
// verification record.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())

	out := map[string]interface{}{
		"user_id":        session.UserID,
		"email":          session.Email,
		"email_verified": session.EmailVerified,
	}

	p, err := h.store.GetProfile(r.Context(), session.UserID)
	if err == nil {
		out["profile"] = p
		if p.Role == models.RoleTutor {
			if v, err := h.verifications.Status(r.Context(), session.UserID); err == nil {
				out["verification"] = v
			}
		}
	}

	respondJSON(w, http.StatusOK, out)
}

// AuthCallback completes email verification. It validates the token,
// marks the address verified, makes sure a profile exists, signs the
// user in, and redirects to the role home. Tutors land on whichever
// workflow page their verification status calls for, resolved from a
// fresh read rather than the token's role hint.
func (h *Handler) AuthCallback(w http.ResponseWriter, r *http.Request) {
	claims, err := h.tokens.VerifyEmailToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Redirect(w, r, policy.PathAuthError, http.StatusFound)
		return
	}

	userID := claims.Subject
	if err := h.users.MarkEmailVerified(r.Context(), userID); err != nil && !errors.Is(err, auth.ErrUserNotFound) {
		respondDomainError(w, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		http.Redirect(w, r, policy.PathAuthError, http.StatusFound)
		return
	}

	roleHint := models.Role(claims.Role)
	p, err := h.gateway.EnsureProfile(r.Context(), userID, roleHint, "")
	if err != nil {
		respondDomainError(w, err)
		return
	}

	session, err := h.sessions.Issue(r.Context(), user, p.Role)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	h.sessions.SetCookie(w, session)

	target := policy.RoleHome(p.Role)
	if p.Role == models.RoleTutor {
		v, _ := h.gateway.Verification(r.Context(), userID)
		target = policy.TutorHome(v)
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Str("target", target).
		Msg("Email verified")
	http.Redirect(w, r, target, http.StatusFound)
}
