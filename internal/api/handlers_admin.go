// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/profile"
)

// AdminListTutors returns the tutor review queue, optionally filtered
// by ?status=.
func (h *Handler) AdminListTutors(w http.ResponseWriter, r *http.Request) {
	status := models.VerificationStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondError(w, http.StatusBadRequest, "invalid_status", "unknown verification status", nil)
		return
	}

	listings, err := h.store.ListTutorsByStatus(r.Context(), status)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if listings == nil {
		listings = []models.TutorListing{}
	}
	respondJSON(w, http.StatusOK, listings)
}

// DecisionRequest is an admin verdict on a pending verification.
type DecisionRequest struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason,omitempty" validate:"max=500"`
}

// AdminDecideVerification applies an approve or reject verdict to the
// tutor named in the URL.
func (h *Handler) AdminDecideVerification(w http.ResponseWriter, r *http.Request) {
	var req DecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), nil)
		return
	}

	session := sessionFrom(r.Context())
	v, err := h.verifications.Decide(r.Context(), profile.Decision{
		UserID:     chi.URLParam(r, "userID"),
		Approved:   req.Approved,
		Reason:     req.Reason,
		ReviewedBy: session.UserID,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// AdminStats summarizes the review queue by verification stage.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.VerificationStats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
