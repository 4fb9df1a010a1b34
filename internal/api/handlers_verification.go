// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/verification"
)

// SubmitVerification accepts a tutor's document submission and moves
// the record to pending.
func (h *Handler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	var req verification.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session := sessionFrom(r.Context())
	v, err := h.verifications.Submit(r.Context(), session.UserID, req)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, v)
}

// VerificationStatus returns the caller's verification record.
func (h *Handler) VerificationStatus(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	v, err := h.verifications.Status(r.Context(), session.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// ResubmitVerification resets a rejected record so the tutor can start
// the onboarding flow again.
func (h *Handler) ResubmitVerification(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	v, err := h.verifications.Resubmit(r.Context(), session.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

// VerificationEvents streams the caller's decision events as
// server-sent events. The connection stays open until the client
// disconnects; tutors see their own decisions only.
func (h *Handler) VerificationEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming_unsupported", "streaming is not supported", nil)
		return
	}

	session := sessionFrom(r.Context())
	msgs, err := h.subscriber.Subscribe(r.Context(), verification.TopicDecisions)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-msgs:
			if !open {
				return
			}
			var ev verification.DecisionEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()
			if ev.UserID != session.UserID {
				continue
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: decision\ndata: %s\n\n", payload)
			flusher.Flush()
			logging.Ctx(r.Context()).Debug().
				Str("user_id", ev.UserID).
				Str("status", ev.Status.String()).
				Msg("Decision streamed")
		}
	}
}

// Notifications returns the caller's newest notifications.
func (h *Handler) Notifications(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r.Context())
	items, err := h.store.ListNotifications(r.Context(), session.UserID, 50)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if items == nil {
		items = []models.Notification{}
	}
	respondJSON(w, http.StatusOK, items)
}
