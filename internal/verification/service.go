// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package verification drives the tutor document review state machine.
// All writes go through the profile store's conditional operations, so
// the transition checks here and the store's state predicates together
// guarantee each transition applies at most once.
package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/metrics"
	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/profile"
)

var (
	// ErrInvalidTransition is returned when an operation does not apply
	// to the record's current state, e.g. approving a record that is
	// not pending.
	ErrInvalidTransition = errors.New("invalid verification transition")

	// ErrNotTutor is returned when the target account has no tutor
	// profile.
	ErrNotTutor = errors.New("account is not a tutor")

	// ErrValidation wraps request validation failures.
	ErrValidation = errors.New("invalid request")
)

// TopicDecisions carries DecisionEvent messages for every admin verdict.
const TopicDecisions = "verification.decisions"

// DecisionEvent is published after an admin decision commits.
type DecisionEvent struct {
	UserID     string                    `json:"user_id"`
	Status     models.VerificationStatus `json:"status"`
	Reason     string                    `json:"reason,omitempty"`
	ReviewedBy string                    `json:"reviewed_by"`
	DecidedAt  time.Time                 `json:"decided_at"`
}

// SubmitRequest carries a tutor's document submission.
type SubmitRequest struct {
	Documents []string `json:"documents" validate:"required,min=1,max=10,dive,required,uri"`
}

// Service exposes the verification workflow.
type Service struct {
	store     profile.Store
	validate  *validator.Validate
	publisher message.Publisher
}

// NewService wires the store and the decision event publisher. The
// publisher may be nil in tests that do not observe events.
func NewService(store profile.Store, publisher message.Publisher) *Service {
	return &Service{
		store:     store,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		publisher: publisher,
	}
}

// Status returns the current verification record for userID. Tutors
// who never submitted get a synthesized not_submitted record rather
// than an error.
func (s *Service) Status(ctx context.Context, userID string) (*models.TutorVerification, error) {
	v, err := s.store.GetVerification(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return &models.TutorVerification{UserID: userID, Status: models.VerificationNotSubmitted}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading verification: %w", err)
	}
	return v, nil
}

// Submit moves a tutor from not_submitted to pending with the given
// documents.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (*models.TutorVerification, error) {
	if err := s.requireTutor(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	if err := s.store.SubmitVerification(ctx, userID, req.Documents); err != nil {
		if errors.Is(err, profile.ErrConflict) {
			return nil, s.transitionError(ctx, userID, "submit")
		}
		return nil, fmt.Errorf("submitting verification: %w", err)
	}

	metrics.VerificationTransitions.WithLabelValues(
		models.VerificationNotSubmitted.String(), models.VerificationPending.String()).Inc()
	logging.Ctx(ctx).Info().
		Str("user_id", userID).
		Int("documents", len(req.Documents)).
		Msg("Verification submitted")

	return s.Status(ctx, userID)
}

// Decide applies an admin verdict to a pending record and publishes a
// DecisionEvent. Rejections require a reason.
func (s *Service) Decide(ctx context.Context, d profile.Decision) (*models.TutorVerification, error) {
	if !d.Approved && d.Reason == "" {
		return nil, fmt.Errorf("%w: rejection requires a reason", ErrValidation)
	}

	if err := s.store.DecideVerification(ctx, d); err != nil {
		if errors.Is(err, profile.ErrNotFound) || errors.Is(err, profile.ErrConflict) {
			return nil, s.transitionError(ctx, d.UserID, "decide")
		}
		return nil, fmt.Errorf("deciding verification: %w", err)
	}

	status := models.VerificationRejected
	if d.Approved {
		status = models.VerificationApproved
	}
	metrics.VerificationTransitions.WithLabelValues(
		models.VerificationPending.String(), status.String()).Inc()
	logging.Ctx(ctx).Info().
		Str("user_id", d.UserID).
		Str("status", status.String()).
		Str("reviewed_by", d.ReviewedBy).
		Msg("Verification decided")

	s.publishDecision(ctx, DecisionEvent{
		UserID:     d.UserID,
		Status:     status,
		Reason:     d.Reason,
		ReviewedBy: d.ReviewedBy,
		DecidedAt:  time.Now(),
	})

	return s.Status(ctx, d.UserID)
}

// Resubmit resets a rejected record so the tutor can start over.
func (s *Service) Resubmit(ctx context.Context, userID string) (*models.TutorVerification, error) {
	if err := s.store.ResubmitVerification(ctx, userID); err != nil {
		if errors.Is(err, profile.ErrNotFound) || errors.Is(err, profile.ErrConflict) {
			return nil, s.transitionError(ctx, userID, "resubmit")
		}
		return nil, fmt.Errorf("resubmitting verification: %w", err)
	}

	metrics.VerificationTransitions.WithLabelValues(
		models.VerificationRejected.String(), models.VerificationNotSubmitted.String()).Inc()
	logging.Ctx(ctx).Info().Str("user_id", userID).Msg("Verification reset for resubmission")

	return s.Status(ctx, userID)
}

func (s *Service) requireTutor(ctx context.Context, userID string) error {
	p, err := s.store.GetProfile(ctx, userID)
	if errors.Is(err, profile.ErrNotFound) {
		return ErrNotTutor
	}
	if err != nil {
		return fmt.Errorf("reading profile: %w", err)
	}
	if p.Role != models.RoleTutor {
		return ErrNotTutor
	}
	return nil
}

func (s *Service) transitionError(ctx context.Context, userID, op string) error {
	current := models.VerificationNotSubmitted
	if v, err := s.store.GetVerification(ctx, userID); err == nil {
		current = v.Status
	}
	return fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, op, current)
}

func (s *Service) publishDecision(ctx context.Context, ev DecisionEvent) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Encoding decision event failed")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.publisher.Publish(TopicDecisions, msg); err != nil {
		// The decision is committed; the event stream is best effort.
		logging.Ctx(ctx).Error().Err(err).
			Str("user_id", ev.UserID).
			Msg("Publishing decision event failed")
	}
}
