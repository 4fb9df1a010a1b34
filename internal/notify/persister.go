// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package notify

import (
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tutorlink/tutorlink/internal/logging"
	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/profile"
	"github.com/tutorlink/tutorlink/internal/verification"
)

// KindVerificationDecision tags notifications created from admin
// verdicts.
const KindVerificationDecision = "verification_decision"

// NewDecisionRouter builds a message router that persists one
// notification per published admin decision. Run it under the
// supervisor with router.Run.
func NewDecisionRouter(sub message.Subscriber, store profile.Store) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: 10 * time.Second,
	}, NewLoggerAdapter())
	if err != nil {
		return nil, fmt.Errorf("creating router: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: 100 * time.Millisecond,
		}.Middleware,
	)

	router.AddNoPublisherHandler(
		"notification_persister",
		verification.TopicDecisions,
		sub,
		persistDecision(store),
	)

	return router, nil
}

func persistDecision(store profile.Store) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		var ev verification.DecisionEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			// Not retryable; drop the malformed message.
			logging.Error().Err(err).Str("message_id", msg.UUID).Msg("Discarding malformed decision event")
			return nil
		}

		n := NotificationFor(ev)
		if err := store.CreateNotification(msg.Context(), n); err != nil {
			return fmt.Errorf("persisting notification: %w", err)
		}

		logging.Ctx(msg.Context()).Info().
			Str("user_id", ev.UserID).
			Str("status", ev.Status.String()).
			Msg("Decision notification stored")
		return nil
	}
}

// NotificationFor renders the user-facing notification for a decision.
func NotificationFor(ev verification.DecisionEvent) *models.Notification {
	title := "Verification approved"
	body := "Your tutor verification was approved. Your tutor dashboard is now unlocked."
	if ev.Status == models.VerificationRejected {
		title = "Verification rejected"
		body = "Your tutor verification was rejected: " + ev.Reason +
			". You can update your documents and resubmit."
	}

	createdAt := ev.DecidedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	return &models.Notification{
		ID:        uuid.NewString(),
		UserID:    ev.UserID,
		Kind:      KindVerificationDecision,
		Title:     title,
		Message:   body,
		CreatedAt: createdAt,
	}
}
