// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/profile"
	"github.com/tutorlink/tutorlink/internal/verification"
)

func TestNotificationFor(t *testing.T) {
	tests := []struct {
		name      string
		event     verification.DecisionEvent
		wantTitle string
		wantIn    string
	}{
		{
			name:      "approved",
			event:     verification.DecisionEvent{UserID: "tutor-1", Status: models.VerificationApproved},
			wantTitle: "Verification approved",
			wantIn:    "unlocked",
		},
		{
			name: "rejected carries the reason",
			event: verification.DecisionEvent{
				UserID: "tutor-1", Status: models.VerificationRejected, Reason: "blurry scan",
			},
			wantTitle: "Verification rejected",
			wantIn:    "blurry scan",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NotificationFor(tt.event)
			if n.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", n.Title, tt.wantTitle)
			}
			if !strings.Contains(n.Message, tt.wantIn) {
				t.Errorf("Message = %q, want it to contain %q", n.Message, tt.wantIn)
			}
			if n.UserID != "tutor-1" || n.Kind != KindVerificationDecision {
				t.Errorf("notification = %+v", n)
			}
			if n.ID == "" || n.CreatedAt.IsZero() {
				t.Error("ID or CreatedAt not set")
			}
		})
	}
}

func TestPersistDecision(t *testing.T) {
	store := profile.NewMemoryStore()
	handler := persistDecision(store)

	payload, err := json.Marshal(verification.DecisionEvent{
		UserID:     "tutor-1",
		Status:     models.VerificationApproved,
		ReviewedBy: "admin-1",
		DecidedAt:  time.Now(),
	})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	if err := handler(message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	got, err := store.ListNotifications(context.Background(), "tutor-1", 10)
	if err != nil {
		t.Fatalf("ListNotifications() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Kind != KindVerificationDecision {
		t.Errorf("Kind = %q, want %q", got[0].Kind, KindVerificationDecision)
	}
}

func TestPersistDecisionDropsMalformed(t *testing.T) {
	store := profile.NewMemoryStore()
	handler := persistDecision(store)

	if err := handler(message.NewMessage(watermill.NewUUID(), []byte("{not json"))); err != nil {
		t.Errorf("handler error = %v, want nil for malformed payload", err)
	}
}
