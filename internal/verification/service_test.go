// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/profile"
)

func newTestService(t *testing.T) (*Service, *profile.MemoryStore, *gochannel.GoChannel) {
	t.Helper()
	store := profile.NewMemoryStore()
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { pubsub.Close() })
	return NewService(store, pubsub), store, pubsub
}

func seedTutor(t *testing.T, store *profile.MemoryStore, userID string) {
	t.Helper()
	err := store.CreateProfile(context.Background(), &models.Profile{
		UserID: userID, Role: models.RoleTutor, CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
}

func validDocs() SubmitRequest {
	return SubmitRequest{Documents: []string{"https://docs.example.com/certificate.pdf"}}
}

func TestStatusSynthesizesNotSubmitted(t *testing.T) {
	svc, store, _ := newTestService(t)
	seedTutor(t, store, "tutor-1")

	v, err := svc.Status(context.Background(), "tutor-1")
	if err != nil {
		t.Fatalf("Status() error = %v", err)
	}
	if v.Status != models.VerificationNotSubmitted {
		t.Errorf("Status = %q, want %q", v.Status, models.VerificationNotSubmitted)
	}
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	seedTutor(t, store, "tutor-1")

	v, err := svc.Submit(ctx, "tutor-1", validDocs())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if v.Status != models.VerificationPending {
		t.Errorf("Status = %q, want %q", v.Status, models.VerificationPending)
	}

	if _, err := svc.Submit(ctx, "tutor-1", validDocs()); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Submit(pending) error = %v, want ErrInvalidTransition", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	seedTutor(t, store, "tutor-1")

	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{name: "no documents", req: SubmitRequest{}},
		{name: "empty list", req: SubmitRequest{Documents: []string{}}},
		{name: "blank entry", req: SubmitRequest{Documents: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(ctx, "tutor-1", tt.req); !errors.Is(err, ErrValidation) {
				t.Errorf("Submit() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSubmitRequiresTutorProfile(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	if _, err := svc.Submit(ctx, "nobody", validDocs()); !errors.Is(err, ErrNotTutor) {
		t.Errorf("Submit(no profile) error = %v, want ErrNotTutor", err)
	}

	if err := store.CreateProfile(ctx, &models.Profile{UserID: "student-1", Role: models.RoleStudent}); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := svc.Submit(ctx, "student-1", validDocs()); !errors.Is(err, ErrNotTutor) {
		t.Errorf("Submit(student) error = %v, want ErrNotTutor", err)
	}
}

func TestDecidePublishesEvent(t *testing.T) {
	ctx := context.Background()
	svc, store, pubsub := newTestService(t)
	seedTutor(t, store, "tutor-1")

	msgs, err := pubsub.Subscribe(ctx, TopicDecisions)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if _, err := svc.Submit(ctx, "tutor-1", validDocs()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	v, err := svc.Decide(ctx, profile.Decision{
		UserID: "tutor-1", Approved: false, Reason: "blurry scan", ReviewedBy: "admin-1",
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if v.Status != models.VerificationRejected {
		t.Errorf("Status = %q, want %q", v.Status, models.VerificationRejected)
	}

	select {
	case msg := <-msgs:
		var ev DecisionEvent
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		msg.Ack()
		if ev.UserID != "tutor-1" || ev.Status != models.VerificationRejected || ev.Reason != "blurry scan" {
			t.Errorf("event = %+v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no decision event published")
	}
}

func TestDecideRequiresPending(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	seedTutor(t, store, "tutor-1")

	verdict := profile.Decision{UserID: "tutor-1", Approved: true, ReviewedBy: "admin-1"}

	if _, err := svc.Decide(ctx, verdict); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Decide(not_submitted) error = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Submit(ctx, "tutor-1", validDocs()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := svc.Decide(ctx, verdict); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	// Approved is terminal.
	if _, err := svc.Decide(ctx, verdict); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Decide(approved) error = %v, want ErrInvalidTransition", err)
	}
}

func TestDecideRejectNeedsReason(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Decide(context.Background(), profile.Decision{UserID: "tutor-1", Approved: false})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("Decide(reject, no reason) error = %v, want ErrValidation", err)
	}
}

func TestResubmit(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)
	seedTutor(t, store, "tutor-1")

	if _, err := svc.Resubmit(ctx, "tutor-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resubmit(not_submitted) error = %v, want ErrInvalidTransition", err)
	}

	if _, err := svc.Submit(ctx, "tutor-1", validDocs()); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, err := svc.Decide(ctx, profile.Decision{
		UserID: "tutor-1", Approved: false, Reason: "expired id", ReviewedBy: "admin-1",
	}); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	v, err := svc.Resubmit(ctx, "tutor-1")
	if err != nil {
		t.Fatalf("Resubmit() error = %v", err)
	}
	if v.Status != models.VerificationNotSubmitted {
		t.Errorf("Status = %q, want %q", v.Status, models.VerificationNotSubmitted)
	}
	if v.RejectionReason != "" || v.ReviewedBy != "" || v.ReviewedAt != nil || len(v.Documents) != 0 {
		t.Errorf("Resubmit() left stale fields: %+v", v)
	}

	// The full cycle works again after a reset.
	if _, err := svc.Submit(ctx, "tutor-1", validDocs()); err != nil {
		t.Errorf("Submit() after resubmit error = %v", err)
	}
}
