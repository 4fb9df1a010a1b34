// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

// Package profile persists profiles, tutor verification records, and
// notifications. The Store interface carries the conditional update
// operations the verification state machine relies on; implementations
// must apply each transition atomically so concurrent writers cannot
// double-apply a decision.
package profile

import (
	"context"
	"errors"

	"github.com/tutorlink/tutorlink/internal/models"
)

var (
	// ErrNotFound is returned when no record exists for the key.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a conditional transition finds the
	// record in a different state than the transition requires.
	ErrConflict = errors.New("record state conflict")
)

// Store is the persistence boundary for profiles and verification.
type Store interface {
	// CreateProfile inserts a new profile. Existing profiles for the
	// same user are left untouched and ErrConflict is returned.
	CreateProfile(ctx context.Context, p *models.Profile) error

	// GetProfile returns the profile for userID, or ErrNotFound.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	// GetVerification returns the verification record for userID, or
	// ErrNotFound when the tutor has never submitted.
	GetVerification(ctx context.Context, userID string) (*models.TutorVerification, error)

	// SubmitVerification moves userID to pending with the given
	// documents. The record must be absent or not_submitted;
	// ErrConflict otherwise.
	SubmitVerification(ctx context.Context, userID string, documents []string) error

	// DecideVerification applies an admin decision to a pending
	// record. ErrConflict when the record is not pending.
	DecideVerification(ctx context.Context, d Decision) error

	// ResubmitVerification resets a rejected record to not_submitted,
	// clearing documents, rejection reason, and reviewer fields in one
	// atomic write. ErrConflict when the record is not rejected.
	ResubmitVerification(ctx context.Context, userID string) error

	// ListTutorsByStatus returns tutors whose stored verification
	// status matches. An empty status returns every tutor.
	ListTutorsByStatus(ctx context.Context, status models.VerificationStatus) ([]models.TutorListing, error)

	// VerificationStats counts tutors per verification stage.
	VerificationStats(ctx context.Context) (models.VerificationStats, error)

	// CreateNotification stores a user-facing notification.
	CreateNotification(ctx context.Context, n *models.Notification) error

	// ListNotifications returns the newest notifications for userID.
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, error)

	// Close releases store resources.
	Close() error
}

// Decision is an admin verdict on a pending verification.
type Decision struct {
	UserID     string
	Approved   bool
	Reason     string
	ReviewedBy string
}
