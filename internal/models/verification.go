// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package models

import "time"

// VerificationStatus is the stage a tutor's document review is in.
//
// State machine:
//
//	not_submitted --(submit documents)--> pending
//	pending --(admin approves)--> approved   [terminal]
//	pending --(admin rejects)--> rejected
//	rejected --(tutor resubmits)--> not_submitted
type VerificationStatus string

const (
	// VerificationNotSubmitted means no documents are on file.
	VerificationNotSubmitted VerificationStatus = "not_submitted"

	// VerificationPending means documents are awaiting admin review.
	VerificationPending VerificationStatus = "pending"

	// VerificationApproved grants full access to tutor routes. Terminal.
	VerificationApproved VerificationStatus = "approved"

	// VerificationRejected means an admin declined the documents. The tutor
	// may resubmit, which resets the record to not_submitted.
	VerificationRejected VerificationStatus = "rejected"
)

// Valid reports whether the status is one of the four known stages.
func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationNotSubmitted, VerificationPending, VerificationApproved, VerificationRejected:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s VerificationStatus) String() string {
	return string(s)
}

// TutorVerification is the per-tutor verification sub-record. It exists only
// for tutor profiles.
//
// Invariants:
//   - Status == not_submitted implies Documents is empty.
//   - Status in {pending, approved, rejected} implies Documents is non-empty.
//   - RejectionReason, ReviewedBy and ReviewedAt are set only by an admin
//     decision and cleared atomically on resubmission.
type TutorVerification struct {
	// UserID is the tutor this record belongs to.
	UserID string `json:"user_id"`

	// Status is the stored review stage.
	Status VerificationStatus `json:"status"`

	// Documents holds opaque storage references, in submission order.
	Documents []string `json:"documents,omitempty"`

	// RejectionReason explains a rejected decision to the tutor.
	RejectionReason string `json:"rejection_reason,omitempty"`

	// ReviewedBy is the admin user id that made the last decision.
	ReviewedBy string `json:"reviewed_by,omitempty"`

	// ReviewedAt is when the last decision was made.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// EffectiveStatus returns the status the authorization core should act on.
// A record claiming pending, approved or rejected with no documents on file
// violates the documents invariant; such records are normalized to
// not_submitted so the tutor is routed back to onboarding rather than
// granted or half-granted access.
func (v *TutorVerification) EffectiveStatus() VerificationStatus {
	if v == nil {
		return VerificationNotSubmitted
	}
	if len(v.Documents) == 0 {
		return VerificationNotSubmitted
	}
	if !v.Status.Valid() {
		return VerificationNotSubmitted
	}
	return v.Status
}

// Notification is a user-facing message created when the platform acts on a
// user's behalf, e.g. when an admin decides a verification.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Kind      string     `json:"kind"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}

// TutorListing pairs a tutor profile with its verification record for
// the admin review queue.
type TutorListing struct {
	Profile      Profile           `json:"profile"`
	Verification TutorVerification `json:"verification"`
}

// VerificationStats summarizes the review queue by stage.
type VerificationStats struct {
	NotSubmitted int `json:"not_submitted"`
	Pending      int `json:"pending"`
	Approved     int `json:"approved"`
	Rejected     int `json:"rejected"`
}
