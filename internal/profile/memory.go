// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package profile

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tutorlink/tutorlink/internal/models"
)

// MemoryStore keeps all records in process memory. Used by tests and
// single-node development.
type MemoryStore struct {
	mu            sync.RWMutex
	profiles      map[string]*models.Profile
	verifications map[string]*models.TutorVerification
	notifications map[string][]models.Notification

	now func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:      make(map[string]*models.Profile),
		verifications: make(map[string]*models.TutorVerification),
		notifications: make(map[string][]models.Notification),
		now:           time.Now,
	}
}

func (m *MemoryStore) CreateProfile(_ context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.profiles[p.UserID]; exists {
		return ErrConflict
	}
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetVerification(_ context.Context, userID string) (*models.TutorVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.verifications[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *v
	cp.Documents = append([]string(nil), v.Documents...)
	return &cp, nil
}

func (m *MemoryStore) SubmitVerification(_ context.Context, userID string, documents []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verifications[userID]
	if ok && v.Status != models.VerificationNotSubmitted {
		return ErrConflict
	}
	m.verifications[userID] = &models.TutorVerification{
		UserID:    userID,
		Status:    models.VerificationPending,
		Documents: append([]string(nil), documents...),
	}
	return nil
}

func (m *MemoryStore) DecideVerification(_ context.Context, d Decision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verifications[d.UserID]
	if !ok {
		return ErrNotFound
	}
	if v.Status != models.VerificationPending {
		return ErrConflict
	}
	now := m.now()
	if d.Approved {
		v.Status = models.VerificationApproved
		v.RejectionReason = ""
	} else {
		v.Status = models.VerificationRejected
		v.RejectionReason = d.Reason
	}
	v.ReviewedBy = d.ReviewedBy
	v.ReviewedAt = &now
	return nil
}

func (m *MemoryStore) ResubmitVerification(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.verifications[userID]
	if !ok {
		return ErrNotFound
	}
	if v.Status != models.VerificationRejected {
		return ErrConflict
	}
	m.verifications[userID] = &models.TutorVerification{
		UserID: userID,
		Status: models.VerificationNotSubmitted,
	}
	return nil
}

func (m *MemoryStore) ListTutorsByStatus(_ context.Context, status models.VerificationStatus) ([]models.TutorListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.TutorListing
	for userID, p := range m.profiles {
		if p.Role != models.RoleTutor {
			continue
		}
		v, ok := m.verifications[userID]
		if !ok {
			v = &models.TutorVerification{UserID: userID, Status: models.VerificationNotSubmitted}
		}
		if status != "" && v.Status != status {
			continue
		}
		cp := *v
		cp.Documents = append([]string(nil), v.Documents...)
		out = append(out, models.TutorListing{Profile: *p, Verification: cp})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Profile.UserID < out[j].Profile.UserID
	})
	return out, nil
}

func (m *MemoryStore) VerificationStats(_ context.Context) (models.VerificationStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats models.VerificationStats
	for userID, p := range m.profiles {
		if p.Role != models.RoleTutor {
			continue
		}
		status := models.VerificationNotSubmitted
		if v, ok := m.verifications[userID]; ok {
			status = v.Status
		}
		switch status {
		case models.VerificationPending:
			stats.Pending++
		case models.VerificationApproved:
			stats.Approved++
		case models.VerificationRejected:
			stats.Rejected++
		default:
			stats.NotSubmitted++
		}
	}
	return stats, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications[n.UserID] = append(m.notifications[n.UserID], *n)
	return nil
}

func (m *MemoryStore) ListNotifications(_ context.Context, userID string, limit int) ([]models.Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.notifications[userID]
	out := make([]models.Notification, len(all))
	copy(out, all)
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// PromoteRole rewrites a profile's role in place. Test and seed helper;
// production role changes go through operations tooling.
func (m *MemoryStore) PromoteRole(userID string, role models.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.profiles[userID]; ok {
		p.Role = role
	}
}
