// TutorLink - Student and Tutor Matching Platform
// Copyright 2026 TutorLink Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tutorlink/tutorlink

package gate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tutorlink/tutorlink/internal/auth"
	"github.com/tutorlink/tutorlink/internal/config"
	"github.com/tutorlink/tutorlink/internal/models"
	"github.com/tutorlink/tutorlink/internal/policy"
	"github.com/tutorlink/tutorlink/internal/profile"
)

// countingStore observes verification lookups.
type countingStore struct {
	profile.Store
	verificationReads int
}

func (c *countingStore) GetVerification(ctx context.Context, userID string) (*models.TutorVerification, error) {
	c.verificationReads++
	return c.Store.GetVerification(ctx, userID)
}

type fixture struct {
	gate     *Gate
	sessions *auth.Manager
	store    *countingStore
	mem      *profile.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	engine, err := policy.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	mem := profile.NewMemoryStore()
	store := &countingStore{Store: mem}
	gateway := profile.NewGateway(store, profile.GatewayConfig{
		LookupTimeout: time.Second, RetryAttempts: 1, RetryBackoff: time.Millisecond,
	})

	sessions := auth.NewManager(auth.NewMemorySessionStore(), config.SecurityConfig{
		CookieName:     "tutorlink_session",
		SessionTTL:     time.Hour,
		SlidingSession: true,
	})

	return &fixture{
		gate:     New(sessions, gateway, engine, time.Second),
		sessions: sessions,
		store:    store,
		mem:      mem,
	}
}

// signIn creates an account state and returns the session cookie.
func (f *fixture) signIn(t *testing.T, role models.Role, status models.VerificationStatus) *http.Cookie {
	t.Helper()
	ctx := context.Background()

	user := &auth.User{ID: "user-1", Email: "u@example.com", EmailVerified: true}
	session, err := f.sessions.Issue(ctx, user, role)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if err := f.mem.CreateProfile(ctx, &models.Profile{UserID: "user-1", Role: role}); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if role == models.RoleTutor && status != models.VerificationNotSubmitted {
		if err := f.mem.SubmitVerification(ctx, "user-1", []string{"doc"}); err != nil {
			t.Fatalf("SubmitVerification() error = %v", err)
		}
		if status != models.VerificationPending {
			err := f.mem.DecideVerification(ctx, profile.Decision{
				UserID: "user-1", Approved: status == models.VerificationApproved,
				Reason: "reason", ReviewedBy: "admin-1",
			})
			if err != nil {
				t.Fatalf("DecideVerification() error = %v", err)
			}
		}
	}

	return &http.Cookie{Name: "tutorlink_session", Value: session.ID}
}

func (f *fixture) serve(t *testing.T, path string, cookie *http.Cookie) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	handled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handled = true
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.gate.Middleware(next).ServeHTTP(w, r)
	return w, handled
}

func TestGateAnonymousRedirect(t *testing.T) {
	f := newFixture(t)

	w, handled := f.serve(t, "/tutor", nil)
	if handled {
		t.Fatal("handler ran for an anonymous protected request")
	}
	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusFound)
	}
	if got := w.Header().Get("Location"); got != "/?redirectTo=/tutor" {
		t.Errorf("Location = %q, want %q", got, "/?redirectTo=/tutor")
	}
	// No session, no refresh cookie.
	if cookies := w.Result().Cookies(); len(cookies) != 0 {
		t.Errorf("cookies = %v, want none on unauthenticated deny", cookies)
	}
}

func TestGateAnonymousPublicPassThrough(t *testing.T) {
	f := newFixture(t)

	w, handled := f.serve(t, "/", nil)
	if !handled {
		t.Fatal("handler did not run for the public landing page")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGateApprovedTutorPassesAndRefreshes(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, models.RoleTutor, models.VerificationApproved)

	w, handled := f.serve(t, "/tutor", cookie)
	if !handled {
		t.Fatalf("handler did not run, location = %q", w.Header().Get("Location"))
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Value != cookie.Value {
		t.Errorf("cookies = %v, want one re-stamped session cookie", cookies)
	}
}

func TestGatePendingTutorHeldAndStillRefreshed(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, models.RoleTutor, models.VerificationPending)

	w, handled := f.serve(t, "/tutor", cookie)
	if handled {
		t.Fatal("handler ran for a pending tutor on the dashboard")
	}
	if got := w.Header().Get("Location"); got != "/tutor/pending" {
		t.Errorf("Location = %q, want %q", got, "/tutor/pending")
	}
	// Denied but authenticated: the session still slides.
	if cookies := w.Result().Cookies(); len(cookies) != 1 {
		t.Errorf("cookies = %v, want one refresh cookie", cookies)
	}
}

func TestGateLandingRedirectsAuthenticated(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, models.RoleStudent, models.VerificationNotSubmitted)

	w, _ := f.serve(t, "/", cookie)
	if got := w.Header().Get("Location"); got != "/student" {
		t.Errorf("Location = %q, want %q", got, "/student")
	}
}

func TestGateVerificationLookupSkipped(t *testing.T) {
	tests := []struct {
		name      string
		role      models.Role
		path      string
		wantReads int
	}{
		{name: "student never looks up", role: models.RoleStudent, path: "/student", wantReads: 0},
		{name: "admin never looks up", role: models.RoleAdmin, path: "/tutor", wantReads: 0},
		{name: "tutor on workflow page skips", role: models.RoleTutor, path: "/tutor/onboarding", wantReads: 0},
		{name: "tutor on dashboard reads once", role: models.RoleTutor, path: "/tutor", wantReads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			cookie := f.signIn(t, tt.role, models.VerificationApproved)
			f.serve(t, tt.path, cookie)
			if f.store.verificationReads != tt.wantReads {
				t.Errorf("verification reads = %d, want %d", f.store.verificationReads, tt.wantReads)
			}
		})
	}
}

func TestGateStaleCookieTreatedAsAnonymous(t *testing.T) {
	f := newFixture(t)

	w, handled := f.serve(t, "/student", &http.Cookie{Name: "tutorlink_session", Value: "deadbeef"})
	if handled {
		t.Fatal("handler ran with an unknown session cookie")
	}
	if got := w.Header().Get("Location"); got != "/?redirectTo=/student" {
		t.Errorf("Location = %q, want %q", got, "/?redirectTo=/student")
	}
}

func TestGateExposesInputToHandlers(t *testing.T) {
	f := newFixture(t)
	cookie := f.signIn(t, models.RoleStudent, models.VerificationNotSubmitted)

	var gotRole models.Role
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, _ = RoleFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/student", nil)
	r.AddCookie(cookie)
	f.gate.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if gotRole != models.RoleStudent {
		t.Errorf("RoleFromContext() = %q, want %q", gotRole, models.RoleStudent)
	}
}
