// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jotstack/jotstack/internal/models"
	"github.com/jotstack/jotstack/internal/store"
)

// fakeResolver serves users from a map, standing in for the Badger store.
type fakeResolver struct {
	users map[string]*models.User
}

func (f *fakeResolver) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrUserNotFound
}

func TestMiddleware(t *testing.T) {
	tokens, err := NewTokenManager("middleware-test-secret-0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	verified := &models.User{ID: "u-verified", Email: "v@example.com", IsVerified: true}
	unverified := &models.User{ID: "u-unverified", Email: "u@example.com", IsVerified: false}
	resolver := &fakeResolver{users: map[string]*models.User{
		verified.ID:   verified,
		unverified.ID: unverified,
	}}

	verifiedToken, _ := tokens.Generate(verified.ID, verified.Email)
	unverifiedToken, _ := tokens.Generate(unverified.ID, unverified.Email)
	deletedToken, _ := tokens.Generate("u-deleted", "gone@example.com")

	var gotUser *models.User
	handler := Middleware(tokens, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
		wantUserID string
	}{
		{name: "no header", authHeader: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", authHeader: "Basic abc123", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", authHeader: "Bearer garbage", wantStatus: http.StatusUnauthorized},
		{name: "valid verified user", authHeader: "Bearer " + verifiedToken, wantStatus: http.StatusOK, wantUserID: verified.ID},
		{name: "unverified user rejected", authHeader: "Bearer " + unverifiedToken, wantStatus: http.StatusUnauthorized},
		{name: "token of deleted user", authHeader: "Bearer " + deletedToken, wantStatus: http.StatusUnauthorized},
		{name: "lowercase bearer accepted", authHeader: "bearer " + verifiedToken, wantStatus: http.StatusOK, wantUserID: verified.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUser = nil
			req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantUserID != "" {
				if gotUser == nil || gotUser.ID != tt.wantUserID {
					t.Errorf("context user = %+v, want id %q", gotUser, tt.wantUserID)
				}
			}
		})
	}
}

func TestMiddlewareRevocationOnUnverify(t *testing.T) {
	tokens, _ := NewTokenManager("middleware-test-secret-0123456789abcdef", time.Hour)
	user := &models.User{ID: "u1", Email: "a@b.c", IsVerified: true}
	resolver := &fakeResolver{users: map[string]*models.User{user.ID: user}}
	token, _ := tokens.Generate(user.ID, user.Email)

	handler := Middleware(tokens, resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := do(); got != http.StatusOK {
		t.Fatalf("verified request status = %d, want 200", got)
	}

	// The account state changes server-side; the same token must stop
	// working immediately.
	user.IsVerified = false
	if got := do(); got != http.StatusUnauthorized {
		t.Fatalf("unverified request status = %d, want 401", got)
	}
}
