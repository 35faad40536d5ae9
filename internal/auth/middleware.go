// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/models"
	"github.com/jotstack/jotstack/internal/store"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserResolver looks up the account behind a token. Satisfied by
// *store.UserStore.
type UserResolver interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// UserFromContext returns the authenticated user installed by Middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey).(*models.User)
	return user, ok
}

// ContextWithUser installs a user on the context. Exported for handler tests.
func ContextWithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware authenticates requests via the Authorization bearer token.
//
// The token only proves possession of a session; the account itself is
// re-resolved from the store on every request so a deleted or unverified
// account is rejected immediately, not at token expiry.
func Middleware(tokens *TokenManager, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				denyUnauthorized(w, "Authentication required")
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					denyUnauthorized(w, "Session expired, please sign in again")
					return
				}
				denyUnauthorized(w, "Invalid authentication token")
				return
			}

			user, err := users.GetByID(r.Context(), claims.UserID)
			if err != nil {
				if errors.Is(err, store.ErrUserNotFound) {
					denyUnauthorized(w, "Account no longer exists")
					return
				}
				logging.Error().Err(err).Str("user_id", claims.UserID).Msg("auth: user lookup failed")
				denyServerError(w)
				return
			}

			if !user.IsVerified {
				denyUnauthorized(w, "Account is not verified")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func denyUnauthorized(w http.ResponseWriter, message string) {
	writeDenial(w, http.StatusUnauthorized, message)
}

func denyServerError(w http.ResponseWriter) {
	writeDenial(w, http.StatusInternalServerError, "Internal server error")
}

// writeDenial emits the API envelope directly so this package does not
// depend on the handlers.
func writeDenial(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: false,
		Message: message,
	})
}
