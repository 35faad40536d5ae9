// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jotstack/jotstack/internal/auth"
	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/mail"
	"github.com/jotstack/jotstack/internal/models"
	"github.com/jotstack/jotstack/internal/otp"
	"github.com/jotstack/jotstack/internal/store"
)

// handleRegister starts signup: create the unverified account, issue an OTP,
// and email it. When dispatch fails for a freshly created account the account
// is deleted again, so a retry of the same email does not hit "already
// registered" for an account that never received a code.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        store.NormalizeEmail(req.Email),
		AuthProvider: models.AuthProviderOTP,
		IsVerified:   false,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			respondError(w, http.StatusBadRequest, "dateOfBirth must be a valid date in YYYY-MM-DD format")
			return
		}
		user.DateOfBirth = &dob
	}

	// An unverified account from an abandoned signup is re-challenged in
	// place instead of blocking the email forever.
	if existing, err := s.users.GetByEmail(r.Context(), user.Email); err == nil {
		if existing.IsVerified {
			respondError(w, http.StatusBadRequest, "An account with this email already exists")
			return
		}
		s.rechallenge(w, r, existing, "signup")
		return
	} else if !errors.Is(err, store.ErrUserNotFound) {
		logging.Error().Err(err).Msg("register: email lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	code, err := otp.Issue(user, "signup", time.Now().UTC())
	if err != nil {
		// A brand-new user has no LastOTPSent, so only generation can fail.
		logging.Error().Err(err).Msg("register: otp issue failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			respondError(w, http.StatusBadRequest, "An account with this email already exists")
			return
		}
		logging.Error().Err(err).Msg("register: create user failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.mail.SendOTP(r.Context(), user.Email, user.Name, code, int(otp.TTL.Minutes())); err != nil {
		logging.Error().Err(err).Str("email", user.Email).Msg("register: otp dispatch failed")

		if delErr := s.users.Delete(r.Context(), user.ID); delErr != nil {
			logging.Error().Err(delErr).Str("user_id", user.ID).Msg("register: compensating delete failed")
		}
		respondMailFailure(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, "Account created. Check your email for the verification code.", models.RegisterData{
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
	})
}

// rechallenge issues a fresh code for an existing account and emails it.
// Shared by repeat-register, resend, and login.
func (s *Server) rechallenge(w http.ResponseWriter, r *http.Request, user *models.User, flow string) {
	code, err := otp.Issue(user, flow, time.Now().UTC())
	if err != nil {
		var cooldown *otp.CooldownError
		if errors.As(err, &cooldown) {
			respondError(w, http.StatusTooManyRequests,
				fmt.Sprintf("Please wait %d seconds before requesting another code", cooldown.RemainingSeconds()))
			return
		}
		logging.Error().Err(err).Msg("otp issue failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.users.Update(r.Context(), user); err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("otp: persist challenge failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := s.mail.SendOTP(r.Context(), user.Email, user.Name, code, int(otp.TTL.Minutes())); err != nil {
		logging.Error().Err(err).Str("email", user.Email).Msg("otp dispatch failed")

		if !s.cfg.IsProduction() {
			// Local setups often have no SMTP relay. The code is already
			// persisted, so hand it back instead of failing the flow.
			respondJSON(w, http.StatusOK, "Email dispatch failed, returning code for development use",
				map[string]string{"otp": code})
			return
		}
		respondMailFailure(w, err)
		return
	}

	respondJSON(w, http.StatusOK, "Verification code sent", nil)
}

// handleVerifyOTP completes signup with the emailed code.
func (s *Server) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, ok := s.lookupUser(w, r, req.Email)
	if !ok {
		return
	}
	if user.IsVerified {
		respondError(w, http.StatusBadRequest, "Account is already verified")
		return
	}

	if !s.verifyOTP(w, user, req.OTP, "signup") {
		return
	}
	user.IsVerified = true

	if err := s.users.Update(r.Context(), user); err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("verify: persist failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// Best effort: a lost welcome email never blocks verification.
	if err := s.mail.SendWelcome(r.Context(), user.Email, user.Name); err != nil {
		logging.Warn().Err(err).Str("email", user.Email).Msg("verify: welcome dispatch failed")
	}

	s.respondSession(w, user)
}

// handleResendOTP re-issues the pending code, for both incomplete signups
// and login challenges.
func (s *Server) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, ok := s.lookupUser(w, r, req.Email)
	if !ok {
		return
	}

	flow := "resend"
	if user.IsVerified {
		// A verified account only ever needs a code for a login challenge.
		flow = "login"
	}
	s.rechallenge(w, r, user, flow)
}

// handleLogin starts a passwordless login challenge for a verified account.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, ok := s.lookupUser(w, r, req.Email)
	if !ok {
		return
	}
	if !user.IsVerified {
		respondError(w, http.StatusUnauthorized, "Account is not verified. Complete signup first.")
		return
	}

	s.rechallenge(w, r, user, "login")
}

// handleVerifyLoginOTP completes a login challenge and establishes a session.
func (s *Server) handleVerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyOTPRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, ok := s.lookupUser(w, r, req.Email)
	if !ok {
		return
	}
	if !user.IsVerified {
		respondError(w, http.StatusUnauthorized, "Account is not verified. Complete signup first.")
		return
	}

	if !s.verifyOTP(w, user, req.OTP, "login") {
		return
	}

	if err := s.users.Update(r.Context(), user); err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("login: persist failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.respondSession(w, user)
}

// handleGoogleAuth signs a user in with a Google ID token, creating or
// linking the account as needed.
func (s *Server) handleGoogleAuth(w http.ResponseWriter, r *http.Request) {
	if s.google == nil {
		respondError(w, http.StatusServiceUnavailable, "Google sign-in is not enabled")
		return
	}

	var req models.GoogleAuthRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	identity, err := s.google.Verify(r.Context(), req.IDToken)
	if err != nil {
		logging.Warn().Err(err).Msg("google: token verification failed")
		respondError(w, http.StatusUnauthorized, "Invalid Google token")
		return
	}
	if !identity.EmailVerified {
		respondError(w, http.StatusUnauthorized, "Google account email is not verified")
		return
	}

	user, created, err := s.resolveGoogleUser(r.Context(), identity)
	if err != nil {
		var httpErr *statusError
		if errors.As(err, &httpErr) {
			respondError(w, httpErr.status, httpErr.message)
			return
		}
		logging.Error().Err(err).Msg("google: resolve user failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if created {
		if err := s.mail.SendWelcome(r.Context(), user.Email, user.Name); err != nil {
			logging.Warn().Err(err).Str("email", user.Email).Msg("google: welcome dispatch failed")
		}
	}

	s.respondSession(w, user)
}

// statusError carries an HTTP status through the google resolution path.
type statusError struct {
	status  int
	message string
}

func (e *statusError) Error() string { return e.message }

// resolveGoogleUser finds, links, or creates the account behind a verified
// Google identity. created reports whether a new account was made.
func (s *Server) resolveGoogleUser(ctx context.Context, identity *auth.GoogleIdentity) (*models.User, bool, error) {
	// Known Google subject: straight sign-in.
	user, err := s.users.GetByGoogleID(ctx, identity.Subject)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, fmt.Errorf("lookup by google id: %w", err)
	}

	// Same email registered via OTP: link the Google identity to it.
	user, err = s.users.GetByEmail(ctx, identity.Email)
	if err == nil {
		if user.GoogleID != "" && user.GoogleID != identity.Subject {
			return nil, false, &statusError{http.StatusBadRequest, "Email is already linked to a different Google account"}
		}
		user.GoogleID = identity.Subject
		user.AuthProvider = models.AuthProviderGoogle
		user.IsVerified = true
		if user.Avatar == "" {
			user.Avatar = identity.Picture
		}
		user.ClearOTP()
		if err := s.users.Update(ctx, user); err != nil {
			return nil, false, fmt.Errorf("link google identity: %w", err)
		}
		return user, false, nil
	}
	if !errors.Is(err, store.ErrUserNotFound) {
		return nil, false, fmt.Errorf("lookup by email: %w", err)
	}

	// First sign-in: Google already vouched for the email, so the account
	// starts verified.
	user = &models.User{
		Name:         identity.Name,
		Email:        identity.Email,
		Avatar:       identity.Picture,
		AuthProvider: models.AuthProviderGoogle,
		GoogleID:     identity.Subject,
		IsVerified:   true,
	}
	if user.Name == "" {
		user.Name = "Jotstack User"
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("create google user: %w", err)
	}
	return user, true, nil
}

// handleCheckMethod answers which sign-in method an email uses, so the web
// client can route the user to OTP or Google.
func (s *Server) handleCheckMethod(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := s.users.GetByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrUserNotFound) {
		respondJSON(w, http.StatusOK, "", models.CheckMethodData{UserExists: false})
		return
	}
	if err != nil {
		logging.Error().Err(err).Msg("check-method: lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	provider := user.AuthProvider
	respondJSON(w, http.StatusOK, "", models.CheckMethodData{
		AuthMethod: &provider,
		UserExists: true,
		IsVerified: user.IsVerified,
	})
}

// handleMe returns the authenticated user's profile.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	respondJSON(w, http.StatusOK, "", user.Profile())
}

// lookupUser fetches by email, writing the 404 itself when absent.
func (s *Server) lookupUser(w http.ResponseWriter, r *http.Request, email string) (*models.User, bool) {
	user, err := s.users.GetByEmail(r.Context(), email)
	if errors.Is(err, store.ErrUserNotFound) {
		respondError(w, http.StatusNotFound, "No account found with this email")
		return nil, false
	}
	if err != nil {
		logging.Error().Err(err).Msg("user lookup failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return user, true
}

// verifyOTP checks a submitted code against the user, writing the failure
// response itself. The user is mutated (OTP cleared) on success but not yet
// persisted.
func (s *Server) verifyOTP(w http.ResponseWriter, user *models.User, code, flow string) bool {
	err := otp.Verify(user, code, flow, time.Now().UTC())
	switch {
	case err == nil:
		return true
	case errors.Is(err, otp.ErrNoOTP):
		respondError(w, http.StatusBadRequest, "No verification code is pending. Request a new one.")
	case errors.Is(err, otp.ErrExpired):
		respondError(w, http.StatusBadRequest, "Verification code has expired. Request a new one.")
	case errors.Is(err, otp.ErrMismatch):
		respondError(w, http.StatusBadRequest, "Invalid verification code")
	default:
		logging.Error().Err(err).Msg("otp verify failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
	return false
}

// respondSession issues a session token and writes the auth payload.
func (s *Server) respondSession(w http.ResponseWriter, user *models.User) {
	token, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("session: token generation failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, "Signed in", models.AuthData{
		User:  user.Profile(),
		Token: token,
	})
}

// respondMailFailure maps a delivery failure to the outward status. An open
// circuit is a known-transient condition and gets a 503; anything else is a
// generic 500 so relay details never leak.
func respondMailFailure(w http.ResponseWriter, err error) {
	if errors.Is(err, mail.ErrMailUnavailable) {
		respondError(w, http.StatusServiceUnavailable, "Could not send email right now. Try again later.")
		return
	}
	respondError(w, http.StatusInternalServerError, "Could not send email")
}
