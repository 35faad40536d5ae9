// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package otp issues and verifies one-time passcodes.
//
// Codes are six decimal digits drawn from crypto/rand, bcrypt-hashed at
// rest, valid for ten minutes, and single-use. Issuance is throttled per
// account: a second code within thirty seconds of the last is refused.
package otp

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jotstack/jotstack/internal/metrics"
	"github.com/jotstack/jotstack/internal/models"
)

// Lifecycle constants.
const (
	// TTL is how long an issued code stays valid.
	TTL = 10 * time.Minute

	// ResendCooldown is the minimum gap between two codes for one account.
	ResendCooldown = 30 * time.Second

	codeMin = 100000
	codeMax = 999999
)

// Verification failure modes. Callers map these to distinct API responses.
var (
	// ErrNoOTP means no code is pending for the account.
	ErrNoOTP = errors.New("no otp pending")

	// ErrExpired means the pending code's TTL has elapsed.
	ErrExpired = errors.New("otp expired")

	// ErrMismatch means the submitted code does not match the pending one.
	ErrMismatch = errors.New("otp mismatch")
)

// CooldownError is returned by Issue when the per-account cooldown refuses a
// new code. Remaining is rounded up so a client waiting that long will pass.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("otp cooldown: retry in %d seconds", e.RemainingSeconds())
}

// RemainingSeconds returns the wait in whole seconds, at least 1.
func (e *CooldownError) RemainingSeconds() int {
	secs := int((e.Remaining + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Generate draws a fresh six-digit code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(codeMax-codeMin+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+codeMin), nil
}

// Issue generates a code and installs its hash and expiry on the user,
// honoring the per-account cooldown. The caller persists the user and
// delivers the returned plaintext; it is not retained anywhere else.
func Issue(user *models.User, flow string, now time.Time) (string, error) {
	if user.LastOTPSent != nil {
		elapsed := now.Sub(*user.LastOTPSent)
		if elapsed < ResendCooldown {
			metrics.OTPCooldownRejections.Inc()
			return "", &CooldownError{Remaining: ResendCooldown - elapsed}
		}
	}

	code, err := Generate()
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash otp: %w", err)
	}

	expires := now.Add(TTL)
	user.OTPHash = string(hash)
	user.OTPExpires = &expires
	sent := now
	user.LastOTPSent = &sent

	metrics.OTPIssued.WithLabelValues(flow).Inc()
	return code, nil
}

// Verify checks a submitted code against the user's pending one and clears
// the OTP state on success, making codes single-use. The caller persists the
// user afterwards regardless of which flow it serves.
func Verify(user *models.User, code, flow string, now time.Time) error {
	if !user.HasLiveOTP() {
		metrics.OTPVerifications.WithLabelValues(flow, "missing").Inc()
		return ErrNoOTP
	}

	if now.After(*user.OTPExpires) {
		metrics.OTPVerifications.WithLabelValues(flow, "expired").Inc()
		return ErrExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(user.OTPHash), []byte(code)) != nil {
		metrics.OTPVerifications.WithLabelValues(flow, "mismatch").Inc()
		return ErrMismatch
	}

	user.ClearOTP()
	metrics.OTPVerifications.WithLabelValues(flow, "success").Inc()
	return nil
}
