// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package otp

import (
	"errors"
	"testing"
	"time"

	"github.com/jotstack/jotstack/internal/models"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Generate() = %q, want 6 digits", code)
		}
		for _, c := range code {
			if c < '0' || c > '9' {
				t.Fatalf("Generate() = %q, contains non-digit", code)
			}
		}
		if code[0] == '0' {
			t.Fatalf("Generate() = %q, leading zero means value below 100000", code)
		}
	}
}

func TestIssueSetsState(t *testing.T) {
	user := &models.User{ID: "u1"}
	now := time.Now().UTC()

	code, err := Issue(user, "signup", now)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if code == "" {
		t.Fatal("Issue() returned empty code")
	}
	if user.OTPHash == "" {
		t.Error("Issue() did not set OTPHash")
	}
	if user.OTPHash == code {
		t.Error("Issue() stored the plaintext code")
	}
	if user.OTPExpires == nil || !user.OTPExpires.Equal(now.Add(TTL)) {
		t.Errorf("OTPExpires = %v, want %v", user.OTPExpires, now.Add(TTL))
	}
	if user.LastOTPSent == nil || !user.LastOTPSent.Equal(now) {
		t.Errorf("LastOTPSent = %v, want %v", user.LastOTPSent, now)
	}
}

func TestIssueCooldown(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name         string
		lastSent     time.Duration // how long ago
		wantCooldown bool
	}{
		{name: "immediately after", lastSent: 0, wantCooldown: true},
		{name: "ten seconds later", lastSent: 10 * time.Second, wantCooldown: true},
		{name: "just under cooldown", lastSent: ResendCooldown - time.Second, wantCooldown: true},
		{name: "exactly at cooldown", lastSent: ResendCooldown, wantCooldown: false},
		{name: "well past cooldown", lastSent: 5 * time.Minute, wantCooldown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent := now.Add(-tt.lastSent)
			user := &models.User{ID: "u1", LastOTPSent: &sent}

			_, err := Issue(user, "resend", now)

			var cooldown *CooldownError
			if tt.wantCooldown {
				if !errors.As(err, &cooldown) {
					t.Fatalf("Issue() error = %v, want CooldownError", err)
				}
				secs := cooldown.RemainingSeconds()
				if secs < 1 || secs > int(ResendCooldown/time.Second) {
					t.Errorf("RemainingSeconds() = %d, want within (0, %d]", secs, int(ResendCooldown/time.Second))
				}
				return
			}
			if err != nil {
				t.Fatalf("Issue() error = %v, want nil", err)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	now := time.Now().UTC()

	issued := func(t *testing.T) (*models.User, string) {
		t.Helper()
		user := &models.User{ID: "u1"}
		code, err := Issue(user, "signup", now)
		if err != nil {
			t.Fatalf("Issue() error = %v", err)
		}
		return user, code
	}

	t.Run("success clears state", func(t *testing.T) {
		user, code := issued(t)
		if err := Verify(user, code, "signup", now.Add(time.Minute)); err != nil {
			t.Fatalf("Verify() error = %v", err)
		}
		if user.HasLiveOTP() {
			t.Error("Verify() left OTP state behind, codes must be single-use")
		}
	})

	t.Run("second use rejected", func(t *testing.T) {
		user, code := issued(t)
		if err := Verify(user, code, "signup", now.Add(time.Minute)); err != nil {
			t.Fatalf("first Verify() error = %v", err)
		}
		if err := Verify(user, code, "signup", now.Add(2*time.Minute)); !errors.Is(err, ErrNoOTP) {
			t.Errorf("second Verify() error = %v, want ErrNoOTP", err)
		}
	})

	t.Run("no pending code", func(t *testing.T) {
		user := &models.User{ID: "u1"}
		if err := Verify(user, "123456", "signup", now); !errors.Is(err, ErrNoOTP) {
			t.Errorf("Verify() error = %v, want ErrNoOTP", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		user, code := issued(t)
		if err := Verify(user, code, "signup", now.Add(TTL+time.Second)); !errors.Is(err, ErrExpired) {
			t.Errorf("Verify() error = %v, want ErrExpired", err)
		}
		if !user.HasLiveOTP() {
			t.Error("expired verify must not clear state, resend decides")
		}
	})

	t.Run("mismatch", func(t *testing.T) {
		user, code := issued(t)
		wrong := "000000"
		if wrong == code {
			wrong = "000001"
		}
		if err := Verify(user, wrong, "signup", now.Add(time.Minute)); !errors.Is(err, ErrMismatch) {
			t.Errorf("Verify() error = %v, want ErrMismatch", err)
		}
		if !user.HasLiveOTP() {
			t.Error("mismatch must not clear state, user can retry")
		}
	})
}
