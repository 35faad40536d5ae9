// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package auth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-that-is-long-enough-0123"

func TestNewTokenManager(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		ttl     time.Duration
		wantErr bool
	}{
		{name: "valid", secret: testSecret, ttl: time.Hour, wantErr: false},
		{name: "empty secret", secret: "", ttl: time.Hour, wantErr: true},
		{name: "zero ttl", secret: testSecret, ttl: 0, wantErr: true},
		{name: "negative ttl", secret: testSecret, ttl: -time.Hour, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTokenManager(tt.secret, tt.ttl)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTokenManager() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m, err := NewTokenManager(testSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	token, err := m.Generate("user-123", "alice@example.com")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want %q", claims.UserID, "user-123")
	}
	if claims.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@example.com")
	}
	if claims.Subject != "user-123" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-123")
	}
}

func TestVerifyRejections(t *testing.T) {
	m, _ := NewTokenManager(testSecret, time.Hour)
	other, _ := NewTokenManager("another-secret-key-equally-long-enough-1", time.Hour)
	expired, _ := NewTokenManager(testSecret, time.Nanosecond)

	valid, _ := m.Generate("u1", "a@b.c")
	foreign, _ := other.Generate("u1", "a@b.c")
	expiredToken, _ := expired.Generate("u1", "a@b.c")
	time.Sleep(5 * time.Millisecond)

	tampered := valid[:len(valid)-2] + "xx"

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "garbage", token: "not-a-token", wantErr: ErrTokenInvalid},
		{name: "empty", token: "", wantErr: ErrTokenInvalid},
		{name: "wrong secret", token: foreign, wantErr: ErrTokenInvalid},
		{name: "tampered signature", token: tampered, wantErr: ErrTokenInvalid},
		{name: "expired", token: expiredToken, wantErr: ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Verify() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	m, _ := NewTokenManager(testSecret, time.Hour)

	// alg=none token: header {"alg":"none","typ":"JWT"}, arbitrary payload.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." +
		"eyJ1c2VySWQiOiJ1MSJ9."
	if _, err := m.Verify(unsigned); err == nil {
		t.Fatal("Verify() accepted an unsigned token")
	}

	// A token with a different signing method must be rejected even with a
	// structurally valid signature segment.
	parts := strings.Split(unsigned, ".")
	if len(parts) != 3 {
		t.Fatalf("test token malformed: %d segments", len(parts))
	}
}
