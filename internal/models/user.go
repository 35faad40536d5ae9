// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package models defines the domain records and API data shapes shared by the
// store, the OTP issuer, and the HTTP handlers.
package models

import "time"

// AuthProvider identifies how an account authenticates.
type AuthProvider string

// Supported auth providers.
const (
	// AuthProviderOTP is passwordless email OTP.
	AuthProviderOTP AuthProvider = "otp"
	// AuthProviderGoogle is Google sign-in. An OTP account that later
	// authenticates via Google is upgraded to this provider in place.
	AuthProviderGoogle AuthProvider = "google"
)

// User is a credential record. The struct is the storage representation;
// fields holding OTP state are serialized to the store but never to API
// responses (see Profile).
//
// Invariant: OTPHash and OTPExpires are present together or both absent.
// A verified user holds no live OTP except during a login challenge.
type User struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	DateOfBirth  *time.Time   `json:"dateOfBirth,omitempty"`
	Avatar       string       `json:"avatar,omitempty"`
	AuthProvider AuthProvider `json:"authProvider"`
	GoogleID     string       `json:"googleId,omitempty"`
	IsVerified   bool         `json:"isVerified"`

	// OTPHash is the bcrypt hash of the live OTP. The plaintext code is
	// never stored.
	OTPHash     string     `json:"otpHash,omitempty"`
	OTPExpires  *time.Time `json:"otpExpires,omitempty"`
	LastOTPSent *time.Time `json:"lastOTPSent,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasLiveOTP reports whether an OTP is stored, expired or not.
func (u *User) HasLiveOTP() bool {
	return u.OTPHash != "" && u.OTPExpires != nil
}

// ClearOTP removes the OTP state. Called after a successful verify so codes
// are single-use.
func (u *User) ClearOTP() {
	u.OTPHash = ""
	u.OTPExpires = nil
}

// UserProfile is the API-facing view of a User with credential state stripped.
type UserProfile struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	DateOfBirth  *time.Time   `json:"dateOfBirth,omitempty"`
	Avatar       string       `json:"avatar,omitempty"`
	AuthProvider AuthProvider `json:"authProvider"`
	IsVerified   bool         `json:"isVerified"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Profile returns the API-facing view of the user.
func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		DateOfBirth:  u.DateOfBirth,
		Avatar:       u.Avatar,
		AuthProvider: u.AuthProvider,
		IsVerified:   u.IsVerified,
		CreatedAt:    u.CreatedAt,
	}
}
