// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package models

// Request bodies are explicit tagged schemas validated at the HTTP boundary
// (internal/validation) before any controller logic runs.

// RegisterRequest starts the signup flow.
type RegisterRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50,alphaspace"`
	Email       string `json:"email" validate:"required,email,max=100"`
	DateOfBirth string `json:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
}

// VerifyOTPRequest carries a submitted OTP for either the signup or the
// login challenge.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

// EmailRequest is the body of resend-otp, login, and check-method.
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// GoogleAuthRequest carries a Google-issued ID token.
type GoogleAuthRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// CreateNoteRequest creates a note.
type CreateNoteRequest struct {
	Title    string   `json:"title" validate:"required,max=100"`
	Content  string   `json:"content" validate:"required,max=5000"`
	Tags     []string `json:"tags" validate:"omitempty,max=10,dive,required,max=20"`
	IsPinned bool     `json:"isPinned"`
	Color    string   `json:"color" validate:"omitempty,hexcolor"`
}

// UpdateNoteRequest mutates a note. Nil fields are left unchanged.
type UpdateNoteRequest struct {
	Title    *string   `json:"title" validate:"omitempty,min=1,max=100"`
	Content  *string   `json:"content" validate:"omitempty,min=1,max=5000"`
	Tags     *[]string `json:"tags" validate:"omitempty,max=10,dive,required,max=20"`
	IsPinned *bool     `json:"isPinned"`
	Color    *string   `json:"color" validate:"omitempty,hexcolor"`
}

// BulkDeleteRequest deletes up to BulkDeleteMaxIDs caller-owned notes.
type BulkDeleteRequest struct {
	NoteIDs []string `json:"noteIds" validate:"required,min=1,max=50,dive,uuid4"`
}

// ListNotesQuery is the parsed and defaulted query string of GET /api/notes.
type ListNotesQuery struct {
	Page   int    `validate:"min=1"`
	Limit  int    `validate:"min=1,max=100"`
	Search string `validate:"omitempty,max=100"`
	Pinned string `validate:"omitempty,oneof=true false"`
	Tags   string `validate:"omitempty,taglist"`
}

// RegisterData is the payload of a successful registration.
type RegisterData struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// AuthData is the payload of every endpoint that establishes a session.
type AuthData struct {
	User  UserProfile `json:"user"`
	Token string      `json:"token"`
	// OTP is only ever set in non-production login responses when email
	// dispatch failed, so local testing works without an SMTP server.
	OTP string `json:"otp,omitempty"`
}

// CheckMethodData answers "how does this email authenticate".
type CheckMethodData struct {
	AuthMethod *AuthProvider `json:"authMethod"`
	UserExists bool          `json:"userExists"`
	IsVerified bool          `json:"isVerified,omitempty"`
}

// NotesListData is the payload of GET /api/notes.
type NotesListData struct {
	Notes      []*Note    `json:"notes"`
	Pagination Pagination `json:"pagination"`
}
