// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package store

import "errors"

// Sentinel errors returned by the document store.
var (
	// ErrUserNotFound indicates no user matched the id, email, or Google
	// subject.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailExists indicates a create collided with an existing account
	// on the same normalized email.
	ErrEmailExists = errors.New("user already exists with this email")

	// ErrNoteNotFound indicates no note matched the (owner, id) pair.
	// Cross-user access intentionally yields this, never a permission
	// error.
	ErrNoteNotFound = errors.New("note not found")
)
