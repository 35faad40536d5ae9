// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package mail delivers transactional email for the authentication flows.
//
// Delivery goes through a Channel behind a Dispatcher, which adds a circuit
// breaker and an outbound rate limit. In development the SMTP channel is
// replaced by a console channel that logs the message instead.
package mail

import "context"

// Message is one transactional email ready for delivery.
type Message struct {
	To       string
	ToName   string
	Subject  string
	BodyText string
	BodyHTML string
}

// Channel is a delivery transport for transactional mail.
type Channel interface {
	// Name identifies the channel in logs and metrics.
	Name() string

	// Send delivers the message or returns an error. Send must honor ctx
	// cancellation.
	Send(ctx context.Context, msg *Message) error
}
