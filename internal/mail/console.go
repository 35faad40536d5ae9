// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package mail

import (
	"context"

	"github.com/jotstack/jotstack/internal/logging"
)

// ConsoleChannel logs messages instead of delivering them. Used in
// development when no SMTP host is configured.
type ConsoleChannel struct{}

// NewConsoleChannel creates a console delivery channel.
func NewConsoleChannel() *ConsoleChannel { return &ConsoleChannel{} }

// Name returns the channel identifier.
func (c *ConsoleChannel) Name() string { return "console" }

// Send logs the message body. Never fails.
func (c *ConsoleChannel) Send(ctx context.Context, msg *Message) error {
	logging.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("body", msg.BodyText).
		Msg("mail: console delivery")
	return nil
}
