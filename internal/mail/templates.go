// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package mail

import (
	"fmt"
	"html"
)

// otpMessage builds the verification-code email.
func otpMessage(to, name, code string, minutes int) *Message {
	safeName := html.EscapeString(name)
	return &Message{
		To:      to,
		ToName:  name,
		Subject: fmt.Sprintf("%s is your Jotstack verification code", code),
		BodyText: fmt.Sprintf(
			"Hi %s,\n\nYour Jotstack verification code is: %s\n\n"+
				"The code expires in %d minutes. If you did not request it, you can ignore this email.\n",
			name, code, minutes),
		BodyHTML: fmt.Sprintf(
			`<div style="font-family:sans-serif;max-width:480px;margin:0 auto">`+
				`<h2>Your verification code</h2>`+
				`<p>Hi %s,</p>`+
				`<p style="font-size:32px;letter-spacing:8px;font-weight:bold">%s</p>`+
				`<p>The code expires in %d minutes. If you did not request it, you can ignore this email.</p>`+
				`</div>`,
			safeName, code, minutes),
	}
}

// welcomeMessage builds the post-verification welcome email.
func welcomeMessage(to, name, frontendURL string) *Message {
	safeName := html.EscapeString(name)
	text := fmt.Sprintf(
		"Hi %s,\n\nYour Jotstack account is verified. You can start taking notes now.\n", name)
	htmlBody := fmt.Sprintf(
		`<div style="font-family:sans-serif;max-width:480px;margin:0 auto">`+
			`<h2>Welcome to Jotstack</h2>`+
			`<p>Hi %s, your account is verified. You can start taking notes now.</p>`,
		safeName)
	if frontendURL != "" {
		text += fmt.Sprintf("\nOpen Jotstack: %s\n", frontendURL)
		htmlBody += fmt.Sprintf(`<p><a href=%q>Open Jotstack</a></p>`, frontendURL)
	}
	htmlBody += `</div>`

	return &Message{
		To:       to,
		ToName:   name,
		Subject:  "Welcome to Jotstack",
		BodyText: text,
		BodyHTML: htmlBody,
	}
}
