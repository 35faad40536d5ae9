// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/jotstack/jotstack/internal/config"
)

// ErrGoogleTokenInvalid wraps any ID-token verification failure.
var ErrGoogleTokenInvalid = errors.New("invalid google id token")

// GoogleIdentity is the subset of Google ID-token claims the app consumes.
type GoogleIdentity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// GoogleVerifier validates Google ID tokens. An interface so handlers can be
// tested without Google's JWKS endpoint.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// googleVerifier verifies ID tokens against Google's OIDC issuer. Discovery
// and JWKS caching are handled by the relying party.
type googleVerifier struct {
	rp rp.RelyingParty
}

// NewGoogleVerifier creates a verifier for the configured Google client.
// Discovery runs once at startup; a misconfigured issuer fails fast here.
func NewGoogleVerifier(ctx context.Context, cfg *config.GoogleConfig) (GoogleVerifier, error) {
	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.Issuer,
		cfg.ClientID,
		"", // no client secret, we only verify ID tokens
		"", // no redirect, the web client runs the consent flow
		[]string{oidc.ScopeOpenID, oidc.ScopeEmail, oidc.ScopeProfile},
	)
	if err != nil {
		return nil, fmt.Errorf("create google relying party: %w", err)
	}
	return &googleVerifier{rp: relyingParty}, nil
}

// Verify checks signature, issuer, audience, and expiry, then extracts the
// identity claims.
func (v *googleVerifier) Verify(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	claims, err := rp.VerifyIDToken[*oidc.IDTokenClaims](ctx, idToken, v.rp.IDTokenVerifier())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGoogleTokenInvalid, err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrGoogleTokenInvalid)
	}

	return &GoogleIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}
