// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package config

import (
	"errors"
	"fmt"
	"strings"
)

// Minimum JWT secret length accepted in production. Short secrets make the
// HS256 signature brute-forceable.
const minJWTSecretLen = 32

// Validate checks the configuration for fatal misconfiguration. It is called
// once at startup; any error here terminates the process before the server
// accepts traffic.
func (c *Config) Validate() error {
	var errs []string

	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		errs = append(errs, fmt.Sprintf("environment must be %q or %q, got %q",
			EnvDevelopment, EnvProduction, c.Environment))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}

	if c.Security.JWTSecret == "" {
		errs = append(errs, "security.jwt_secret is required (set JWT_SECRET)")
	} else if c.IsProduction() && len(c.Security.JWTSecret) < minJWTSecretLen {
		errs = append(errs, fmt.Sprintf("security.jwt_secret must be at least %d characters in production", minJWTSecretLen))
	}

	if c.Security.TokenTTL <= 0 {
		errs = append(errs, "security.token_ttl must be positive")
	}

	if !c.Database.InMemory && c.Database.Path == "" {
		errs = append(errs, "database.path is required unless database.in_memory is set")
	}

	if c.Database.GCDiscardRatio <= 0 || c.Database.GCDiscardRatio >= 1 {
		errs = append(errs, fmt.Sprintf("database.gc_discard_ratio must be in (0,1), got %g", c.Database.GCDiscardRatio))
	}

	if c.SMTP.Host != "" {
		if c.SMTP.Port < 1 || c.SMTP.Port > 65535 {
			errs = append(errs, fmt.Sprintf("smtp.port must be 1-65535, got %d", c.SMTP.Port))
		}
		if c.SMTP.From == "" {
			errs = append(errs, "smtp.from is required when smtp.host is set")
		}
	}

	if c.Google.Enabled {
		if c.Google.ClientID == "" {
			errs = append(errs, "google.client_id is required when google.enabled is set")
		}
		if c.Google.Issuer == "" {
			errs = append(errs, "google.issuer is required when google.enabled is set")
		}
	}

	if !c.RateLimit.Disabled {
		if c.RateLimit.Requests < 1 || c.RateLimit.AuthRequests < 1 || c.RateLimit.CreateRequests < 1 {
			errs = append(errs, "rate_limit request counts must be positive")
		}
		if c.RateLimit.Window <= 0 || c.RateLimit.AuthWindow <= 0 || c.RateLimit.CreateWindow <= 0 {
			errs = append(errs, "rate_limit windows must be positive")
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
