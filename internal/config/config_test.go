// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package config

import (
	"strings"
	"testing"
	"time"
)

// validConfig returns a config that passes Validate.
func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Security.JWTSecret = "a-perfectly-reasonable-secret-of-32ch"
	return cfg
}

func TestDefaultsAreValidWithSecret(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "" },
			wantErr: "jwt_secret",
		},
		{
			name: "short secret rejected in production",
			mutate: func(c *Config) {
				c.Environment = EnvProduction
				c.Security.JWTSecret = "short"
			},
			wantErr: "at least 32",
		},
		{
			name: "short secret allowed in development",
			mutate: func(c *Config) {
				c.Security.JWTSecret = "short"
			},
		},
		{
			name:    "unknown environment",
			mutate:  func(c *Config) { c.Environment = "staging" },
			wantErr: "environment",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port",
		},
		{
			name:    "zero token ttl",
			mutate:  func(c *Config) { c.Security.TokenTTL = 0 },
			wantErr: "token_ttl",
		},
		{
			name: "missing database path",
			mutate: func(c *Config) {
				c.Database.Path = ""
				c.Database.InMemory = false
			},
			wantErr: "database.path",
		},
		{
			name: "in-memory needs no path",
			mutate: func(c *Config) {
				c.Database.Path = ""
				c.Database.InMemory = true
			},
		},
		{
			name:    "gc ratio out of range",
			mutate:  func(c *Config) { c.Database.GCDiscardRatio = 1.5 },
			wantErr: "gc_discard_ratio",
		},
		{
			name: "smtp host without from",
			mutate: func(c *Config) {
				c.SMTP.Host = "smtp.example.com"
				c.SMTP.From = ""
			},
			wantErr: "smtp.from",
		},
		{
			name: "google enabled without client id",
			mutate: func(c *Config) {
				c.Google.Enabled = true
				c.Google.ClientID = ""
			},
			wantErr: "google.client_id",
		},
		{
			name: "rate limit zero requests",
			mutate: func(c *Config) {
				c.RateLimit.Requests = 0
			},
			wantErr: "rate_limit",
		},
		{
			name: "rate limit ignored when disabled",
			mutate: func(c *Config) {
				c.RateLimit.Disabled = true
				c.RateLimit.Requests = 0
				c.RateLimit.Window = 0
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-that-is-long-enough-123456")
	t.Setenv("HTTP_PORT", "8080")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("BADGER_PATH", "/tmp/jotstack-test")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "noreply@example.com")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if !cfg.IsProduction() {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
	if cfg.Database.Path != "/tmp/jotstack-test" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.SMTP.Host != "smtp.example.com" {
		t.Errorf("SMTP.Host = %q", cfg.SMTP.Host)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret-that-is-long-enough-123456")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("default port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Security.TokenTTL != 7*24*time.Hour {
		t.Errorf("default TokenTTL = %v, want 168h", cfg.Security.TokenTTL)
	}
	if cfg.Environment != EnvDevelopment {
		t.Errorf("default environment = %q", cfg.Environment)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"JWT_SECRET", "security.jwt_secret"},
		{"NODE_ENV", "environment"},
		{"PORT", "server.port"},
		{"EMAIL_HOST", "smtp.host"},
		{"GOOGLE_CLIENT_ID", "google.client_id"},
		{"LOG_LEVEL", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
