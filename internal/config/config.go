// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package config provides layered configuration loading for Jotstack.
//
// Configuration is loaded via Koanf v2 with the following precedence
// (highest wins):
//  1. Environment variables
//  2. Config file (config.yaml)
//  3. Built-in defaults
package config

import "time"

// Environment names recognized by the application.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config is the root application configuration.
type Config struct {
	Environment string          `koanf:"environment"`
	Server      ServerConfig    `koanf:"server"`
	Database    DatabaseConfig  `koanf:"database"`
	Security    SecurityConfig  `koanf:"security"`
	SMTP        SMTPConfig      `koanf:"smtp"`
	Google      GoogleConfig    `koanf:"google"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
	Logging     LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists origins allowed to call the API from a browser.
	CORSOrigins []string `koanf:"cors_origins"`
}

// DatabaseConfig holds BadgerDB settings.
type DatabaseConfig struct {
	// Path is the directory for the Badger value log and LSM tree.
	Path string `koanf:"path"`

	// InMemory runs the store without disk persistence. Tests only.
	InMemory bool `koanf:"in_memory"`

	// GCInterval is how often the value-log garbage collector runs.
	GCInterval time.Duration `koanf:"gc_interval"`

	// GCDiscardRatio is the Badger value-log rewrite threshold.
	GCDiscardRatio float64 `koanf:"gc_discard_ratio"`
}

// SecurityConfig holds session token settings.
type SecurityConfig struct {
	// JWTSecret signs session tokens. Required; startup fails without it.
	JWTSecret string `koanf:"jwt_secret"`

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration `koanf:"token_ttl"`
}

// SMTPConfig holds outbound email settings.
type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	From     string `koanf:"from"`
	FromName string `koanf:"from_name"`

	// FrontendURL is linked from the welcome email.
	FrontendURL string `koanf:"frontend_url"`
}

// GoogleConfig holds Google sign-in settings.
type GoogleConfig struct {
	// Enabled turns the POST /api/auth/google endpoint on.
	Enabled bool `koanf:"enabled"`

	// ClientID is the OAuth client the ID token audience must match.
	ClientID string `koanf:"client_id"`

	// Issuer is the OIDC issuer URL used for discovery.
	Issuer string `koanf:"issuer"`
}

// RateLimitConfig holds transport-layer per-IP rate limits.
// The per-account OTP cooldown is separate and lives in the otp package.
type RateLimitConfig struct {
	Disabled bool `koanf:"disabled"`

	// Requests per Window for general API endpoints.
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`

	// AuthRequests per AuthWindow for authentication endpoints.
	AuthRequests int           `koanf:"auth_requests"`
	AuthWindow   time.Duration `koanf:"auth_window"`

	// CreateRequests per CreateWindow for note creation.
	CreateRequests int           `koanf:"create_requests"`
	CreateWindow   time.Duration `koanf:"create_window"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// IsProduction reports whether the server runs in production mode.
// Non-production mode relaxes email dispatch failures during login: the OTP
// is logged and returned in the response so local testing works without an
// SMTP server.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// defaultConfig returns a Config with all default values applied.
// Defaults are loaded first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Path:           "/data/jotstack",
			InMemory:       false,
			GCInterval:     5 * time.Minute,
			GCDiscardRatio: 0.5,
		},
		Security: SecurityConfig{
			JWTSecret: "",
			TokenTTL:  7 * 24 * time.Hour,
		},
		SMTP: SMTPConfig{
			Host:     "",
			Port:     587,
			FromName: "Jotstack",
		},
		Google: GoogleConfig{
			Enabled: false,
			Issuer:  "https://accounts.google.com",
		},
		RateLimit: RateLimitConfig{
			Disabled:       false,
			Requests:       100,
			Window:         time.Minute,
			AuthRequests:   20,
			AuthWindow:     time.Minute,
			CreateRequests: 10,
			CreateWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
