// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jotstack/jotstack/internal/auth"
	"github.com/jotstack/jotstack/internal/config"
	"github.com/jotstack/jotstack/internal/mail"
	"github.com/jotstack/jotstack/internal/middleware"
	"github.com/jotstack/jotstack/internal/store"
)

// Server holds the handler dependencies.
type Server struct {
	cfg    *config.Config
	users  *store.UserStore
	notes  *store.NoteStore
	tokens *auth.TokenManager
	mail   *mail.Dispatcher

	// google is nil when Google sign-in is disabled.
	google auth.GoogleVerifier
}

// NewServer wires the handler dependencies.
func NewServer(cfg *config.Config, users *store.UserStore, notes *store.NoteStore,
	tokens *auth.TokenManager, dispatcher *mail.Dispatcher, google auth.GoogleVerifier) *Server {
	return &Server{
		cfg:    cfg,
		users:  users,
		notes:  notes,
		tokens: tokens,
		mail:   dispatcher,
		google: google,
	}
}

// Router builds the chi router with all routes and middleware mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))
	r.Use(middleware.Prometheus)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Auth endpoints carry a tighter per-IP limit than the rest of the API;
	// OTP issuance additionally has its own per-account cooldown.
	r.Route("/api/auth", func(r chi.Router) {
		r.Use(s.rateLimit(s.cfg.RateLimit.AuthRequests, s.cfg.RateLimit.AuthWindow))

		r.Post("/register", s.handleRegister)
		r.Post("/verify-otp", s.handleVerifyOTP)
		r.Post("/resend-otp", s.handleResendOTP)
		r.Post("/login", s.handleLogin)
		r.Post("/verify-login-otp", s.handleVerifyLoginOTP)
		r.Post("/google", s.handleGoogleAuth)
		r.Post("/check-method", s.handleCheckMethod)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(s.tokens, s.users))
			r.Get("/me", s.handleMe)
		})
	})

	r.Route("/api/notes", func(r chi.Router) {
		r.Use(s.rateLimit(s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window))
		r.Use(auth.Middleware(s.tokens, s.users))

		r.Get("/", s.handleListNotes)
		r.Get("/stats", s.handleNoteStats)
		r.Delete("/bulk", s.handleBulkDelete)

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit(s.cfg.RateLimit.CreateRequests, s.cfg.RateLimit.CreateWindow))
			r.Post("/", s.handleCreateNote)
		})

		r.Route("/{noteID}", func(r chi.Router) {
			r.Get("/", s.handleGetNote)
			r.Put("/", s.handleUpdateNote)
			r.Patch("/pin", s.handleTogglePin)
			r.Delete("/", s.handleDeleteNote)
		})
	})

	return r
}

// rateLimit returns a per-IP limiter, or a no-op when rate limiting is
// disabled (tests, trusted deployments behind their own limiter).
func (s *Server) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if s.cfg.RateLimit.Disabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.LimitByIP(requests, window)
}

// handleHealth reports liveness. No dependencies are probed; Badger is
// embedded and fails the process, not the probe.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, "ok", map[string]string{
		"status": "healthy",
	})
}
