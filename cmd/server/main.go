// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Command server runs the Jotstack API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jotstack/jotstack/internal/api"
	"github.com/jotstack/jotstack/internal/auth"
	"github.com/jotstack/jotstack/internal/config"
	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/mail"
	"github.com/jotstack/jotstack/internal/store"
	"github.com/jotstack/jotstack/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Server.Port).
		Msg("starting jotstack")

	db, err := store.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("close store")
		}
	}()

	users := store.NewUserStore(db)
	notes := store.NewNoteStore(db)

	tokens, err := auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL)
	if err != nil {
		return fmt.Errorf("token manager: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var google auth.GoogleVerifier
	if cfg.Google.Enabled {
		google, err = auth.NewGoogleVerifier(ctx, &cfg.Google)
		if err != nil {
			return fmt.Errorf("google verifier: %w", err)
		}
		logging.Info().Str("client_id", cfg.Google.ClientID).Msg("google sign-in enabled")
	}

	var channel mail.Channel
	if cfg.SMTP.Host != "" {
		channel = mail.NewSMTPChannel(&cfg.SMTP)
	} else {
		if cfg.IsProduction() {
			return errors.New("smtp host is required in production")
		}
		channel = mail.NewConsoleChannel()
		logging.Warn().Msg("no smtp host configured, codes are logged to the console")
	}
	dispatcher := mail.NewDispatcher(channel, &cfg.SMTP)

	server := api.NewServer(cfg, users, notes, tokens, dispatcher, google)

	sup := supervisor.New(cfg, db, users)
	supErr := sup.ServeBackground(ctx)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", httpServer.Addr).Msg("listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("http server: %w", err)
	case err := <-supErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("supervisor: %w", err)
		}
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}

	logging.Info().Msg("goodbye")
	return nil
}
