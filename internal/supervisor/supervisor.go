// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package supervisor runs the background maintenance services under a suture
// supervision tree, so a panicking service restarts with backoff instead of
// taking the process down.
package supervisor

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/jotstack/jotstack/internal/config"
	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/store"
)

// otpSweepInterval is how often expired OTP hashes are cleared from storage.
const otpSweepInterval = 15 * time.Minute

// New builds the supervision tree with the Badger GC and OTP sweep services.
func New(cfg *config.Config, db *badger.DB, users *store.UserStore) *suture.Supervisor {
	// MustHook has a pointer receiver; the handler must be addressable.
	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}

	sup := suture.New("jotstack", suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          cfg.Server.ShutdownTimeout,
	})

	sup.Add(&gcService{db: db, interval: cfg.Database.GCInterval, discardRatio: cfg.Database.GCDiscardRatio})
	sup.Add(&otpSweepService{users: users})
	return sup
}

// gcService periodically runs Badger value-log garbage collection.
type gcService struct {
	db           *badger.DB
	interval     time.Duration
	discardRatio float64
}

func (s *gcService) String() string { return "badger-gc" }

// Serve implements suture.Service.
func (s *gcService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := store.RunGC(s.db, s.discardRatio); err != nil {
				logging.Warn().Err(err).Msg("gc: value log gc failed")
			}
		}
	}
}

// otpSweepService periodically clears expired OTP hashes.
type otpSweepService struct {
	users *store.UserStore
}

func (s *otpSweepService) String() string { return "otp-sweep" }

// Serve implements suture.Service.
func (s *otpSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(otpSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			swept, err := s.users.SweepExpiredOTPs(ctx, time.Now().UTC())
			if err != nil {
				logging.Warn().Err(err).Msg("otp sweep failed")
				continue
			}
			if swept > 0 {
				logging.Debug().Int("swept", swept).Msg("otp sweep: cleared expired codes")
			}
		}
	}
}
