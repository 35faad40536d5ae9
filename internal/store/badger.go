// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package store persists users and notes as JSON documents in BadgerDB.
//
// Key layout:
//
//	user:<id>            -> User document
//	user_email:<email>   -> user id (unique index, normalized email)
//	user_google:<sub>    -> user id (Google subject index)
//	note:<userID>:<id>   -> Note document
//
// Notes are keyed under their owner so every query is owner-scoped by
// construction; a cross-user lookup cannot even form the right key.
// Badger provides atomic per-document transactions, which is the only
// concurrency-control boundary the application relies on.
package store

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/jotstack/jotstack/internal/config"
	"github.com/jotstack/jotstack/internal/logging"
)

// Key prefixes for BadgerDB storage.
const (
	userKeyPrefix       = "user:"
	userEmailKeyPrefix  = "user_email:"
	userGoogleKeyPrefix = "user_google:"
	noteKeyPrefix       = "note:"
)

// Open opens the BadgerDB instance backing the document store.
func Open(cfg *config.DatabaseConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithLogger(badgerLogger{})
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return db, nil
}

// RunGC triggers one round of Badger value-log garbage collection.
// badger.ErrNoRewrite (nothing to collect) is not an error for callers.
func RunGC(db *badger.DB, discardRatio float64) error {
	err := db.RunValueLogGC(discardRatio)
	if err != nil && err != badger.ErrNoRewrite {
		return fmt.Errorf("badger value log gc: %w", err)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address. All email lookups
// and index keys go through this so identity is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Msgf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Msgf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Msgf("badger: "+strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Trace().Msgf("badger: "+strings.TrimSpace(format), args...)
}
