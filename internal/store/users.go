// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jotstack/jotstack/internal/metrics"
	"github.com/jotstack/jotstack/internal/models"
)

// UserStore persists credential records in BadgerDB.
type UserStore struct {
	db *badger.DB
}

// NewUserStore creates a BadgerDB-backed user store.
func NewUserStore(db *badger.DB) *UserStore {
	return &UserStore{db: db}
}

// Create persists a new user. The email index is written in the same
// transaction, so uniqueness holds even under concurrent registration.
// Returns ErrEmailExists when the normalized email is already taken.
func (s *UserStore) Create(ctx context.Context, user *models.User) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("user", "create", start, err) }(time.Now())

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = NormalizeEmail(user.Email)
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(userEmailKeyPrefix + user.Email)
		if _, err := txn.Get(emailKey); err == nil {
			return ErrEmailExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check email index: %w", err)
		}

		if err := txn.Set([]byte(userKeyPrefix+user.ID), data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
		if user.GoogleID != "" {
			if err := txn.Set([]byte(userGoogleKeyPrefix+user.GoogleID), []byte(user.ID)); err != nil {
				return fmt.Errorf("set google index: %w", err)
			}
		}
		return nil
	})
	return err
}

// GetByID retrieves a user by id.
func (s *UserStore) GetByID(ctx context.Context, id string) (u *models.User, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("user", "get", start, err) }(time.Now())

	var user models.User
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKeyPrefix+id, &user, ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail retrieves a user by normalized email.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByIndex(ctx, userEmailKeyPrefix+NormalizeEmail(email))
}

// GetByGoogleID retrieves a user by Google subject.
func (s *UserStore) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	return s.getByIndex(ctx, userGoogleKeyPrefix+googleID)
}

func (s *UserStore) getByIndex(ctx context.Context, indexKey string) (u *models.User, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("user", "get", start, err) }(time.Now())

	var user models.User
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(indexKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get index: %w", err)
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		return getJSON(txn, userKeyPrefix+id, &user, ErrUserNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update re-persists a user, refreshing UpdatedAt. The Google index is
// written when the record gained a Google subject (account linking); the
// email is treated as immutable identity and is never re-indexed.
func (s *UserStore) Update(ctx context.Context, user *models.User) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("user", "update", start, err) }(time.Now())

	user.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + user.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrUserNotFound
		} else if err != nil {
			return fmt.Errorf("get user: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if user.GoogleID != "" {
			if err := txn.Set([]byte(userGoogleKeyPrefix+user.GoogleID), []byte(user.ID)); err != nil {
				return fmt.Errorf("set google index: %w", err)
			}
		}
		return nil
	})
	return err
}

// Delete removes a user and its index entries. Used as the compensating
// action when OTP dispatch fails right after registration, so no orphaned
// unverifiable account is left behind.
func (s *UserStore) Delete(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("user", "delete", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		var user models.User
		if err := getJSON(txn, userKeyPrefix+id, &user, ErrUserNotFound); err != nil {
			return err
		}

		if err := txn.Delete([]byte(userKeyPrefix + id)); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if err := txn.Delete([]byte(userEmailKeyPrefix + user.Email)); err != nil {
			return fmt.Errorf("delete email index: %w", err)
		}
		if user.GoogleID != "" {
			if err := txn.Delete([]byte(userGoogleKeyPrefix + user.GoogleID)); err != nil {
				return fmt.Errorf("delete google index: %w", err)
			}
		}
		return nil
	})
	return err
}

// SweepExpiredOTPs clears OTP state whose expiry has passed and returns how
// many records were touched. Verification already rejects expired codes; the
// sweep just keeps dead bcrypt hashes from accumulating at rest.
func (s *UserStore) SweepExpiredOTPs(ctx context.Context, now time.Time) (swept int, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("user", "sweep_otp", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user models.User
			item := it.Item()
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}

			if !user.HasLiveOTP() || now.Before(*user.OTPExpires) {
				continue
			}

			user.ClearOTP()
			user.UpdatedAt = now
			data, err := json.Marshal(&user)
			if err != nil {
				return fmt.Errorf("marshal user: %w", err)
			}
			if err := txn.Set(item.KeyCopy(nil), data); err != nil {
				return fmt.Errorf("set user: %w", err)
			}
			swept++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return swept, nil
}

// getJSON reads a key and unmarshals it, mapping ErrKeyNotFound to notFound.
func getJSON(txn *badger.Txn, key string, out interface{}, notFound error) error {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return notFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}
