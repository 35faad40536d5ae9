// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jotstack/jotstack/internal/metrics"
	"github.com/jotstack/jotstack/internal/models"
)

// NoteStore persists note documents in BadgerDB, keyed under their owner.
type NoteStore struct {
	db *badger.DB
}

// NewNoteStore creates a BadgerDB-backed note store.
func NewNoteStore(db *badger.DB) *NoteStore {
	return &NoteStore{db: db}
}

func noteKey(userID, noteID string) []byte {
	return []byte(noteKeyPrefix + userID + ":" + noteID)
}

// Create persists a new note for its owner.
func (s *NoteStore) Create(ctx context.Context, note *models.Note) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "create", start, err) }(time.Now())

	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	if note.Color == "" {
		note.Color = models.NoteDefaultColor
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	now := time.Now().UTC()
	note.CreatedAt = now
	note.UpdatedAt = now

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(noteKey(note.UserID, note.ID), data)
	})
	return err
}

// Get retrieves one note scoped by owner. A foreign note id yields
// ErrNoteNotFound.
func (s *NoteStore) Get(ctx context.Context, userID, noteID string) (n *models.Note, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "get", start, err) }(time.Now())

	var note models.Note
	err = s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, string(noteKey(userID, noteID)), &note, ErrNoteNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Update re-persists a note, refreshing UpdatedAt. The note must already
// exist under the same owner.
func (s *NoteStore) Update(ctx context.Context, note *models.Note) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "update", start, err) }(time.Now())

	note.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		key := noteKey(note.UserID, note.ID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoteNotFound
		} else if err != nil {
			return fmt.Errorf("get note: %w", err)
		}
		return txn.Set(key, data)
	})
	return err
}

// Delete removes one owner-scoped note.
func (s *NoteStore) Delete(ctx context.Context, userID, noteID string) (err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "delete", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		key := noteKey(userID, noteID)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoteNotFound
		} else if err != nil {
			return fmt.Errorf("get note: %w", err)
		}
		return txn.Delete(key)
	})
	return err
}

// DeleteMany removes the given ids that exist under the owner and reports
// how many were actually removed. Ids that do not exist or belong to another
// user are silently skipped.
func (s *NoteStore) DeleteMany(ctx context.Context, userID string, noteIDs []string) (deleted int, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "delete_many", start, err) }(time.Now())

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, id := range noteIDs {
			key := noteKey(userID, id)
			if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
				continue
			} else if err != nil {
				return fmt.Errorf("get note %s: %w", id, err)
			}
			if err := txn.Delete(key); err != nil {
				return fmt.Errorf("delete note %s: %w", id, err)
			}
			deleted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// List returns one page of the owner's notes after filtering, sorted pinned
// first and then most recently updated, plus the total match count.
func (s *NoteStore) List(ctx context.Context, userID string, filter models.NoteFilter, page, limit int) (notes []*models.Note, total int, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "list", start, err) }(time.Now())

	matched, err := s.collect(userID, func(n *models.Note) bool {
		return matchesFilter(n, filter)
	})
	if err != nil {
		return nil, 0, err
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].IsPinned != matched[j].IsPinned {
			return matched[i].IsPinned
		}
		return matched[i].UpdatedAt.After(matched[j].UpdatedAt)
	})

	total = len(matched)
	start := (page - 1) * limit
	if start >= total {
		return []*models.Note{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Stats aggregates the owner's notes: totals, pinned count, notes created in
// the last 7 days, and the ten most used tags.
func (s *NoteStore) Stats(ctx context.Context, userID string) (stats *models.NoteStats, err error) {
	defer func(start time.Time) { metrics.ObserveStoreOperation("note", "stats", start, err) }(time.Now())

	all, err := s.collect(userID, nil)
	if err != nil {
		return nil, err
	}

	stats = &models.NoteStats{TopTags: []models.TagCount{}}
	recentCutoff := time.Now().UTC().AddDate(0, 0, -7)
	tagCounts := map[string]int{}

	for _, n := range all {
		stats.TotalNotes++
		if n.IsPinned {
			stats.PinnedNotes++
		}
		if n.CreatedAt.After(recentCutoff) {
			stats.RecentNotes++
		}
		for _, tag := range n.Tags {
			tagCounts[tag]++
		}
	}

	for name, count := range tagCounts {
		stats.TopTags = append(stats.TopTags, models.TagCount{Name: name, Count: count})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count != stats.TopTags[j].Count {
			return stats.TopTags[i].Count > stats.TopTags[j].Count
		}
		return stats.TopTags[i].Name < stats.TopTags[j].Name
	})
	if len(stats.TopTags) > 10 {
		stats.TopTags = stats.TopTags[:10]
	}

	return stats, nil
}

// collect iterates the owner's note prefix and returns notes passing keep
// (nil keeps everything).
func (s *NoteStore) collect(userID string, keep func(*models.Note) bool) ([]*models.Note, error) {
	var notes []*models.Note

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(noteKeyPrefix + userID + ":")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var note models.Note
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &note)
			})
			if err != nil {
				return fmt.Errorf("decode note: %w", err)
			}
			if keep == nil || keep(&note) {
				n := note
				notes = append(notes, &n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// matchesFilter applies search, pin, and tag filtering to one note.
func matchesFilter(n *models.Note, f models.NoteFilter) bool {
	if f.Pinned != nil && n.IsPinned != *f.Pinned {
		return false
	}

	if len(f.Tags) > 0 {
		found := false
		for _, want := range f.Tags {
			for _, have := range n.Tags {
				if strings.EqualFold(have, want) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Content), needle) &&
			!tagContains(n.Tags, needle) {
			return false
		}
	}

	return true
}

func tagContains(tags []string, needle string) bool {
	for _, t := range tags {
		if strings.Contains(strings.ToLower(t), needle) {
			return true
		}
	}
	return false
}
