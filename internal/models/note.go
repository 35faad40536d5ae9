// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package models

import "time"

// Note field limits, enforced at the validation boundary and in the store.
const (
	NoteTitleMaxLen   = 100
	NoteContentMaxLen = 5000
	NoteMaxTags       = 10
	NoteTagMaxLen     = 20
	NoteDefaultColor  = "#ffffff"

	// BulkDeleteMaxIDs caps a single bulk delete request.
	BulkDeleteMaxIDs = 50

	// NotesPageMaxLimit caps the page size of a list request.
	NotesPageMaxLimit = 100
)

// Note is a user-owned note document. Every note belongs to exactly one user
// and is only ever queried through its owner.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	IsPinned  bool      `json:"isPinned"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NoteFilter narrows a note listing.
type NoteFilter struct {
	// Search matches title, content, and tags case-insensitively.
	Search string

	// Pinned filters on pin state when non-nil.
	Pinned *bool

	// Tags keeps notes carrying at least one of the given tags.
	Tags []string
}

// Pagination describes the page of a note listing in API responses.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalNotes  int  `json:"totalNotes"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// TagCount is one entry of the most-used-tags statistic.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// NoteStats aggregates a user's notes for the stats endpoint.
type NoteStats struct {
	TotalNotes  int        `json:"totalNotes"`
	PinnedNotes int        `json:"pinnedNotes"`
	RecentNotes int        `json:"recentNotes"`
	TopTags     []TagCount `json:"topTags"`
}
