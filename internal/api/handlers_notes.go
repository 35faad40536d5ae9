// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/jotstack/jotstack/internal/auth"
	"github.com/jotstack/jotstack/internal/logging"
	"github.com/jotstack/jotstack/internal/models"
	"github.com/jotstack/jotstack/internal/store"
	"github.com/jotstack/jotstack/internal/validation"
)

// requestUser returns the authenticated user. The auth middleware guarantees
// presence on these routes; the guard is for direct handler tests.
func requestUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Authentication required")
		return nil, false
	}
	return user, true
}

// handleListNotes returns one page of the caller's notes.
//
// Query parameters: page, limit, search, pinned (true/false), tags
// (comma-separated, any match).
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	query, ok := parseListQuery(w, r)
	if !ok {
		return
	}

	filter := models.NoteFilter{Search: strings.TrimSpace(query.Search)}
	if query.Pinned != "" {
		pinned := query.Pinned == "true"
		filter.Pinned = &pinned
	}
	if query.Tags != "" {
		for _, tag := range strings.Split(query.Tags, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				filter.Tags = append(filter.Tags, tag)
			}
		}
	}

	notes, total, err := s.notes.List(r.Context(), user.ID, filter, query.Page, query.Limit)
	if err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("notes: list failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	totalPages := (total + query.Limit - 1) / query.Limit
	respondJSON(w, http.StatusOK, "", models.NotesListData{
		Notes: notes,
		Pagination: models.Pagination{
			CurrentPage: query.Page,
			TotalPages:  totalPages,
			TotalNotes:  total,
			HasNextPage: query.Page < totalPages,
			HasPrevPage: query.Page > 1 && total > 0,
		},
	})
}

// parseListQuery parses and validates the list query string, applying
// defaults. Writes the error response itself on failure.
func parseListQuery(w http.ResponseWriter, r *http.Request) (*models.ListNotesQuery, bool) {
	q := r.URL.Query()
	query := &models.ListNotesQuery{
		Page:   1,
		Limit:  10,
		Search: q.Get("search"),
		Pinned: q.Get("pinned"),
		Tags:   q.Get("tags"),
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "page must be a number")
			return nil, false
		}
		query.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be a number")
			return nil, false
		}
		query.Limit = limit
	}

	if verr := validation.ValidateStruct(query); verr != nil {
		respondValidation(w, verr)
		return nil, false
	}
	return query, true
}

// handleNoteStats aggregates the caller's notes.
func (s *Server) handleNoteStats(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	stats, err := s.notes.Stats(r.Context(), user.ID)
	if err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("notes: stats failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, "", stats)
}

// handleGetNote returns one owned note.
func (s *Server) handleGetNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	note, ok := s.lookupNote(w, r, user.ID)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, "", note)
}

// handleCreateNote creates a note for the caller.
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req models.CreateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note := &models.Note{
		UserID:   user.ID,
		Title:    strings.TrimSpace(req.Title),
		Content:  req.Content,
		Tags:     normalizeTags(req.Tags),
		IsPinned: req.IsPinned,
		Color:    req.Color,
	}

	if err := s.notes.Create(r.Context(), note); err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("notes: create failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusCreated, "Note created", note)
}

// handleUpdateNote applies a partial update to one owned note.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	note, ok := s.lookupNote(w, r, user.ID)
	if !ok {
		return
	}

	if req.Title != nil {
		note.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		note.Content = *req.Content
	}
	if req.Tags != nil {
		note.Tags = normalizeTags(*req.Tags)
	}
	if req.IsPinned != nil {
		note.IsPinned = *req.IsPinned
	}
	if req.Color != nil {
		note.Color = *req.Color
	}

	if err := s.notes.Update(r.Context(), note); err != nil {
		logging.Error().Err(err).Str("note_id", note.ID).Msg("notes: update failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, "Note updated", note)
}

// handleTogglePin flips the pin state of one owned note.
func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	note, ok := s.lookupNote(w, r, user.ID)
	if !ok {
		return
	}

	note.IsPinned = !note.IsPinned
	if err := s.notes.Update(r.Context(), note); err != nil {
		logging.Error().Err(err).Str("note_id", note.ID).Msg("notes: pin toggle failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	message := "Note pinned"
	if !note.IsPinned {
		message = "Note unpinned"
	}
	respondJSON(w, http.StatusOK, message, note)
}

// handleDeleteNote deletes one owned note.
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	noteID := chi.URLParam(r, "noteID")
	err := s.notes.Delete(r.Context(), user.ID, noteID)
	if errors.Is(err, store.ErrNoteNotFound) {
		respondError(w, http.StatusNotFound, "Note not found")
		return
	}
	if err != nil {
		logging.Error().Err(err).Str("note_id", noteID).Msg("notes: delete failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondJSON(w, http.StatusOK, "Note deleted", nil)
}

// handleBulkDelete deletes up to 50 owned notes, reporting how many actually
// existed. Foreign or unknown ids are skipped, never an error.
func (s *Server) handleBulkDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := requestUser(w, r)
	if !ok {
		return
	}

	var req models.BulkDeleteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := s.notes.DeleteMany(r.Context(), user.ID, req.NoteIDs)
	if err != nil {
		logging.Error().Err(err).Str("user_id", user.ID).Msg("notes: bulk delete failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondJSON(w, http.StatusOK, fmt.Sprintf("%d notes deleted", deleted),
		map[string]int{"deletedCount": deleted})
}

// lookupNote fetches an owned note by the noteID route param, writing the
// 404 itself. A foreign note id looks identical to a missing one.
func (s *Server) lookupNote(w http.ResponseWriter, r *http.Request, userID string) (*models.Note, bool) {
	noteID := chi.URLParam(r, "noteID")
	note, err := s.notes.Get(r.Context(), userID, noteID)
	if errors.Is(err, store.ErrNoteNotFound) {
		respondError(w, http.StatusNotFound, "Note not found")
		return nil, false
	}
	if err != nil {
		logging.Error().Err(err).Str("note_id", noteID).Msg("notes: get failed")
		respondError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return note, true
}

// normalizeTags trims and deduplicates tags, preserving order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
