// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

package validation

import (
	"strings"
	"testing"

	"github.com/jotstack/jotstack/internal/models"
)

func TestValidateRegisterRequest(t *testing.T) {
	tests := []struct {
		name      string
		req       models.RegisterRequest
		wantValid bool
		wantField string
	}{
		{
			name:      "valid",
			req:       models.RegisterRequest{Name: "Alice Smith", Email: "alice@example.com", DateOfBirth: "1990-04-12"},
			wantValid: true,
		},
		{
			name:      "valid without dob",
			req:       models.RegisterRequest{Name: "Bob", Email: "bob@example.com"},
			wantValid: true,
		},
		{
			name:      "missing name",
			req:       models.RegisterRequest{Email: "a@b.c"},
			wantField: "name",
		},
		{
			name:      "name too short",
			req:       models.RegisterRequest{Name: "A", Email: "a@b.c"},
			wantField: "name",
		},
		{
			name:      "name with digits",
			req:       models.RegisterRequest{Name: "Alice99", Email: "a@b.c"},
			wantField: "name",
		},
		{
			name:      "name too long",
			req:       models.RegisterRequest{Name: strings.Repeat("a", 51), Email: "a@b.c"},
			wantField: "name",
		},
		{
			name:      "bad email",
			req:       models.RegisterRequest{Name: "Alice", Email: "not-an-email"},
			wantField: "email",
		},
		{
			name:      "bad dob format",
			req:       models.RegisterRequest{Name: "Alice", Email: "a@b.c", DateOfBirth: "12/04/1990"},
			wantField: "dateOfBirth",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if tt.wantValid {
				if verr != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", verr)
				}
				return
			}
			if verr == nil {
				t.Fatal("ValidateStruct() = nil, want error")
			}
			found := false
			for _, fe := range verr.FieldErrors() {
				if fe.Field == tt.wantField {
					found = true
				}
				if fe.Message == "" {
					t.Errorf("field %q has empty message", fe.Field)
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.wantField, verr.FieldErrors())
			}
		})
	}
}

func TestValidateOTPRequest(t *testing.T) {
	tests := []struct {
		name      string
		otp       string
		wantValid bool
	}{
		{name: "valid", otp: "123456", wantValid: true},
		{name: "too short", otp: "12345"},
		{name: "too long", otp: "1234567"},
		{name: "letters", otp: "12a456"},
		{name: "empty", otp: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.VerifyOTPRequest{Email: "a@b.c", OTP: tt.otp}
			verr := ValidateStruct(&req)
			if (verr == nil) != tt.wantValid {
				t.Errorf("ValidateStruct() = %v, wantValid %v", verr, tt.wantValid)
			}
		})
	}
}

func TestValidateCreateNoteRequest(t *testing.T) {
	manyTags := make([]string, 11)
	for i := range manyTags {
		manyTags[i] = "t"
	}

	tests := []struct {
		name      string
		req       models.CreateNoteRequest
		wantValid bool
	}{
		{name: "valid", req: models.CreateNoteRequest{Title: "t", Content: "c"}, wantValid: true},
		{name: "with tags and color", req: models.CreateNoteRequest{Title: "t", Content: "c", Tags: []string{"a", "b"}, Color: "#ffcc00"}, wantValid: true},
		{name: "missing title", req: models.CreateNoteRequest{Content: "c"}},
		{name: "missing content", req: models.CreateNoteRequest{Title: "t"}},
		{name: "title too long", req: models.CreateNoteRequest{Title: strings.Repeat("x", 101), Content: "c"}},
		{name: "content too long", req: models.CreateNoteRequest{Title: "t", Content: strings.Repeat("x", 5001)}},
		{name: "too many tags", req: models.CreateNoteRequest{Title: "t", Content: "c", Tags: manyTags}},
		{name: "tag too long", req: models.CreateNoteRequest{Title: "t", Content: "c", Tags: []string{strings.Repeat("x", 21)}}},
		{name: "bad color", req: models.CreateNoteRequest{Title: "t", Content: "c", Color: "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.req)
			if (verr == nil) != tt.wantValid {
				t.Errorf("ValidateStruct() = %v, wantValid %v", verr, tt.wantValid)
			}
		})
	}
}

func TestValidateBulkDeleteRequest(t *testing.T) {
	valid := "6ba7b810-9dad-41d1-80b4-00c04fd430c8"
	tooMany := make([]string, 51)
	for i := range tooMany {
		tooMany[i] = valid
	}

	tests := []struct {
		name      string
		ids       []string
		wantValid bool
	}{
		{name: "valid", ids: []string{valid}, wantValid: true},
		{name: "empty", ids: []string{}},
		{name: "nil", ids: nil},
		{name: "over limit", ids: tooMany},
		{name: "not a uuid", ids: []string{"abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := models.BulkDeleteRequest{NoteIDs: tt.ids}
			verr := ValidateStruct(&req)
			if (verr == nil) != tt.wantValid {
				t.Errorf("ValidateStruct() = %v, wantValid %v", verr, tt.wantValid)
			}
		})
	}
}

func TestValidateListNotesQuery(t *testing.T) {
	tests := []struct {
		name      string
		query     models.ListNotesQuery
		wantValid bool
	}{
		{name: "defaults", query: models.ListNotesQuery{Page: 1, Limit: 10}, wantValid: true},
		{name: "full", query: models.ListNotesQuery{Page: 2, Limit: 100, Search: "x", Pinned: "true", Tags: "a,b"}, wantValid: true},
		{name: "zero page", query: models.ListNotesQuery{Page: 0, Limit: 10}},
		{name: "limit over cap", query: models.ListNotesQuery{Page: 1, Limit: 101}},
		{name: "bad pinned", query: models.ListNotesQuery{Page: 1, Limit: 10, Pinned: "yes"}},
		{name: "empty tag entry", query: models.ListNotesQuery{Page: 1, Limit: 10, Tags: "a,,b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(&tt.query)
			if (verr == nil) != tt.wantValid {
				t.Errorf("ValidateStruct() = %v, wantValid %v", verr, tt.wantValid)
			}
		})
	}
}

func TestFieldErrorsUseJSONNames(t *testing.T) {
	req := models.RegisterRequest{}
	verr := ValidateStruct(&req)
	if verr == nil {
		t.Fatal("expected validation failure")
	}
	for _, fe := range verr.FieldErrors() {
		if fe.Field[0] >= 'A' && fe.Field[0] <= 'Z' {
			t.Errorf("field %q not lowercased for JSON", fe.Field)
		}
	}
}
