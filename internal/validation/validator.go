// Jotstack - Self-hosted Notes with Passwordless Authentication
// Copyright 2026 Jotstack Contributors
// SPDX-License-Identifier: MIT
// https://github.com/jotstack/jotstack

// Package validation provides struct validation using go-playground/validator
// v10. It exposes a thread-safe singleton validator with custom validators for
// application-specific rules, and translates failures to the structured
// field-level errors the API envelope carries.
//
// Example:
//
//	var req models.RegisterRequest
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    respondValidationError(w, verr.FieldErrors())
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/jotstack/jotstack/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// nameRe accepts letters and spaces only, matching the registration rule the
// frontend mirrors.
var nameRe = regexp.MustCompile(`^[a-zA-Z\s]+$`)

// RequestValidationError is a collection of field-level validation failures.
type RequestValidationError struct {
	errors []models.FieldError
}

// FieldErrors returns the structured field errors for the API envelope.
func (ve *RequestValidationError) FieldErrors() []models.FieldError {
	return ve.errors
}

// Error implements the error interface with a combined message.
func (ve *RequestValidationError) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(ve.errors))
	for i, fe := range ve.errors {
		msgs[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return strings.Join(msgs, "; ")
}

// GetValidator returns the singleton validator instance. Thread-safe; the
// validator caches struct metadata internally.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// alphaspace: letters and spaces only (user display names).
		_ = validate.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
			return nameRe.MatchString(fl.Field().String())
		})

		// taglist: comma-separated tag filter, <=10 entries, each 1-20 chars.
		_ = validate.RegisterValidation("taglist", func(fl validator.FieldLevel) bool {
			parts := strings.Split(fl.Field().String(), ",")
			if len(parts) > models.NoteMaxTags {
				return false
			}
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p == "" || len(p) > models.NoteTagMaxLen {
					return false
				}
			}
			return true
		})
	})

	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil when validation passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &RequestValidationError{
			errors: []models.FieldError{{Field: "unknown", Message: err.Error()}},
		}
	}

	fieldErrors := make([]models.FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrors[i] = models.FieldError{
			Field:   fieldName(fe),
			Message: translateError(fe),
		}
	}

	return &RequestValidationError{errors: fieldErrors}
}

// fieldName lowercases the first rune so errors reference JSON field names.
func fieldName(fe validator.FieldError) string {
	f := fe.Field()
	if f == "" {
		return f
	}
	return strings.ToLower(f[:1]) + f[1:]
}

// errorMessageTemplates maps validation tags to message templates.
var errorMessageTemplates = map[string]string{
	"required":   "%s is required",
	"email":      "%s must be a valid email address",
	"datetime":   "%s must be a valid date in YYYY-MM-DD format",
	"numeric":    "%s must contain only numbers",
	"hexcolor":   "%s must be a valid hex color code",
	"uuid4":      "%s must be a valid id",
	"alphaspace": "%s can only contain letters and spaces",
	"taglist":    "%s must list at most 10 tags of at most 20 characters each",
}

// errorMessageWithParam maps validation tags to templates using the param.
var errorMessageWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"len":   "%s must be exactly %s characters",
}

// translateError converts a validator.FieldError to a human-readable message.
func translateError(fe validator.FieldError) string {
	field := fieldName(fe)
	tag := fe.Tag()
	param := fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	return translateMinMax(fe, field, tag, param)
}

// translateMinMax handles min/max with type-specific messages.
func translateMinMax(fe validator.FieldError, field, tag, param string) string {
	switch tag {
	case "min":
		switch fe.Kind().String() {
		case "string":
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		case "slice":
			return fmt.Sprintf("%s must have at least %s items", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		switch fe.Kind().String() {
		case "string":
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		case "slice":
			return fmt.Sprintf("%s must have at most %s items", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
