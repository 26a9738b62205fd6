// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Field names used as keys in ValidationErrors.
const (
	FieldPassword             = "password"
	FieldPasswordConfirmation = "password_confirmation"
	FieldBase                 = "base"
)

// Validation messages.
const (
	MsgRequired      = "is required"
	MsgTooShort      = "is too short (minimum is 4 characters)"
	MsgMismatch      = "doesn't match password"
	MsgInvalidEmail  = "is not a valid email address"
	MsgTaken         = "has already been taken"
	MsgNoIdentifiers = "at least one identifier is required"
)

// ValidationErrors accumulates field-scoped validation messages.
// A nil or empty ValidationErrors means the record is valid.
type ValidationErrors map[string][]string

// Add appends a message for field.
func (v ValidationErrors) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// On returns the messages recorded for field.
func (v ValidationErrors) On(field string) []string {
	return v[field]
}

// Empty reports whether no messages were recorded.
func (v ValidationErrors) Empty() bool {
	return len(v) == 0
}

// Error renders all messages as "field msg" pairs sorted by field.
func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		for _, msg := range v[f] {
			parts = append(parts, f+" "+msg)
		}
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors extracts ValidationErrors from an error chain.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return verrs, true
	}
	return nil, false
}

// DuplicateIdentifierError is returned by repositories when a create or
// update collides with another account's identifier.
type DuplicateIdentifierError struct {
	Field string
}

func (e *DuplicateIdentifierError) Error() string {
	return "duplicate " + e.Field
}
