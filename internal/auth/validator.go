// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"errors"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinPasswordLength is the minimum raw password length in characters.
const MinPasswordLength = 4

// CredentialValidator enforces the password policy and identifier rules
// that must hold before an account is persisted.
type CredentialValidator struct {
	structs *validator.Validate
}

// NewCredentialValidator creates a CredentialValidator.
func NewCredentialValidator() *CredentialValidator {
	return &CredentialValidator{structs: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks a record and returns every violation found. The result
// is empty when the record may be saved.
//
// Existing records with no password assignment keep their current hash and
// skip the password rules entirely.
func (v *CredentialValidator) Validate(a Authenticatable) ValidationErrors {
	errs := ValidationErrors{}
	v.validatePassword(a, errs)
	if acct, ok := a.(*Account); ok {
		v.validateIdentifiers(acct, errs)
	}
	return errs
}

func (v *CredentialValidator) validatePassword(a Authenticatable, errs ValidationErrors) {
	in := a.Password()
	if !a.IsNew() && !in.Assigned() {
		return
	}

	raw := in.Raw()
	if raw == "" {
		errs.Add(FieldPassword, MsgRequired)
	} else if utf8.RuneCountInString(raw) < MinPasswordLength {
		errs.Add(FieldPassword, MsgTooShort)
	}

	confirmation, _ := in.Confirmation()
	switch {
	case confirmation == "":
		errs.Add(FieldPasswordConfirmation, MsgRequired)
	case raw != "" && confirmation != raw:
		errs.Add(FieldPasswordConfirmation, MsgMismatch)
	}
}

func (v *CredentialValidator) validateIdentifiers(a *Account, errs ValidationErrors) {
	present := false
	for _, f := range IdentifierFields {
		if val, _ := a.Identifier(f); val != "" {
			present = true
			break
		}
	}
	if !present {
		errs.Add(FieldBase, MsgNoIdentifiers)
	}

	err := v.structs.Struct(a)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "email" {
			errs.Add(IdentifierEmail, MsgInvalidEmail)
		}
	}
}
