// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

// PasswordInput holds the transient raw password and confirmation of an
// account between assignment and the next successful save.
type PasswordInput struct {
	raw          *string
	confirmation *string
	assigned     bool
}

// SetPassword assigns the raw password. Assigning an empty string still
// counts as an assignment.
func (p *PasswordInput) SetPassword(raw string) {
	p.raw = &raw
	p.assigned = true
}

// SetConfirmation assigns the confirmation.
func (p *PasswordInput) SetConfirmation(confirmation string) {
	p.confirmation = &confirmation
}

// ClearConfirmation resets the confirmation to nil.
func (p *PasswordInput) ClearConfirmation() {
	p.confirmation = nil
}

// Raw returns the raw password, or "" when absent.
func (p *PasswordInput) Raw() string {
	if p.raw == nil {
		return ""
	}
	return *p.raw
}

// Confirmation returns the confirmation and whether it was set at all.
func (p *PasswordInput) Confirmation() (string, bool) {
	if p.confirmation == nil {
		return "", false
	}
	return *p.confirmation, true
}

// Assigned reports whether SetPassword was called since the last reset.
func (p *PasswordInput) Assigned() bool {
	return p.assigned
}

// Changed reports whether a non-empty raw password is pending.
func (p *PasswordInput) Changed() bool {
	return p.Raw() != ""
}

// Reset zeroes both fields.
func (p *PasswordInput) Reset() {
	*p = PasswordInput{}
}
