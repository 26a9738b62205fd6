// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"time"
)

// Recommended lockout settings for WithLockout(DefaultLockoutPolicy()).
const (
	DefaultLockoutThreshold = 7
	DefaultLockoutDuration  = 15 * time.Minute
)

// LockoutPolicy decides when repeated password failures lock an account.
// The zero value disables lockout and is what Config uses unless
// WithLockout is given.
type LockoutPolicy struct {
	Threshold int
	Duration  time.Duration
}

// DefaultLockoutPolicy returns the recommended policy for deployments that
// opt in to lockout.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{Threshold: DefaultLockoutThreshold, Duration: DefaultLockoutDuration}
}

// Enabled reports whether the policy ever locks an account.
func (p LockoutPolicy) Enabled() bool {
	return p.Threshold > 0
}

// Until returns the lockout deadline after the given number of consecutive
// failures, or nil when the account stays unlocked.
func (p LockoutPolicy) Until(failures int, now time.Time) *time.Time {
	if !p.Enabled() || failures < p.Threshold {
		return nil
	}
	until := now.Add(p.Duration)
	return &until
}

// IsLockedOut returns true if the lockout time is after now.
func IsLockedOut(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}
