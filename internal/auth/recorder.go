// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

// Authentication outcomes reported to a Recorder.
const (
	ResultSuccess       = "success"
	ResultUnknown       = "unknown_identifier"
	ResultWrongPassword = "wrong_password"
	ResultLocked        = "locked"
	ResultError         = "error"
)

// Session lifecycle events reported to a Recorder.
const (
	SessionCreated     = "created"
	SessionDestroyed   = "destroyed"
	SessionInvalidated = "invalidated"
	SessionExpired     = "expired"
)

// Recorder receives authentication and session events, typically to feed
// metrics. Outcomes are recorded in detail here even though callers of
// Authenticate never see them.
type Recorder interface {
	RecordAuthentication(result string)
	RecordSession(event string)
}

type nopRecorder struct{}

func (nopRecorder) RecordAuthentication(string) {}
func (nopRecorder) RecordSession(string)        {}
