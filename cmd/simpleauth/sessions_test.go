// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/simpleauth/internal/auth"
)

func TestSessionsPrune(t *testing.T) {
	cleanEnv(t)
	b := newMemoryBackend()
	now := time.Now()

	for _, expires := range []time.Time{now.Add(-time.Minute), now.Add(-time.Hour), now.Add(time.Hour)} {
		_, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		s, err := auth.NewSession(ulid.Make(), hash, expires.Add(-24*time.Hour), expires)
		require.NoError(t, err)
		require.NoError(t, b.sessions.Create(context.Background(), s))
	}

	res, err := execute(t, b.deps(), "", "sessions", "prune")
	require.NoError(t, err)
	assert.Equal(t, "removed 2 expired sessions\n", res.out)
	assert.Equal(t, 1, b.sessions.Len())
	assert.Equal(t, 1, b.closed)
}

func TestSessionsSweep_StopsOnCancel(t *testing.T) {
	cleanEnv(t)
	b := newMemoryBackend()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := newRootCmd(b.deps())
	cmd.SetArgs([]string{"sessions", "sweep", "--metrics-addr", "127.0.0.1:0", "--sweep-interval", "1h"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("sweep did not stop after cancellation")
	}
	assert.Equal(t, 1, b.closed)
}
