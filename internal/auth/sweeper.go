// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"context"
	"sync"
	"time"

	"github.com/samber/oops"
)

// ExpiredSessionPurger is the part of SessionRepository a Sweeper needs.
type ExpiredSessionPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepRecorder is implemented by recorders that also count swept sessions.
type SweepRecorder interface {
	RecordSweep(removed int64)
}

// Sweeper periodically removes expired sessions. Expired sessions are
// already rejected by Guard.Find; sweeping only reclaims storage.
type Sweeper struct {
	sessions ExpiredSessionPurger
	interval time.Duration
	opts     serviceOptions

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper creates a Sweeper that runs every interval.
func NewSweeper(sessions ExpiredSessionPurger, interval time.Duration, opts ...Option) (*Sweeper, error) {
	if sessions == nil {
		return nil, oops.Code("AUTH_INVALID_DEPENDENCY").Errorf("sessions repository is required")
	}
	if interval <= 0 {
		return nil, oops.Code("CONFIG_INVALID").
			With("interval", interval.String()).
			Errorf("sweep interval must be positive")
	}
	return &Sweeper{
		sessions: sessions,
		interval: interval,
		opts:     buildOptions(opts),
	}, nil
}

// RunOnce deletes every session expired at the current time.
func (s *Sweeper) RunOnce(ctx context.Context) (int64, error) {
	removed, err := s.sessions.DeleteExpired(ctx, s.opts.now())
	if err != nil {
		return 0, oops.Code("SESSION_SWEEP_FAILED").With("operation", "delete expired").Wrap(err)
	}
	if r, ok := s.opts.recorder.(SweepRecorder); ok {
		r.RecordSweep(removed)
	}
	if removed > 0 {
		s.opts.logger.InfoContext(ctx, "swept expired sessions", "count", removed)
	}
	return removed, nil
}

// Start runs a sweep immediately and then every interval until Stop or
// until ctx is cancelled. Calling Start on a running Sweeper is a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop cancels the sweeper and waits for the running cycle to finish.
// The Sweeper may be started again afterwards.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.wg.Wait()
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Sweeper) cycle(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.opts.logger.ErrorContext(ctx, "session sweep failed", "error", err)
	}
}
