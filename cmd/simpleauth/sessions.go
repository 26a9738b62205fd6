// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/holomush/simpleauth/internal/auth"
	"github.com/holomush/simpleauth/internal/observability"
	"github.com/holomush/simpleauth/pkg/errutil"
)

// shutdownTimeout bounds the metrics server shutdown after a sweep ends.
const shutdownTimeout = 5 * time.Second

// NewSessionsCmd creates the sessions command group.
func NewSessionsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Maintain stored sessions",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "prune",
			Short: "Delete expired sessions once",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSessionsPrune(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "sweep",
			Short: "Delete expired sessions periodically, serving metrics and health probes",
			Long: `Run until interrupted, deleting expired sessions every --sweep-interval.
Metrics and health probes are served on --metrics-addr.`,
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runSessionsSweep(cmd, opts)
			},
		},
	)
	return cmd
}

func runSessionsPrune(cmd *cobra.Command, opts *rootOptions) error {
	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	sweeper, err := auth.NewSweeper(a.backend.Sessions, a.cfg.Sweep.Interval, auth.WithLogger(a.logger))
	if err != nil {
		return err
	}
	removed, err := sweeper.RunOnce(cmd.Context())
	if err != nil {
		return err
	}
	cmd.Printf("removed %d expired sessions\n", removed)
	return nil
}

func runSessionsSweep(cmd *cobra.Command, opts *rootOptions) error {
	a, err := opts.open(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	server := observability.NewServer(a.cfg.Metrics.Addr, a.logger, a.backend.Ready)
	errCh, err := server.Start()
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(cmd.Context()), shutdownTimeout)
		defer cancel()
		if stopErr := server.Stop(ctx); stopErr != nil {
			errutil.LogWarn(a.logger, "failed to stop observability server", stopErr)
		}
	}()

	sweeper, err := auth.NewSweeper(a.backend.Sessions, a.cfg.Sweep.Interval,
		auth.WithLogger(a.logger),
		auth.WithRecorder(server.Metrics()),
	)
	if err != nil {
		return err
	}

	sweeper.Start(cmd.Context())
	defer sweeper.Stop()
	a.logger.Info("session sweeper started",
		"interval", a.cfg.Sweep.Interval.String(),
		"metrics_addr", server.Addr())

	select {
	case <-cmd.Context().Done():
		a.logger.Info("session sweeper stopping")
		return nil
	case serveErr, ok := <-errCh:
		if !ok {
			return nil
		}
		return serveErr
	}
}
