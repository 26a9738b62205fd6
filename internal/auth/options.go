// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/holomush/simpleauth/internal/auth"

// serviceOptions carries the ambient collaborators shared by all services.
type serviceOptions struct {
	logger   *slog.Logger
	recorder Recorder
	tracer   trace.Tracer
	now      func() time.Time

	authorizer Authorizer
}

// Option configures a service.
type Option func(*serviceOptions)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder sets the event recorder.
func WithRecorder(r Recorder) Option {
	return func(o *serviceOptions) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *serviceOptions) {
		if tp != nil {
			o.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithClock overrides the time source. Useful for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// WithAuthorizer sets the default authorization hook used by a Manager.
func WithAuthorizer(fn Authorizer) Option {
	return func(o *serviceOptions) {
		o.authorizer = fn
	}
}

func buildOptions(opts []Option) serviceOptions {
	o := serviceOptions{
		logger:   slog.Default(),
		recorder: nopRecorder{},
		tracer:   otel.Tracer(tracerName),
		now:      time.Now,

		authorizer: AllowAll,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
