// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/simpleauth/internal/auth"
)

// Metrics holds the simpleauth Prometheus collectors. It implements
// auth.Recorder, so it can be handed to auth.WithRecorder directly.
type Metrics struct {
	AuthenticationsTotal *prometheus.CounterVec
	SessionsTotal        *prometheus.CounterVec
	SessionsSwept        prometheus.Counter
}

var _ auth.Recorder = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AuthenticationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleauth_authentications_total",
				Help: "Authentication attempts by result",
			},
			[]string{"result"},
		),
		SessionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "simpleauth_sessions_total",
				Help: "Session lifecycle events by kind",
			},
			[]string{"event"},
		),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simpleauth_sessions_swept_total",
			Help: "Expired sessions removed by the sweeper",
		}),
	}

	reg.MustRegister(m.AuthenticationsTotal, m.SessionsTotal, m.SessionsSwept)

	// Pre-create the known label values so dashboards see zeros.
	for _, r := range []string{
		auth.ResultSuccess, auth.ResultUnknown, auth.ResultWrongPassword, auth.ResultLocked, auth.ResultError,
	} {
		m.AuthenticationsTotal.WithLabelValues(r)
	}
	for _, e := range []string{
		auth.SessionCreated, auth.SessionDestroyed, auth.SessionInvalidated, auth.SessionExpired,
	} {
		m.SessionsTotal.WithLabelValues(e)
	}

	return m
}

// RecordAuthentication counts one authentication attempt.
func (m *Metrics) RecordAuthentication(result string) {
	m.AuthenticationsTotal.WithLabelValues(result).Inc()
}

// RecordSession counts one session lifecycle event.
func (m *Metrics) RecordSession(event string) {
	m.SessionsTotal.WithLabelValues(event).Inc()
}

// RecordSweep adds the number of sessions one sweep removed.
func (m *Metrics) RecordSweep(removed int64) {
	if removed > 0 {
		m.SessionsSwept.Add(float64(removed))
	}
}
