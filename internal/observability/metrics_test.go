// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package observability_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/holomush/simpleauth/internal/auth"
	"github.com/holomush/simpleauth/internal/observability"
)

func TestMetrics_RecordAuthentication(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	m.RecordAuthentication(auth.ResultSuccess)
	m.RecordAuthentication(auth.ResultWrongPassword)
	m.RecordAuthentication(auth.ResultWrongPassword)

	assert.InDelta(t, 1, testutil.ToFloat64(m.AuthenticationsTotal.WithLabelValues(auth.ResultSuccess)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.AuthenticationsTotal.WithLabelValues(auth.ResultWrongPassword)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.AuthenticationsTotal.WithLabelValues(auth.ResultLocked)), 0)
}

func TestMetrics_RecordSession(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	m.RecordSession(auth.SessionCreated)
	m.RecordSession(auth.SessionExpired)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsTotal.WithLabelValues(auth.SessionCreated)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsTotal.WithLabelValues(auth.SessionExpired)), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.SessionsTotal.WithLabelValues(auth.SessionDestroyed)), 0)
}

func TestMetrics_RecordSweep(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	m.RecordSweep(3)
	m.RecordSweep(0)

	assert.InDelta(t, 3, testutil.ToFloat64(m.SessionsSwept), 0)
}

func TestMetrics_KnownLabelsPreCreated(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	assert.Equal(t, 5, testutil.CollectAndCount(m.AuthenticationsTotal))
	assert.Equal(t, 4, testutil.CollectAndCount(m.SessionsTotal))
}

func TestMetrics_AsRecorder(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	var r auth.Recorder = m
	r.RecordSession(auth.SessionInvalidated)

	assert.InDelta(t, 1, testutil.ToFloat64(m.SessionsTotal.WithLabelValues(auth.SessionInvalidated)), 0)
}
