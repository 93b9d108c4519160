// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/cyberguard-ng/cyberguard/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordHTTPRequest(t *testing.T) {
	metrics.HTTPRequestsTotal.Reset()
	metrics.HTTPRequestDuration.Reset()

	metrics.RecordHTTPRequest("POST", "/api/check-sms", "200", 0.012)
	metrics.RecordHTTPRequest("POST", "/api/check-sms", "200", 0.020)

	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("POST", "/api/check-sms", "200")), 0)
}

func TestRecordCheck(t *testing.T) {
	metrics.ChecksTotal.Reset()
	metrics.ChecksRejectedTotal.Reset()

	metrics.RecordCheck("sms", "scam")
	metrics.RecordCheck("sms", "scam")
	metrics.RecordCheck("ussd", "safe")
	metrics.RecordCheckRejected("url", "limit_reached")

	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.ChecksTotal.WithLabelValues("sms", "scam")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ChecksTotal.WithLabelValues("ussd", "safe")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ChecksRejectedTotal.WithLabelValues("url", "limit_reached")), 0)
}

func TestRecordEvents(t *testing.T) {
	metrics.AuthEventsTotal.Reset()
	metrics.PaymentsTotal.Reset()

	metrics.RecordAuthEvent("login_success")
	metrics.RecordPayment("verified", "weekly")

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.AuthEventsTotal.WithLabelValues("login_success")), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PaymentsTotal.WithLabelValues("verified", "weekly")), 0)
}

func TestHandler(t *testing.T) {
	metrics.RecordCheck("url", "warning")

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cyberguard_checks_total")
}
