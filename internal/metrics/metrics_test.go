package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jrsteele09/go-social-connect/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAndExpose(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)

	m.FlowOutcome("callback", "twitter", "success")
	m.FlowOutcome("callback", "twitter", "success")
	m.ObserveProviderCall("twitter", "exchange", errors.New("boom"), 20*time.Millisecond)
	m.SetBreakerOpen("twitter", true)
	m.ObserveHTTP(http.MethodGet, "/api/auth/oauth/status", "200", time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)
	var flowSeries int
	for _, f := range families {
		if f.GetName() == "social_connect_oauth_flow_total" {
			flowSeries = len(f.GetMetric())
		}
	}
	require.Equal(t, 1, flowSeries)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `social_connect_oauth_flow_total{operation="callback",outcome="success",platform="twitter"} 2`)
	require.Contains(t, string(body), `social_connect_provider_breaker_open{platform="twitter"} 1`)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.FlowOutcome("initiate", "facebook", "success")
	m.ObserveProviderCall("facebook", "profile", nil, time.Second)
	m.SetBreakerOpen("facebook", false)
	m.ObserveHTTP("GET", "/", "200", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
