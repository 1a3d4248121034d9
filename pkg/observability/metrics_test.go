package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersEverything(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.SignInsTotal.WithLabelValues("google", "success").Inc()
	metrics.TokenValidations.WithLabelValues("valid").Inc()
	metrics.SessionsIssuedTotal.Inc()
	metrics.OrgSwitchesTotal.WithLabelValues("success").Inc()
	metrics.OrgsCreatedTotal.Inc()
	metrics.MembershipChanges.WithLabelValues("remove").Inc()
	metrics.CacheHitsTotal.WithLabelValues("snapshot").Inc()
	metrics.StreamSubscribers.Set(3)

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, expected := range []string{
		"entityauth_sign_ins_total",
		"entityauth_token_validations_total",
		"entityauth_sessions_issued_total",
		"entityauth_org_switches_total",
		"entityauth_orgs_created_total",
		"entityauth_membership_changes_total",
		"entityauth_cache_hits_total",
		"entityauth_stream_subscribers",
	} {
		assert.True(t, names[expected], "metric %s not registered", expected)
	}
}

func TestSignInCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	metrics.SignInsTotal.WithLabelValues("google", "success").Inc()
	metrics.SignInsTotal.WithLabelValues("google", "success").Inc()
	metrics.SignInsTotal.WithLabelValues("okta", "failure").Inc()

	expected := `
# HELP entityauth_sign_ins_total Total number of SSO sign-in attempts
# TYPE entityauth_sign_ins_total counter
entityauth_sign_ins_total{provider="google",status="success"} 2
entityauth_sign_ins_total{provider="okta",status="failure"} 1
`
	require.NoError(t, testutil.CollectAndCompare(metrics.SignInsTotal,
		strings.NewReader(expected), "entityauth_sign_ins_total"))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)

	handler := HTTPMetricsMiddleware(metrics)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/session", nil))

	count := testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues("GET", "/v1/session", "418"))
	assert.Equal(t, float64(1), count)
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewMetrics(registry)
	metrics.SessionsIssuedTotal.Inc()

	rec := httptest.NewRecorder()
	MetricsHandler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "entityauth_sessions_issued_total 1")
}
