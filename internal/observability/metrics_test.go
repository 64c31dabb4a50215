package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/attendance-service/internal/domain"
)

func TestMetricsCounters(t *testing.T) {
	m := NewMetrics()

	m.RecordAuth(domain.RoleEmployee, "stale_session")
	m.RecordAuth(domain.RoleEmployee, "stale_session")
	m.RecordRateLimited("/api/admin/login")
	m.RecordRequest("/api/admin/login", http.MethodPost, 429, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.authResolutions.WithLabelValues("EMPLOYEE", "stale_session")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/api/admin/login")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodPost, "/api/admin/login", "429")))
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordAuth(domain.RoleAdmin, "ok")
		m.RecordRateLimited("/x")
		m.RecordRequest("/x", http.MethodGet, 200, time.Millisecond)
		m.RecordError("/x", http.MethodGet, "INTERNAL_ERROR")
		m.RequestStarted()()
	})
}

func TestMetricsHandlerExposesAuthCounter(t *testing.T) {
	m := NewMetrics()
	m.RecordAuth(domain.RoleAdmin, "ok")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `auth_resolutions_total{outcome="ok",role="ADMIN"} 1`))
}
