package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsServiceCounters(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordEnrollment("created", 2)
	m.RecordEnrollment("conflict", 1)
	m.RecordEnrollment("ignored", 0)
	m.RecordClientResolution(true)

	assert.Equal(t, 0.5, testutil.ToFloat64(m.cacheHitRatio))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.enrollments.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.enrollments.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.clients.WithLabelValues("true")))
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveHTTPRequest("GET", "/", 200, time.Millisecond)
	m.RecordCacheOperation(true, 0)
	m.ObserveReport(3)
	m.RecordEnrollment("created", 1)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
