package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idelchi/qtdfp/internal/metrics"
)

func TestRecordOperation(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry()

	reg.RecordOperation("encrypt", metrics.StatusOK, time.Millisecond, 11)
	reg.RecordOperation("encrypt", metrics.StatusOK, time.Millisecond, 5)
	reg.RecordOperation("encrypt", metrics.StatusError, time.Millisecond, 99)

	assert.InDelta(t, 2, testutil.ToFloat64(reg.OperationsTotal.WithLabelValues("encrypt", metrics.StatusOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(reg.OperationsTotal.WithLabelValues("encrypt", metrics.StatusError)), 0)
	assert.InDelta(t, 16, testutil.ToFloat64(reg.OperationBytes.WithLabelValues("encrypt")), 0)
}

func TestNilRegistry(t *testing.T) {
	t.Parallel()

	var reg *metrics.Registry

	assert.NotPanics(t, func() {
		reg.RecordOperation("decrypt", metrics.StatusOK, time.Second, 1)
		reg.RecordHTTPRequest("GET", "/", "200", time.Second)
		reg.SetStoredFiles(3)
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()

	reg := metrics.NewRegistry()
	reg.SetStoredFiles(4)
	reg.RecordHTTPRequest(http.MethodGet, "/api/files", "200", time.Millisecond)

	rec := httptest.NewRecorder()
	reg.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "qtdfp_stored_files 4")
	assert.Contains(t, rec.Body.String(), `qtdfp_http_requests_total{method="GET",route="/api/files",status="200"} 1`)
}
